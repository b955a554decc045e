package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/datatypes"

	"github.com/yungbote/curriculum-backend/internal/data/repos"
	types "github.com/yungbote/curriculum-backend/internal/domain"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/designparams"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/lessongen"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/structure"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/usage"
	"github.com/yungbote/curriculum-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/realtime"
	"github.com/yungbote/curriculum-backend/internal/realtime/bus"
)

// GenerateLessonRequest either names a stored lesson (LessonID) or carries the
// lesson metadata inline. Inline fields override stored ones when both are set.
type GenerateLessonRequest struct {
	LessonID uuid.UUID `json:"lessonId,omitempty"`

	ProgramTitle      string `json:"programTitle,omitempty"`
	CourseTitle       string `json:"courseTitle,omitempty"`
	TopicTitle        string `json:"topicTitle,omitempty"`
	LessonTitle       string `json:"lessonTitle,omitempty"`
	LessonDescription string `json:"lessonDescription,omitempty"`

	CourseContext        string `json:"courseContext,omitempty"`
	WebSearchContext     string `json:"webSearchContext,omitempty"`
	MustHave             string `json:"mustHave,omitempty"`
	DesignConsiderations string `json:"designConsiderations,omitempty"`

	VectorStoreIDs          []string                `json:"vectorStoreIds,omitempty"`
	DesignParameters        designparams.Parameters `json:"designParameters"`
	ProgramDesignParameters designparams.Parameters `json:"programDesignParameters"`

	Fallback bool `json:"fallback,omitempty"`
	Research bool `json:"research,omitempty"`
	// Force bypasses the result cache.
	Force bool `json:"force,omitempty"`
}

type LessonGenerationResult struct {
	LessonID      *uuid.UUID         `json:"lessonId,omitempty"`
	RunID         *uuid.UUID         `json:"runId,omitempty"`
	LessonTitle   string             `json:"lessonTitle"`
	Content       string             `json:"content"`
	TokenUsage    *usage.Session     `json:"tokenUsage"`
	Metadata      lessongen.Metadata `json:"metadata"`
	StatusChannel string             `json:"statusChannel"`
	Cached        bool               `json:"cached"`
}

// clone copies r so callers cannot reach cached state through the result.
func (r *LessonGenerationResult) clone() *LessonGenerationResult {
	out := *r
	out.TokenUsage = r.TokenUsage.Clone()
	out.Metadata.DynamicSubsections = copyStrings(r.Metadata.DynamicSubsections)
	out.Metadata.MissingSubsectionHeadings = copyStrings(r.Metadata.MissingSubsectionHeadings)
	if r.LessonID != nil {
		id := *r.LessonID
		out.LessonID = &id
	}
	if r.RunID != nil {
		id := *r.RunID
		out.RunID = &id
	}
	return &out
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

type LessonService interface {
	Generate(ctx context.Context, req GenerateLessonRequest) (*LessonGenerationResult, error)
}

// LessonGenerator is satisfied by *lessongen.Generator.
type LessonGenerator interface {
	Generate(ctx context.Context, in lessongen.Input, onStatus lessongen.StatusFunc) (*lessongen.Result, error)
	GenerateFallback(ctx context.Context, in lessongen.Input, onStatus lessongen.StatusFunc) (*lessongen.Result, error)
}

// LessonResearcher is satisfied by *lessongen.Researcher.
type LessonResearcher interface {
	Research(ctx context.Context, in lessongen.Input) lessongen.Outcome[string]
}

type lessonService struct {
	log       *logger.Logger
	gen       LessonGenerator
	research  LessonResearcher
	lessons   repos.LessonRepo
	runs      repos.GenerationRunRepo
	statusBus bus.Bus
	cache     *lru.Cache[string, *LessonGenerationResult]
	now       func() time.Time
}

// NewLessonService wires the pipeline. research, lessons, runs and statusBus
// are optional; without lessons only inline requests are accepted.
func NewLessonService(
	baseLog *logger.Logger,
	gen LessonGenerator,
	research LessonResearcher,
	lessons repos.LessonRepo,
	runs repos.GenerationRunRepo,
	statusBus bus.Bus,
	cacheSize int,
) (LessonService, error) {
	if gen == nil {
		return nil, fmt.Errorf("lesson generator required")
	}
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New[string, *LessonGenerationResult](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("lesson cache: %w", err)
	}
	return &lessonService{
		log:       baseLog.With("service", "LessonService"),
		gen:       gen,
		research:  research,
		lessons:   lessons,
		runs:      runs,
		statusBus: statusBus,
		cache:     cache,
		now:       time.Now,
	}, nil
}

func (s *lessonService) Generate(ctx context.Context, req GenerateLessonRequest) (*LessonGenerationResult, error) {
	const op = "LessonService.Generate"

	in, err := s.buildInput(ctx, req)
	if err != nil {
		return nil, err
	}
	mode := lessongen.ModeTwoStage
	if req.Fallback {
		mode = lessongen.ModeFallback
	}

	digest := requestDigest(mode, req.Research, in)
	channel := "lesson:" + digest[:16]
	if req.LessonID != uuid.Nil {
		channel = req.LessonID.String()
	}
	log := s.log.With("lesson", in.LessonTitle, "mode", string(mode), "digest", digest[:16])

	if !req.Force {
		if hit, ok := s.cache.Get(digest); ok {
			log.Debug("Lesson cache hit")
			out := hit.clone()
			out.Cached = true
			return out, nil
		}
	}

	if req.Research && strings.TrimSpace(in.WebSearchContext) == "" && s.research != nil {
		s.publish(ctx, channel, lessongen.StatusEvent{Phase: lessongen.PhaseResearching, LessonTitle: in.LessonTitle, At: s.now().UTC()})
		if out := s.research.Research(ctx, in); out.Status == lessongen.StatusOK {
			in.WebSearchContext = out.Value
		} else {
			log.Warn("Web research unavailable; continuing without it", "status", out.Status, "reason", out.Reason)
		}
	}

	stored := req.LessonID != uuid.Nil && s.lessons != nil
	if stored {
		if err := s.lessons.UpdateStatus(dbctx.New(ctx), req.LessonID, types.LessonStatusGenerating); err != nil {
			return nil, err
		}
	}

	onStatus := func(ctx context.Context, ev lessongen.StatusEvent) { s.publish(ctx, channel, ev) }
	started := s.now()
	var res *lessongen.Result
	if mode == lessongen.ModeFallback {
		res, err = s.gen.GenerateFallback(ctx, in, onStatus)
	} else {
		res, err = s.gen.Generate(ctx, in, onStatus)
	}
	elapsed := s.now().Sub(started)

	runID := s.recordRun(ctx, req.LessonID, mode, res, err, elapsed)
	if err != nil {
		if stored {
			// Written even when ctx is already done.
			if uerr := s.lessons.UpdateStatus(dbctx.New(context.WithoutCancel(ctx)), req.LessonID, types.LessonStatusFailed); uerr != nil {
				log.Warn("Failed to mark lesson failed", "error", uerr)
			}
		}
		return nil, err
	}

	if stored {
		meta, merr := json.Marshal(res.Metadata)
		if merr != nil {
			return nil, fmt.Errorf("%s: encode metadata: %w", op, merr)
		}
		if err := s.lessons.UpdateContent(dbctx.New(ctx), req.LessonID, res.Content, types.LessonStatusReady, datatypes.JSON(meta)); err != nil {
			return nil, err
		}
	}

	out := &LessonGenerationResult{
		LessonTitle:   in.LessonTitle,
		Content:       res.Content,
		TokenUsage:    res.TokenUsage,
		Metadata:      res.Metadata,
		StatusChannel: channel,
		RunID:         runID,
	}
	if req.LessonID != uuid.Nil {
		id := req.LessonID
		out.LessonID = &id
	}
	s.cache.Add(digest, out.clone())
	return out, nil
}

func (s *lessonService) buildInput(ctx context.Context, req GenerateLessonRequest) (lessongen.Input, error) {
	const op = "LessonService.Generate"
	in := lessongen.Input{}
	var courseParams, programParams designparams.Parameters

	if req.LessonID != uuid.Nil {
		if s.lessons == nil {
			return in, apperr.Invalid(op, "lessonId", "lesson store not configured")
		}
		lc, err := s.lessons.GetContext(dbctx.New(ctx), req.LessonID)
		if err != nil {
			return in, err
		}
		if lc == nil {
			return in, fmt.Errorf("lesson %s: %w", req.LessonID, apperr.ErrNotFound)
		}
		in = lessongen.Input{
			ProgramTitle:         lc.Program.Title,
			CourseTitle:          structure.StripCode(lc.Course.Title),
			TopicTitle:           structure.StripCode(lc.Topic.Title),
			LessonTitle:          structure.StripCode(lc.Lesson.Title),
			LessonDescription:    lc.Lesson.Description,
			CourseContext:        lc.Course.Context,
			MustHave:             lc.Lesson.MustHave,
			DesignConsiderations: lc.Lesson.DesignConsiderations,
			VectorStoreIDs:       decodeStrings(lc.Program.VectorStoreIDs),
		}
		courseParams = decodeParams(lc.Course.DesignParameters)
		programParams = decodeParams(lc.Program.DesignParameters)
	}

	override(&in.ProgramTitle, req.ProgramTitle)
	override(&in.CourseTitle, req.CourseTitle)
	override(&in.TopicTitle, req.TopicTitle)
	override(&in.LessonTitle, req.LessonTitle)
	override(&in.LessonDescription, req.LessonDescription)
	override(&in.CourseContext, req.CourseContext)
	override(&in.WebSearchContext, req.WebSearchContext)
	override(&in.MustHave, req.MustHave)
	override(&in.DesignConsiderations, req.DesignConsiderations)
	if len(req.VectorStoreIDs) > 0 {
		in.VectorStoreIDs = req.VectorStoreIDs
	}
	if req.DesignParameters != (designparams.Parameters{}) {
		courseParams = req.DesignParameters
	}
	if req.ProgramDesignParameters != (designparams.Parameters{}) {
		programParams = req.ProgramDesignParameters
	}
	if courseParams != (designparams.Parameters{}) || programParams != (designparams.Parameters{}) {
		in.Parameters = designparams.Resolve(courseParams, programParams)
	}

	if strings.TrimSpace(in.LessonTitle) == "" {
		return in, apperr.Invalid(op, "lessonTitle", "required")
	}
	return in, nil
}

func (s *lessonService) recordRun(ctx context.Context, lessonID uuid.UUID, mode lessongen.Mode, res *lessongen.Result, genErr error, elapsed time.Duration) *uuid.UUID {
	if s.runs == nil || lessonID == uuid.Nil {
		return nil
	}
	row := &types.LessonGenerationRun{
		LessonID:   lessonID,
		Mode:       string(mode),
		Status:     types.RunStatusSucceeded,
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  s.now().UTC(),
	}
	if genErr != nil {
		row.Status = types.RunStatusFailed
		row.Error = genErr.Error()
	}
	if res != nil {
		md := res.Metadata
		if md.RetrievalStatus == lessongen.StatusDegraded || md.PlannerStatus == lessongen.StatusDegraded {
			row.Status = types.RunStatusDegraded
		}
		row.UsedRAG = md.UsedRAG
		row.UsedWebSearch = md.UsedWebSearch
		if res.TokenUsage != nil {
			t := res.TokenUsage.Totals
			row.InputTokens, row.OutputTokens, row.TotalTokens = t.Input, t.Output, t.Total
			row.EstimatedCostUSD = t.EstimatedCostUSD
			if raw, err := json.Marshal(res.TokenUsage); err == nil {
				row.Usage = datatypes.JSON(raw)
			}
		}
	}
	if _, err := s.runs.Create(dbctx.New(context.WithoutCancel(ctx)), []*types.LessonGenerationRun{row}); err != nil {
		s.log.Warn("Failed to record generation run", "lesson_id", lessonID, "error", err)
		return nil
	}
	return &row.ID
}

func (s *lessonService) publish(ctx context.Context, channel string, ev lessongen.StatusEvent) {
	if s.statusBus == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	err := s.statusBus.Publish(pctx, realtime.StatusMessage{Channel: channel, Event: realtime.EventLessonStatus, Data: ev})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Debug("Status publish failed", "channel", channel, "error", err)
	}
}

func override(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func decodeParams(raw datatypes.JSON) designparams.Parameters {
	var m map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return designparams.Parameters{}
	}
	return designparams.FromMap(m)
}

func decodeStrings(raw datatypes.JSON) []string {
	var out []string
	if len(raw) == 0 || json.Unmarshal(raw, &out) != nil {
		return nil
	}
	return out
}

func requestDigest(mode lessongen.Mode, research bool, in lessongen.Input) string {
	raw, _ := json.Marshal(struct {
		Mode     lessongen.Mode
		Research bool
		Input    lessongen.Input
	}{mode, research, in})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
