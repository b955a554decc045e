package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/repos"
	types "github.com/yungbote/curriculum-backend/internal/domain"
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/structure"
	"github.com/yungbote/curriculum-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type CreateProgramRequest struct {
	Program structure.Program `json:"program"`
}

type ProgramService interface {
	// Create numbers the submitted tree and stores it.
	Create(ctx context.Context, req CreateProgramRequest) (*types.Program, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Program, error)
}

type programService struct {
	db       *gorm.DB
	log      *logger.Logger
	programs repos.ProgramRepo
	now      func() time.Time
}

func NewProgramService(db *gorm.DB, baseLog *logger.Logger, programs repos.ProgramRepo) ProgramService {
	return &programService{
		db:       db,
		log:      baseLog.With("service", "ProgramService"),
		programs: programs,
		now:      time.Now,
	}
}

func (s *programService) Create(ctx context.Context, req CreateProgramRequest) (*types.Program, error) {
	const op = "ProgramService.Create"
	if s == nil || s.db == nil || s.programs == nil {
		return nil, fmt.Errorf("program service not configured")
	}
	if req.Program.Title == "" && req.Program.Niche == "" {
		return nil, apperr.Invalid(op, "program.title", "required")
	}

	numbered, err := structure.ApplyNumbering(req.Program, s.now)
	if err != nil {
		return nil, err
	}
	row, err := toProgramRow(numbered)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := s.programs.GetByCode(dbc, row.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Invalid(op, "program.code", fmt.Sprintf("%s already exists", row.Code))
		}
		_, err = s.programs.Create(dbc, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Program created", "program_id", row.ID, "code", row.Code, "lessons", len(numbered.Lessons()))
	return row, nil
}

func (s *programService) Get(ctx context.Context, id uuid.UUID) (*types.Program, error) {
	p, err := s.programs.GetTree(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("program %s: %w", id, apperr.ErrNotFound)
	}
	return p, nil
}

func toProgramRow(p structure.Program) (*types.Program, error) {
	params, err := json.Marshal(p.DesignParameters)
	if err != nil {
		return nil, err
	}
	stores := p.VectorStoreIDs
	if stores == nil {
		stores = []string{}
	}
	storesJSON, err := json.Marshal(stores)
	if err != nil {
		return nil, err
	}
	row := &types.Program{
		ID:               uuid.New(),
		Code:             p.Code,
		Title:            p.Title,
		Niche:            p.Niche,
		Domain:           p.Domain,
		Description:      p.Description,
		DesignParameters: datatypes.JSON(params),
		VectorStoreIDs:   datatypes.JSON(storesJSON),
	}
	for ci, c := range p.Courses {
		cp, err := json.Marshal(c.DesignParameters)
		if err != nil {
			return nil, err
		}
		course := types.Course{
			ID:               uuid.New(),
			ProgramID:        row.ID,
			Sequence:         ci + 1,
			Code:             c.Code,
			Title:            c.Title,
			Description:      c.Description,
			Context:          c.Context,
			DesignParameters: datatypes.JSON(cp),
		}
		for ti, t := range c.Topics {
			topic := types.Topic{
				ID:          uuid.New(),
				CourseID:    course.ID,
				Sequence:    ti + 1,
				Code:        t.Code,
				Title:       t.Title,
				Description: t.Description,
			}
			for li, l := range t.Lessons {
				topic.Lessons = append(topic.Lessons, types.Lesson{
					ID:                   uuid.New(),
					TopicID:              topic.ID,
					Sequence:             li + 1,
					Code:                 l.Code,
					Title:                l.Title,
					Description:          l.Description,
					MustHave:             l.MustHave,
					DesignConsiderations: l.DesignConsiderations,
					Status:               types.LessonStatusPending,
				})
			}
			course.Topics = append(course.Topics, topic)
		}
		row.Courses = append(row.Courses, course)
	}
	return row, nil
}
