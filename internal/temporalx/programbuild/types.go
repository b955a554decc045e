package programbuild

const (
	WorkflowName           = "program_build"
	ActivityGenerateLesson = "program_build_generate_lesson"
	ActivityFinish         = "program_build_finish"
)

type Input struct {
	ProgramID string   `json:"program_id"`
	LessonIDs []string `json:"lesson_ids"`
	Fallback  bool     `json:"fallback,omitempty"`
	Research  bool     `json:"research,omitempty"`
	Force     bool     `json:"force,omitempty"`
}

type LessonInput struct {
	ProgramID string `json:"program_id"`
	LessonID  string `json:"lesson_id"`
	Fallback  bool   `json:"fallback,omitempty"`
	Research  bool   `json:"research,omitempty"`
	Force     bool   `json:"force,omitempty"`
}

type LessonOutcome struct {
	LessonID    string `json:"lesson_id"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	TotalTokens int    `json:"total_tokens"`
	Degraded    bool   `json:"degraded,omitempty"`
}

type Result struct {
	ProgramID string          `json:"program_id"`
	Lessons   []LessonOutcome `json:"lessons"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
}
