package prompts

type PromptName string

const (
	PromptSubsectionPlan    PromptName = "lesson_subsection_plan"
	PromptRetrievalDraft    PromptName = "lesson_retrieval_draft"
	PromptLessonSynthesis   PromptName = "lesson_synthesis"
	PromptLessonFallback    PromptName = "lesson_synthesis_fallback"
	PromptLessonWebResearch PromptName = "lesson_web_research"
)
