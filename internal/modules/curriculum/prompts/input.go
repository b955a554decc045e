package prompts

// Input is a superset of all fields any lesson prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	ProgramTitle      string
	CourseTitle       string
	TopicTitle        string
	LessonTitle       string
	LessonDescription string
	AudienceLabel     string

	// Context sources, already truncated by the caller where a preview is wanted.
	WebSearchContext string
	RetrievalContent string
	CourseContext    string

	MustHave             string
	DesignConsiderations string
	InstructionBlock     string

	// Planned subsection titles in order.
	Subsections []string
}
