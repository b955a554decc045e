package realtime

type Event string

const (
	EventLessonStatus         Event = "LessonStatus"
	EventProgramBuildProgress Event = "ProgramBuildProgress"
	EventProgramBuildDone     Event = "ProgramBuildDone"
)

// StatusMessage is what travels over the bus and out to SSE subscribers.
// Channel is a lesson or program id.
type StatusMessage struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}
