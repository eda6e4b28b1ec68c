package session

type State int

const (
	StateAwaitingQuestion State = iota
	StateProcessing
	StateDraftingEmail
	StateRefiningEmail
	StateSending
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingQuestion:
		return "awaiting_question"
	case StateProcessing:
		return "processing"
	case StateDraftingEmail:
		return "drafting_email"
	case StateRefiningEmail:
		return "refining_email"
	case StateSending:
		return "sending"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
