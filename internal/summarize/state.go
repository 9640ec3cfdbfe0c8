package summarize

// State is a step of one summarize session. States only move forward.
type State int32

const (
	StateAdmitting State = iota
	StateValidating
	StateFetchingTranscript
	StateRelaying
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAdmitting:
		return "admitting"
	case StateValidating:
		return "validating"
	case StateFetchingTranscript:
		return "fetching_transcript"
	case StateRelaying:
		return "relaying"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
