package submit

// State is the visible state of the generator form.
type State int

const (
	// StateIdle is the state before the first submission.
	StateIdle State = iota
	// StateSubmitting means a request is in flight and the submit control
	// is disabled.
	StateSubmitting
	// StateSuccess means the last submission produced a result.
	StateSuccess
	// StateFailure means the last submission ended with an error message.
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}
