package billfetch

// EventKind identifies the type of a run event.
type EventKind int

const (
	EventProgress EventKind = iota
	EventDone
	EventError
)

// String returns the wire name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event reports the progress of a run. A run emits zero or more progress
// events followed by exactly one terminal event (done or error).
type Event struct {
	Kind EventKind `json:"-"`

	// Progress fields.
	Current int    `json:"current,omitempty"`
	Total   int    `json:"total,omitempty"`
	Message string `json:"message,omitempty"`

	// Done fields.
	Result *RunResult `json:"result,omitempty"`

	// Error fields. Code is one of the application error codes.
	Code                 string `json:"code,omitempty"`
	RequiresSecondFactor bool   `json:"requiresSecondFactor,omitempty"`
}

// Terminal reports whether the event ends a run.
func (e Event) Terminal() bool {
	return e.Kind == EventDone || e.Kind == EventError
}

// ProgressEvent returns a progress event.
func ProgressEvent(current, total int, message string) Event {
	return Event{Kind: EventProgress, Current: current, Total: total, Message: message}
}

// DoneEvent returns the terminal event of a successful run.
func DoneEvent(result *RunResult) Event {
	return Event{Kind: EventDone, Result: result}
}

// ErrorEvent returns the terminal event of a failed run.
func ErrorEvent(code, message string, requiresSecondFactor bool) Event {
	return Event{Kind: EventError, Code: code, Message: message, RequiresSecondFactor: requiresSecondFactor}
}
