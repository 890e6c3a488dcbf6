package harness

// Trace event types.
const (
	EventActivate = "activate" // display activated
	EventSelect   = "select"   // selection accepted
	EventReject   = "reject"   // selection refused by the control
	EventPass     = "pass"     // one intersection pass
	EventOutput   = "output"   // an output's query after a step
)

// TraceEvent is one entry of a scenario trace. Which fields are set
// depends on Type.
type TraceEvent struct {
	Step       int64  `json:"step"`
	Type       string `json:"type"`
	Display    string `json:"display,omitempty"`
	Structure  string `json:"structure,omitempty"`
	Value      string `json:"value,omitempty"`
	Activation string `json:"activation,omitempty"`
	Error      string `json:"error,omitempty"`
	Count      int    `json:"count"`
	Total      int    `json:"total"`
	Selected   int    `json:"selected"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step and expectation held.
	Pass bool `json:"pass"`

	// Trace lists everything that happened, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors explains each failure. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Count returns the number of trace events of the given type.
func (r *Result) Count(eventType string) int {
	n := 0
	for _, e := range r.Trace {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
