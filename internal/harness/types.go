package harness

// Trace event types, one per request notification kind.
const (
	EventStateChanged     = "state_changed"
	EventResultsAvailable = "results_available"
)

// TraceEvent is one notification delivered to a scenario request.
type TraceEvent struct {
	Step    int    `json:"step"`
	Type    string `json:"type"`
	State   string `json:"state"`
	Results int    `json:"results"`
	Seq     int64  `json:"seq"`
}

// ItemSummary is the part of a result item scenarios look at. Ids are shown
// by local key.
type ItemSummary struct {
	ID     string `json:"id,omitempty"`
	Parent string `json:"parent,omitempty"`
	Type   string `json:"type,omitempty"`
	Label  string `json:"label,omitempty"`
	Start  string `json:"start,omitempty"`
}

// StepResult is the outcome of one flow step.
type StepResult struct {
	Request string        `json:"request"`
	State   string        `json:"state"`
	Error   string        `json:"error"`
	Items   []ItemSummary `json:"items"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains the notifications of all steps in delivery order.
	Trace []TraceEvent `json:"trace"`

	// Steps holds the final state and results of each flow step.
	Steps []StepResult `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Stored is the number of items in the store after the flow.
	Stored int `json:"stored"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
