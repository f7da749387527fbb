package contract

// StepName identifies one stage of the KYC sequence. The sequence is fixed
// at workflow construction time; the name doubles as the agent routing key.
type StepName string

const (
	StepIntake         StepName = "intake"
	StepVerification   StepName = "verification"
	StepEligibility    StepName = "eligibility"
	StepRecommendation StepName = "recommendation"
	StepCompliance     StepName = "compliance"
	StepAction         StepName = "action"
)

// WorkflowSteps returns the KYC sequence in dispatch order.
func WorkflowSteps() []StepName {
	return []StepName{
		StepIntake,
		StepVerification,
		StepEligibility,
		StepRecommendation,
		StepCompliance,
		StepAction,
	}
}

type DecisionKind string

const (
	DecisionPass     DecisionKind = "PASS"
	DecisionReview   DecisionKind = "REVIEW"
	DecisionFail     DecisionKind = "FAIL"
	DecisionQuestion DecisionKind = "QUESTION"
)

// Decision is the parsed outcome of one agent turn. QUESTION covers plain
// text and malformed structured output; for that kind Message carries the
// agent's raw text verbatim.
type Decision struct {
	Kind          DecisionKind   `json:"kind"`
	ExtractedData map[string]any `json:"extracted_data,omitempty"`
	Message       string         `json:"message,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	Reason        string         `json:"reason,omitempty"`
}

// Event is one item of the ordered, finite result sequence of a turn.
// The set of variants is closed; hosts type-switch over all four.
type Event interface {
	isEvent()
}

// CustomerDataUpdate reports the accumulated customer data after a step
// merged its extracted fields.
type CustomerDataUpdate struct {
	Step StepName       `json:"step"`
	Data map[string]any `json:"data"`
}

// DataRequest asks the human for missing information. RequestID must be
// echoed back on the resume call that answers it.
type DataRequest struct {
	RequestID string   `json:"request_id"`
	Step      StepName `json:"step"`
	Prompt    string   `json:"prompt"`
}

// Complete is the terminal success event.
type Complete struct {
	CustomerData map[string]any `json:"customer_data"`
	Notes        string         `json:"notes"`
}

// Failed is the terminal failure event. A FAIL decision is an expected
// business outcome, not an error.
type Failed struct {
	Step   StepName `json:"step"`
	Reason string   `json:"reason"`
	Notes  string   `json:"notes,omitempty"`
}

func (CustomerDataUpdate) isEvent() {}
func (DataRequest) isEvent()        {}
func (Complete) isEvent()           {}
func (Failed) isEvent()             {}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
