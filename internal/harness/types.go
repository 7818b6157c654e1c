package harness

import "github.com/roach88/querybuilder/internal/querytree"

// StepResult records what one step did.
type StepResult struct {
	Index   int              `json:"index"`
	Op      querytree.EditOp `json:"op"`
	Ref     string           `json:"ref"`
	ID      string           `json:"id,omitempty"`
	Applied bool             `json:"applied"`
	Error   string           `json:"error,omitempty"` // error code, see ErrorCode
}

// Result holds the outcome of a scenario run.
type Result struct {
	Pass   bool                 `json:"pass"`
	Steps  []StepResult         `json:"steps"`
	Query  querytree.Query      `json:"-"`
	Export querytree.CleanQuery `json:"export"`
	Stats  querytree.Stats      `json:"stats"`
	Errors []string             `json:"errors,omitempty"`
}

// NewResult creates a passing result with no steps.
func NewResult() *Result {
	return &Result{
		Pass:  true,
		Steps: []StepResult{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step record.
func (r *Result) AddStep(step StepResult) {
	r.Steps = append(r.Steps, step)
}
