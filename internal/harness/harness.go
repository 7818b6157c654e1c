package harness

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/querybuilder/internal/catalog"
	"github.com/roach88/querybuilder/internal/querytree"
)

// Error codes reported for failed edits.
const (
	CodeUnknownField    = "unknown_field"
	CodeInvalidOperator = "invalid_operator"
	CodeInvalidValue    = "invalid_value"
	CodeInvalidLogic    = "invalid_logic"
	CodeInvalidEdit     = "invalid_edit"
	CodeUnknown         = "error"
)

// ErrorCode classifies an edit error for scenario expectations.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, catalog.ErrUnknownField):
		return CodeUnknownField
	case errors.Is(err, querytree.ErrInvalidOperator):
		return CodeInvalidOperator
	case errors.Is(err, querytree.ErrInvalidValue):
		return CodeInvalidValue
	case errors.Is(err, querytree.ErrInvalidLogic):
		return CodeInvalidLogic
	case errors.Is(err, querytree.ErrInvalidEdit):
		return CodeInvalidEdit
	default:
		return CodeUnknown
	}
}

// Harness runs one scenario against a fresh model.
type Harness struct {
	catalog *catalog.Catalog
	ids     *querytree.SequenceGenerator
	model   *querytree.Model
	logger  zerolog.Logger
}

// Run executes a scenario with logging disabled.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, zerolog.Nop())
}

// RunWithLogger executes a scenario and returns the result.
//
// Execution flow:
// 1. Load the scenario's catalog (or the built-in one)
// 2. Build the start query with sequence ids
// 3. Apply every step, checking its expected outcome
// 4. Evaluate assertions against the final tree
//
// The returned error covers setup failures only; step and assertion
// failures are recorded on the Result.
func RunWithLogger(scenario *Scenario, log zerolog.Logger) (*Result, error) {
	cat := catalog.Default()
	if scenario.Catalog != "" {
		loaded, err := catalog.Load(scenario.Catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		cat = loaded
	}

	ids := querytree.NewSequenceGenerator(scenario.IDPrefix)
	log = log.With().Str("scenario", scenario.Name).Logger()
	h := &Harness{
		catalog: cat,
		ids:     ids,
		model:   querytree.NewModel(cat, querytree.WithIDGenerator(ids), querytree.WithLogger(log)),
		logger:  log,
	}

	var q querytree.Query
	if scenario.Start != nil {
		q = h.model.Hydrate(*scenario.Start)
	} else {
		q = h.model.NewQuery()
	}

	result := NewResult()
	q = h.executeSteps(q, scenario.Steps, result)

	result.Query = q
	result.Export = querytree.Sanitize(q)
	result.Stats = querytree.Measure(q)

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, h.catalog) {
		result.AddError(errMsg)
	}

	h.logger.Debug().
		Bool("pass", result.Pass).
		Int("steps", len(scenario.Steps)).
		Int64("ids_issued", h.ids.Issued()).
		Msg("scenario finished")

	return result, nil
}

// executeSteps applies each step in order. A failed edit leaves the tree as
// it was and execution continues.
func (h *Harness) executeSteps(q querytree.Query, steps []Step, result *Result) querytree.Query {
	for i, step := range steps {
		next, applied, err := h.model.Apply(q, step.Edit)
		code := ErrorCode(err)

		result.AddStep(StepResult{
			Index:   i,
			Op:      step.Op,
			Ref:     step.Ref.String(),
			ID:      step.ID,
			Applied: applied,
			Error:   code,
		})

		switch {
		case step.ExpectError != "" && err == nil:
			result.AddError(fmt.Sprintf("step %d (%s): expected error %s, edit succeeded", i, step.Op, step.ExpectError))
		case step.ExpectError != "" && code != step.ExpectError:
			result.AddError(fmt.Sprintf("step %d (%s): expected error %s, got %s: %v", i, step.Op, step.ExpectError, code, err))
		case step.ExpectError == "" && err != nil:
			result.AddError(fmt.Sprintf("step %d (%s): %v", i, step.Op, err))
		case step.ExpectIgnored && applied:
			result.AddError(fmt.Sprintf("step %d (%s): expected the target to be missing, edit was applied", i, step.Op))
		}

		h.logger.Debug().
			Int("step", i).
			Str("op", string(step.Op)).
			Str("ref", step.Ref.String()).
			Bool("applied", applied).
			Str("error", code).
			Msg("step completed")

		q = next
	}
	return q
}
