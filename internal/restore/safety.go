package restore

import "fmt"

// undoStack collects compensating actions for stages that have already
// mutated durable state. On failure the stack runs in reverse order,
// best-effort: a compensating step that itself fails is reported as an
// unrecoverable-state condition but does not stop the remaining steps.
type undoStack struct {
	steps []undoStep
}

type undoStep struct {
	name string
	fn   func() error
}

func (u *undoStack) push(name string, fn func() error) {
	u.steps = append(u.steps, undoStep{name: name, fn: fn})
}

// run executes all compensating actions newest-first and returns one
// message per step that failed. There is no second level of recovery.
func (u *undoStack) run(logger Logger) []string {
	var failures []string
	for i := len(u.steps) - 1; i >= 0; i-- {
		step := u.steps[i]
		logger.Warn("running compensating action", "step", step.name)
		if err := step.fn(); err != nil {
			logger.Error("compensating action failed, state may be unrecoverable", "step", step.name, "error", err)
			failures = append(failures, fmt.Sprintf("rollback step %s failed: %v", step.name, err))
		}
	}
	return failures
}
