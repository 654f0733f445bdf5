package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doroshop/dsadmin/internal/api"
)

// Step is one backend effect of a workflow.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
}

// StepError reports where a workflow stopped. Completed lists the steps that
// were already applied on the server; they are not compensated.
type StepError struct {
	Workflow  string
	Step      string
	Completed []string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: step %s: %v", e.Workflow, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Partial reports whether earlier steps changed server state.
func (e *StepError) Partial() bool { return len(e.Completed) > 0 }

// Summary is the admin-facing description of the failure.
func (e *StepError) Summary() string {
	msg := e.Err.Error()
	var apiErr *api.Error
	if errors.As(e.Err, &apiErr) {
		msg = apiErr.Message
	}
	if !e.Partial() {
		return fmt.Sprintf("%s failed at %s: %s", e.Workflow, e.Step, msg)
	}
	return fmt.Sprintf("%s failed at %s after %s succeeded: %s", e.Workflow, e.Step, strings.Join(e.Completed, ", "), msg)
}

// Run executes steps strictly in order and stops at the first failure. There
// is no rollback of steps that already succeeded.
func Run(ctx context.Context, name string, steps ...Step) error {
	var done []string
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Workflow: name, Step: st.Name, Completed: done, Err: err}
		}
		if err := st.Do(ctx); err != nil {
			return &StepError{Workflow: name, Step: st.Name, Completed: done, Err: err}
		}
		done = append(done, st.Name)
	}
	return nil
}
