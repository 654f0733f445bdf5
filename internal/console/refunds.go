package console

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/doroshop/dsadmin/internal/domain"
	"github.com/doroshop/dsadmin/internal/modal"
	"github.com/doroshop/dsadmin/internal/notify"
	"github.com/doroshop/dsadmin/internal/store"
	"github.com/doroshop/dsadmin/internal/views"
	"github.com/doroshop/dsadmin/internal/workflow"
)

// Refund actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionProcess = "process"
)

// RefundBackend is the refund collection plus its decision endpoints.
type RefundBackend interface {
	store.Backend[domain.Refund]
	workflow.RefundActions
}

type Refunds struct {
	*screen[domain.Refund, domain.RefundDecision]
	Currency string
}

func NewRefunds(backend RefundBackend, wf *workflow.Orchestrator, n notify.Notifier, log zerolog.Logger) *Refunds {
	s := &Refunds{screen: &screen[domain.Refund, domain.RefundDecision]{
		name:         "refunds",
		store:        store.New("refunds", backend, log),
		statuses:     domain.RefundStatuses,
		serverStatus: true,
	}, Currency: DefaultCurrency}
	wf.Refunds = backend
	s.modal = modal.New("refunds", modal.Handlers[domain.Refund, domain.RefundDecision]{
		ActionDraft: func(r domain.Refund, _ string) domain.RefundDecision {
			return domain.RefundDecision{Note: r.AdminNote}
		},
		Validate: func(sess modal.Session[domain.Refund, domain.RefundDecision]) error {
			if err := CanDecide(*sess.Target, sess.Action); err != nil {
				return err
			}
			return sess.Draft.Validate(sess.Action)
		},
		Warn: func(sess modal.Session[domain.Refund, domain.RefundDecision]) string {
			if sess.Action == ActionApprove {
				return fmt.Sprintf("Approving also disburses %s to the customer", FormatAmount(s.Currency, sess.Target.Amount))
			}
			return ""
		},
		Success: func(sess modal.Session[domain.Refund, domain.RefundDecision]) string {
			switch sess.Action {
			case ActionApprove:
				return "Refund " + sess.Target.OrderNumber() + " approved and processed"
			case ActionReject:
				return "Refund " + sess.Target.OrderNumber() + " rejected"
			case ActionProcess:
				return "Refund " + sess.Target.OrderNumber() + " processed"
			}
			return ""
		},
		Action: func(ctx context.Context, r domain.Refund, action string, d domain.RefundDecision) error {
			switch action {
			case ActionApprove:
				return wf.ApproveRefund(ctx, r.ID, d.Note)
			case ActionReject:
				return wf.RejectRefund(ctx, r.ID, d.Note)
			case ActionProcess:
				return wf.ProcessRefund(ctx, r.ID)
			}
			return unknownAction(action)
		},
		Refresh:  s.refresh,
		Retarget: s.resume,
	}, n, log)
	return s
}

// resume points an open dialog at the refreshed refund. An approval that got
// past the approve step continues as a payout.
func (s *Refunds) resume(sess modal.Session[domain.Refund, domain.RefundDecision], err error) (domain.Refund, string, bool) {
	r := *sess.Target
	if found, ok := s.Find(r.ID); ok {
		r = found
	}
	action := sess.Action
	var stepErr *workflow.StepError
	if action == ActionApprove && errors.As(err, &stepErr) && slices.Contains(stepErr.Completed, workflow.StepApprove) {
		r.Status = domain.RefundApproved
		action = ActionProcess
	}
	return r, action, true
}

var pastTense = map[string]string{ActionApprove: "approved", ActionReject: "rejected", ActionProcess: "processed"}

// CanDecide checks that action applies to the refund's current status.
func CanDecide(r domain.Refund, action string) error {
	switch action {
	case ActionApprove, ActionReject:
		if r.Status != domain.RefundPending {
			return &domain.ValidationError{Field: "status", Message: fmt.Sprintf("Only pending refunds can be %s; this one is %s", pastTense[action], r.Status)}
		}
	case ActionProcess:
		if r.Status != domain.RefundApproved {
			return &domain.ValidationError{Field: "status", Message: fmt.Sprintf("Only approved refunds can be processed; this one is %s", r.Status)}
		}
	default:
		return unknownAction(action)
	}
	return nil
}

func (s *Refunds) Stats() views.RefundStats {
	return views.RefundsSummary(s.store.Items())
}
