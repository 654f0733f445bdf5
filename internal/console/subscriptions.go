package console

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/doroshop/dsadmin/internal/domain"
	"github.com/doroshop/dsadmin/internal/modal"
	"github.com/doroshop/dsadmin/internal/notify"
	"github.com/doroshop/dsadmin/internal/store"
	"github.com/doroshop/dsadmin/internal/views"
	"github.com/doroshop/dsadmin/internal/workflow"
)

// ActionReassign moves a subscription to another plan.
const ActionReassign = "reassign"

type Subscriptions struct {
	*screen[domain.Subscription, domain.PlanAssignment]
	plans *store.Store[domain.Plan]
}

// NewSubscriptions needs the plan store to suggest plan codes.
func NewSubscriptions(backend store.Backend[domain.Subscription], plans *store.Store[domain.Plan], wf *workflow.Orchestrator, n notify.Notifier, log zerolog.Logger) *Subscriptions {
	s := &Subscriptions{
		screen: &screen[domain.Subscription, domain.PlanAssignment]{
			name:         "subscriptions",
			store:        store.New("subscriptions", backend, log),
			statuses:     domain.SubscriptionStatuses,
			serverStatus: true,
		},
		plans: plans,
	}
	wf.Subscriptions = s.store
	s.modal = modal.New("subscriptions", modal.Handlers[domain.Subscription, domain.PlanAssignment]{
		ActionDraft: func(domain.Subscription, string) domain.PlanAssignment {
			return domain.PlanAssignment{}
		},
		Validate: func(sess modal.Session[domain.Subscription, domain.PlanAssignment]) error {
			if sess.Action != ActionReassign {
				return unknownAction(sess.Action)
			}
			return sess.Draft.Validate()
		},
		Warn: func(sess modal.Session[domain.Subscription, domain.PlanAssignment]) string {
			if code, ok := s.SuggestPlan(sess.Draft.Input); ok {
				return fmt.Sprintf("No plan %q; did you mean %q?", sess.Draft.Input, code)
			}
			return ""
		},
		Success: func(sess modal.Session[domain.Subscription, domain.PlanAssignment]) string {
			return "Subscription moved to plan " + sess.Draft.Input
		},
		Action: func(ctx context.Context, sub domain.Subscription, action string, d domain.PlanAssignment) error {
			if action != ActionReassign {
				return unknownAction(action)
			}
			return wf.ReassignPlan(ctx, sub.ID, d.Input)
		},
		Refresh: s.refresh,
	}, n, log)
	return s
}

// SuggestPlan proposes a known plan code close to a mistyped input.
func (s *Subscriptions) SuggestPlan(input string) (string, bool) {
	if s.plans == nil {
		return "", false
	}
	return workflow.NearestPlanCode(input, s.plans.Items())
}

// PlanName resolves a subscription's plan for display.
func (s *Subscriptions) PlanName(sub domain.Subscription) string {
	if sub.Plan.Populated() {
		return sub.Plan.Label()
	}
	id := domain.RefID(sub.Plan)
	if s.plans != nil {
		if p, ok := views.Find(s.plans.Items(), id); ok {
			return p.Name
		}
	}
	return id
}

func (s *Subscriptions) Stats() views.SubscriptionStats {
	return views.SubscriptionsSummary(s.store.Items())
}
