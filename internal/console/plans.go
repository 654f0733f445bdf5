package console

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/doroshop/dsadmin/internal/domain"
	"github.com/doroshop/dsadmin/internal/modal"
	"github.com/doroshop/dsadmin/internal/notify"
	"github.com/doroshop/dsadmin/internal/store"
	"github.com/doroshop/dsadmin/internal/views"
	"github.com/doroshop/dsadmin/internal/workflow"
)

type Plans struct {
	*screen[domain.Plan, domain.PlanDraft]
}

func NewPlans(backend store.Backend[domain.Plan], wf *workflow.Orchestrator, n notify.Notifier, log zerolog.Logger) *Plans {
	s := &Plans{screen: &screen[domain.Plan, domain.PlanDraft]{
		name:     "plans",
		store:    store.New("plans", backend, log),
		statuses: []string{"active", "inactive"},
	}}
	wf.Plans = s.store
	s.modal = modal.New("plans", modal.Handlers[domain.Plan, domain.PlanDraft]{
		NewDraft:  domain.NewPlanDraft,
		DraftFrom: domain.DraftFromPlan,
		Validate: func(sess modal.Session[domain.Plan, domain.PlanDraft]) error {
			if sess.Mode == modal.Create || sess.Mode == modal.Edit {
				return sess.Draft.Validate()
			}
			return nil
		},
		Success: func(sess modal.Session[domain.Plan, domain.PlanDraft]) string {
			switch sess.Mode {
			case modal.Create:
				return "Plan created"
			case modal.Edit:
				return "Plan updated"
			case modal.DeleteConfirm:
				return "Plan deleted"
			case modal.ActionConfirm:
				if sess.Target.IsActive {
					return "Plan " + sess.Target.Code + " deactivated"
				}
				return "Plan " + sess.Target.Code + " activated"
			}
			return ""
		},
		Create: func(ctx context.Context, d domain.PlanDraft) error {
			_, err := s.store.Create(ctx, d.Payload(), nil)
			return err
		},
		Update: func(ctx context.Context, p domain.Plan, d domain.PlanDraft) error {
			_, err := s.store.Update(ctx, p.ID, d.Payload())
			return err
		},
		Delete: func(ctx context.Context, p domain.Plan) error {
			return s.store.Delete(ctx, p.ID)
		},
		Action: func(ctx context.Context, p domain.Plan, action string, _ domain.PlanDraft) error {
			if action != ActionToggle {
				return unknownAction(action)
			}
			return wf.TogglePlan(ctx, p)
		},
		Refresh: s.refresh,
	}, n, log)
	return s
}

func (s *Plans) Stats() views.ActiveStats {
	return views.PlansSummary(s.store.Items())
}
