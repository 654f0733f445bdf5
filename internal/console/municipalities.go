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

// ActionToggle flips the active flag of a municipality or plan.
const ActionToggle = "toggle"

type Municipalities struct {
	*screen[domain.Municipality, domain.MunicipalityDraft]
}

func NewMunicipalities(backend store.Backend[domain.Municipality], wf *workflow.Orchestrator, n notify.Notifier, log zerolog.Logger) *Municipalities {
	s := &Municipalities{screen: &screen[domain.Municipality, domain.MunicipalityDraft]{
		name:     "municipalities",
		store:    store.New("municipalities", backend, log),
		statuses: []string{"active", "inactive"},
	}}
	wf.Municipalities = s.store
	s.modal = modal.New("municipalities", modal.Handlers[domain.Municipality, domain.MunicipalityDraft]{
		NewDraft:  domain.NewMunicipalityDraft,
		DraftFrom: domain.DraftFromMunicipality,
		Validate: func(sess modal.Session[domain.Municipality, domain.MunicipalityDraft]) error {
			if sess.Mode == modal.Create || sess.Mode == modal.Edit {
				return sess.Draft.Validate()
			}
			return nil
		},
		Success: func(sess modal.Session[domain.Municipality, domain.MunicipalityDraft]) string {
			switch sess.Mode {
			case modal.Create:
				return "Municipality created"
			case modal.Edit:
				return "Municipality updated"
			case modal.DeleteConfirm:
				return "Municipality deleted"
			case modal.ActionConfirm:
				if sess.Target.IsActive {
					return sess.Target.Name + " deactivated"
				}
				return sess.Target.Name + " activated"
			}
			return ""
		},
		Create: func(ctx context.Context, d domain.MunicipalityDraft) error {
			_, err := s.store.Create(ctx, d.Payload(), nil)
			return err
		},
		Update: func(ctx context.Context, m domain.Municipality, d domain.MunicipalityDraft) error {
			_, err := s.store.Update(ctx, m.ID, d.Payload())
			return err
		},
		Delete: func(ctx context.Context, m domain.Municipality) error {
			return s.store.Delete(ctx, m.ID)
		},
		Action: func(ctx context.Context, m domain.Municipality, action string, _ domain.MunicipalityDraft) error {
			if action != ActionToggle {
				return unknownAction(action)
			}
			return wf.ToggleMunicipality(ctx, m)
		},
		Refresh: s.refresh,
	}, n, log)
	return s
}

func (s *Municipalities) Stats() views.ActiveStats {
	return views.MunicipalitiesSummary(s.store.Items())
}
