package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/doroshop/dsadmin/internal/domain"
)

// RefundActions are the refund decision endpoints.
type RefundActions interface {
	Approve(ctx context.Context, id, note string) (domain.Refund, error)
	Process(ctx context.Context, id string) (domain.Refund, error)
	Reject(ctx context.Context, id, note string) (domain.Refund, error)
}

// Updater sends partial patches for one resource type.
type Updater[T any] interface {
	Update(ctx context.Context, id string, patch any) (T, error)
}

// Orchestrator sequences operations that need more than one backend call, or
// whose payload needs shaping, behind a single admin action.
type Orchestrator struct {
	Refunds        RefundActions
	Subscriptions  Updater[domain.Subscription]
	Municipalities Updater[domain.Municipality]
	Plans          Updater[domain.Plan]
	Log            zerolog.Logger
}

// Refund workflow step names.
const (
	StepApprove = "approve"
	StepProcess = "process"
)

// ApproveRefund approves then disburses. Process only runs after approve
// succeeded; if it fails the refund stays approved server side and the
// returned *StepError reports the partial progress.
func (o *Orchestrator) ApproveRefund(ctx context.Context, id, note string) error {
	note = strings.TrimSpace(note)
	err := Run(ctx, "Refund approval",
		Step{Name: StepApprove, Do: func(ctx context.Context) error {
			_, err := o.Refunds.Approve(ctx, id, note)
			return err
		}},
		Step{Name: StepProcess, Do: func(ctx context.Context) error {
			_, err := o.Refunds.Process(ctx, id)
			return err
		}},
	)
	o.logOutcome("approve_refund", id, err)
	return err
}

// ProcessRefund retries disbursement for a refund left approved.
func (o *Orchestrator) ProcessRefund(ctx context.Context, id string) error {
	err := Run(ctx, "Refund payout", Step{Name: StepProcess, Do: func(ctx context.Context) error {
		_, err := o.Refunds.Process(ctx, id)
		return err
	}})
	o.logOutcome("process_refund", id, err)
	return err
}

// RejectRefund requires a reason.
func (o *Orchestrator) RejectRefund(ctx context.Context, id, note string) error {
	if err := (domain.RefundDecision{Note: note}).Validate("reject"); err != nil {
		return err
	}
	_, err := o.Refunds.Reject(ctx, id, strings.TrimSpace(note))
	o.logOutcome("reject_refund", id, err)
	if err != nil {
		return fmt.Errorf("reject refund %s: %w", id, err)
	}
	return nil
}

// PlanPatch is the subscription patch body; exactly one field is set.
type PlanPatch struct {
	PlanID   string `json:"planId,omitempty"`
	PlanCode string `json:"planCode,omitempty"`
}

// BuildPlanPatch decides by shape whether input is a plan id (24 hex chars)
// or a plan code.
func BuildPlanPatch(input string) (PlanPatch, error) {
	input = strings.TrimSpace(input)
	if err := (domain.PlanAssignment{Input: input}).Validate(); err != nil {
		return PlanPatch{}, err
	}
	if domain.IsObjectID(input) {
		return PlanPatch{PlanID: input}, nil
	}
	return PlanPatch{PlanCode: input}, nil
}

// ReassignPlan moves a subscription to another plan.
func (o *Orchestrator) ReassignPlan(ctx context.Context, subscriptionID, input string) error {
	patch, err := BuildPlanPatch(input)
	if err != nil {
		return err
	}
	_, err = o.Subscriptions.Update(ctx, subscriptionID, patch)
	o.logOutcome("reassign_plan", subscriptionID, err)
	if err != nil {
		return fmt.Errorf("reassign plan: %w", err)
	}
	return nil
}

// ToggleMunicipality flips the active flag.
func (o *Orchestrator) ToggleMunicipality(ctx context.Context, m domain.Municipality) error {
	_, err := o.Municipalities.Update(ctx, m.ID, map[string]any{"isActive": !m.IsActive})
	o.logOutcome("toggle_municipality", m.ID, err)
	if err != nil {
		return fmt.Errorf("toggle municipality: %w", err)
	}
	return nil
}

// TogglePlan flips the active flag of a plan.
func (o *Orchestrator) TogglePlan(ctx context.Context, p domain.Plan) error {
	_, err := o.Plans.Update(ctx, p.ID, map[string]any{"isActive": !p.IsActive})
	o.logOutcome("toggle_plan", p.ID, err)
	if err != nil {
		return fmt.Errorf("toggle plan: %w", err)
	}
	return nil
}

// NearestPlanCode suggests the closest known plan code for a mistyped code.
// It returns false when input is an id, an exact code, or nothing is close.
func NearestPlanCode(input string, plans []domain.Plan) (string, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" || domain.IsObjectID(input) {
		return "", false
	}
	best, bestDist := "", -1
	for _, p := range plans {
		code := strings.ToLower(p.Code)
		if code == "" {
			continue
		}
		if code == input {
			return "", false
		}
		d := levenshtein.ComputeDistance(input, code)
		if bestDist < 0 || d < bestDist {
			best, bestDist = p.Code, d
		}
	}
	limit := len(input) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist < 0 || bestDist > limit {
		return "", false
	}
	return best, true
}

func (o *Orchestrator) logOutcome(op, id string, err error) {
	if err != nil {
		o.Log.Warn().Err(err).Str("op", op).Str("id", id).Msg("workflow failed")
		return
	}
	o.Log.Info().Str("op", op).Str("id", id).Msg("workflow done")
}
