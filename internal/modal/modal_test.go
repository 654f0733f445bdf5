package modal

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/doroshop/dsadmin/internal/api"
	"github.com/doroshop/dsadmin/internal/domain"
	"github.com/doroshop/dsadmin/internal/notify"
	"github.com/doroshop/dsadmin/internal/workflow"
)

type harness struct {
	creates   int
	deletes   []string
	actions   []string
	refreshes int
	createErr error
	actionErr error
	rec       *notify.Recorder
	c         *Controller[domain.Municipality, domain.MunicipalityDraft]
}

func newHarness() *harness {
	h := &harness{rec: &notify.Recorder{}}
	h.c = New("municipalities", Handlers[domain.Municipality, domain.MunicipalityDraft]{
		NewDraft:  domain.NewMunicipalityDraft,
		DraftFrom: domain.DraftFromMunicipality,
		Validate: func(s Session[domain.Municipality, domain.MunicipalityDraft]) error {
			if s.Mode == Create || s.Mode == Edit {
				return s.Draft.Validate()
			}
			return nil
		},
		Create: func(context.Context, domain.MunicipalityDraft) error {
			h.creates++
			return h.createErr
		},
		Delete: func(_ context.Context, m domain.Municipality) error {
			h.deletes = append(h.deletes, m.ID)
			return nil
		},
		Action: func(_ context.Context, m domain.Municipality, action string, _ domain.MunicipalityDraft) error {
			h.actions = append(h.actions, action+":"+m.ID)
			return h.actionErr
		},
		Refresh: func(context.Context) error {
			h.refreshes++
			return nil
		},
	}, h.rec, zerolog.Nop())
	return h
}

func TestCreateWithEmptyNameIsRejectedLocally(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.c.OpenCreate())

	job := h.c.Submit()
	require.Nil(t, job)
	require.Zero(t, h.creates)
	require.True(t, h.c.IsOpen())
	require.False(t, h.c.Submitting())

	last, ok := h.rec.Last()
	require.True(t, ok)
	require.Equal(t, notify.Error, last.Severity)
	require.Contains(t, last.Message, "required")
}

func TestDoubleSubmitDispatchesOnce(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.c.OpenCreate())
	require.NoError(t, h.c.UpdateDraft(func(d *domain.MunicipalityDraft) { d.Name = "Tagum" }))

	job := h.c.Submit()
	require.NotNil(t, job)
	require.True(t, h.c.Submitting())
	require.Nil(t, h.c.Submit())
	require.ErrorIs(t, h.c.UpdateDraft(func(d *domain.MunicipalityDraft) {}), ErrSubmitting)

	h.c.Resolve(job.Run(context.Background()))
	require.Equal(t, 1, h.creates)
	require.Equal(t, 1, h.refreshes)
	require.False(t, h.c.IsOpen())

	last, _ := h.rec.Last()
	require.Equal(t, notify.Success, last.Severity)
	require.Equal(t, "Created", last.Message)
}

func TestFailedSubmitKeepsDraft(t *testing.T) {
	h := newHarness()
	h.createErr = &api.Error{Status: http.StatusConflict, Message: "name already exists"}
	require.NoError(t, h.c.OpenCreate())
	require.NoError(t, h.c.UpdateDraft(func(d *domain.MunicipalityDraft) { d.Name = "Tagum" }))

	res, dispatched := h.c.SubmitAndWait(context.Background())
	require.True(t, dispatched)
	require.Error(t, res.Err)
	require.False(t, res.Refreshed)
	require.Zero(t, h.refreshes)

	require.True(t, h.c.IsOpen())
	require.False(t, h.c.Submitting())
	require.Equal(t, "Tagum", h.c.Draft().Name)

	last, _ := h.rec.Last()
	require.Equal(t, notify.Error, last.Severity)
	require.Equal(t, "name already exists", last.Message)
}

func TestOnlyOneSessionAtATime(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.c.OpenEdit(domain.Municipality{ID: "m1", Name: "Davao"}))
	require.ErrorIs(t, h.c.OpenDelete(domain.Municipality{ID: "m2"}), ErrSessionOpen)
	require.Equal(t, Edit, h.c.Mode())
	require.Equal(t, "Davao", h.c.Draft().Name)

	h.c.Cancel()
	require.False(t, h.c.IsOpen())
	require.NoError(t, h.c.OpenDelete(domain.Municipality{ID: "m2"}))
	require.Equal(t, DeleteConfirm, h.c.Mode())
}

func TestStaleResultDoesNotCloseNewSession(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.c.OpenDelete(domain.Municipality{ID: "m1"}))
	job := h.c.Submit()
	require.NotNil(t, job)

	h.c.Cancel()
	require.NoError(t, h.c.OpenDelete(domain.Municipality{ID: "m2"}))

	h.c.Resolve(job.Run(context.Background()))
	require.Equal(t, []string{"m1"}, h.deletes)
	require.True(t, h.c.IsOpen())
	require.Equal(t, "m2", h.c.Session().Target.ID)
	require.False(t, h.c.Submitting())
}

func TestWorkflowFailureStillRefreshes(t *testing.T) {
	h := newHarness()
	h.actionErr = &workflow.StepError{
		Workflow:  "Refund approval",
		Step:      "process",
		Completed: []string{"approve"},
		Err:       &api.Error{Status: http.StatusBadGateway, Message: "gateway down"},
	}
	require.NoError(t, h.c.OpenAction(domain.Municipality{ID: "m1"}, "toggle"))

	res, dispatched := h.c.SubmitAndWait(context.Background())
	require.True(t, dispatched)
	require.Error(t, res.Err)
	require.True(t, res.Refreshed)
	require.Equal(t, 1, h.refreshes)
	require.True(t, h.c.IsOpen())

	last, _ := h.rec.Last()
	require.Equal(t, notify.Error, last.Severity)
	require.Contains(t, last.Message, "gateway down")
	require.Contains(t, last.Message, "approve succeeded")
}

func TestRetargetAfterRefreshedFailure(t *testing.T) {
	h := newHarness()
	calls := 0
	h.c.h.Retarget = func(s Session[domain.Municipality, domain.MunicipalityDraft], err error) (domain.Municipality, string, bool) {
		calls++
		require.Error(t, err)
		return domain.Municipality{ID: s.Target.ID, IsActive: true}, "resume", true
	}
	h.actionErr = &workflow.StepError{Workflow: "Toggle", Step: "second", Completed: []string{"first"}, Err: errors.New("boom")}
	require.NoError(t, h.c.OpenAction(domain.Municipality{ID: "m1"}, "toggle"))

	_, _ = h.c.SubmitAndWait(context.Background())
	require.Equal(t, 1, calls)
	sess := h.c.Session()
	require.Equal(t, "resume", sess.Action)
	require.True(t, sess.Target.IsActive)
	require.False(t, sess.Submitting)

	// plain errors do not refresh, so the target is left alone
	h.actionErr = errors.New("offline")
	_, _ = h.c.SubmitAndWait(context.Background())
	require.Equal(t, 1, calls)
	require.Equal(t, []string{"toggle:m1", "resume:m1"}, h.actions)
}

func TestRefreshFailureWarns(t *testing.T) {
	h := newHarness()
	h.c.h.Refresh = func(context.Context) error { return errors.New("offline") }
	require.NoError(t, h.c.OpenDelete(domain.Municipality{ID: "m1"}))

	_, dispatched := h.c.SubmitAndWait(context.Background())
	require.True(t, dispatched)

	entries := h.rec.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, notify.Success, entries[0].Severity)
	require.Equal(t, notify.Warning, entries[1].Severity)
	require.Equal(t, "Could not reload municipalities: offline", entries[1].Message)
}

func TestSubmitWithoutSession(t *testing.T) {
	h := newHarness()
	require.Nil(t, h.c.Submit())
	_, dispatched := h.c.SubmitAndWait(context.Background())
	require.False(t, dispatched)
	require.ErrorIs(t, h.c.UpdateDraft(func(*domain.MunicipalityDraft) {}), ErrClosed)
}
