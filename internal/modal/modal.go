// Package modal implements the dialog lifecycle shared by every admin screen:
// one session at a time, at most one submission in flight per session.
//
// Controller methods belong to the UI event loop. Submit hands back a Job
// whose Run performs the network work and may execute on any goroutine; its
// Result is applied back on the loop with Resolve.
package modal

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/doroshop/dsadmin/internal/api"
	"github.com/doroshop/dsadmin/internal/domain"
	"github.com/doroshop/dsadmin/internal/notify"
	"github.com/doroshop/dsadmin/internal/workflow"
)

// Mode is the kind of dialog a session shows.
type Mode int

const (
	Closed Mode = iota
	Create
	Edit
	DeleteConfirm
	ActionConfirm
)

func (m Mode) String() string {
	switch m {
	case Create:
		return "create"
	case Edit:
		return "edit"
	case DeleteConfirm:
		return "delete-confirm"
	case ActionConfirm:
		return "action-confirm"
	default:
		return "closed"
	}
}

var (
	ErrSessionOpen = errors.New("modal: another dialog is open")
	ErrClosed      = errors.New("modal: no dialog is open")
	ErrSubmitting  = errors.New("modal: submission in flight")
)

// Session is the single dialog state of a screen. Target is nil for create.
type Session[T any, D any] struct {
	ID         uint64
	Mode       Mode
	Target     *T
	Action     string
	Draft      D
	Submitting bool
}

// Handlers binds a controller to its screen. Operations left nil fail at
// submit time.
type Handlers[T any, D any] struct {
	NewDraft    func() D
	DraftFrom   func(T) D
	ActionDraft func(target T, action string) D

	Validate func(s Session[T, D]) error
	Warn     func(s Session[T, D]) string
	Success  func(s Session[T, D]) string

	Create  func(ctx context.Context, draft D) error
	Update  func(ctx context.Context, target T, draft D) error
	Delete  func(ctx context.Context, target T) error
	Action  func(ctx context.Context, target T, action string, draft D) error
	Refresh func(ctx context.Context) error

	// Retarget re-reads the target of a session that stays open after a
	// failed submit refreshed the collection. It may also switch the action
	// so a retry resumes where a workflow stopped.
	Retarget func(s Session[T, D], err error) (target T, action string, ok bool)
}

// Controller owns the Session of one screen.
type Controller[T any, D any] struct {
	name     string
	h        Handlers[T, D]
	notifier notify.Notifier
	log      zerolog.Logger
	session  Session[T, D]
	lastID   uint64
}

func New[T any, D any](name string, h Handlers[T, D], n notify.Notifier, log zerolog.Logger) *Controller[T, D] {
	if n == nil {
		n = notify.Discard
	}
	return &Controller[T, D]{name: name, h: h, notifier: n, log: log.With().Str("modal", name).Logger()}
}

// Session returns a copy of the current session.
func (c *Controller[T, D]) Session() Session[T, D] { return c.session }

func (c *Controller[T, D]) Mode() Mode { return c.session.Mode }

func (c *Controller[T, D]) IsOpen() bool { return c.session.Mode != Closed }

func (c *Controller[T, D]) Submitting() bool { return c.session.Submitting }

// Draft returns the current draft.
func (c *Controller[T, D]) Draft() D { return c.session.Draft }

func (c *Controller[T, D]) OpenCreate() error {
	var draft D
	if c.h.NewDraft != nil {
		draft = c.h.NewDraft()
	}
	return c.open(Create, nil, "", draft)
}

func (c *Controller[T, D]) OpenEdit(target T) error {
	var draft D
	if c.h.DraftFrom != nil {
		draft = c.h.DraftFrom(target)
	}
	return c.open(Edit, &target, "", draft)
}

func (c *Controller[T, D]) OpenDelete(target T) error {
	var draft D
	return c.open(DeleteConfirm, &target, "", draft)
}

func (c *Controller[T, D]) OpenAction(target T, action string) error {
	var draft D
	if c.h.ActionDraft != nil {
		draft = c.h.ActionDraft(target, action)
	}
	return c.open(ActionConfirm, &target, action, draft)
}

func (c *Controller[T, D]) open(mode Mode, target *T, action string, draft D) error {
	if c.session.Mode != Closed {
		return ErrSessionOpen
	}
	c.lastID++
	c.session = Session[T, D]{ID: c.lastID, Mode: mode, Target: target, Action: action, Draft: draft}
	c.log.Debug().Str("mode", mode.String()).Str("action", action).Msg("open")
	return nil
}

// Cancel closes the session and discards the draft. The state machine allows
// it while submitting; the UI disables the control instead.
func (c *Controller[T, D]) Cancel() {
	if c.session.Mode == Closed {
		return
	}
	c.log.Debug().Bool("submitting", c.session.Submitting).Msg("cancel")
	c.session = Session[T, D]{}
}

// UpdateDraft edits the draft of an open, idle session.
func (c *Controller[T, D]) UpdateDraft(fn func(*D)) error {
	if c.session.Mode == Closed {
		return ErrClosed
	}
	if c.session.Submitting {
		return ErrSubmitting
	}
	fn(&c.session.Draft)
	return nil
}

// Warning returns the pre-confirmation warning for the session, if any.
func (c *Controller[T, D]) Warning() string {
	if c.session.Mode == Closed || c.h.Warn == nil {
		return ""
	}
	return c.h.Warn(c.session)
}

// Submit validates the session and marks it submitting. It returns nil when
// nothing must be dispatched: no session, a submission already in flight, or
// a validation failure (notified synchronously).
func (c *Controller[T, D]) Submit() *Job[T, D] {
	s := c.session
	if s.Mode == Closed {
		return nil
	}
	if s.Submitting {
		c.log.Debug().Msg("submit ignored: already in flight")
		return nil
	}
	if c.h.Validate != nil {
		if err := c.h.Validate(s); err != nil {
			c.notifier.Notify(ErrorMessage(err), notify.Error)
			return nil
		}
	}
	c.session.Submitting = true
	return &Job[T, D]{session: s, h: c.h, log: c.log}
}

// Resolve applies the outcome of a Job. Results of a session that has since
// been cancelled or replaced only produce notifications.
func (c *Controller[T, D]) Resolve(r Result) {
	current := c.session.Mode != Closed && c.session.ID == r.SessionID && c.session.Submitting
	if r.Err != nil {
		if current {
			c.session.Submitting = false
			c.retarget(r)
		}
		c.log.Warn().Err(r.Err).Str("mode", r.Mode.String()).Str("action", r.Action).Msg("submit failed")
		c.notifier.Notify(ErrorMessage(r.Err), notify.Error)
	} else {
		msg := r.Message
		if current {
			c.session = Session[T, D]{}
		}
		c.log.Info().Str("mode", r.Mode.String()).Str("action", r.Action).Msg("submit succeeded")
		c.notifier.Notify(msg, notify.Success)
	}
	if r.RefreshErr != nil {
		c.notifier.Notify("Could not reload "+c.name+": "+ErrorMessage(r.RefreshErr), notify.Warning)
	}
}

func (c *Controller[T, D]) retarget(r Result) {
	if !r.Refreshed || c.session.Target == nil || c.h.Retarget == nil {
		return
	}
	t, action, ok := c.h.Retarget(c.session, r.Err)
	if !ok {
		return
	}
	if action != c.session.Action {
		c.log.Debug().Str("from", c.session.Action).Str("to", action).Msg("retarget")
	}
	c.session.Target = &t
	c.session.Action = action
}

// SubmitAndWait runs Submit, Run and Resolve in sequence. It reports whether
// anything was dispatched.
func (c *Controller[T, D]) SubmitAndWait(ctx context.Context) (Result, bool) {
	job := c.Submit()
	if job == nil {
		return Result{}, false
	}
	res := job.Run(ctx)
	c.Resolve(res)
	return res, true
}

// Result is the terminal outcome of a Job.
type Result struct {
	SessionID  uint64
	Mode       Mode
	Action     string
	Err        error
	Message    string
	Refreshed  bool
	RefreshErr error
}

// Job is one dispatched submission.
type Job[T any, D any] struct {
	session Session[T, D]
	h       Handlers[T, D]
	log     zerolog.Logger
}

// Session is the snapshot the job was dispatched with.
func (j *Job[T, D]) Session() Session[T, D] { return j.session }

// Run performs the backend operation and the follow-up refresh. The
// collection is refreshed after a success and after any outcome of a
// multi-step workflow, so a partially applied workflow is never hidden.
func (j *Job[T, D]) Run(ctx context.Context) Result {
	s := j.session
	res := Result{SessionID: s.ID, Mode: s.Mode, Action: s.Action}
	res.Err = j.dispatch(ctx)
	if res.Err == nil {
		res.Message = j.successMessage()
	}
	var stepErr *workflow.StepError
	if (res.Err == nil || errors.As(res.Err, &stepErr)) && j.h.Refresh != nil {
		res.Refreshed = true
		res.RefreshErr = j.h.Refresh(ctx)
	}
	return res
}

func (j *Job[T, D]) dispatch(ctx context.Context) error {
	s := j.session
	switch s.Mode {
	case Create:
		if j.h.Create == nil {
			return fmt.Errorf("modal: create not supported")
		}
		return j.h.Create(ctx, s.Draft)
	case Edit:
		if j.h.Update == nil {
			return fmt.Errorf("modal: edit not supported")
		}
		return j.h.Update(ctx, *s.Target, s.Draft)
	case DeleteConfirm:
		if j.h.Delete == nil {
			return fmt.Errorf("modal: delete not supported")
		}
		return j.h.Delete(ctx, *s.Target)
	case ActionConfirm:
		if j.h.Action == nil {
			return fmt.Errorf("modal: action %q not supported", s.Action)
		}
		return j.h.Action(ctx, *s.Target, s.Action, s.Draft)
	}
	return ErrClosed
}

func (j *Job[T, D]) successMessage() string {
	if j.h.Success != nil {
		if msg := j.h.Success(j.session); msg != "" {
			return msg
		}
	}
	switch j.session.Mode {
	case Create:
		return "Created"
	case Edit:
		return "Saved"
	case DeleteConfirm:
		return "Deleted"
	default:
		return "Done"
	}
}

// ErrorMessage renders err for a notification.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var stepErr *workflow.StepError
	if errors.As(err, &stepErr) {
		return stepErr.Summary()
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
