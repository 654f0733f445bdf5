package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/doroshop/dsadmin/internal/modal"
)

// field is one text input of a dialog form.
type field struct {
	label string
	value string
	hint  string
}

// dialog erases the resource and draft types of a modal controller so the
// app can drive every screen's dialog the same way.
type dialog interface {
	IsOpen() bool
	Submitting() bool
	Cancel()
	Title() string
	Warning() string
	Fields() []field
	Apply(values []string) error
	Submit() func(context.Context) modal.Result
	Resolve(modal.Result)
}

type binding[T any, D any] struct {
	ctrl   *modal.Controller[T, D]
	title  func(modal.Session[T, D]) string
	fields func(modal.Session[T, D]) []field
	apply  func(d *D, values []string)
}

func (b *binding[T, D]) IsOpen() bool     { return b.ctrl.IsOpen() }
func (b *binding[T, D]) Submitting() bool { return b.ctrl.Submitting() }
func (b *binding[T, D]) Cancel()          { b.ctrl.Cancel() }
func (b *binding[T, D]) Warning() string  { return b.ctrl.Warning() }

func (b *binding[T, D]) Title() string { return b.title(b.ctrl.Session()) }

func (b *binding[T, D]) Fields() []field {
	if b.fields == nil {
		return nil
	}
	return b.fields(b.ctrl.Session())
}

func (b *binding[T, D]) Apply(values []string) error {
	if b.apply == nil || len(values) == 0 {
		return nil
	}
	return b.ctrl.UpdateDraft(func(d *D) { b.apply(d, values) })
}

func (b *binding[T, D]) Submit() func(context.Context) modal.Result {
	job := b.ctrl.Submit()
	if job == nil {
		return nil
	}
	return job.Run
}

func (b *binding[T, D]) Resolve(r modal.Result) { b.ctrl.Resolve(r) }

// form holds the inputs of the open dialog.
type form struct {
	inputs []textinput.Model
	hints  []string
	focus  int
}

func newForm(fields []field) *form {
	f := &form{}
	for i, fd := range fields {
		in := textinput.New()
		in.Prompt = fmt.Sprintf("%-14s", fd.label+":")
		in.SetValue(fd.value)
		in.CharLimit = 256
		if i == 0 {
			in.Focus()
		}
		f.inputs = append(f.inputs, in)
		f.hints = append(f.hints, fd.hint)
	}
	return f
}

func (f *form) values() []string {
	out := make([]string, len(f.inputs))
	for i, in := range f.inputs {
		out[i] = in.Value()
	}
	return out
}

func (f *form) move(dir int) {
	if len(f.inputs) == 0 {
		return
	}
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + dir + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) view() string {
	var lines []string
	for i, in := range f.inputs {
		lines = append(lines, in.View())
		if i == f.focus && f.hints[i] != "" {
			lines = append(lines, hintStyle.Render("  "+f.hints[i]))
		}
	}
	return strings.Join(lines, "\n")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func parseYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1", "on":
		return true
	}
	return false
}

func valueAt(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
