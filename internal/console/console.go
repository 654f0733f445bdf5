// Package console binds every admin screen to its collection store, dialog
// controller and the workflows behind its actions.
package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/doroshop/dsadmin/internal/api"
	"github.com/doroshop/dsadmin/internal/domain"
	"github.com/doroshop/dsadmin/internal/notify"
	"github.com/doroshop/dsadmin/internal/store"
	"github.com/doroshop/dsadmin/internal/workflow"
)

const DefaultCurrency = "₱"

// Backends are the collections the console talks to.
type Backends struct {
	Categories     store.Backend[domain.Category]
	Municipalities store.Backend[domain.Municipality]
	Refunds        RefundBackend
	Plans          store.Backend[domain.Plan]
	Subscriptions  store.Backend[domain.Subscription]
}

// FromAPI adapts the HTTP resources.
func FromAPI(r api.Resources) Backends {
	return Backends{
		Categories:     r.Categories,
		Municipalities: r.Municipalities,
		Refunds:        r.Refunds,
		Plans:          r.Plans,
		Subscriptions:  r.Subscriptions,
	}
}

// Console is the set of screens of one admin session.
type Console struct {
	Categories     *Categories
	Municipalities *Municipalities
	Refunds        *Refunds
	Plans          *Plans
	Subscriptions  *Subscriptions
	Workflows      *workflow.Orchestrator
}

func New(b Backends, n notify.Notifier, log zerolog.Logger) *Console {
	if n == nil {
		n = notify.Discard
	}
	wf := &workflow.Orchestrator{Log: log.With().Str("component", "workflow").Logger()}
	c := &Console{Workflows: wf}
	c.Categories = NewCategories(b.Categories, n, log)
	c.Municipalities = NewMunicipalities(b.Municipalities, wf, n, log)
	c.Refunds = NewRefunds(b.Refunds, wf, n, log)
	c.Plans = NewPlans(b.Plans, wf, n, log)
	c.Subscriptions = NewSubscriptions(b.Subscriptions, c.Plans.Store(), wf, n, log)
	return c
}

// Screens returns the screens in tab order.
func (c *Console) Screens() []Screen {
	return []Screen{c.Categories, c.Municipalities, c.Refunds, c.Plans, c.Subscriptions}
}

// LoadAll fetches every collection and joins the failures.
func (c *Console) LoadAll(ctx context.Context) error {
	var errs []error
	for _, s := range c.Screens() {
		if err := s.Load(ctx, s.Query()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func unknownAction(action string) error {
	return fmt.Errorf("console: unknown action %q", action)
}

// FormatAmount renders an optional amount with two decimals and thousands
// separators. A missing amount reads as zero.
func FormatAmount(currency string, v *float64) string {
	var amount float64
	if v != nil {
		amount = *v
	}
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + currency + b.String() + "." + frac
}
