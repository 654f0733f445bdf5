package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/doroshop/dsadmin/internal/console"
	"github.com/doroshop/dsadmin/internal/domain"
	"github.com/doroshop/dsadmin/internal/modal"
	"github.com/doroshop/dsadmin/internal/views"
)

// tab is one screen as the app drives it. Row indexes refer to the rows
// returned by table.
type tab struct {
	title   string
	screen  console.Screen
	dialog  dialog
	table   func() ([]string, [][]string)
	stats   func() string
	create  func() error
	edit    func(row int) error
	remove  func(row int) error
	actions []tabAction
}

type tabAction struct {
	key   string
	label string
	open  func(row int) error
}

func (a *App) buildTabs() []*tab {
	return []*tab{
		a.categoriesTab(),
		a.municipalitiesTab(),
		a.refundsTab(),
		a.plansTab(),
		a.subscriptionsTab(),
	}
}

func at[T any](items []T, row int) (T, error) {
	if row < 0 || row >= len(items) {
		var zero T
		return zero, &domain.ValidationError{Field: "selection", Message: "Nothing selected"}
	}
	return items[row], nil
}

func modeTitle(mode modal.Mode, noun, name string) string {
	switch mode {
	case modal.Create:
		return "New " + noun
	case modal.Edit:
		return "Edit " + noun + " " + name
	case modal.DeleteConfirm:
		return "Delete " + noun + " " + name + "?"
	}
	return noun
}

func (a *App) categoriesTab() *tab {
	s := a.console.Categories
	visible := func() []domain.Category {
		cats, _ := s.Tree()
		return cats
	}
	b := &binding[domain.Category, domain.CategoryDraft]{
		ctrl: s.Modal(),
		title: func(sess modal.Session[domain.Category, domain.CategoryDraft]) string {
			name := ""
			if sess.Target != nil {
				name = sess.Target.Name
			}
			return modeTitle(sess.Mode, "category", name)
		},
		fields: func(sess modal.Session[domain.Category, domain.CategoryDraft]) []field {
			if sess.Mode != modal.Create && sess.Mode != modal.Edit {
				return nil
			}
			self := ""
			if sess.Target != nil {
				self = sess.Target.ID
			}
			var parents []string
			for _, p := range s.ParentOptions(self) {
				parents = append(parents, p.Name)
			}
			d := sess.Draft
			parent := d.ParentID
			if p, ok := s.Find(parent); ok {
				parent = p.Name
			}
			fs := []field{
				{label: "Name", value: d.Name},
				{label: "Description", value: d.Description},
				{label: "Parent", value: parent, hint: "name or id, blank for a root category: " + strings.Join(parents, ", ")},
				{label: "Active", value: yesNo(d.IsActive), hint: "yes or no"},
			}
			if sess.Mode == modal.Create {
				fs = append(fs, field{label: "Image", value: d.ImagePath, hint: "optional path to an image file"})
			}
			return fs
		},
		apply: func(d *domain.CategoryDraft, v []string) {
			d.Name = valueAt(v, 0)
			d.Description = valueAt(v, 1)
			d.ParentID = a.categoryID(valueAt(v, 2))
			d.IsActive = parseYes(valueAt(v, 3))
			d.ImagePath = valueAt(v, 4)
		},
	}
	return &tab{
		title:  "Categories",
		screen: s,
		dialog: b,
		table: func() ([]string, [][]string) {
			cats, depth := s.Tree()
			rows := make([][]string, len(cats))
			items := s.Store().Items()
			for i, c := range cats {
				name := c.Name
				if depth[i] > 0 {
					name = strings.Repeat("  ", depth[i]-1) + "└ " + name
				}
				rows[i] = []string{name, s.ParentName(c), yesNo(c.IsActive), fmt.Sprint(views.SubcategoryCount(items, c.ID)), a.date(c.CreatedAt)}
			}
			return []string{"Name", "Parent", "Active", "Subcategories", "Created"}, rows
		},
		stats: func() string {
			st := s.Stats()
			return fmt.Sprintf("%d categories  %d root  %d sub  %d active", st.Total, st.Roots, st.Subcategories, st.Active)
		},
		create: s.Modal().OpenCreate,
		edit: func(row int) error {
			c, err := at(visible(), row)
			if err != nil {
				return err
			}
			return s.Modal().OpenEdit(c)
		},
		remove: func(row int) error {
			c, err := at(visible(), row)
			if err != nil {
				return err
			}
			return s.Modal().OpenDelete(c)
		},
	}
}

// categoryID accepts a category name or id.
func (a *App) categoryID(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	for _, c := range a.console.Categories.Store().Items() {
		if strings.EqualFold(c.Name, input) {
			return c.ID
		}
	}
	return input
}

func (a *App) municipalitiesTab() *tab {
	s := a.console.Municipalities
	b := &binding[domain.Municipality, domain.MunicipalityDraft]{
		ctrl: s.Modal(),
		title: func(sess modal.Session[domain.Municipality, domain.MunicipalityDraft]) string {
			if sess.Mode == modal.ActionConfirm {
				if sess.Target.IsActive {
					return "Deactivate " + sess.Target.Name + "?"
				}
				return "Activate " + sess.Target.Name + "?"
			}
			name := ""
			if sess.Target != nil {
				name = sess.Target.Name
			}
			return modeTitle(sess.Mode, "municipality", name)
		},
		fields: func(sess modal.Session[domain.Municipality, domain.MunicipalityDraft]) []field {
			if sess.Mode != modal.Create && sess.Mode != modal.Edit {
				return nil
			}
			d := sess.Draft
			return []field{
				{label: "Name", value: d.Name},
				{label: "Province", value: d.Province},
				{label: "Zip code", value: d.ZipCode},
				{label: "Active", value: yesNo(d.IsActive), hint: "yes or no"},
			}
		},
		apply: func(d *domain.MunicipalityDraft, v []string) {
			d.Name, d.Province, d.ZipCode = valueAt(v, 0), valueAt(v, 1), valueAt(v, 2)
			d.IsActive = parseYes(valueAt(v, 3))
		},
	}
	pick := func(row int) (domain.Municipality, error) { return at(s.Visible(), row) }
	return &tab{
		title:  "Municipalities",
		screen: s,
		dialog: b,
		table: func() ([]string, [][]string) {
			var rows [][]string
			for _, m := range s.Visible() {
				rows = append(rows, []string{m.Name, m.Province, m.ZipCode, m.StatusKey()})
			}
			return []string{"Name", "Province", "Zip", "Status"}, rows
		},
		stats: func() string {
			st := s.Stats()
			return fmt.Sprintf("%d municipalities  %d active  %d inactive", st.Total, st.Active, st.Inactive)
		},
		create: s.Modal().OpenCreate,
		edit: func(row int) error {
			m, err := pick(row)
			if err != nil {
				return err
			}
			return s.Modal().OpenEdit(m)
		},
		remove: func(row int) error {
			m, err := pick(row)
			if err != nil {
				return err
			}
			return s.Modal().OpenDelete(m)
		},
		actions: []tabAction{{key: "t", label: "toggle active", open: func(row int) error {
			m, err := pick(row)
			if err != nil {
				return err
			}
			return s.Modal().OpenAction(m, console.ActionToggle)
		}}},
	}
}

func (a *App) refundsTab() *tab {
	s := a.console.Refunds
	b := &binding[domain.Refund, domain.RefundDecision]{
		ctrl: s.Modal(),
		title: func(sess modal.Session[domain.Refund, domain.RefundDecision]) string {
			if sess.Target == nil || sess.Action == "" {
				return "Refund"
			}
			verb := strings.ToUpper(sess.Action[:1]) + sess.Action[1:]
			return fmt.Sprintf("%s refund %s (%s)?", verb, sess.Target.OrderNumber(), a.money(sess.Target.Amount))
		},
		fields: func(sess modal.Session[domain.Refund, domain.RefundDecision]) []field {
			switch sess.Action {
			case console.ActionApprove:
				return []field{{label: "Note", value: sess.Draft.Note, hint: "optional"}}
			case console.ActionReject:
				return []field{{label: "Reason", value: sess.Draft.Note, hint: "required"}}
			}
			return nil
		},
		apply: func(d *domain.RefundDecision, v []string) { d.Note = valueAt(v, 0) },
	}
	pick := func(row int) (domain.Refund, error) { return at(s.Visible(), row) }
	action := func(name string) func(int) error {
		return func(row int) error {
			r, err := pick(row)
			if err != nil {
				return err
			}
			return s.Modal().OpenAction(r, name)
		}
	}
	return &tab{
		title:  "Refunds",
		screen: s,
		dialog: b,
		table: func() ([]string, [][]string) {
			var rows [][]string
			for _, r := range s.Visible() {
				rows = append(rows, []string{r.OrderNumber(), r.CustomerName(), r.Seller.Label(), a.money(r.Amount), r.Status, a.date(r.CreatedAt)})
			}
			return []string{"Order", "Customer", "Seller", "Amount", "Status", "Requested"}, rows
		},
		stats: func() string {
			st := s.Stats()
			var parts []string
			for _, status := range domain.RefundStatuses {
				parts = append(parts, fmt.Sprintf("%s %d", status, st.ByStatus[status]))
			}
			return fmt.Sprintf("%d refunds (%s)  refunded %s  pending %s",
				st.Total, strings.Join(parts, ", "), a.money(&st.TotalRefunded), a.money(&st.PendingAmount))
		},
		actions: []tabAction{
			{key: "a", label: "approve", open: action(console.ActionApprove)},
			{key: "x", label: "reject", open: action(console.ActionReject)},
			{key: "p", label: "process", open: action(console.ActionProcess)},
		},
	}
}

func (a *App) plansTab() *tab {
	s := a.console.Plans
	b := &binding[domain.Plan, domain.PlanDraft]{
		ctrl: s.Modal(),
		title: func(sess modal.Session[domain.Plan, domain.PlanDraft]) string {
			if sess.Mode == modal.ActionConfirm {
				if sess.Target.IsActive {
					return "Deactivate plan " + sess.Target.Code + "?"
				}
				return "Activate plan " + sess.Target.Code + "?"
			}
			name := ""
			if sess.Target != nil {
				name = sess.Target.Code
			}
			return modeTitle(sess.Mode, "plan", name)
		},
		fields: func(sess modal.Session[domain.Plan, domain.PlanDraft]) []field {
			if sess.Mode != modal.Create && sess.Mode != modal.Edit {
				return nil
			}
			d := sess.Draft
			return []field{
				{label: "Code", value: d.Code},
				{label: "Name", value: d.Name},
				{label: "Description", value: d.Description},
				{label: "Price", value: d.Price},
				{label: "Billing", value: d.BillingCycle, hint: "monthly, quarterly or yearly"},
				{label: "Discount %", value: d.Discount},
				{label: "Features", value: d.Features, hint: "comma separated"},
				{label: "Active", value: yesNo(d.IsActive), hint: "yes or no"},
			}
		},
		apply: func(d *domain.PlanDraft, v []string) {
			d.Code, d.Name, d.Description = valueAt(v, 0), valueAt(v, 1), valueAt(v, 2)
			d.Price, d.BillingCycle, d.Discount = valueAt(v, 3), valueAt(v, 4), valueAt(v, 5)
			d.Features = valueAt(v, 6)
			d.IsActive = parseYes(valueAt(v, 7))
		},
	}
	pick := func(row int) (domain.Plan, error) { return at(s.Visible(), row) }
	return &tab{
		title:  "Plans",
		screen: s,
		dialog: b,
		table: func() ([]string, [][]string) {
			var rows [][]string
			for _, p := range s.Visible() {
				price := p.Price
				rows = append(rows, []string{p.Code, p.Name, a.money(&price), p.BillingCycle, fmt.Sprintf("%g%%", p.DiscountPercent), p.StatusKey()})
			}
			return []string{"Code", "Name", "Price", "Billing", "Discount", "Status"}, rows
		},
		stats: func() string {
			st := s.Stats()
			return fmt.Sprintf("%d plans  %d active  %d inactive", st.Total, st.Active, st.Inactive)
		},
		create: s.Modal().OpenCreate,
		edit: func(row int) error {
			p, err := pick(row)
			if err != nil {
				return err
			}
			return s.Modal().OpenEdit(p)
		},
		remove: func(row int) error {
			p, err := pick(row)
			if err != nil {
				return err
			}
			return s.Modal().OpenDelete(p)
		},
		actions: []tabAction{{key: "t", label: "toggle active", open: func(row int) error {
			p, err := pick(row)
			if err != nil {
				return err
			}
			return s.Modal().OpenAction(p, console.ActionToggle)
		}}},
	}
}

func (a *App) subscriptionsTab() *tab {
	s := a.console.Subscriptions
	b := &binding[domain.Subscription, domain.PlanAssignment]{
		ctrl: s.Modal(),
		title: func(sess modal.Session[domain.Subscription, domain.PlanAssignment]) string {
			if sess.Target == nil {
				return "Subscription"
			}
			return "Change plan for " + sess.Target.Seller.Label()
		},
		fields: func(sess modal.Session[domain.Subscription, domain.PlanAssignment]) []field {
			var codes []string
			for _, p := range a.console.Plans.Store().Items() {
				codes = append(codes, p.Code)
			}
			sort.Strings(codes)
			return []field{{label: "Plan", value: sess.Draft.Input, hint: "plan id or code: " + strings.Join(codes, ", ")}}
		},
		apply: func(d *domain.PlanAssignment, v []string) { d.Input = strings.TrimSpace(valueAt(v, 0)) },
	}
	return &tab{
		title:  "Subscriptions",
		screen: s,
		dialog: b,
		table: func() ([]string, [][]string) {
			var rows [][]string
			for _, sub := range s.Visible() {
				rows = append(rows, []string{sub.Seller.Label(), s.PlanName(sub), sub.Status, a.datePtr(sub.StartDate), a.datePtr(sub.EndDate)})
			}
			return []string{"Seller", "Plan", "Status", "Start", "End"}, rows
		},
		stats: func() string {
			st := s.Stats()
			var parts []string
			for _, status := range domain.SubscriptionStatuses {
				parts = append(parts, fmt.Sprintf("%s %d", status, st.ByStatus[status]))
			}
			return fmt.Sprintf("%d subscriptions (%s)", st.Total, strings.Join(parts, ", "))
		},
		actions: []tabAction{{key: "r", label: "change plan", open: func(row int) error {
			sub, err := at(s.Visible(), row)
			if err != nil {
				return err
			}
			return s.Modal().OpenAction(sub, console.ActionReassign)
		}}},
	}
}

func (a *App) money(v *float64) string {
	return console.FormatAmount(a.currency, v)
}

func (a *App) date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(a.tz).Format(a.dateFormat)
}

func (a *App) datePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return a.date(*t)
}
