package views

import (
	"sort"

	"github.com/doroshop/dsadmin/internal/domain"
)

// IsRoot reports whether a category has no parent.
func IsRoot(c domain.Category) bool {
	return domain.RefID(c.Parent) == ""
}

// Roots returns top-level categories.
func Roots(cats []domain.Category) []domain.Category {
	var out []domain.Category
	for _, c := range cats {
		if IsRoot(c) {
			out = append(out, c)
		}
	}
	return out
}

// Children returns the direct subcategories of id, whichever form their
// parent reference arrived in.
func Children(cats []domain.Category, id string) []domain.Category {
	var out []domain.Category
	for _, c := range cats {
		if domain.SameRef(c.Parent, id) {
			out = append(out, c)
		}
	}
	return out
}

// IsDescendant reports whether id sits somewhere below ancestor. Existing
// cycles stop the walk.
func IsDescendant(cats []domain.Category, ancestor, id string) bool {
	parents := make(map[string]string, len(cats))
	for _, c := range cats {
		parents[c.ID] = domain.RefID(c.Parent)
	}
	seen := map[string]bool{}
	for cur := parents[id]; cur != "" && !seen[cur]; cur = parents[cur] {
		if cur == ancestor {
			return true
		}
		seen[cur] = true
	}
	return false
}

// SubcategoryCount counts direct children of id.
func SubcategoryCount(cats []domain.Category, id string) int {
	return len(Children(cats, id))
}

// TreeOrder lists roots alphabetically, each followed by its subtree, with
// the depth of every entry. Categories whose parent is missing from the
// collection are listed as roots.
func TreeOrder(cats []domain.Category) ([]domain.Category, []int) {
	known := make(map[string]bool, len(cats))
	for _, c := range cats {
		known[c.ID] = true
	}
	byParent := map[string][]domain.Category{}
	for _, c := range cats {
		parent := domain.RefID(c.Parent)
		if !known[parent] || parent == c.ID {
			parent = ""
		}
		byParent[parent] = append(byParent[parent], c)
	}
	for k := range byParent {
		group := byParent[k]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Name < group[j].Name })
	}
	var out []domain.Category
	var depth []int
	seen := map[string]bool{}
	var walk func(parent string, d int)
	walk = func(parent string, d int) {
		for _, c := range byParent[parent] {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
			depth = append(depth, d)
			walk(c.ID, d+1)
		}
	}
	walk("", 0)
	// cycles never reach the root; list them flat
	for _, c := range cats {
		if !seen[c.ID] {
			seen[c.ID] = true
			out = append(out, c)
			depth = append(depth, 0)
		}
	}
	return out, depth
}

// CategoryStats summarises the category screen.
type CategoryStats struct {
	Total, Roots, Subcategories, Active int
}

func CategoriesSummary(cats []domain.Category) CategoryStats {
	var s CategoryStats
	for _, c := range cats {
		s.Total++
		if IsRoot(c) {
			s.Roots++
		} else {
			s.Subcategories++
		}
		if c.IsActive {
			s.Active++
		}
	}
	return s
}

// RefundStats summarises the refund screen.
type RefundStats struct {
	Total         int
	ByStatus      map[string]int
	TotalRefunded float64
	PendingAmount float64
}

// Refunded reports whether a refund's amount counts as paid out.
func Refunded(r domain.Refund) bool {
	return r.Status == domain.RefundApproved || r.Status == domain.RefundProcessed
}

func RefundsSummary(refunds []domain.Refund) RefundStats {
	amount := func(r domain.Refund) *float64 { return r.Amount }
	return RefundStats{
		Total:         len(refunds),
		ByStatus:      CountBy(refunds, domain.Refund.StatusKey),
		TotalRefunded: SumWhere(refunds, amount, Refunded),
		PendingAmount: SumWhere(refunds, amount, func(r domain.Refund) bool { return r.Status == domain.RefundPending }),
	}
}

// ActiveStats counts active and inactive resources.
type ActiveStats struct {
	Total, Active, Inactive int
}

func activeSummary[T domain.Statused](items []T) ActiveStats {
	counts := CountBy(items, func(it T) string { return it.StatusKey() })
	return ActiveStats{Total: len(items), Active: counts["active"], Inactive: counts["inactive"]}
}

func MunicipalitiesSummary(items []domain.Municipality) ActiveStats {
	return activeSummary(items)
}

func PlansSummary(items []domain.Plan) ActiveStats {
	return activeSummary(items)
}

// SubscriptionStats summarises subscriptions per status and per plan.
type SubscriptionStats struct {
	Total    int
	ByStatus map[string]int
	ByPlan   map[string]int
}

func SubscriptionsSummary(subs []domain.Subscription) SubscriptionStats {
	return SubscriptionStats{
		Total:    len(subs),
		ByStatus: CountBy(subs, domain.Subscription.StatusKey),
		ByPlan:   CountBy(subs, func(s domain.Subscription) string { return domain.RefID(s.Plan) }),
	}
}
