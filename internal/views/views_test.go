package views

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doroshop/dsadmin/internal/domain"
)

func amount(v float64) *float64 { return &v }

func testRefunds() []domain.Refund {
	return []domain.Refund{
		{ID: "r1", Status: "approved", Amount: amount(100), Order: domain.NewRef("65a1b2c3d4e5f6a7b8c9d0e1"),
			Customer: &domain.Ref{ID: "u1", Display: map[string]string{"name": "Maria Santos"}}},
		{ID: "r2", Status: "pending", Amount: amount(50), Customer: domain.NewRef("u2")},
		{ID: "r3", Status: "approved"},
	}
}

func TestTotalRefundedTreatsMissingAmountAsZero(t *testing.T) {
	stats := RefundsSummary(testRefunds())
	require.Equal(t, 100.0, stats.TotalRefunded)
	require.Equal(t, 50.0, stats.PendingAmount)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.ByStatus["approved"])
	require.Equal(t, 1, stats.ByStatus["pending"])
}

func TestTotalRefundedIncludesProcessed(t *testing.T) {
	refunds := append(testRefunds(), domain.Refund{ID: "r4", Status: "processed", Amount: amount(25.5)}, domain.Refund{ID: "r5", Status: "rejected", Amount: amount(900)})
	require.Equal(t, 125.5, RefundsSummary(refunds).TotalRefunded)
}

func TestSearchMatchesDerivedFields(t *testing.T) {
	refunds := testRefunds()
	require.Len(t, Search(refunds, "maria"), 1)
	require.Len(t, Search(refunds, "#b8c9"), 1)
	require.Len(t, Search(refunds, "  "), 3)
	require.Empty(t, Search(refunds, "nobody"))
}

func TestSearchIsIdempotent(t *testing.T) {
	refunds := testRefunds()
	first := Search(refunds, "SANTOS")
	second := Search(refunds, "SANTOS")
	require.Equal(t, first, second)
	require.Len(t, refunds, 3)
}

func TestFilterStatus(t *testing.T) {
	refunds := testRefunds()
	require.Len(t, FilterStatus(refunds, StatusAll), 3)
	require.Len(t, FilterStatus(refunds, ""), 3)
	require.Len(t, FilterStatus(refunds, "approved"), 2)
	require.Empty(t, FilterStatus(refunds, "processed"))
}

func TestApplyCombinesFilters(t *testing.T) {
	refunds := testRefunds()
	require.Len(t, Apply(refunds, Filter{Query: "u2", Status: "pending"}), 1)
	require.Empty(t, Apply(refunds, Filter{Query: "u2", Status: "approved"}))
	// categories have no status; the status filter is ignored
	cats := []domain.Category{{ID: "c1", Name: "Shoes"}}
	require.Len(t, Apply(cats, Filter{Query: "sho", Status: "active"}), 1)
}

func TestSubcategoryCountNormalizesParentForms(t *testing.T) {
	cats := []domain.Category{
		{ID: "X", Name: "Electronics"},
		{ID: "a", Name: "Phones", Parent: domain.NewRef("X")},
		{ID: "b", Name: "Cases", Parent: &domain.Ref{ID: "X", Display: map[string]string{"name": "Y"}}},
		{ID: "c", Name: "Shoes"},
	}
	require.Equal(t, 2, SubcategoryCount(cats, "X"))
	require.Equal(t, 0, SubcategoryCount(cats, "c"))
	require.Equal(t, 0, SubcategoryCount(cats, ""))
	require.Len(t, Roots(cats), 2)
	require.True(t, IsRoot(cats[0]))
	require.False(t, IsRoot(cats[2]))

	summary := CategoriesSummary(cats)
	require.Equal(t, 4, summary.Total)
	require.Equal(t, 2, summary.Roots)
	require.Equal(t, 2, summary.Subcategories)
}

func TestTreeOrder(t *testing.T) {
	cats := []domain.Category{
		{ID: "b", Name: "Cases", Parent: domain.NewRef("X")},
		{ID: "X", Name: "Electronics"},
		{ID: "o", Name: "Orphan", Parent: domain.NewRef("gone")},
		{ID: "a", Name: "Phones", Parent: domain.NewRef("X")},
	}
	ordered, depth := TreeOrder(cats)
	var names []string
	for _, c := range ordered {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"Electronics", "Cases", "Phones", "Orphan"}, names)
	require.Equal(t, []int{0, 1, 1, 0}, depth)
}

func TestTreeOrderSurvivesCycles(t *testing.T) {
	cats := []domain.Category{
		{ID: "a", Name: "A", Parent: domain.NewRef("b")},
		{ID: "b", Name: "B", Parent: domain.NewRef("a")},
	}
	ordered, _ := TreeOrder(cats)
	require.Len(t, ordered, 2)
}

func TestIsDescendant(t *testing.T) {
	cats := []domain.Category{
		{ID: "root", Name: "Produce"},
		{ID: "mid", Name: "Fruits", Parent: domain.NewRef("root")},
		{ID: "leaf", Name: "Citrus", Parent: &domain.Ref{ID: "mid"}},
		{ID: "x", Name: "X", Parent: domain.NewRef("y")},
		{ID: "y", Name: "Y", Parent: domain.NewRef("x")},
	}
	require.True(t, IsDescendant(cats, "root", "leaf"))
	require.True(t, IsDescendant(cats, "root", "mid"))
	require.False(t, IsDescendant(cats, "leaf", "root"))
	require.False(t, IsDescendant(cats, "root", "root"))
	require.False(t, IsDescendant(cats, "root", "x"))
	require.True(t, IsDescendant(cats, "x", "y"))
}

func TestActiveSummaries(t *testing.T) {
	ms := []domain.Municipality{{ID: "1", IsActive: true}, {ID: "2"}, {ID: "3", IsActive: true}}
	require.Equal(t, ActiveStats{Total: 3, Active: 2, Inactive: 1}, MunicipalitiesSummary(ms))
	require.Equal(t, ActiveStats{}, PlansSummary(nil))
}

func TestSubscriptionsSummary(t *testing.T) {
	subs := []domain.Subscription{
		{ID: "s1", Status: "active", Plan: domain.NewRef("p1")},
		{ID: "s2", Status: "active", Plan: &domain.Ref{ID: "p1", Display: map[string]string{"code": "pro"}}},
		{ID: "s3", Status: "expired", Plan: domain.NewRef("p2")},
	}
	stats := SubscriptionsSummary(subs)
	require.Equal(t, 2, stats.ByPlan["p1"])
	require.Equal(t, 1, stats.ByStatus["expired"])
}

func TestFind(t *testing.T) {
	r, ok := Find(testRefunds(), "r2")
	require.True(t, ok)
	require.Equal(t, "pending", r.Status)
	_, ok = Find(testRefunds(), "zz")
	require.False(t, ok)
}

func TestSumCountsEveryAmount(t *testing.T) {
	got := Sum(testRefunds(), func(r domain.Refund) *float64 { return r.Amount })
	require.Equal(t, 150.0, got)
	require.Zero(t, Sum([]domain.Refund(nil), func(r domain.Refund) *float64 { return r.Amount }))
}
