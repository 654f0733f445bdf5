// Package views derives filtered lists and aggregates from a collection.
// Every function is pure: it never mutates its input and never performs I/O.
package views

import (
	"strings"

	"github.com/doroshop/dsadmin/internal/domain"
)

// StatusAll disables status filtering.
const StatusAll = "all"

// Filter is the search state owned by the presentation layer.
type Filter struct {
	Query  string
	Status string
}

// Search keeps resources where any search field contains query,
// case-insensitively. A blank query keeps everything.
func Search[T domain.Resource](items []T, query string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if q == "" || matches(it.SearchFields(), q) {
			out = append(out, it)
		}
	}
	return out
}

func matches(fields []string, q string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// FilterStatus keeps exact status matches unless status is blank or StatusAll.
func FilterStatus[T domain.Statused](items []T, status string) []T {
	status = strings.TrimSpace(status)
	out := make([]T, 0, len(items))
	for _, it := range items {
		if status == "" || status == StatusAll || it.StatusKey() == status {
			out = append(out, it)
		}
	}
	return out
}

// Apply runs the text search and, for statused resources, the status filter.
func Apply[T domain.Resource](items []T, f Filter) []T {
	out := Search(items, f.Query)
	if f.Status == "" || f.Status == StatusAll {
		return out
	}
	kept := out[:0]
	for _, it := range out {
		if st, ok := any(it).(domain.Statused); ok && st.StatusKey() != f.Status {
			continue
		}
		kept = append(kept, it)
	}
	return kept
}

// CountBy buckets items by key.
func CountBy[T any](items []T, key func(T) string) map[string]int {
	out := map[string]int{}
	for _, it := range items {
		out[key(it)]++
	}
	return out
}

// SumWhere adds amount over items accepted by keep. Missing amounts count as 0.
func SumWhere[T any](items []T, amount func(T) *float64, keep func(T) bool) float64 {
	var total float64
	for _, it := range items {
		if keep != nil && !keep(it) {
			continue
		}
		if v := amount(it); v != nil {
			total += *v
		}
	}
	return total
}

// Sum adds amount over every item.
func Sum[T any](items []T, amount func(T) *float64) float64 {
	return SumWhere(items, amount, nil)
}

// Find returns the resource with the given key.
func Find[T domain.Resource](items []T, id string) (T, bool) {
	for _, it := range items {
		if it.Key() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}
