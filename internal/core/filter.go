package core

import (
	"sort"
	"strings"
)

// BillFilter selects bills. Every field is optional and they combine with AND.
// Zero values, StatusAll, CategoryAll and the word "todas" disable a field.
type BillFilter struct {
	Month    MonthKey
	Status   Status
	Category Category
	Search   string
}

const legacyAll = "todas"

func (f BillFilter) statusActive() bool {
	return f.Status != "" && f.Status != StatusAll && f.Status != legacyAll
}

func (f BillFilter) categoryActive() bool {
	return f.Category != "" && f.Category != CategoryAll && f.Category != legacyAll
}

// Matches reports whether b passes every active criterion.
func (f BillFilter) Matches(b Bill) bool {
	if f.Month != "" && b.MonthKey != f.Month {
		return false
	}
	if f.statusActive() && b.Status != f.Status {
		return false
	}
	if f.categoryActive() && b.Category != f.Category {
		return false
	}
	if strings.TrimSpace(f.Search) != "" {
		if !strings.Contains(strings.ToLower(b.Name), strings.ToLower(f.Search)) {
			return false
		}
	}
	return true
}

// FilterBills returns the matching bills in their original order.
// The input slice is not modified.
func FilterBills(bills []Bill, f BillFilter) []Bill {
	out := make([]Bill, 0, len(bills))
	for _, b := range bills {
		if f.Matches(b) {
			out = append(out, b)
		}
	}
	return out
}

// SortForDisplay returns a copy ordered unpaid first, then by ascending due day.
func SortForDisplay(bills []Bill) []Bill {
	out := append([]Bill(nil), bills...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].IsPaid(), out[j].IsPaid()
		if pi != pj {
			return !pi
		}
		return out[i].DueDay < out[j].DueDay
	})
	return out
}
