package core

// Summary is the derived financial snapshot of one month. It is never stored.
type Summary struct {
	MonthKey         MonthKey `json:"monthKey"`
	TotalExpenses    Money    `json:"totalExpenses"`
	TotalPaid        Money    `json:"totalPaid"`
	TotalPending     Money    `json:"totalPending"`
	TotalIncome      Money    `json:"totalIncome"`
	EstimatedBalance Money    `json:"estimatedBalance"`
	PaidCount        int      `json:"paidCount"`
	PendingCount     int      `json:"pendingCount"`
}

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Amount   Money    `json:"amount"`
}

// Summarize computes the summary of month from bills and the month's income.
// Bills of other months are ignored. The balance is not clamped.
func Summarize(bills []Bill, totalIncome Money, month MonthKey) Summary {
	s := Summary{MonthKey: month, TotalIncome: totalIncome}
	for _, b := range bills {
		if b.MonthKey != month {
			continue
		}
		s.TotalExpenses = s.TotalExpenses.Add(b.Amount)
		switch b.Status {
		case Paid:
			s.TotalPaid = s.TotalPaid.Add(b.Amount)
			s.PaidCount++
		case Pending:
			s.TotalPending = s.TotalPending.Add(b.Amount)
			s.PendingCount++
		}
	}
	s.EstimatedBalance = totalIncome.Sub(s.TotalExpenses)
	return s
}

// ByCategory totals the month's bills per category in catalogue order,
// skipping categories without bills.
func ByCategory(bills []Bill, month MonthKey) []CategoryAmount {
	totals := map[Category]Money{}
	for _, b := range bills {
		if b.MonthKey == month {
			totals[b.Category] = totals[b.Category].Add(b.Amount)
		}
	}
	var out []CategoryAmount
	for _, info := range categories {
		if amt, ok := totals[info.Value]; ok {
			out = append(out, CategoryAmount{Category: info.Value, Label: info.Label, Amount: amt})
		}
	}
	return out
}
