package core

import "testing"

func TestSummarizeExample(t *testing.T) {
	bills := []Bill{
		{Name: "Rent", Amount: NewMoney(1200, 0), DueDay: 5, Category: Moradia, Status: Pending, MonthKey: "2024-03"},
	}
	got := Summarize(bills, NewMoney(3000, 0), "2024-03")
	want := Summary{
		MonthKey:         "2024-03",
		TotalExpenses:    NewMoney(1200, 0),
		TotalPending:     NewMoney(1200, 0),
		TotalIncome:      NewMoney(3000, 0),
		EstimatedBalance: NewMoney(1800, 0),
		PendingCount:     1,
	}
	if got != want {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestSummarizeInvariants(t *testing.T) {
	bills := sampleBills()
	for _, month := range []MonthKey{"2024-03", "2024-02", "2030-01"} {
		s := Summarize(bills, NewMoney(100, 0), month)
		if s.TotalPaid.Add(s.TotalPending) != s.TotalExpenses {
			t.Fatalf("%s: paid+pending != expenses: %+v", month, s)
		}
		if s.PaidCount+s.PendingCount != len(FilterBills(bills, BillFilter{Month: month})) {
			t.Fatalf("%s: counts do not add up: %+v", month, s)
		}
		if s.EstimatedBalance != s.TotalIncome.Sub(s.TotalExpenses) {
			t.Fatalf("%s: balance mismatch", month)
		}
	}
}

func TestSummarizeNegativeBalance(t *testing.T) {
	s := Summarize(sampleBills(), Money{}, "2024-03")
	if s.TotalExpenses.Cents != 186990 {
		t.Fatalf("unexpected expenses %v", s.TotalExpenses)
	}
	if s.EstimatedBalance.Cents != -186990 {
		t.Fatalf("balance must not be clamped, got %v", s.EstimatedBalance)
	}
	if s.PaidCount != 2 || s.PendingCount != 2 {
		t.Fatalf("unexpected counts %+v", s)
	}
}

func TestByCategory(t *testing.T) {
	got := ByCategory(sampleBills(), "2024-03")
	if len(got) != 4 {
		t.Fatalf("expected 4 categories, got %+v", got)
	}
	if got[0].Category != Moradia || got[0].Amount != NewMoney(1200, 0) {
		t.Fatalf("unexpected first entry %+v", got[0])
	}
}
