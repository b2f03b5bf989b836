package core

import "time"

// DueSoonWindow is how many days ahead a pending bill counts as "due soon".
const DueSoonWindow = 3

// DueState is the display classification of a bill relative to today.
type DueState string

const (
	DuePaid    DueState = "paid"
	DueOverdue DueState = "overdue"
	DueSoon    DueState = "due_soon"
	DueOK      DueState = "pending"
)

// IsOverdue reports a pending bill whose due day already passed this month.
//
// The comparison is against the calendar day only and ignores month
// boundaries: callers must scope bills to the current month first.
func IsOverdue(dueDay int, status Status, today int) bool {
	if status == Paid {
		return false
	}
	return dueDay < today
}

// IsDueSoon reports a pending bill due today or within DueSoonWindow days.
func IsDueSoon(dueDay int, status Status, today int) bool {
	if status == Paid {
		return false
	}
	remaining := dueDay - today
	return remaining >= 0 && remaining <= DueSoonWindow
}

// Classify returns the state shown for b on the day of now.
// Precedence: paid, overdue, due soon, pending.
func Classify(b Bill, now time.Time) DueState {
	today := now.Day()
	switch {
	case b.Status == Paid:
		return DuePaid
	case IsOverdue(b.DueDay, b.Status, today):
		return DueOverdue
	case IsDueSoon(b.DueDay, b.Status, today):
		return DueSoon
	default:
		return DueOK
	}
}
