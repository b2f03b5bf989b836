// Package sheets describes the month export and the report it carries.
package sheets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"myfinance/internal/core"
)

// MonthExporter writes a month report somewhere outside the application and
// returns a reference to what it wrote.
type MonthExporter interface {
	ExportMonth(ctx context.Context, r MonthReport) (ref string, err error)
}

// MonthReport is everything known about one month at export time.
type MonthReport struct {
	Month       core.MonthKey         `json:"month"`
	Bills       []core.Bill           `json:"bills"`
	Income      *core.Income          `json:"income,omitempty"`
	Summary     core.Summary          `json:"summary"`
	ByCategory  []core.CategoryAmount `json:"byCategory"`
	GeneratedAt time.Time             `json:"-"`
}

// BuildReport scopes bills to month, sorts them for display and derives the
// summary. income may be nil.
func BuildReport(bills []core.Bill, income *core.Income, month core.MonthKey, now time.Time) MonthReport {
	var total core.Money
	if income != nil {
		total = income.Total()
	}
	return MonthReport{
		Month:       month,
		Bills:       core.SortForDisplay(core.FilterBills(bills, core.BillFilter{Month: month})),
		Income:      income,
		Summary:     core.Summarize(bills, total, month),
		ByCategory:  core.ByCategory(bills, month),
		GeneratedAt: now,
	}
}

// Fingerprint hashes the report content. Two reports with the same
// fingerprint render the same rows.
func (r MonthReport) Fingerprint() string {
	data, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
