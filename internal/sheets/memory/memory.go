// Package memory keeps exported month reports in process. Used when no
// spreadsheet is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"myfinance/internal/core"
	"myfinance/internal/sheets"
)

var _ sheets.MonthExporter = (*Exporter)(nil)

type Exporter struct {
	mu      sync.Mutex
	reports map[core.MonthKey]sheets.MonthReport
	exports int
	err     error
}

func New() *Exporter {
	return &Exporter{reports: map[core.MonthKey]sheets.MonthReport{}}
}

// FailWith makes subsequent exports return err. nil restores success.
func (e *Exporter) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// ExportMonth stores r, replacing the previous report of the same month.
func (e *Exporter) ExportMonth(ctx context.Context, r sheets.MonthReport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return "", e.err
	}
	e.reports[r.Month] = r
	e.exports++
	return fmt.Sprintf("mem:%s#%d", r.Month, e.exports), nil
}

// Report returns the last report exported for month.
func (e *Exporter) Report(month core.MonthKey) (sheets.MonthReport, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.reports[month]
	return r, ok
}

// Exports counts successful exports.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
