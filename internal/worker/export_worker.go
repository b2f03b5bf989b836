// Package worker turns persisted changes into spreadsheet exports.
package worker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"myfinance/internal/cache"
	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/metrics"
	"myfinance/internal/sheets"
)

// Source reads the persisted collections.
type Source interface {
	ListBills(ctx context.Context) ([]core.Bill, error)
	GetIncome(ctx context.Context, month core.MonthKey) (core.Income, bool, error)
	ListIncomes(ctx context.Context) ([]core.Income, error)
}

// ExportWorker rebuilds the report of each changed month and hands it to the
// exporter. Months whose report did not change since the last export are
// skipped.
type ExportWorker struct {
	source   Source
	exporter sheets.MonthExporter
	seen     *cache.LRU[core.MonthKey, string]
	logger   *log.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewExportWorker wires a worker. seen remembers the fingerprint of the last
// export per month; m may be nil.
func NewExportWorker(source Source, exporter sheets.MonthExporter, seen *cache.LRU[core.MonthKey, string], logger *log.Logger, m *metrics.Metrics) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		source:   source,
		exporter: exporter,
		seen:     seen,
		logger:   logger.WithComponent(log.ComponentWorker),
		metrics:  m,
		now:      time.Now,
	}
}

// HandleChange processes one change event.
func (w *ExportWorker) HandleChange(ctx context.Context, c core.Change) error {
	w.logger.InfoContext(ctx, "Processing change",
		log.FieldCollection, string(c.Collection),
		log.FieldOperation, string(c.Op),
		log.FieldMonth, c.MonthKey.String())

	if c.Op == core.OpCleared {
		w.seen.Purge()
		return nil
	}
	if c.MonthKey == "" {
		// Delete of an id that did not exist: nothing to re-export.
		return nil
	}
	return w.ExportMonth(ctx, c.MonthKey)
}

// ExportMonth exports month unless the last export had the same content.
func (w *ExportWorker) ExportMonth(ctx context.Context, month core.MonthKey) error {
	if err := month.Validate(); err != nil {
		return err
	}

	bills, err := w.source.ListBills(ctx)
	if err != nil {
		return fmt.Errorf("list bills: %w", err)
	}
	var income *core.Income
	in, found, err := w.source.GetIncome(ctx, month)
	if err != nil {
		return fmt.Errorf("get income %s: %w", month, err)
	}
	if found {
		income = &in
	}

	report := sheets.BuildReport(bills, income, month, w.now())
	fp := report.Fingerprint()
	if last, ok := w.seen.Get(month); ok && last == fp {
		w.metrics.Export(metrics.ExportSkipped)
		w.logger.DebugContext(ctx, "Month unchanged, skipping export", log.FieldMonth, month.String())
		return nil
	}

	ref, err := w.exporter.ExportMonth(ctx, report)
	if err != nil {
		w.metrics.Export(metrics.ExportFailed)
		return fmt.Errorf("export %s: %w", month, err)
	}
	w.seen.Set(month, fp)
	w.metrics.Export(metrics.ExportDone)

	w.logger.InfoContext(ctx, "Month exported",
		log.FieldMonth, month.String(),
		log.FieldSheetRange, ref,
		log.FieldCount, len(report.Bills))
	return nil
}

// StartupExport exports every month that has bills or income. It recovers
// exports missed while the worker was down. Failures are logged and counted;
// only a done context aborts.
func (w *ExportWorker) StartupExport(ctx context.Context) error {
	months, err := w.knownMonths(ctx)
	if err != nil {
		return err
	}
	if len(months) == 0 {
		w.logger.InfoContext(ctx, "No months to export on startup")
		return nil
	}

	failed := 0
	for _, m := range months {
		if err := w.ExportMonth(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			w.logger.ErrorContext(ctx, "Startup export failed", log.FieldMonth, m.String(), log.FieldError, err)
		}
	}

	w.logger.InfoContext(ctx, "Startup export completed",
		"total", len(months),
		"errors", failed)
	return nil
}

func (w *ExportWorker) knownMonths(ctx context.Context) ([]core.MonthKey, error) {
	bills, err := w.source.ListBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	incomes, err := w.source.ListIncomes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}

	set := map[core.MonthKey]struct{}{}
	for _, b := range bills {
		set[b.MonthKey] = struct{}{}
	}
	for _, in := range incomes {
		set[in.MonthKey] = struct{}{}
	}
	months := make([]core.MonthKey, 0, len(set))
	for m := range set {
		if m.Validate() == nil {
			months = append(months, m)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })
	return months, nil
}
