package memory

import (
	"context"
	"errors"
	"testing"

	"myfinance/internal/sheets"
)

func TestExporter(t *testing.T) {
	ctx := context.Background()
	e := New()

	ref, err := e.ExportMonth(ctx, sheets.MonthReport{Month: "2024-03"})
	if err != nil || ref != "mem:2024-03#1" {
		t.Fatalf("got %q, %v", ref, err)
	}
	if _, ok := e.Report("2024-03"); !ok {
		t.Fatalf("report not stored")
	}

	e.FailWith(errors.New("quota"))
	if _, err := e.ExportMonth(ctx, sheets.MonthReport{Month: "2024-04"}); err == nil {
		t.Fatalf("expected failure")
	}
	if e.Exports() != 1 {
		t.Fatalf("failed exports must not count, got %d", e.Exports())
	}
}
