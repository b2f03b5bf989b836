// Package google exports month reports to a Google spreadsheet, one tab per
// month named after the month key.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/sheets"
)

var _ sheets.MonthExporter = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
// Inline JSON wins over the file.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

// New creates a client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	credentials, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, logger), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, spreadsheetID string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func credentialsJSON(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// ExportMonth replaces the content of the month's tab with the report,
// creating the tab on first export.
func (c *Client) ExportMonth(ctx context.Context, r sheets.MonthReport) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := r.Month.Validate(); err != nil {
		return "", err
	}
	title := r.Month.String()

	if err := c.ensureSheet(ctx, title); err != nil {
		return "", err
	}

	clearRange := fmt.Sprintf("%s!A:F", quoteSheet(title))
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rows := monthRows(r)
	rng := fmt.Sprintf("%s!A1:F%d", quoteSheet(title), len(rows))
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write %s: %w", rng, err)
	}

	c.logger.InfoContext(ctx, "Month exported",
		log.FieldMonth, title,
		log.FieldSheetRange, rng,
		log.FieldCount, len(r.Bills))
	return rng, nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	c.logger.InfoContext(ctx, "Sheet created", log.FieldMonth, title)
	return nil
}

// quoteSheet quotes a tab title for A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func amount(m core.Money) float64 {
	return m.Decimal().InexactFloat64()
}

func statusLabel(s core.Status) string {
	if s == core.Paid {
		return "Paga"
	}
	return "Pendente"
}

// monthRows lays out the report: header, income and summary block, bill
// table, then per-category totals. Blocks are separated by an empty row.
func monthRows(r sheets.MonthReport) [][]any {
	var fixed, extra core.Money
	if r.Income != nil {
		fixed, extra = r.Income.FixedIncome, r.Income.ExtraIncome
	}
	s := r.Summary

	rows := [][]any{
		{"MyFinance", r.Month.Label()},
		{},
		{"Renda fixa", amount(fixed)},
		{"Renda extra", amount(extra)},
		{"Renda total", amount(s.TotalIncome)},
		{"Total de contas", amount(s.TotalExpenses)},
		{"Pago", amount(s.TotalPaid)},
		{"Pendente", amount(s.TotalPending)},
		{"Saldo estimado", amount(s.EstimatedBalance)},
		{},
		{"Conta", "Categoria", "Valor", "Vencimento", "Status", "Pagamento"},
	}
	for _, b := range r.Bills {
		paidOn := ""
		if b.PaymentDate != nil {
			paidOn = core.FormatDate(*b.PaymentDate)
		}
		rows = append(rows, []any{b.Name, b.Category.Label(), amount(b.Amount), b.DueDay, statusLabel(b.Status), paidOn})
	}
	if len(r.ByCategory) > 0 {
		rows = append(rows, []any{}, []any{"Categoria", "Total"})
		for _, ca := range r.ByCategory {
			rows = append(rows, []any{ca.Label, amount(ca.Amount)})
		}
	}
	return rows
}
