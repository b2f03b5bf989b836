package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"myfinance/internal/bills"
	"myfinance/internal/core"
	"myfinance/internal/income"
	"myfinance/internal/kv/memory"
	"myfinance/internal/log"
	"myfinance/internal/storage"
)

const rentBody = `{"name":"Aluguel","category":"moradia","amount":1200,"dueDay":5,"monthKey":"2024-03"}`

func TestCreateBill(t *testing.T) {
	env := newTestEnv(t, 0)

	rr := env.do(t, http.MethodPost, "/api/bills", rentBody)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[billResponse](t, rr)
	if got.ID != "bill-1" || got.Status != core.Pending || got.Amount != core.NewMoney(1200, 0) {
		t.Fatalf("unexpected bill %+v", got)
	}
	if got.DueState != core.DueOverdue {
		t.Errorf("due day 5 on the 8th must be overdue, got %s", got.DueState)
	}
	if got.CategoryLabel != core.Moradia.Label() {
		t.Errorf("categoryLabel = %q", got.CategoryLabel)
	}

	stored, err := env.gw.ListBills(context.Background())
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored = %+v, %v", stored, err)
	}
}

func TestBillWritesLogOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: log.FormatText, Output: &buf})
	gw := storage.NewGateway(memory.New(), storage.WithLogger(logger),
		storage.WithIDGenerator(func() string { return "bill-1" }))
	srv := NewServer(":0", Options{
		Bills:  bills.New(gw, logger),
		Income: income.New(gw, logger),
		Logger: logger,
		Now:    func() time.Time { return testNow },
	})

	send := func(method, path, body string) int {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send(http.MethodPost, "/api/bills", rentBody); code != http.StatusCreated {
		t.Fatalf("create status=%d", code)
	}
	if code := send(http.MethodDelete, "/api/bills/bill-1", ""); code != http.StatusNoContent {
		t.Fatalf("delete status=%d", code)
	}

	for _, msg := range []string{"Bill created", "Bill deleted"} {
		if n := strings.Count(buf.String(), msg); n != 1 {
			t.Errorf("%q logged %d times:\n%s", msg, n, buf.String())
		}
	}
}

func TestCreateBillDefaults(t *testing.T) {
	env := newTestEnv(t, 0)
	rr := env.do(t, http.MethodPost, "/api/bills", `{"name":"  Luz ","category":"SERVICOS","amount":"80,50","dueDay":9}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[billResponse](t, rr)
	if got.MonthKey != "2024-03" {
		t.Errorf("month must default to the current one, got %s", got.MonthKey)
	}
	if got.Name != "Luz" || got.Category != core.Servicos {
		t.Errorf("input not normalized: %+v", got.Bill)
	}
	if got.DueState != core.DueSoon {
		t.Errorf("due day 9 on the 8th must be due soon, got %s", got.DueState)
	}
}

func TestCreateBillRejects(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"missing name", `{"category":"moradia","amount":10,"dueDay":5}`, 422, "name is required"},
		{"missing amount", `{"name":"x","category":"moradia","dueDay":5}`, 422, "amount is required"},
		{"blank name", `{"name":"   ","category":"moradia","amount":10,"dueDay":5}`, 422, "empty name"},
		{"unknown category", `{"name":"x","category":"viagem","amount":10,"dueDay":5}`, 422, "category is not a valid category"},
		{"due day too large", `{"name":"x","category":"moradia","amount":10,"dueDay":32}`, 422, "dueDay must be at most 31"},
		{"zero amount", `{"name":"x","category":"moradia","amount":0,"dueDay":5}`, 422, "amount must be greater than zero"},
		{"negative amount", `{"name":"x","category":"moradia","amount":-3,"dueDay":5}`, 422, "amount must be greater than zero"},
		{"amount not a number", `{"name":"x","category":"moradia","amount":"abc","dueDay":5}`, 422, "amount"},
		{"bad month", `{"name":"x","category":"moradia","amount":10,"dueDay":5,"monthKey":"2024-13"}`, 422, "monthKey must be YYYY-MM"},
		{"bad status", `{"name":"x","category":"moradia","amount":10,"dueDay":5,"status":"late"}`, 422, "status is not a valid status"},
		{"unknown field", `{"name":"x","category":"moradia","amount":10,"dueDay":5,"id":"forged"}`, 400, "unknown field"},
		{"malformed json", `{"name":`, 400, "bad request"},
		{"two objects", `{"name":"x","category":"moradia","amount":10,"dueDay":5} {}`, 400, "single JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 0)
			rr := env.do(t, http.MethodPost, "/api/bills", tt.body)
			if rr.Code != tt.wantCode {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.wantCode, rr.Body.String())
			}
			if e := decode[errorResponse](t, rr); !strings.Contains(e.Error, tt.wantErr) {
				t.Fatalf("error %q does not contain %q", e.Error, tt.wantErr)
			}
			if stored, _ := env.gw.ListBills(context.Background()); len(stored) != 0 {
				t.Fatalf("rejected bill was persisted: %+v", stored)
			}
		})
	}
}

func seedBills(t *testing.T, env *testEnv) {
	t.Helper()
	for _, body := range []string{
		rentBody,
		`{"name":"Internet Fibra","category":"servicos","amount":99.9,"dueDay":10,"status":"paid","monthKey":"2024-03"}`,
		`{"name":"Mercado","category":"alimentacao","amount":450,"dueDay":1,"monthKey":"2024-03"}`,
		`{"name":"Aluguel","category":"moradia","amount":1200,"dueDay":5,"status":"paga","monthKey":"2024-02"}`,
	} {
		if rr := env.do(t, http.MethodPost, "/api/bills", body); rr.Code != http.StatusCreated {
			t.Fatalf("seed: status=%d body=%s", rr.Code, rr.Body.String())
		}
	}
}

func TestListBills(t *testing.T) {
	env := newTestEnv(t, 0)
	seedBills(t, env)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"current month sorted", "", []string{"bill-3", "bill-1", "bill-2"}},
		{"explicit month", "?month=2024-02", []string{"bill-4"}},
		{"all months", "?month=all", []string{"bill-3", "bill-1", "bill-4", "bill-2"}},
		{"paid", "?status=paid", []string{"bill-2"}},
		{"legacy status word", "?status=pendente", []string{"bill-3", "bill-1"}},
		{"status sentinel", "?status=todas", []string{"bill-3", "bill-1", "bill-2"}},
		{"category", "?category=moradia&month=all", []string{"bill-1", "bill-4"}},
		{"search", "?q=FIBRA", []string{"bill-2"}},
		{"no match", "?month=2025-01", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/api/bills"+tt.query, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			got := decode[billListResponse](t, rr)
			ids := make([]string, 0, len(got.Bills))
			for _, b := range got.Bills {
				ids = append(ids, b.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") || got.Count != len(tt.want) {
				t.Fatalf("got %v (count %d), want %v", ids, got.Count, tt.want)
			}
		})
	}
}

func TestListBillsInvalidQuery(t *testing.T) {
	env := newTestEnv(t, 0)
	for _, q := range []string{"?month=03-2024", "?status=late", "?category=viagem"} {
		if rr := env.do(t, http.MethodGet, "/api/bills"+q, ""); rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %d", q, rr.Code)
		}
	}
}

func TestListBillsRefresh(t *testing.T) {
	env := newTestEnv(t, 0)
	// written behind the mirror's back
	if _, err := env.gw.CreateBill(context.Background(), core.BillInput{
		Name: "Escola", Category: core.Educacao, Amount: core.NewMoney(700, 0), DueDay: 20, Status: core.Pending, MonthKey: "2024-03",
	}); err != nil {
		t.Fatal(err)
	}

	if got := decode[billListResponse](t, env.do(t, http.MethodGet, "/api/bills", "")); got.Count != 0 {
		t.Fatalf("mirror should not see the bill before a refresh, got %d", got.Count)
	}
	if got := decode[billListResponse](t, env.do(t, http.MethodGet, "/api/bills?refresh=true", "")); got.Count != 1 {
		t.Fatalf("refresh should load the bill, got %d", got.Count)
	}
}

func TestPatchBill(t *testing.T) {
	env := newTestEnv(t, 0)
	seedBills(t, env)

	rr := env.do(t, http.MethodPatch, "/api/bills/bill-1", `{"name":"Aluguel apto","amount":"1.250,00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[billResponse](t, rr)
	if got.Name != "Aluguel apto" || got.Amount != core.NewMoney(1250, 0) || got.DueDay != 5 {
		t.Fatalf("unexpected patch result %+v", got.Bill)
	}

	if rr := env.do(t, http.MethodPatch, "/api/bills/missing", `{"name":"x"}`); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodPatch, "/api/bills/bill-1", `{"dueDay":0}`); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for due day 0, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodPatch, "/api/bills/bill-1", `{"name":""}`); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty name, got %d", rr.Code)
	}
}

func TestPayment(t *testing.T) {
	env := newTestEnv(t, 0)
	seedBills(t, env)

	rr := env.do(t, http.MethodPost, "/api/bills/bill-1/payment", `{"status":"paid"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	paid := decode[billResponse](t, rr)
	if paid.Status != core.Paid || paid.PaymentDate == nil || paid.DueState != core.DuePaid {
		t.Fatalf("unexpected paid bill %+v", paid)
	}

	rr = env.do(t, http.MethodPost, "/api/bills/bill-1/payment", `{"status":"pendente"}`)
	pending := decode[billResponse](t, rr)
	if pending.Status != core.Pending || pending.PaymentDate != nil {
		t.Fatalf("unexpected pending bill %+v", pending)
	}

	if rr := env.do(t, http.MethodPost, "/api/bills/bill-1/payment", `{}`); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without status, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodPost, "/api/bills/nope/payment", `{"status":"paid"}`); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDeleteBill(t *testing.T) {
	env := newTestEnv(t, 0)
	seedBills(t, env)

	if rr := env.do(t, http.MethodDelete, "/api/bills/bill-1", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("status=%d", rr.Code)
	}
	got := decode[billListResponse](t, env.do(t, http.MethodGet, "/api/bills?month=all", ""))
	for _, b := range got.Bills {
		if b.ID == "bill-1" {
			t.Fatal("deleted bill still listed")
		}
	}
	if got.Count != 3 {
		t.Fatalf("expected 3 bills left, got %d", got.Count)
	}

	if rr := env.do(t, http.MethodDelete, "/api/bills/bill-1", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("deleting an unknown id must succeed, got %d", rr.Code)
	}
}

func TestIncomeAndSummary(t *testing.T) {
	env := newTestEnv(t, 0)

	rr := env.do(t, http.MethodGet, "/api/income", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := decode[incomeResponse](t, rr); got.Income != nil || got.Month != "2024-03" || !got.Total.IsZero() {
		t.Fatalf("expected no income yet, got %+v", got)
	}

	rr = env.do(t, http.MethodPut, "/api/income", `{"month":"2024-03","fixedIncome":"2.500,00","extraIncome":500}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	saved := decode[incomeResponse](t, rr)
	if saved.Income == nil || saved.Total != core.NewMoney(3000, 0) {
		t.Fatalf("unexpected saved income %+v", saved)
	}

	if rr := env.do(t, http.MethodPost, "/api/bills", `{"name":"Rent","category":"moradia","amount":1200,"dueDay":5}`); rr.Code != http.StatusCreated {
		t.Fatalf("create: %d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/summary?month=2024-03", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	sum := decode[summaryResponse](t, rr)
	want := core.Summary{
		MonthKey:         "2024-03",
		TotalExpenses:    core.NewMoney(1200, 0),
		TotalPending:     core.NewMoney(1200, 0),
		TotalIncome:      core.NewMoney(3000, 0),
		EstimatedBalance: core.NewMoney(1800, 0),
		PendingCount:     1,
	}
	if sum.Summary != want {
		t.Fatalf("got %+v\nwant %+v", sum.Summary, want)
	}
	if len(sum.ByCategory) != 1 || sum.ByCategory[0].Category != core.Moradia {
		t.Fatalf("unexpected categories %+v", sum.ByCategory)
	}
	if sum.MonthLabel == "" {
		t.Error("missing month label")
	}

	// another month has no income, and switching back reloads the first
	if got := decode[incomeResponse](t, env.do(t, http.MethodGet, "/api/income?month=2024-04", "")); got.Income != nil {
		t.Fatalf("april should be empty, got %+v", got)
	}
	if got := decode[incomeResponse](t, env.do(t, http.MethodGet, "/api/income?month=2024-03", "")); got.Income == nil || got.Income.ID != saved.Income.ID {
		t.Fatalf("march income lost: %+v", got)
	}
}

func TestPutIncomeKeepsID(t *testing.T) {
	env := newTestEnv(t, 0)
	first := decode[incomeResponse](t, env.do(t, http.MethodPut, "/api/income", `{"fixedIncome":"1000"}`))
	second := decode[incomeResponse](t, env.do(t, http.MethodPut, "/api/income", `{"fixedIncome":"1100","extraIncome":""}`))
	if first.Income == nil || second.Income == nil || first.Income.ID != second.Income.ID {
		t.Fatalf("upsert must keep the id: %+v vs %+v", first.Income, second.Income)
	}
	if second.Total != core.NewMoney(1100, 0) {
		t.Fatalf("unexpected total %v", second.Total)
	}
}

func TestPutIncomeRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"negative", `{"fixedIncome":"-5"}`, http.StatusUnprocessableEntity},
		{"garbage amount", `{"fixedIncome":"abc"}`, http.StatusUnprocessableEntity},
		{"bad month", `{"month":"2024-3","fixedIncome":"5"}`, http.StatusUnprocessableEntity},
		{"amount as object", `{"fixedIncome":{}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 0)
			if rr := env.do(t, http.MethodPut, "/api/income", tt.body); rr.Code != tt.code {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.code, rr.Body.String())
			}
			if incomes, _ := env.gw.ListIncomes(context.Background()); len(incomes) != 0 {
				t.Fatalf("rejected income persisted: %+v", incomes)
			}
		})
	}
}

func TestSummaryInvalidMonth(t *testing.T) {
	env := newTestEnv(t, 0)
	if rr := env.do(t, http.MethodGet, "/api/summary?month=march", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}
