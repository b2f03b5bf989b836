package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"myfinance/internal/core"
)

func TestObserveOpResults(t *testing.T) {
	m := New(prometheus.NewRegistry())
	start := time.Now()

	m.ObserveOp(core.CollectionBills, "create", start, nil)
	m.ObserveOp(core.CollectionBills, "update", start, fmt.Errorf("update bill x: %w", core.ErrNotFound))
	m.ObserveOp(core.CollectionBills, "create", start, core.ErrInvalidDueDay)
	m.ObserveOp(core.CollectionIncome, "upsert", start, errors.New("disk full"))

	cases := []struct {
		collection, op, result string
	}{
		{"bills", "create", ResultOK},
		{"bills", "update", ResultNotFound},
		{"bills", "create", ResultInvalid},
		{"income", "upsert", ResultError},
	}
	for _, tc := range cases {
		got := testutil.ToFloat64(m.operations.WithLabelValues(tc.collection, tc.op, tc.result))
		if got != 1 {
			t.Fatalf("%+v: got %v", tc, got)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOp(core.CollectionBills, "list", time.Now(), nil)
	m.CorruptRead(core.CollectionBills)
	m.Export(ExportDone)
	m.RateLimited()
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.CorruptRead(core.CollectionIncome)
	m.Export(ExportSkipped)
	m.RateLimited()
	m.RateLimited()

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	if !strings.Contains(body, `myfinance_storage_corrupt_reads_total{collection="income"} 1`) {
		t.Fatalf("missing corrupt read counter:\n%s", body)
	}
	if !strings.Contains(body, `myfinance_worker_exports_total{result="skipped"} 1`) {
		t.Fatalf("missing export counter:\n%s", body)
	}
	if !strings.Contains(body, "myfinance_http_rate_limited_total 2") {
		t.Fatalf("missing rate limit counter:\n%s", body)
	}
}
