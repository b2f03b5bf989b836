// Package bills holds the in-memory mirror of the bill collection.
package bills

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"myfinance/internal/core"
	"myfinance/internal/log"
)

// Gateway is the persistence the repository needs.
type Gateway interface {
	ListBills(ctx context.Context) ([]core.Bill, error)
	CreateBill(ctx context.Context, in core.BillInput) (core.Bill, error)
	UpdateBill(ctx context.Context, id string, patch core.BillPatch) (core.Bill, error)
	DeleteBill(ctx context.Context, id string) error
}

// Repository mirrors the persisted bills. The mirror changes only after the
// gateway reports success. The lock is never held during gateway calls.
type Repository struct {
	gw     Gateway
	logger *log.Logger
	now    func() time.Time

	mu      sync.RWMutex
	bills   []core.Bill
	loading bool
	err     error
}

func New(gw Gateway, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Discard()
	}
	return &Repository{
		gw:     gw,
		logger: logger.WithComponent(log.ComponentBills),
		now:    time.Now,
	}
}

// Load replaces the mirror with the stored bills. On failure the previous
// mirror stays and Err reports the failure.
func (r *Repository) Load(ctx context.Context) error {
	r.setLoading(true)
	defer r.setLoading(false)

	bills, err := r.gw.ListBills(ctx)
	if err != nil {
		r.fail(ctx, "load", err)
		return fmt.Errorf("load bills: %w", err)
	}

	r.mu.Lock()
	r.bills = bills
	r.err = nil
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "Bills loaded", log.FieldCount, len(bills))
	return nil
}

// Add persists a new bill and appends it to the mirror.
func (r *Repository) Add(ctx context.Context, in core.BillInput) (core.Bill, error) {
	if err := in.Validate(); err != nil {
		return core.Bill{}, err
	}
	bill, err := r.gw.CreateBill(ctx, in)
	if err != nil {
		r.fail(ctx, "add", err)
		return core.Bill{}, err
	}

	r.mu.Lock()
	r.bills = append(r.bills, bill)
	r.mu.Unlock()
	return bill, nil
}

// Update persists patch and replaces the mirrored entry. Errors wrapping
// core.ErrNotFound are returned as is and leave the mirror alone.
func (r *Repository) Update(ctx context.Context, id string, patch core.BillPatch) (core.Bill, error) {
	if err := patch.Validate(); err != nil {
		return core.Bill{}, err
	}
	bill, err := r.gw.UpdateBill(ctx, id, patch)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			r.fail(ctx, "update", err)
		}
		return core.Bill{}, err
	}

	r.mu.Lock()
	for i := range r.bills {
		if r.bills[i].ID == id {
			r.bills[i] = bill
			break
		}
	}
	r.mu.Unlock()
	return bill, nil
}

// Remove deletes the bill and drops it from the mirror once the write
// succeeded. Unknown ids are not an error.
func (r *Repository) Remove(ctx context.Context, id string) error {
	if err := r.gw.DeleteBill(ctx, id); err != nil {
		r.fail(ctx, "remove", err)
		return err
	}

	r.mu.Lock()
	kept := make([]core.Bill, 0, len(r.bills))
	for _, b := range r.bills {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	r.bills = kept
	r.mu.Unlock()
	return nil
}

// TogglePayment sets the status; paid stamps the payment date with the
// current time, pending clears it.
func (r *Repository) TogglePayment(ctx context.Context, id string, status core.Status) (core.Bill, error) {
	if err := status.Validate(); err != nil {
		return core.Bill{}, err
	}
	patch := core.BillPatch{Status: &status}
	if status == core.Paid {
		now := r.now().UTC()
		patch.PaymentDate = &now
	}
	return r.Update(ctx, id, patch)
}

// Filter queries the current mirror without reloading.
func (r *Repository) Filter(f core.BillFilter) []core.Bill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return core.FilterBills(r.bills, f)
}

func (r *Repository) BillsForMonth(month core.MonthKey) []core.Bill {
	return r.Filter(core.BillFilter{Month: month})
}

// All returns a copy of the mirror.
func (r *Repository) All() []core.Bill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]core.Bill(nil), r.bills...)
}

func (r *Repository) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

// Err is the last gateway failure, cleared by a successful Load.
func (r *Repository) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

func (r *Repository) setLoading(v bool) {
	r.mu.Lock()
	r.loading = v
	r.mu.Unlock()
}

func (r *Repository) fail(ctx context.Context, op string, err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	r.logger.ErrorContext(ctx, "Bill operation failed", log.FieldOperation, op, log.FieldError, err)
}
