// Package income caches the income record of one month.
package income

import (
	"context"
	"fmt"
	"sync"

	"myfinance/internal/core"
	"myfinance/internal/log"
)

type Gateway interface {
	GetIncome(ctx context.Context, month core.MonthKey) (core.Income, bool, error)
	UpsertIncome(ctx context.Context, fixed, extra core.Money, month core.MonthKey) (core.Income, error)
}

type Repository struct {
	gw     Gateway
	logger *log.Logger

	mu      sync.RWMutex
	month   core.MonthKey
	current *core.Income
	loading bool
	err     error
}

func New(gw Gateway, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Discard()
	}
	return &Repository{gw: gw, logger: logger.WithComponent(log.ComponentIncome)}
}

// Load fetches the record of month, which may not exist. On failure the
// cached state is kept.
func (r *Repository) Load(ctx context.Context, month core.MonthKey) error {
	if err := month.Validate(); err != nil {
		return err
	}
	r.setLoading(true)
	defer r.setLoading(false)

	in, found, err := r.gw.GetIncome(ctx, month)
	if err != nil {
		r.fail(ctx, err)
		return fmt.Errorf("load income %s: %w", month, err)
	}

	r.mu.Lock()
	r.month = month
	r.current = nil
	if found {
		r.current = &in
	}
	r.err = nil
	r.mu.Unlock()
	return nil
}

// Save upserts the income of month. Negative amounts never reach the gateway.
func (r *Repository) Save(ctx context.Context, fixed, extra core.Money, month core.MonthKey) (core.Income, error) {
	if err := core.ValidateIncome(fixed, extra); err != nil {
		return core.Income{}, err
	}
	if err := month.Validate(); err != nil {
		return core.Income{}, err
	}

	in, err := r.gw.UpsertIncome(ctx, fixed, extra, month)
	if err != nil {
		r.fail(ctx, err)
		return core.Income{}, err
	}

	r.mu.Lock()
	r.month = month
	r.current = &in
	r.mu.Unlock()
	return in, nil
}

// TotalIncome is fixed plus extra of the cached record, zero when none.
func (r *Repository) TotalIncome() core.Money {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return core.Money{}
	}
	return r.current.Total()
}

func (r *Repository) Current() (core.Income, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return core.Income{}, false
	}
	return *r.current, true
}

// Month is the month of the cached record.
func (r *Repository) Month() core.MonthKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.month
}

func (r *Repository) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

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

func (r *Repository) fail(ctx context.Context, err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	r.logger.ErrorContext(ctx, "Income operation failed", log.FieldError, err)
}
