// Package storage persists bills and income as two JSON arrays in a kv.Store.
//
// Every write rewrites the whole collection. There is no locking across
// calls: two concurrent writers that read the same snapshot race, and the
// last write wins.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"myfinance/internal/core"
	"myfinance/internal/kv"
	"myfinance/internal/log"
	"myfinance/internal/metrics"
)

// Keys of the two persisted collections.
const (
	BillsKey  = "@myfinance:contas"
	IncomeKey = "@myfinance:renda"
)

// Notifier receives a Change after it reached the store.
type Notifier interface {
	Publish(ctx context.Context, c core.Change) error
}

type Gateway struct {
	store    kv.Store
	now      func() time.Time
	newID    func() string
	logger   *log.Logger
	metrics  *metrics.Metrics
	notifier Notifier
}

type Option func(*Gateway)

// WithClock replaces time.Now. Returned times are converted to UTC.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(g *Gateway) { g.newID = newID }
}

func WithLogger(l *log.Logger) Option {
	return func(g *Gateway) { g.logger = l.WithComponent(log.ComponentStorage) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(g *Gateway) { g.notifier = n }
}

func NewGateway(store kv.Store, opts ...Option) *Gateway {
	g := &Gateway{
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) timestamp() time.Time {
	return g.now().UTC()
}

// ListBills returns every stored bill. Missing or undecodable data reads as an
// empty collection; only a done context produces an error.
func (g *Gateway) ListBills(ctx context.Context) (bills []core.Bill, err error) {
	defer g.observe(core.CollectionBills, log.OpList, time.Now(), &err)
	return g.readBills(ctx, false)
}

// CreateBill validates in, assigns an id and timestamps, and appends the bill.
func (g *Gateway) CreateBill(ctx context.Context, in core.BillInput) (bill core.Bill, err error) {
	defer g.observe(core.CollectionBills, log.OpCreate, time.Now(), &err)

	if err := in.Validate(); err != nil {
		return core.Bill{}, err
	}
	bills, err := g.readBills(ctx, true)
	if err != nil {
		return core.Bill{}, err
	}

	bill = in.NewBill(g.newID(), g.timestamp())
	bills = append(bills, bill)
	if err := g.write(ctx, BillsKey, bills); err != nil {
		return core.Bill{}, fmt.Errorf("create bill: %w", err)
	}

	g.logger.InfoContext(ctx, "Bill created", log.NewFields().
		WithBill(bill.ID, bill.Name, bill.Amount.String(), string(bill.Category), string(bill.Status)).
		WithMonth(bill.MonthKey.String()).
		ToSlice()...)
	g.notify(ctx, core.CollectionBills, core.OpCreated, bill.ID, bill.MonthKey)
	return bill, nil
}

// UpdateBill merges patch into the bill with the given id. It returns an error
// wrapping core.ErrNotFound when no such bill exists.
func (g *Gateway) UpdateBill(ctx context.Context, id string, patch core.BillPatch) (bill core.Bill, err error) {
	defer g.observe(core.CollectionBills, log.OpUpdate, time.Now(), &err)

	if err := patch.Validate(); err != nil {
		return core.Bill{}, err
	}
	bills, err := g.readBills(ctx, true)
	if err != nil {
		return core.Bill{}, err
	}

	idx := -1
	for i := range bills {
		if bills[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.Bill{}, fmt.Errorf("update bill %s: %w", id, core.ErrNotFound)
	}

	previousMonth := bills[idx].MonthKey
	bill = bills[idx].Apply(patch, g.timestamp())
	bills[idx] = bill
	if err := g.write(ctx, BillsKey, bills); err != nil {
		return core.Bill{}, fmt.Errorf("update bill %s: %w", id, err)
	}

	g.logger.InfoContext(ctx, "Bill updated", log.NewFields().
		WithBill(bill.ID, bill.Name, bill.Amount.String(), string(bill.Category), string(bill.Status)).
		WithMonth(bill.MonthKey.String()).
		ToSlice()...)
	if previousMonth != bill.MonthKey {
		g.notify(ctx, core.CollectionBills, core.OpUpdated, bill.ID, previousMonth)
	}
	g.notify(ctx, core.CollectionBills, core.OpUpdated, bill.ID, bill.MonthKey)
	return bill, nil
}

// DeleteBill removes the bill with the given id and rewrites the collection.
// A nil error means the write succeeded, whether or not the id existed.
func (g *Gateway) DeleteBill(ctx context.Context, id string) (err error) {
	defer g.observe(core.CollectionBills, log.OpDelete, time.Now(), &err)

	bills, err := g.readBills(ctx, true)
	if err != nil {
		return err
	}

	var month core.MonthKey
	kept := bills[:0]
	for _, b := range bills {
		if b.ID == id {
			month = b.MonthKey
			continue
		}
		kept = append(kept, b)
	}
	if err := g.write(ctx, BillsKey, kept); err != nil {
		return fmt.Errorf("delete bill %s: %w", id, err)
	}

	g.logger.InfoContext(ctx, "Bill deleted", log.FieldBillID, id, "existed", month != "")
	g.notify(ctx, core.CollectionBills, core.OpDeleted, id, month)
	return nil
}

// GetIncome returns the income record of month. The boolean is false when
// there is none.
func (g *Gateway) GetIncome(ctx context.Context, month core.MonthKey) (income core.Income, found bool, err error) {
	defer g.observe(core.CollectionIncome, log.OpRead, time.Now(), &err)

	incomes, err := g.readIncomes(ctx, false)
	if err != nil {
		return core.Income{}, false, err
	}
	for _, in := range incomes {
		if in.MonthKey == month {
			return in, true, nil
		}
	}
	return core.Income{}, false, nil
}

// ListIncomes returns every stored income record in stored order.
func (g *Gateway) ListIncomes(ctx context.Context) (incomes []core.Income, err error) {
	defer g.observe(core.CollectionIncome, log.OpList, time.Now(), &err)
	return g.readIncomes(ctx, false)
}

// UpsertIncome overwrites the record of month in place, keeping its id, or
// appends a new one.
func (g *Gateway) UpsertIncome(ctx context.Context, fixed, extra core.Money, month core.MonthKey) (income core.Income, err error) {
	defer g.observe(core.CollectionIncome, log.OpUpsert, time.Now(), &err)

	if err := month.Validate(); err != nil {
		return core.Income{}, err
	}
	if err := core.ValidateIncome(fixed, extra); err != nil {
		return core.Income{}, err
	}
	incomes, err := g.readIncomes(ctx, true)
	if err != nil {
		return core.Income{}, err
	}

	now := g.timestamp()
	op := core.OpUpdated
	idx := -1
	for i := range incomes {
		if incomes[i].MonthKey == month {
			idx = i
			break
		}
	}
	if idx >= 0 {
		incomes[idx].FixedIncome = fixed
		incomes[idx].ExtraIncome = extra
		incomes[idx].UpdatedAt = now
		income = incomes[idx]
	} else {
		op = core.OpCreated
		income = core.Income{
			ID:          g.newID(),
			FixedIncome: fixed,
			ExtraIncome: extra,
			MonthKey:    month,
			UpdatedAt:   now,
		}
		incomes = append(incomes, income)
	}

	if err := g.write(ctx, IncomeKey, incomes); err != nil {
		return core.Income{}, fmt.Errorf("upsert income %s: %w", month, err)
	}

	g.logger.InfoContext(ctx, "Income saved",
		log.FieldMonth, month.String(),
		"fixed", fixed.String(),
		"extra", extra.String(),
		log.FieldOperation, string(op))
	g.notify(ctx, core.CollectionIncome, op, income.ID, month)
	return income, nil
}

// Clear removes both collections.
func (g *Gateway) Clear(ctx context.Context) (err error) {
	defer g.observe(core.CollectionBills, log.OpClear, time.Now(), &err)

	if err := g.store.Remove(ctx, BillsKey, IncomeKey); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	g.logger.WarnContext(ctx, "All data cleared")
	g.notify(ctx, core.CollectionBills, core.OpCleared, "", "")
	g.notify(ctx, core.CollectionIncome, core.OpCleared, "", "")
	return nil
}

func (g *Gateway) readBills(ctx context.Context, strict bool) ([]core.Bill, error) {
	return readCollection[core.Bill](ctx, g, BillsKey, core.CollectionBills, strict)
}

func (g *Gateway) readIncomes(ctx context.Context, strict bool) ([]core.Income, error) {
	return readCollection[core.Income](ctx, g, IncomeKey, core.CollectionIncome, strict)
}

// readCollection decodes the collection stored under key. Absent and corrupt
// data read as an empty slice. Store errors read as empty too unless strict is
// set, which write paths do.
func readCollection[T any](ctx context.Context, g *Gateway, key string, c core.Collection, strict bool) ([]T, error) {
	data, err := g.store.Get(ctx, key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return []T{}, nil
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if strict {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		g.logger.WarnContext(ctx, "Failed to read collection, using empty",
			log.FieldKey, key, log.FieldError, err)
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		g.metrics.CorruptRead(c)
		g.logger.WarnContext(ctx, "Corrupt collection, using empty",
			log.FieldKey, key,
			log.FieldCollection, string(c),
			log.FieldError, err)
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (g *Gateway) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := g.store.Set(ctx, key, data); err != nil {
		g.logger.ErrorContext(ctx, "Failed to persist collection", log.FieldKey, key, log.FieldError, err)
		return err
	}
	return nil
}

// notify publishes a change. Failures are logged only: the write already
// happened.
func (g *Gateway) notify(ctx context.Context, c core.Collection, op core.ChangeOp, id string, month core.MonthKey) {
	if g.notifier == nil {
		return
	}
	change := core.Change{Collection: c, Op: op, ID: id, MonthKey: month, At: g.timestamp()}
	if err := g.notifier.Publish(ctx, change); err != nil {
		g.logger.WarnContext(ctx, "Failed to publish change",
			log.FieldCollection, string(c),
			log.FieldOperation, string(op),
			log.FieldError, err)
	}
}

func (g *Gateway) observe(c core.Collection, op string, start time.Time, err *error) {
	g.metrics.ObserveOp(c, op, start, *err)
}
