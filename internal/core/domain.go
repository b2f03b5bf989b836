package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Pending Status = "pending"
	Paid    Status = "paid"

	// StatusAll is the filter sentinel meaning "any status".
	StatusAll Status = "all"

	// MaxNameLength bounds bill names.
	MaxNameLength = 200
)

type (
	// Status is the payment state of a bill.
	Status string

	// Bill is a single monthly expense obligation.
	Bill struct {
		ID          string     `json:"id"`
		Name        string     `json:"name"`
		Category    Category   `json:"category"`
		Amount      Money      `json:"amount"`
		DueDay      int        `json:"dueDay"`
		Status      Status     `json:"status"`
		MonthKey    MonthKey   `json:"monthKey"`
		PaymentDate *time.Time `json:"paymentDate,omitempty"`
		CreatedAt   time.Time  `json:"createdAt"`
		UpdatedAt   time.Time  `json:"updatedAt"`
	}

	// BillInput is everything needed to create a bill; the store assigns
	// ID and timestamps.
	BillInput struct {
		Name        string
		Category    Category
		Amount      Money
		DueDay      int
		Status      Status
		MonthKey    MonthKey
		PaymentDate *time.Time
	}

	// BillPatch lists the fields an update may change. Nil means unchanged.
	// ID and CreatedAt are deliberately absent.
	BillPatch struct {
		Name        *string
		Category    *Category
		Amount      *Money
		DueDay      *int
		Status      *Status
		MonthKey    *MonthKey
		PaymentDate *time.Time
	}

	// Income is the aggregate income of one month.
	Income struct {
		ID          string    `json:"id"`
		FixedIncome Money     `json:"fixedIncome"`
		ExtraIncome Money     `json:"extraIncome"`
		MonthKey    MonthKey  `json:"monthKey"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}
)

var (
	// ErrNotFound signals an absent record. It is a soft outcome, not a failure.
	ErrNotFound = errors.New("record not found")

	// ErrValidation wraps every input rejection below.
	ErrValidation = errors.New("validation failed")

	ErrEmptyName       = fmt.Errorf("%w: empty name", ErrValidation)
	ErrNameTooLong     = fmt.Errorf("%w: name too long (max %d characters)", ErrValidation, MaxNameLength)
	ErrInvalidDueDay   = fmt.Errorf("%w: due day must be between 1 and 31", ErrValidation)
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrInvalidCategory = fmt.Errorf("%w: invalid category", ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: invalid status", ErrValidation)
	ErrInvalidMonth    = fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	ErrNegativeIncome  = fmt.Errorf("%w: income must not be negative", ErrValidation)
)

// ParseStatus accepts the canonical values and the legacy Portuguese ones.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "pendente":
		return Pending, nil
	case "paid", "paga":
		return Paid, nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s Status) Validate() error {
	switch s {
	case Pending, Paid:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// UnmarshalJSON reads collections written with either vocabulary.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func validateDueDay(day int) error {
	if day < 1 || day > 31 {
		return ErrInvalidDueDay
	}
	return nil
}

func (in BillInput) Validate() error {
	if err := validateName(in.Name); err != nil {
		return err
	}
	if err := in.Category.Validate(); err != nil {
		return err
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if err := validateDueDay(in.DueDay); err != nil {
		return err
	}
	if err := in.Status.Validate(); err != nil {
		return err
	}
	return in.MonthKey.Validate()
}

// NewBill materializes a validated input. The payment date follows the status:
// paid bills get one (now unless provided), pending bills never carry one.
func (in BillInput) NewBill(id string, now time.Time) Bill {
	b := Bill{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Category:    in.Category,
		Amount:      in.Amount,
		DueDay:      in.DueDay,
		Status:      in.Status,
		MonthKey:    in.MonthKey,
		PaymentDate: in.PaymentDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.normalizePayment(now)
	return b
}

// Validate checks only the fields present in the patch.
func (p BillPatch) Validate() error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := p.Category.Validate(); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.DueDay != nil {
		if err := validateDueDay(*p.DueDay); err != nil {
			return err
		}
	}
	if p.Status != nil {
		if err := p.Status.Validate(); err != nil {
			return err
		}
	}
	if p.MonthKey != nil {
		if err := p.MonthKey.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges p into a copy of b and bumps UpdatedAt.
func (b Bill) Apply(p BillPatch, now time.Time) Bill {
	if p.Name != nil {
		b.Name = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.DueDay != nil {
		b.DueDay = *p.DueDay
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.MonthKey != nil {
		b.MonthKey = *p.MonthKey
	}
	if p.PaymentDate != nil {
		t := *p.PaymentDate
		b.PaymentDate = &t
	}
	b.UpdatedAt = now
	b.normalizePayment(now)
	return b
}

// IsPaid reports whether the bill is settled.
func (b Bill) IsPaid() bool { return b.Status == Paid }

func (b *Bill) normalizePayment(now time.Time) {
	switch {
	case b.Status != Paid:
		b.PaymentDate = nil
	case b.PaymentDate == nil:
		t := now
		b.PaymentDate = &t
	}
}

// ValidateIncome checks both components are non-negative.
func ValidateIncome(fixed, extra Money) error {
	if fixed.IsNegative() || extra.IsNegative() {
		return ErrNegativeIncome
	}
	return nil
}

// Total is fixed plus extra income.
func (i Income) Total() Money {
	return i.FixedIncome.Add(i.ExtraIncome)
}
