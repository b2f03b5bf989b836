package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"myfinance/internal/core"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks bodies that could not be decoded at all.
var errBadRequest = errors.New("bad request")

// newValidator builds a validator that reports json field names and knows
// the domain enums.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(v.RegisterValidation("monthkey", func(fl validator.FieldLevel) bool {
		return core.MonthKey(fl.Field().String()).Validate() == nil
	}))
	must(v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, err := core.ParseCategory(fl.Field().String())
		return err == nil
	}))
	must(v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		_, err := core.ParseStatus(fl.Field().String())
		return err == nil
	}))
	return v
}

// createBillRequest is the body of POST /api/bills.
type createBillRequest struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Category    string      `json:"category" validate:"required,category"`
	Amount      amountInput `json:"amount" validate:"required,max=32"`
	DueDay      int         `json:"dueDay" validate:"required,min=1,max=31"`
	Status      string      `json:"status" validate:"omitempty,status"`
	MonthKey    string      `json:"monthKey" validate:"omitempty,monthkey"`
	PaymentDate *time.Time  `json:"paymentDate"`
}

// toInput fills defaults: pending status and the month of now.
func (req createBillRequest) toInput(now time.Time) (core.BillInput, error) {
	amount, err := core.ParsePositiveAmount(string(req.Amount))
	if err != nil {
		return core.BillInput{}, err
	}
	in := core.BillInput{
		Name:        strings.TrimSpace(req.Name),
		Category:    core.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		Amount:      amount,
		DueDay:      req.DueDay,
		Status:      core.Pending,
		MonthKey:    core.MonthOf(now),
		PaymentDate: req.PaymentDate,
	}
	if req.Status != "" {
		in.Status, _ = core.ParseStatus(req.Status)
	}
	if req.MonthKey != "" {
		in.MonthKey = core.MonthKey(req.MonthKey)
	}
	return in, nil
}

// patchBillRequest is the body of PATCH /api/bills/{id}. Absent fields are
// left unchanged.
type patchBillRequest struct {
	Name        *string      `json:"name" validate:"omitempty,min=1,max=200"`
	Category    *string      `json:"category" validate:"omitempty,category"`
	Amount      *amountInput `json:"amount" validate:"omitempty,max=32"`
	DueDay      *int         `json:"dueDay" validate:"omitempty,min=1,max=31"`
	Status      *string      `json:"status" validate:"omitempty,status"`
	MonthKey    *string      `json:"monthKey" validate:"omitempty,monthkey"`
	PaymentDate *time.Time   `json:"paymentDate"`
}

func (req patchBillRequest) toPatch() (core.BillPatch, error) {
	p := core.BillPatch{DueDay: req.DueDay, PaymentDate: req.PaymentDate}
	if req.Amount != nil {
		amount, err := core.ParsePositiveAmount(string(*req.Amount))
		if err != nil {
			return core.BillPatch{}, err
		}
		p.Amount = &amount
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		p.Name = &name
	}
	if req.Category != nil {
		c := core.Category(strings.ToLower(strings.TrimSpace(*req.Category)))
		p.Category = &c
	}
	if req.Status != nil {
		st, _ := core.ParseStatus(*req.Status)
		p.Status = &st
	}
	if req.MonthKey != nil {
		m := core.MonthKey(*req.MonthKey)
		p.MonthKey = &m
	}
	return p, nil
}

// paymentRequest is the body of POST /api/bills/{id}/payment.
type paymentRequest struct {
	Status string `json:"status" validate:"required,status"`
}

// incomeRequest is the body of PUT /api/income. Empty amounts mean zero.
type incomeRequest struct {
	Month       string      `json:"month" validate:"omitempty,monthkey"`
	FixedIncome amountInput `json:"fixedIncome" validate:"max=32"`
	ExtraIncome amountInput `json:"extraIncome" validate:"max=32"`
}

// amountInput accepts a JSON number or a string in either "1.234,56" or
// "1234.56" form and keeps its text for core.ParseAmount.
type amountInput string

func (a *amountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*a = amountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number")
	}
	*a = amountInput(n.String())
	return nil
}

func (a amountInput) money() (core.Money, error) {
	if strings.TrimSpace(string(a)) == "" {
		return core.Money{}, nil
	}
	return core.ParseAmount(string(a))
}

// decodeJSON reads a single JSON object into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", errBadRequest)
	}
	return s.validate.Struct(dst)
}

// monthParam reads ?month=, defaulting to the month of now.
func (s *Server) monthParam(r *http.Request) (core.MonthKey, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.MonthOf(s.now()), nil
	}
	return core.ParseMonthKey(v)
}

// billFilter builds the list filter from the query string. month=all lists
// every month.
func (s *Server) billFilter(r *http.Request) (core.BillFilter, error) {
	q := r.URL.Query()
	f := core.BillFilter{Search: q.Get("q")}

	var err error
	if !isAll(strings.TrimSpace(q.Get("month"))) {
		if f.Month, err = s.monthParam(r); err != nil {
			return core.BillFilter{}, err
		}
	}

	if v := strings.TrimSpace(q.Get("status")); v != "" && !isAll(v) {
		if f.Status, err = core.ParseStatus(v); err != nil {
			return core.BillFilter{}, err
		}
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" && !isAll(v) {
		if f.Category, err = core.ParseCategory(v); err != nil {
			return core.BillFilter{}, err
		}
	}
	return f, nil
}

func isAll(v string) bool {
	v = strings.ToLower(v)
	return v == string(core.StatusAll) || v == "todas"
}

func boolParam(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}
