package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"myfinance/internal/core"
	"myfinance/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

// billResponse is a bill plus its display classification.
type billResponse struct {
	core.Bill
	DueState      core.DueState `json:"dueState"`
	CategoryLabel string        `json:"categoryLabel"`
}

func newBillResponse(b core.Bill, now time.Time) billResponse {
	return billResponse{Bill: b, DueState: core.Classify(b, now), CategoryLabel: b.Category.Label()}
}

type billListResponse struct {
	Month core.MonthKey  `json:"month,omitempty"`
	Count int            `json:"count"`
	Bills []billResponse `json:"bills"`
}

type incomeResponse struct {
	Month  core.MonthKey `json:"month"`
	Income *core.Income  `json:"income"`
	Total  core.Money    `json:"total"`
}

type summaryResponse struct {
	core.Summary
	MonthLabel string                `json:"monthLabel"`
	ByCategory []core.CategoryAmount `json:"byCategory"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status: validation 422, not found 404,
// undecodable body 400, anything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: describe(verrs)})
	case errors.Is(err, core.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "bill not found"})
	case errors.As(err, &maxBytes):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
	case errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path, log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Tag()
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "min":
			msg = "must be at least " + fe.Param()
		case "max":
			msg = "must be at most " + fe.Param()
		case "monthkey":
			msg = "must be YYYY-MM"
		case "category", "status":
			msg = fmt.Sprintf("is not a valid %s", fe.Tag())
		}
		parts = append(parts, fe.Field()+" "+msg)
	}
	return core.ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}
