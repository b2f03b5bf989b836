package http

import (
	"context"
	"net/http"

	"myfinance/internal/core"
	"myfinance/internal/log"
)

// incomeFor returns the income of month, loading it unless already cached.
// The caller holds incomeMu.
func (s *Server) incomeFor(ctx context.Context, month core.MonthKey, refresh bool) (*core.Income, error) {
	if refresh || s.income.Month() != month {
		if err := s.income.Load(ctx, month); err != nil {
			return nil, err
		}
	}
	in, ok := s.income.Current()
	if !ok {
		return nil, nil
	}
	return &in, nil
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	month, err := s.monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.incomeMu.Lock()
	in, err := s.incomeFor(r.Context(), month, boolParam(r, "refresh"))
	s.incomeMu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newIncomeResponse(month, in))
}

func (s *Server) handlePutIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	month := core.MonthOf(s.now())
	if req.Month != "" {
		month = core.MonthKey(req.Month)
	}
	fixed, err := req.FixedIncome.money()
	if err != nil {
		writeError(w, r, err)
		return
	}
	extra, err := req.ExtraIncome.money()
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.incomeMu.Lock()
	in, err := s.income.Save(r.Context(), fixed, extra, month)
	s.incomeMu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Income saved",
		log.FieldMonth, month.String(), log.FieldAmount, in.Total().String())
	writeJSON(w, http.StatusOK, newIncomeResponse(month, &in))
}

func newIncomeResponse(month core.MonthKey, in *core.Income) incomeResponse {
	resp := incomeResponse{Month: month, Income: in}
	if in != nil {
		resp.Total = in.Total()
	}
	return resp
}

// handleSummary aggregates the bill mirror with the month's income.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := s.monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	refresh := boolParam(r, "refresh")
	if refresh {
		if err := s.bills.Load(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
	}

	s.incomeMu.Lock()
	in, err := s.incomeFor(r.Context(), month, refresh)
	s.incomeMu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}

	var total core.Money
	if in != nil {
		total = in.Total()
	}
	all := s.bills.All()
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:    core.Summarize(all, total, month),
		MonthLabel: month.Label(),
		ByCategory: core.ByCategory(all, month),
	})
}
