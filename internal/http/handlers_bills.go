package http

import (
	"net/http"

	"myfinance/internal/core"
)

func handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Categories())
}

// handleListBills serves the filtered mirror, unpaid first. refresh=true
// reloads the mirror from storage first.
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	f, err := s.billFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if boolParam(r, "refresh") {
		if err := s.bills.Load(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
	}

	now := s.now()
	sorted := core.SortForDisplay(s.bills.Filter(f))
	resp := billListResponse{Month: f.Month, Count: len(sorted), Bills: make([]billResponse, 0, len(sorted))}
	for _, b := range sorted {
		resp.Bills = append(resp.Bills, newBillResponse(b, now))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	now := s.now()
	in, err := req.toInput(now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bill, err := s.bills.Add(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newBillResponse(bill, now))
}

func (s *Server) handlePatchBill(w http.ResponseWriter, r *http.Request) {
	var req patchBillRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	bill, err := s.bills.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBillResponse(bill, s.now()))
}

// handleDeleteBill answers 204 whether or not the id existed.
func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.bills.Remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := core.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	bill, err := s.bills.TogglePayment(r.Context(), r.PathValue("id"), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBillResponse(bill, s.now()))
}
