package http

import (
	"net/http"

	"tasknest/internal/core"
)

func (s *Server) handleGetOrCreateBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.budgets.GetOrCreate(r.Context(), r.PathValue("email"), r.PathValue("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.budgets.Stats(r.Context(), r.PathValue("email"), r.PathValue("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleAddFunds reads the amount from the query string; a negative amount
// removes funds.
func (s *Server) handleAddFunds(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	raw := r.URL.Query().Get("amount")
	if raw == "" {
		writeError(w, r, core.NewValidationError("amount", "amount is required"))
		return
	}
	amount, err := core.ParseAmount(raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.budgets.AddFunds(r.Context(), id, amount.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleGetDistribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.budgets.Distribution(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleSetDistribution expects a JSON object of category to percentage.
func (s *Server) handleSetDistribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var pct map[string]float64
	if err := decodeJSON(w, r, &pct); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.budgets.SetDistribution(r.Context(), id, pct)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleResetDistribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.budgets.ResetDistribution(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.budgets.Overview(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleAutoAdjust(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.budgets.AutoAdjust(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
