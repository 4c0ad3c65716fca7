package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rustyeddy/notes/config"
	"github.com/rustyeddy/notes/curve"
	"github.com/rustyeddy/notes/market"
	"github.com/rustyeddy/notes/payoff"
	"github.com/rustyeddy/notes/position"
	"github.com/rustyeddy/notes/schedule"
	"github.com/rustyeddy/notes/terms"
)

// PayoffRequest is the body of POST /api/v1/payoff.
type PayoffRequest struct {
	Terms        terms.Document      `json:"terms"`
	Market       market.MarketData   `json:"market"`
	BarrierState payoff.BarrierState `json:"barrier_state,omitempty"`
}

// ScheduleResponse is the body returned by GET /api/v1/schedule.
type ScheduleResponse struct {
	Start     string   `json:"start"`
	Tenor     int      `json:"tenor_months"`
	Frequency string   `json:"frequency"`
	Dates     []string `json:"dates"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// buildTerms decodes and validates a terms document, writing the error
// response itself when it fails.
func buildTerms(w http.ResponseWriter, d terms.Document) (terms.Terms, bool) {
	t, err := d.Terms()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return nil, false
	}
	if v := terms.ValidateTerms(t); !v.Valid {
		respondError(w, http.StatusUnprocessableEntity, "invalid terms", v.Errors)
		return nil, false
	}
	return t, true
}

func (h *handlers) validateTerms(w http.ResponseWriter, r *http.Request) {
	var d terms.Document
	if err := decode(w, r, &d); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	t, err := d.Terms()
	if err != nil {
		respondJSON(w, http.StatusOK, terms.Validation{Valid: false, Errors: []string{err.Error()}})
		return
	}
	respondJSON(w, http.StatusOK, terms.ValidateTerms(t))
}

func (h *handlers) payoff(w http.ResponseWriter, r *http.Request) {
	var req PayoffRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	t, ok := buildTerms(w, req.Terms)
	if !ok {
		return
	}
	md := req.Market
	if len(md.InitialFixings) == 0 {
		md.InitialFixings = t.Base().Fixings()
	}
	if err := md.Check(len(t.Base().Underlyings)); err != nil {
		respondError(w, http.StatusBadRequest, "invalid market data", err.Error())
		return
	}
	switch req.BarrierState {
	case payoff.StateAuto, payoff.StateBreached, payoff.StateIntact:
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown barrier_state %q", req.BarrierState), nil)
		return
	}
	respondJSON(w, http.StatusOK, payoff.CalculateWithState(t, md, req.BarrierState))
}

func (h *handlers) curve(w http.ResponseWriter, r *http.Request) {
	var d terms.Document
	if err := decode(w, r, &d); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	t, ok := buildTerms(w, d)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, curve.Generate(t))
}

func (h *handlers) schedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := schedule.ParseDate(q.Get("start"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "start must be a date (YYYY-MM-DD)", err.Error())
		return
	}
	tenor, err := strconv.Atoi(q.Get("tenor"))
	if err != nil || tenor < 1 {
		respondError(w, http.StatusBadRequest, "tenor must be a positive number of months", nil)
		return
	}
	freq := schedule.ParseFrequency(q.Get("frequency"))

	var dates []string
	for _, d := range schedule.CouponDates(start, tenor, freq) {
		dates = append(dates, d.Format(schedule.DateLayout))
	}
	respondJSON(w, http.StatusOK, ScheduleResponse{
		Start:     start.Format(schedule.DateLayout),
		Tenor:     tenor,
		Frequency: freq.String(),
		Dates:     dates,
	})
}

func (h *handlers) evaluate(w http.ResponseWriter, r *http.Request) {
	var sc config.Scenario
	if err := decode(w, r, &sc); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if _, ok := buildTerms(w, sc.Terms); !ok {
		return
	}
	p, err := sc.Position(position.Options{})
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	ov, err := sc.EvalOverrides()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	snap, err := h.eval.Evaluate(p, sc.Market, ov)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, position.ErrInvalidPosition) {
			status = http.StatusBadRequest
		}
		respondError(w, status, err.Error(), nil)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}
