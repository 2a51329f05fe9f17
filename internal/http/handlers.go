package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"closeout/internal/auth"
	"closeout/internal/closing"
	"closeout/internal/services"
	"closeout/internal/storage"
)

// headerEditSecret carries the shared secret gating edits and deletes of
// historical closings. It is never accepted in the body.
const headerEditSecret = "X-Edit-Secret"

// closingPayload is the write-side body for create, preview and update. The
// input field names mirror the persisted details block so the frontend can
// resubmit a stored record verbatim.
type closingPayload struct {
	Actor             string                    `json:"actor"`
	Date              string                    `json:"date"`
	Force             bool                      `json:"force,omitempty"`
	CashDenominations closing.DenominationCount `json:"cashDenominations"`
	TerminalDetails   closing.TerminalBreakdown `json:"terminalDetails"`
	POSInputs         closing.POSFigures        `json:"posInputs"`
}

func (p closingPayload) input() closing.Input {
	return closing.Input{
		Denominations: p.CashDenominations,
		Terminals:     p.TerminalDetails,
		POS:           p.POSInputs,
	}
}

func decodePayload(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNothingToSave),
		errors.Is(err, closing.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrDenied):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateDay):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateClosing(w http.ResponseWriter, r *http.Request) {
	var payload closingPayload
	if err := decodePayload(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	date, err := closing.ParseDate(payload.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := s.closings.Create(r.Context(), payload.Actor, date, payload.input(), payload.Force)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "create closing failed", "error", err)
			respondError(w, status, "could not save closing")
			return
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

// handlePreviewClosing reconciles without persisting, so the frontend can
// show live variance while the count is still in progress.
func (s *Server) handlePreviewClosing(w http.ResponseWriter, r *http.Request) {
	var payload closingPayload
	if err := decodePayload(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.closings.Preview(payload.input()))
}

func (s *Server) handleListClosings(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.closings.List(r.Context(), from, to)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list closings failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list closings")
		return
	}
	if records == nil {
		records = []closing.DailyClosing{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetClosing(w http.ResponseWriter, r *http.Request) {
	record, err := s.closings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleGetClosingByDate(w http.ResponseWriter, r *http.Request) {
	date, err := closing.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	record, err := s.closings.GetByDate(r.Context(), date)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleUpdateClosing(w http.ResponseWriter, r *http.Request) {
	var payload closingPayload
	if err := decodePayload(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	date, err := closing.ParseDate(payload.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := s.closings.Update(r.Context(),
		payload.Actor,
		r.Header.Get(headerEditSecret),
		chi.URLParam(r, "id"),
		date,
		payload.input())
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "update closing failed", "error", err)
			respondError(w, status, "could not update closing")
			return
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeleteClosing(w http.ResponseWriter, r *http.Request) {
	actor := r.URL.Query().Get("actor")
	err := s.closings.Delete(r.Context(), actor, r.Header.Get(headerEditSecret), chi.URLParam(r, "id"))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "delete closing failed", "error", err)
			respondError(w, status, "could not delete closing")
			return
		}
		respondError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRangeReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.reports.Range(r.Context(), from, to)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "range report failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not build range report")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// handleTerminalConfig publishes the ordered terminal IDs and network keys so
// the closing form can render input rows without hardcoding hardware.
func (s *Server) handleTerminalConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := s.closings.Config()
	respondJSON(w, http.StatusOK, map[string]any{
		"terminals": cfg.Terminals,
		"networks":  cfg.Networks,
	})
}

func parseRange(r *http.Request) (closing.Date, closing.Date, error) {
	from, err := closing.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		return closing.Date{}, closing.Date{}, err
	}
	to, err := closing.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		return closing.Date{}, closing.Date{}, err
	}
	if to.Before(from) {
		return closing.Date{}, closing.Date{}, errors.New("'to' must not precede 'from'")
	}
	return from, to, nil
}
