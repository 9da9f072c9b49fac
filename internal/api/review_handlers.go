package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"example.com/shiftreport/internal/auth"
	"example.com/shiftreport/internal/domain"
	"example.com/shiftreport/internal/review"
)

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeShiftsWrite)
	if !ok {
		return
	}

	var req DayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	sessionID, err := h.sessions.Open(r.Context(), claims.TenantID, req.Site, req.Date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, OpenSessionResponse{SessionID: sessionID})
}

// sessionSubtree dispatches everything under /v1/review/sessions/{id}. Metric
// names inside field bodies may contain dots and spaces, so only the URL path
// is segment-split; field names always travel in the JSON body.
func (h *Handler) sessionSubtree(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeShiftsWrite); !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/review/sessions/")
	segments := strings.Split(rest, "/")
	if len(segments) == 0 || segments[0] == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing session id")
		return
	}
	sessionID := segments[0]
	segments = segments[1:]

	switch {
	case len(segments) == 0:
		h.sessionRoot(w, r, sessionID)
	case len(segments) == 1 && segments[0] == "totals":
		h.sessionTotals(w, r, sessionID)
	case len(segments) == 1 && segments[0] == "flush":
		h.flushSession(w, r, sessionID)
	case len(segments) >= 2 && segments[0] == "records":
		h.sessionRecord(w, r, sessionID, segments[1], segments[2:])
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown review path")
	}
}

func (h *Handler) sessionRoot(w http.ResponseWriter, r *http.Request, sessionID string) {
	switch r.Method {
	case http.MethodGet:
		view, err := h.sessions.Snapshot(sessionID)
		if err != nil {
			writeReviewError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case http.MethodDelete:
		if err := h.sessions.Discard(sessionID); err != nil {
			writeReviewError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) sessionTotals(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	period := domain.ShiftPeriod(r.URL.Query().Get("period"))
	switch period {
	case "", domain.ShiftPeriodDay, domain.ShiftPeriodNight:
	default:
		writeError(w, http.StatusBadRequest, "validation_failed", "period must be day or night")
		return
	}
	totals, err := h.sessions.Totals(sessionID, period)
	if err != nil {
		writeReviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DayTotalsResponse{Period: string(period), Totals: totals})
}

func (h *Handler) flushSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	saved, err := h.sessions.Flush(r.Context(), sessionID)
	if err != nil {
		writeReviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SaveDayResponse{Saved: saved})
}

func (h *Handler) sessionRecord(w http.ResponseWriter, r *http.Request, sessionID, recordID string, segments []string) {
	switch {
	case len(segments) == 0:
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		if err := h.sessions.DeleteRecord(r.Context(), sessionID, recordID); err != nil {
			writeReviewError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case len(segments) == 1 && segments[0] == "field":
		h.setField(w, r, sessionID, recordID)
	case segments[0] == "loads":
		h.recordLoads(w, r, sessionID, recordID, segments[1:])
	case segments[0] == "holes":
		h.recordHoles(w, r, sessionID, recordID, segments[1:])
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown review path")
	}
}

func (h *Handler) setField(w http.ResponseWriter, r *http.Request, sessionID, recordID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	var req SetFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if strings.TrimSpace(req.Field) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "field is required")
		return
	}
	payload, err := h.sessions.SetField(sessionID, recordID, req.Field, req.Value)
	if err != nil {
		writeReviewError(w, err)
		return
	}
	writePayload(w, payload)
}

func (h *Handler) recordLoads(w http.ResponseWriter, r *http.Request, sessionID, recordID string, segments []string) {
	switch {
	case len(segments) == 0:
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		payload, err := h.sessions.AddLoad(sessionID, recordID)
		if err != nil {
			writeReviewError(w, err)
			return
		}
		writePayload(w, payload)
	case len(segments) == 1:
		index, err := strconv.Atoi(segments[0])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "load index must be an integer")
			return
		}
		switch r.Method {
		case http.MethodPatch:
			var req SetLoadRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
				return
			}
			payload, err := h.sessions.SetLoadWeight(sessionID, recordID, index, req.Weight)
			if err != nil {
				writeReviewError(w, err)
				return
			}
			writePayload(w, payload)
		case http.MethodDelete:
			payload, err := h.sessions.DeleteLoad(sessionID, recordID, index)
			if err != nil {
				writeReviewError(w, err)
				return
			}
			writePayload(w, payload)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		}
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown review path")
	}
}

func (h *Handler) recordHoles(w http.ResponseWriter, r *http.Request, sessionID, recordID string, segments []string) {
	switch {
	case len(segments) == 0:
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		var req AddHoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		payload, err := h.sessions.AddHole(sessionID, recordID, req.Bucket)
		if err != nil {
			writeReviewError(w, err)
			return
		}
		writePayload(w, payload)
	case len(segments) == 1 && segments[0] == "move":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		var req MoveHoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		payload, err := h.sessions.MoveHole(sessionID, recordID, req.From, req.To, req.Index)
		if err != nil {
			writeReviewError(w, err)
			return
		}
		writePayload(w, payload)
	case len(segments) == 2:
		bucket := segments[0]
		index, err := strconv.Atoi(segments[1])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "hole index must be an integer")
			return
		}
		switch r.Method {
		case http.MethodPatch:
			var req SetHoleFieldRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
				return
			}
			payload, err := h.sessions.SetHoleField(sessionID, recordID, bucket, index, req.Field, req.Value)
			if err != nil {
				writeReviewError(w, err)
				return
			}
			writePayload(w, payload)
		case http.MethodDelete:
			payload, err := h.sessions.DeleteHole(sessionID, recordID, bucket, index)
			if err != nil {
				writeReviewError(w, err)
				return
			}
			writePayload(w, payload)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		}
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown review path")
	}
}

func writeReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, review.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", "review session not found")
	case errors.Is(err, review.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "not_found", "record not in review session")
	case errors.Is(err, review.ErrLoadIndex),
		errors.Is(err, review.ErrHoleIndex),
		errors.Is(err, review.ErrUnknownBucket),
		errors.Is(err, review.ErrUnknownHoleField):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writePayload(w http.ResponseWriter, payload domain.Payload) {
	writeJSON(w, http.StatusOK, PayloadResponse{
		Payload:  payload,
		GroupKey: domain.PayloadGroupKey(payload),
	})
}

// OpenSessionResponse carries the fresh session id.
type OpenSessionResponse struct {
	SessionID string `json:"session_id"`
}

// SetFieldRequest patches one payload field. Value always arrives as a string
// and is coerced server-side.
type SetFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SetLoadRequest updates one truck load's weight.
type SetLoadRequest struct {
	Weight float64 `json:"weight"`
}

// AddHoleRequest names the bucket receiving a new hole.
type AddHoleRequest struct {
	Bucket string `json:"bucket"`
}

// MoveHoleRequest moves one hole between buckets.
type MoveHoleRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Index int    `json:"index"`
}

// SetHoleFieldRequest patches one field of one hole.
type SetHoleFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// PayloadResponse returns the effective payload after a review mutation.
type PayloadResponse struct {
	Payload  domain.Payload `json:"payload"`
	GroupKey string         `json:"group_key"`
}
