// Package api exposes HTTP handlers for the shift reporting service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/shiftreport/internal/auth"
	"example.com/shiftreport/internal/domain"
	"example.com/shiftreport/internal/persistence"
	"example.com/shiftreport/internal/persistence/postgres"
	"example.com/shiftreport/internal/review"
)

// Repository captures the persistence operations the handlers need.
type Repository interface {
	DayRecords(ctx context.Context, tenantID, site, date string) (domain.DayRecords, error)
	ValidateDay(ctx context.Context, tenantID, site, date string) (int, error)
	ReplacePayloads(ctx context.Context, tenantID string, edits []domain.PayloadEdit) error
	DeleteValidated(ctx context.Context, tenantID, recordID string) error
	ListByUser(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.Record, *domain.Cursor, error)
}

// Handler coordinates HTTP requests with the repository and review sessions.
type Handler struct {
	repo     Repository
	sessions *review.Store
}

// NewHandler builds a Handler.
func NewHandler(repo Repository, sessions *review.Store) *Handler {
	return &Handler{repo: repo, sessions: sessions}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/days", h.day)
	mux.HandleFunc("/v1/days/totals", h.dayTotals)
	mux.HandleFunc("/v1/days/validate", h.validateDay)
	mux.HandleFunc("/v1/days/save", h.saveDay)
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/", h.activityByID)
	mux.HandleFunc("/v1/review/sessions", h.openSession)
	mux.HandleFunc("/v1/review/sessions/", h.sessionSubtree)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) day(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeShiftsRead, auth.ScopeShiftsWrite)
	if !ok {
		return
	}

	site, date, ok := siteDateQuery(w, r)
	if !ok {
		return
	}

	day, err := h.repo.DayRecords(r.Context(), claims.TenantID, site, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := DayView{
		Site:      site,
		Date:      date,
		Live:      toRecordViews(day.Live),
		Validated: toRecordViews(day.Validated),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) dayTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeShiftsRead, auth.ScopeShiftsWrite)
	if !ok {
		return
	}

	site, date, ok := siteDateQuery(w, r)
	if !ok {
		return
	}

	period := domain.ShiftPeriod(r.URL.Query().Get("period"))
	switch period {
	case "", domain.ShiftPeriodDay, domain.ShiftPeriodNight:
	default:
		writeError(w, http.StatusBadRequest, "validation_failed", "period must be day or night")
		return
	}

	day, err := h.repo.DayRecords(r.Context(), claims.TenantID, site, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	source := day.Validated
	if len(source) == 0 {
		source = day.Live
	}
	totals := domain.BuildTotals(source, nil, domain.TotalsFilter{ShiftPeriod: period})

	resp := DayTotalsResponse{
		Site:   site,
		Date:   date,
		Period: string(period),
		Totals: totals,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) validateDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeShiftsValidate)
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

	count, err := h.repo.ValidateDay(r.Context(), claims.TenantID, req.Site, req.Date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ValidateDayResponse{Site: req.Site, Date: req.Date, Records: count})
}

func (h *Handler) saveDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeShiftsWrite)
	if !ok {
		return
	}

	var req SaveDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	edits := make([]domain.PayloadEdit, 0, len(req.Edits))
	for _, edit := range req.Edits {
		edits = append(edits, domain.PayloadEdit{
			RecordID: edit.RecordID,
			Payload:  domain.Normalize(edit.Payload),
		})
	}

	if err := h.repo.ReplacePayloads(r.Context(), claims.TenantID, edits); err != nil {
		if errors.Is(err, postgres.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "record not in validated set")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SaveDayResponse{Saved: len(edits)})
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeShiftsRead, auth.ScopeShiftsWrite)
	if !ok {
		return
	}

	userID := r.URL.Query().Get("user_id")
	if strings.TrimSpace(userID) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	records, next, err := h.repo.ListByUser(r.Context(), claims.TenantID, userID, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := ListActivitiesResponse{
		Items:      toRecordViews(records),
		NextCursor: persistence.EncodeCursor(next),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeShiftsWrite)
	if !ok {
		return
	}

	if err := h.repo.DeleteValidated(r.Context(), claims.TenantID, id); err != nil {
		if errors.Is(err, postgres.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "record not in validated set")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
	return nil, false
}

func siteDateQuery(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	site := strings.TrimSpace(r.URL.Query().Get("site"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if site == "" || date == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "site and date parameters are required")
		return "", "", false
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "date must be YYYY-MM-DD")
		return "", "", false
	}
	return site, date, true
}

// DayRequest identifies one (site, date) in a request body.
type DayRequest struct {
	Site string `json:"site"`
	Date string `json:"date"`
}

// Validate ensures request correctness.
func (r DayRequest) Validate() error {
	if strings.TrimSpace(r.Site) == "" {
		return errors.New("site is required")
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return errors.New("date must be YYYY-MM-DD")
	}
	return nil
}

// PayloadEditRequest is one record's replacement payload in a bulk save.
type PayloadEditRequest struct {
	RecordID string          `json:"record_id"`
	Payload  json.RawMessage `json:"payload"`
}

// SaveDayRequest is the payload for POST /v1/days/save.
type SaveDayRequest struct {
	Site  string               `json:"site"`
	Date  string               `json:"date"`
	Edits []PayloadEditRequest `json:"edits"`
}

// Validate ensures request correctness.
func (r SaveDayRequest) Validate() error {
	if err := (DayRequest{Site: r.Site, Date: r.Date}).Validate(); err != nil {
		return err
	}
	if len(r.Edits) == 0 {
		return errors.New("edits must not be empty")
	}
	for _, edit := range r.Edits {
		if strings.TrimSpace(edit.RecordID) == "" {
			return errors.New("every edit needs a record_id")
		}
	}
	return nil
}

// ValidateDayResponse reports how many records were snapshotted.
type ValidateDayResponse struct {
	Site    string `json:"site"`
	Date    string `json:"date"`
	Records int    `json:"records"`
}

// SaveDayResponse reports how many payloads were replaced.
type SaveDayResponse struct {
	Saved int `json:"saved"`
}

// RecordView exposes one shift record.
type RecordView struct {
	RecordID    string         `json:"record_id"`
	Site        string         `json:"site"`
	ShiftDate   string         `json:"shift_date"`
	ShiftPeriod string         `json:"shift_period"`
	ShiftID     string         `json:"shift_id"`
	UserID      string         `json:"user_id"`
	GroupKey    string         `json:"group_key"`
	Payload     domain.Payload `json:"payload"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DayView packages the live and validated sets for one day.
type DayView struct {
	Site      string       `json:"site"`
	Date      string       `json:"date"`
	Live      []RecordView `json:"live"`
	Validated []RecordView `json:"validated"`
}

// DayTotalsResponse carries the aggregated metric tree for one day.
type DayTotalsResponse struct {
	Site   string        `json:"site"`
	Date   string        `json:"date"`
	Period string        `json:"period,omitempty"`
	Totals domain.Totals `json:"totals"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Items      []RecordView `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toRecordViews(records []domain.Record) []RecordView {
	views := make([]RecordView, 0, len(records))
	for _, rec := range records {
		views = append(views, RecordView{
			RecordID:    rec.ID,
			Site:        rec.Site,
			ShiftDate:   rec.ShiftDate,
			ShiftPeriod: string(rec.ShiftPeriod),
			ShiftID:     rec.ShiftID,
			UserID:      rec.UserID,
			GroupKey:    domain.PayloadGroupKey(rec.Payload),
			Payload:     rec.Payload,
			CreatedAt:   rec.CreatedAt,
			UpdatedAt:   rec.UpdatedAt,
		})
	}
	return views
}
