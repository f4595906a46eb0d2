package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/no2forms/intake-assistant/internal/booking"
	"github.com/no2forms/intake-assistant/pkg/logging"
)

// BookingService commits bookings and answers availability checks.
type BookingService interface {
	Commit(ctx context.Context, req booking.CommitRequest) booking.Outcome
	Available(ctx context.Context, isoKey, raw string) (bool, string, error)
}

// CommitResponse is the body of a successful commit.
type CommitResponse struct {
	OK bool `json:"ok"`
}

// AvailabilityResponse answers GET /api/bookings/check.
type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Key       string `json:"key"`
}

// BookingsHandler serves the commit and availability endpoints.
type BookingsHandler struct {
	service BookingService
	logger  *logging.Logger
}

func NewBookingsHandler(service BookingService, logger *logging.Logger) *BookingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingsHandler{service: service, logger: logger}
}

// Commit handles POST /api/notify and POST /api/bookings.
func (h *BookingsHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req booking.CommitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		// An unreadable body carries no email or time.
		jsonError(w, string(booking.ReasonMissingFields), http.StatusBadRequest)
		return
	}

	out := h.service.Commit(r.Context(), req)
	if out.OK {
		writeJSON(w, http.StatusOK, CommitResponse{OK: true})
		return
	}
	jsonError(w, string(out.Reason), statusForReason(out.Reason))
}

// Check handles GET /api/bookings/check?time=&isoKey=.
func (h *BookingsHandler) Check(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := strings.TrimSpace(q.Get("time"))
	isoKey := strings.TrimSpace(q.Get("isoKey"))
	if raw == "" && isoKey == "" {
		jsonError(w, string(booking.ReasonMissingFields), http.StatusBadRequest)
		return
	}

	available, key, err := h.service.Available(r.Context(), isoKey, raw)
	if err != nil {
		h.logger.Error("availability check failed", "canonical_key", key, "error", err)
		jsonError(w, string(booking.ReasonServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{Available: available, Key: key})
}

func statusForReason(reason booking.Reason) int {
	switch reason {
	case booking.ReasonMissingFields:
		return http.StatusBadRequest
	case booking.ReasonSlotUnavailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
