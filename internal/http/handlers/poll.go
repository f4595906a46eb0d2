package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/no2forms/intake-assistant/internal/poll"
	"github.com/no2forms/intake-assistant/pkg/logging"
)

// PollService is the tagline poll.
type PollService interface {
	Results(ctx context.Context) (poll.Tally, error)
	Vote(ctx context.Context, label string) (poll.Tally, error)
}

// VoteResponse is the body of a successful vote.
type VoteResponse struct {
	OK   bool       `json:"ok"`
	Poll poll.Tally `json:"poll"`
}

// PollHandler serves GET and POST /api/poll.
type PollHandler struct {
	service PollService
	logger  *logging.Logger
}

func NewPollHandler(service PollService, logger *logging.Logger) *PollHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PollHandler{service: service, logger: logger}
}

// Results returns the label to count map.
func (h *PollHandler) Results(w http.ResponseWriter, r *http.Request) {
	tally, err := h.service.Results(r.Context())
	if err != nil {
		h.logger.Error("poll results failed", "error", err)
		jsonError(w, "server_error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tally)
}

// Vote records one vote for {label}.
func (h *PollHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil {
		jsonError(w, poll.ErrMissingLabel.Error(), http.StatusBadRequest)
		return
	}
	var label string
	if raw, ok := body["label"]; !ok || json.Unmarshal(raw, &label) != nil {
		jsonError(w, poll.ErrMissingLabel.Error(), http.StatusBadRequest)
		return
	}

	tally, err := h.service.Vote(r.Context(), label)
	switch {
	case errors.Is(err, poll.ErrMissingLabel), errors.Is(err, poll.ErrInvalidLabel):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		h.logger.Error("poll vote failed", "error", err)
		jsonError(w, "server_error", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, VoteResponse{OK: true, Poll: tally})
	}
}
