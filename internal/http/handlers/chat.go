package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/no2forms/intake-assistant/internal/dialogue"
	"github.com/no2forms/intake-assistant/pkg/logging"
)

// Classifier runs one stateless dialogue turn over a client-held history.
type Classifier interface {
	Classify(ctx context.Context, history []dialogue.Turn, known dialogue.Slots) dialogue.Extraction
}

// ChatRequest is a dialogue turn. Message is the single-message form older
// widgets send.
type ChatRequest struct {
	Messages []dialogue.Turn `json:"messages"`
	Message  string          `json:"message,omitempty"`
	Slots    dialogue.Slots  `json:"slots"`
}

// ChatHandler serves POST /api/chat.
type ChatHandler struct {
	classifier Classifier
	logger     *logging.Logger
}

func NewChatHandler(classifier Classifier, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{classifier: classifier, logger: logger}
}

// Handle always answers a well-formed request with an extraction; oracle
// failures surface as the generic chat reply.
func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid_body", http.StatusBadRequest)
		return
	}

	history := make([]dialogue.Turn, 0, len(req.Messages)+1)
	for _, m := range req.Messages {
		if strings.TrimSpace(m.Content) != "" {
			history = append(history, m)
		}
	}
	if msg := strings.TrimSpace(req.Message); msg != "" {
		history = append(history, dialogue.Turn{Role: dialogue.RoleUser, Content: msg})
	}
	if len(history) == 0 {
		jsonError(w, "missing_messages", http.StatusBadRequest)
		return
	}

	ext := h.classifier.Classify(r.Context(), history, req.Slots)
	h.logger.Debug("chat turn classified", "mode", ext.Mode, "missing", ext.Missing, "kind", ext.Kind.String())
	writeJSON(w, http.StatusOK, ext)
}
