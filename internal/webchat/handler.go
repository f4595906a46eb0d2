package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/no2forms/intake-assistant/internal/dialogue"
	"github.com/no2forms/intake-assistant/pkg/logging"
	"golang.org/x/net/websocket"
)

const maxBodyBytes = 64 << 10

// Handler exposes server-side sessions over HTTP and WebSocket.
type Handler struct {
	sessions *Sessions
	logger   *logging.Logger

	mu    sync.RWMutex
	conns map[string]*wsConn // sessionID -> active connection
}

type wsConn struct {
	conn *websocket.Conn
	send sync.Mutex
}

// InboundMessage is what the widget sends over the socket.
type InboundMessage struct {
	Type   string `json:"type"` // "message", "slot", "reset", "ping"
	Text   string `json:"text,omitempty"`
	Label  string `json:"label,omitempty"`
	ISOKey string `json:"isoKey,omitempty"`
}

// OutboundMessage is what the widget receives.
type OutboundMessage struct {
	Type      string               `json:"type"` // "session", "history", "turn", "error", "pong"
	SessionID string               `json:"session_id,omitempty"`
	Text      string               `json:"text,omitempty"`
	Turn      *dialogue.TurnResult `json:"turn,omitempty"`
	History   []dialogue.Turn      `json:"history,omitempty"`
	Timestamp string               `json:"timestamp,omitempty"`
}

// TurnResponse is the HTTP body for a session turn.
type TurnResponse struct {
	SessionID string `json:"session_id"`
	dialogue.TurnResult
}

// NewHandler creates a web chat handler.
func NewHandler(sessions *Sessions, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{sessions: sessions, logger: logger, conns: make(map[string]*wsConn)}
}

// HandleWebSocket upgrades to WebSocket and runs turns as messages arrive.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	wsc := &wsConn{conn: conn}
	h.mu.Lock()
	h.conns[sessionID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.conns[sessionID] == wsc {
			delete(h.conns, sessionID)
		}
		h.mu.Unlock()
	}()

	h.sendTo(wsc, OutboundMessage{Type: "session", SessionID: sessionID})
	if history, err := h.sessions.History(ctx, sessionID); err == nil && len(history) > 0 {
		h.sendTo(wsc, OutboundMessage{Type: "history", History: history})
	}

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			h.sendTo(wsc, OutboundMessage{Type: "pong"})
		case "message":
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			_, res, err := h.sessions.Message(ctx, sessionID, msg.Text)
			h.sendTurn(wsc, sessionID, res, err)
		case "slot":
			_, res, err := h.sessions.PickSlot(ctx, sessionID, msg.Label, msg.ISOKey)
			h.sendTurn(wsc, sessionID, res, err)
		case "reset":
			if err := h.sessions.End(ctx, sessionID); err != nil {
				h.logger.Warn("webchat: failed to reset session", "session_id", sessionID, "error", err)
			}
			h.sendTo(wsc, OutboundMessage{Type: "session", SessionID: sessionID})
		}
	}
}

func (h *Handler) sendTurn(wsc *wsConn, sessionID string, res dialogue.TurnResult, err error) {
	if err != nil {
		h.logger.Warn("webchat: turn failed", "session_id", sessionID, "error", err)
		h.sendTo(wsc, OutboundMessage{Type: "error", Text: userFacingError(err)})
		return
	}
	h.sendTo(wsc, OutboundMessage{
		Type:      "turn",
		SessionID: sessionID,
		Turn:      &res,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) sendTo(wsc *wsConn, msg OutboundMessage) {
	wsc.send.Lock()
	defer wsc.send.Unlock()
	if err := websocket.JSON.Send(wsc.conn, msg); err != nil {
		h.logger.Debug("webchat: send failed", "error", err)
	}
}

// push forwards an HTTP-driven turn to the session's open socket, if any.
func (h *Handler) push(sessionID string, res dialogue.TurnResult) {
	h.mu.RLock()
	wsc, ok := h.conns[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.sendTurn(wsc, sessionID, res, nil)
}

// HandleMessage is the HTTP fallback for sending a message.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = r.Header.Get("X-Session-Id")
	}
	h.respond(r.Context(), w, func(ctx context.Context) (string, dialogue.TurnResult, error) {
		return h.sessions.Message(ctx, req.SessionID, req.Text)
	}, false)
}

// HandleSlot applies a slot picked outside the chat, such as a calendar
// widget, and mirrors the turn to an open socket.
func (h *Handler) HandleSlot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Label     string `json:"label"`
		ISOKey    string `json:"isoKey"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = r.Header.Get("X-Session-Id")
	}
	h.respond(r.Context(), w, func(ctx context.Context) (string, dialogue.TurnResult, error) {
		return h.sessions.PickSlot(ctx, req.SessionID, req.Label, req.ISOKey)
	}, true)
}

// HandleHistory returns the transcript for ?session=.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing_session")
		return
	}
	history, err := h.sessions.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("webchat: failed to load history", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if history == nil {
		history = []dialogue.Turn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "history": history})
}

func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, turn func(context.Context) (string, dialogue.TurnResult, error), mirror bool) {
	sessionID, res, err := turn(ctx)
	switch {
	case errors.Is(err, dialogue.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "missing_message")
		return
	case errors.Is(err, dialogue.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, "invalid_slot")
		return
	case err != nil:
		h.logger.Error("webchat: turn failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if mirror {
		h.push(sessionID, res)
	}
	w.Header().Set("X-Session-Id", sessionID)
	writeJSON(w, http.StatusOK, TurnResponse{SessionID: sessionID, TurnResult: res})
}

func userFacingError(err error) string {
	switch {
	case errors.Is(err, dialogue.ErrInvalidSlot):
		return "That time slot could not be read. Please pick another."
	default:
		return "Sorry, something went wrong. Please try again."
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": code})
}
