package handlers

import (
	"encoding/json"
	"net/http"
)

const maxBodyBytes = 64 << 10

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, code string, status int) {
	writeJSON(w, status, ErrorResponse{OK: false, Error: code})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

// MethodNotAllowed answers in the same JSON shape as other errors.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	jsonError(w, "method_not_allowed", http.StatusMethodNotAllowed)
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	jsonError(w, "not_found", http.StatusNotFound)
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
