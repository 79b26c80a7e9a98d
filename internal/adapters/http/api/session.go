// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// SessionHandler owns session-level state operations.
type SessionHandler struct {
	svc Service
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(svc Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// HandleReset handles POST /reset requests, discarding seen counts and
// learned preferences for the session.
func (h *SessionHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	h.svc.Reset(r.Context())
	writeJSON(w, http.StatusOK, ackResponse{Status: "reset"})
}
