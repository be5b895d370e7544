package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/auth"
)

// StartAuthHandler begins the OAuth flow by redirecting to the provider's
// authorization dialog with a fresh CSRF state embedded.
func (s *Server) StartAuthHandler(w http.ResponseWriter, r *http.Request) {
	authURL, err := s.Auth.Start(r.Context())
	if err != nil {
		s.Logger.Error("failed to start oauth flow", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not start authorization")
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// callbackMessage is the payload the popup posts to its opener window.
type callbackMessage struct {
	Type        string `json:"type"`
	OK          bool   `json:"ok"`
	DisplayName string `json:"displayName,omitempty"`
	Message     string `json:"message,omitempty"`
}

// CallbackHandler completes the OAuth flow. The response is a small HTML page
// that relays the outcome to the opener window and closes the popup. Failure
// messages are sanitized before being embedded.
func (s *Server) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	name, err := s.Auth.HandleCallback(r.Context(), code, state)
	if err != nil {
		status := http.StatusBadGateway
		msg := "authorization failed"
		switch {
		case errors.Is(err, auth.ErrMissingCode):
			status = http.StatusBadRequest
			msg = "authorization code missing"
		case errors.Is(err, auth.ErrInvalidState):
			status = http.StatusForbidden
			msg = "authorization state invalid or expired"
		default:
			s.Logger.Error("oauth exchange failed", zap.Error(err))
		}
		s.writeCallbackPage(w, status, callbackMessage{
			Type:    "adcraft:oauth",
			OK:      false,
			Message: auth.SanitizeMessage(msg),
		})
		return
	}

	s.writeCallbackPage(w, http.StatusOK, callbackMessage{
		Type:        "adcraft:oauth",
		OK:          true,
		DisplayName: name,
	})
}

func (s *Server) writeCallbackPage(w http.ResponseWriter, status int, msg callbackMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html><body><script>
if (window.opener) { window.opener.postMessage(%s, "*"); }
window.close();
</script></body></html>`, payload)
}

// StatusHandler reports whether a valid platform credential is stored.
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Auth.Status())
}

// DisconnectHandler clears the stored credential. Idempotent.
func (s *Server) DisconnectHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Auth.Disconnect(); err != nil {
		s.Logger.Error("disconnect failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not clear credential")
		return
	}
	writeJSON(w, map[string]bool{"disconnected": true})
}
