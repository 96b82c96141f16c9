package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/notespace-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	MagicLink string `json:"magicLink,omitempty"`
	Error     string `json:"error,omitempty"`
}

// UserPayload is the client-visible projection of a user.
type UserPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthEnvelope wraps responses that establish or refresh a session.
type AuthEnvelope struct {
	Success      bool         `json:"success"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         *UserPayload `json:"user"`
}

// MeEnvelope wraps the current-user response.
type MeEnvelope struct {
	Success bool         `json:"success"`
	User    *UserPayload `json:"user"`
}

func toUserPayload(u *domain.User) *UserPayload {
	if u == nil {
		return nil
	}
	return &UserPayload{ID: u.UserID, Email: u.Email}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Success: false, Error: msg})
}

// httpError maps domain sentinel errors onto HTTP status codes. Anything
// unrecognized is a dependency failure: logged with full context, surfaced
// generically.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusUnauthorized, "invalid or expired credentials")
	default:
		slog.Error("internal error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
