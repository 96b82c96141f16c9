package handler

import (
	"encoding/json"
	"net/http"

	"github.com/notespace-api/internal/application/auth"
	"github.com/notespace-api/internal/pkg/validate"
	"github.com/notespace-api/internal/transport/http/middleware"
)

// sendCodeAck is the acknowledgement for send-code. Deliberately identical
// for known and unknown addresses.
const sendCodeAck = "If the address is valid, a login code is on its way."

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthHandler handles the /auth endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req SendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email address is required")
		return
	}
	result, err := h.svc.SendCode(r.Context(), req.Email)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{
		Success:   true,
		Message:   sendCodeAck,
		MagicLink: result.MagicLink,
	})
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "email and 6-digit code are required")
		return
	}
	result, err := h.svc.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeAuthResult(w, result)
}

func (h *AuthHandler) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token query parameter is required")
		return
	}
	result, err := h.svc.VerifyMagicLink(r.Context(), token)
	if err != nil {
		httpError(w, err)
		return
	}
	writeAuthResult(w, result)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}
	result, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpError(w, err)
		return
	}
	writeAuthResult(w, result)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.svc.Me(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MeEnvelope{Success: true, User: toUserPayload(user)})
}

// Logout revokes the supplied refresh token. The optional Bearer token is
// used for audit attribution only and never gates the result.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Logout(r.Context(), req.RefreshToken, middleware.BearerToken(r)); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}

func writeAuthResult(w http.ResponseWriter, result *auth.LoginResult) {
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Success:      true,
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         toUserPayload(result.User),
	})
}
