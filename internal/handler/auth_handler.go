package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/meridian-accounts/internal/domain"
	"github.com/prn-tf/meridian-accounts/internal/metrics"
	"github.com/prn-tf/meridian-accounts/internal/service"
)

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	auth    Authenticator
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth Authenticator, m *metrics.Metrics, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		metrics: m,
		logger:  logger.With().Str("handler", "auth").Logger(),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Account *domain.Account `json:"account"`
}

// Login authenticates a username/password pair, issues a token, and sets it
// as an HttpOnly cookie alongside the JSON response. The cookie value
// carries the Bearer prefix so it can be forwarded verbatim.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "malformed_body")
		return
	}

	account, token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.observeAuth("credentials", err)
		respondError(w, h.logger, err)
		return
	}
	h.observeAuth("credentials", nil)

	http.SetCookie(w, &http.Cookie{
		Name:     service.AuthCookieName,
		Value:    "Bearer " + token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	respondJSON(w, http.StatusOK, loginResponse{Token: token, Account: account})
}

// Logout clears the authentication cookie. Tokens themselves stay valid
// until revoked by a password change; this only removes the browser copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     service.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Status reports whether the request carries valid authentication.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	_, err := h.auth.AuthenticateRequest(r.Context(), r)
	if err != nil {
		h.observeAuth("request", err)
		respondError(w, h.logger, err)
		return
	}
	h.observeAuth("request", nil)

	respondJSON(w, http.StatusOK, map[string]string{"status": "authenticated"})
}

// User returns the account the request is authenticated as.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	account, err := h.auth.AuthenticateRequest(r.Context(), r)
	if err != nil {
		h.observeAuth("request", err)
		respondError(w, h.logger, err)
		return
	}
	h.observeAuth("request", nil)

	respondJSON(w, http.StatusOK, account)
}

func (h *AuthHandler) observeAuth(kind string, err error) {
	if h.metrics == nil {
		return
	}
	switch {
	case err == nil:
		h.metrics.ObserveAuthAttempt(kind, "ok")
	case isAuthDenied(err):
		h.metrics.ObserveAuthAttempt(kind, "denied")
	default:
		h.metrics.ObserveAuthAttempt(kind, "error")
	}
}
