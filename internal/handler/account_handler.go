package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/meridian-accounts/internal/domain"
	"github.com/prn-tf/meridian-accounts/internal/metrics"
	"github.com/prn-tf/meridian-accounts/internal/service"
)

// AccountHandler serves the account endpoints. Registration is open; every
// other mutation requires the caller to be authenticated as the target
// account.
type AccountHandler struct {
	accounts AccountService
	auth     Authenticator
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts AccountService, auth Authenticator, m *metrics.Metrics, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		auth:     auth,
		metrics:  m,
		logger:   logger.With().Str("handler", "account").Logger(),
	}
}

type registerRequest struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	ProfilePictureURL string `json:"profilePictureUrl"`
}

// accountPatch carries a partial account update. Nil fields are left
// unchanged; the merge happens here at the boundary and the service always
// receives a complete record.
type accountPatch struct {
	Username              *string `json:"username"`
	Email                 *string `json:"email"`
	Password              *string `json:"password"`
	ProfilePictureURL     *string `json:"profilePictureUrl"`
	EmailVerified         *bool   `json:"emailVerified"`
	PasswordResetRequired *bool   `json:"passwordResetRequired"`
	Locked                *bool   `json:"accountLocked"`
	Banned                *bool   `json:"accountBanned"`
}

func (p *accountPatch) apply(account *domain.Account) {
	if p.Username != nil {
		account.Username = *p.Username
	}
	if p.Email != nil {
		account.Email = *p.Email
	}
	if p.Password != nil {
		account.Secret = *p.Password
	}
	if p.ProfilePictureURL != nil {
		account.ProfilePictureURL = *p.ProfilePictureURL
	}
	if p.EmailVerified != nil {
		account.EmailVerified = *p.EmailVerified
	}
	if p.PasswordResetRequired != nil {
		account.PasswordResetRequired = *p.PasswordResetRequired
	}
	if p.Locked != nil {
		account.Locked = *p.Locked
	}
	if p.Banned != nil {
		account.Banned = *p.Banned
	}
}

// Register creates a new account.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "malformed_body")
		return
	}

	account := domain.NewAccount(req.Username, req.Email, req.Password)
	account.ProfilePictureURL = req.ProfilePictureURL

	created, err := h.accounts.Insert(r.Context(), account)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.AccountCreated()
	}

	respondJSON(w, http.StatusCreated, created)
}

// publicProfile is the unauthenticated view of an account. Email and the
// moderation flags stay private to the account itself (see /auth/user).
type publicProfile struct {
	ID                int64     `json:"id"`
	CreatedAt         time.Time `json:"createdAt"`
	ProfilePictureURL string    `json:"profilePictureUrl"`
	Username          string    `json:"username"`
}

// Get returns the public profile of an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, publicProfile{
		ID:                account.ID,
		CreatedAt:         account.CreatedAt,
		ProfilePictureURL: account.ProfilePictureURL,
		Username:          account.Username,
	})
}

// Update applies a partial patch to the authenticated caller's own account.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	caller, err := h.auth.AuthenticateRequest(r.Context(), r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if caller.ID != id {
		respondError(w, h.logger, service.ErrNotAuthenticated)
		return
	}

	var patch accountPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondBadRequest(w, "malformed_body")
		return
	}

	modified := caller.Clone()
	patch.apply(modified)

	updated, err := h.accounts.Update(r.Context(), modified)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// Delete removes the authenticated caller's own account.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	caller, err := h.auth.AuthenticateRequest(r.Context(), r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if caller.ID != id {
		respondError(w, h.logger, service.ErrNotAuthenticated)
		return
	}

	if err := h.accounts.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// pathID parses the {id} path parameter, responding 400 on garbage.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(w, "invalid_id")
		return 0, false
	}
	return id, true
}
