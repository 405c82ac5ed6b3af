package handler

import (
	"context"
	"net/http"

	"github.com/prn-tf/meridian-accounts/internal/domain"
	"github.com/prn-tf/meridian-accounts/internal/service"
)

// The handlers depend on these narrow views of the service layer rather
// than the concrete services, so tests can substitute fakes.

// AccountService is the account surface the HTTP layer needs.
type AccountService interface {
	Insert(ctx context.Context, account *domain.Account) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) (*domain.Account, error)
	Delete(ctx context.Context, id int64) error
}

// FileService is the file surface the HTTP layer needs.
type FileService interface {
	Insert(ctx context.Context, file *domain.File) (*domain.File, error)
	Get(ctx context.Context, id int64) (*domain.File, error)
	Update(ctx context.Context, file *domain.File) (*domain.File, error)
	Delete(ctx context.Context, id int64) error
}

// Authenticator resolves a request or a credential pair to an account.
type Authenticator interface {
	Login(ctx context.Context, username, secret string) (*domain.Account, string, error)
	AuthenticateRequest(ctx context.Context, r *http.Request) (*domain.Account, error)
}

// Interface compliance checks
var (
	_ AccountService = (*service.AccountService)(nil)
	_ FileService    = (*service.FileService)(nil)
	_ Authenticator  = (*service.AuthService)(nil)
)
