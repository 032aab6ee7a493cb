// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/vehicles/internal/platform/apperr"
	"github.com/taibuivan/vehicles/internal/platform/constants"
	"github.com/taibuivan/vehicles/internal/platform/ctxutil"
	"github.com/taibuivan/vehicles/internal/platform/sec"
	"github.com/taibuivan/vehicles/pkg/pointer"
)

// # Contracts & Types

// PublicKeyProvider exposes the PEM public key clients encrypt with.
type PublicKeyProvider interface {
	PublicKeyPEM() string
}

// Client-facing errors.
var (
	ErrIllegalAccess  = apperr.NotFound("Illegal access")
	ErrLoginTimedOut  = apperr.NotFound("Login timed out")
	ErrUserNotFound   = apperr.NotFound("No matching user")
	ErrAccountClaimed = apperr.Conflict("Account is already registered with another password", nil)
)

// Service implements the identity use cases.
type Service struct {
	repository UserRepository
	keys       PublicKeyProvider
	pepper     string
	now        func() time.Time
}

// NewService constructs a new [Service].
//
// # Parameters
//   - repository: Storage for user documents.
//   - keys: Source of the public key returned in every [Grant].
//   - pepper: Server secret mixed into password digests.
func NewService(repository UserRepository, keys PublicKeyProvider, pepper string) *Service {
	return &Service{
		repository: repository,
		keys:       keys,
		pepper:     pepper,
		now:        time.Now,
	}
}

// # Authentication Flow

/*
Login issues a fresh session to an existing user.

Description: Stamps a new token and login time onto the user matching the
account and password. The previous token stops working immediately.

Returns:
  - *Grant: Token, public key and server time
  - err: ErrIllegalAccess when no user matched
*/
func (service *Service) Login(ctx context.Context, account, password string) (*Grant, error) {
	result, grant, err := service.stamp(ctx, account, password, false)
	if err != nil {
		return nil, err
	}

	// A matched-but-unmodified document is treated like no match.
	if result.User == nil || !result.UpdatedExisting {
		ctxutil.GetLogger(ctx).InfoContext(ctx, "identity_login_rejected")
		return nil, ErrIllegalAccess
	}

	return grant, nil
}

/*
Register issues a session, creating the user when the account is new.

Description: Repeating a registration with the same password behaves like a
login. Reusing an account with a different password collides with the
unique account index.

Returns:
  - *Grant: Token, public key and server time
  - err: ErrAccountClaimed or storage errors
*/
func (service *Service) Register(ctx context.Context, account, password string) (*Grant, error) {
	result, grant, err := service.stamp(ctx, account, password, true)
	if err != nil {
		if appError := apperr.As(err); appError != nil && appError.HTTPStatus == http.StatusConflict {
			return nil, ErrAccountClaimed
		}
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "identity_registered",
		slog.Bool("existing", result.UpdatedExisting),
	)
	return grant, nil
}

func (service *Service) stamp(ctx context.Context, account, password string, create bool) (StampResult, *Grant, error) {
	token, err := sec.GenerateSessionToken(constants.SessionTokenLength)
	if err != nil {
		return StampResult{}, nil, apperr.Internal(fmt.Errorf("identity: session token: %w", err))
	}

	now := service.now()
	account = NormalizeAccount(account)

	result, err := service.repository.Stamp(ctx,
		Credentials{Account: account, Digest: sec.PasswordDigest(service.pepper, account, password)},
		SessionStamp{Session: token, LastLogin: now.Format(constants.TimestampLayout)},
		create,
	)
	if err != nil {
		return StampResult{}, nil, err
	}

	return result, &Grant{
		Session:    token,
		PublicKey:  service.keys.PublicKeyPEM(),
		ServerTime: now.UnixMilli(),
	}, nil
}

// # Session Lookup

// FindBySession returns the user holding token.
func (service *Service) FindBySession(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}

	user, err := service.repository.FindBySession(ctx, token)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// CheckIdentity succeeds when exactly one user holds token.
func (service *Service) CheckIdentity(ctx context.Context, token string) error {
	if token == "" {
		return ErrLoginTimedOut
	}

	count, err := service.repository.CountBySession(ctx, token)
	if err != nil {
		return err
	}
	if count != 1 {
		return ErrLoginTimedOut
	}
	return nil
}

// # Vehicle State

// UpdateVehicleStatus overwrites the current vehicle state of the user
// holding token. A blank remark keeps the stored remark.
func (service *Service) UpdateVehicleStatus(ctx context.Context, token string, action int, remark string) error {
	var remarkField *string
	if strings.TrimSpace(remark) != "" {
		remarkField = pointer.To(remark)
	}

	updated, err := service.repository.SetVehicle(ctx, token, action, remarkField)
	if err != nil {
		return err
	}
	if !updated {
		return ErrUserNotFound
	}
	return nil
}

// # Helpers

// NormalizeAccount trims and NFKC-normalizes an account name so visually
// identical inputs select the same user.
func NormalizeAccount(account string) string {
	return norm.NFKC.String(strings.TrimSpace(account))
}
