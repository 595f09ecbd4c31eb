// Package wallet links and unlinks a user's payout account.
package wallet

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tinyhouse/internal/app/apperr"
	"tinyhouse/internal/app/services/authz"
	domainuser "tinyhouse/internal/domain/user"
)

var ErrCodeRequired = errors.New("wallet: authorization code is required")

// Provider is the payout account provider (Stripe Connect).
type Provider interface {
	Connect(ctx context.Context, code string) (walletID string, err error)
	Disconnect(ctx context.Context, walletID string) error
}

type Service struct {
	Users    domainuser.Repository
	Provider Provider
	Logger   *slog.Logger
	Now      func() time.Time
}

// Connect exchanges code for an account id and stores it on the viewer.
func (s *Service) Connect(ctx context.Context, viewer domainuser.Viewer, code string) (domainuser.Viewer, error) {
	const op = "wallet.Connect"
	if err := s.ensureDependencies(); err != nil {
		return domainuser.Viewer{}, err
	}
	if err := authz.Require(viewer, op); err != nil {
		return domainuser.Viewer{}, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return domainuser.Viewer{}, apperr.Validation(op, ErrCodeRequired)
	}
	walletID, err := s.Provider.Connect(ctx, code)
	if err != nil {
		return domainuser.Viewer{}, apperr.Provider(op, err)
	}
	u, err := s.Users.SetWallet(ctx, viewer.ID, walletID, s.now())
	if err != nil {
		return domainuser.Viewer{}, storeErr(op, err)
	}
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "wallet connected", "user_id", u.ID)
	}
	return domainuser.ViewerOf(u), nil
}

// Disconnect deauthorizes the stored account and clears it.
func (s *Service) Disconnect(ctx context.Context, viewer domainuser.Viewer) (domainuser.Viewer, error) {
	const op = "wallet.Disconnect"
	if err := s.ensureDependencies(); err != nil {
		return domainuser.Viewer{}, err
	}
	if err := authz.Require(viewer, op); err != nil {
		return domainuser.Viewer{}, err
	}
	current, err := s.Users.ByID(ctx, viewer.ID)
	if err != nil {
		return domainuser.Viewer{}, storeErr(op, err)
	}
	if current.HasWallet() {
		if err := s.Provider.Disconnect(ctx, current.WalletID); err != nil {
			return domainuser.Viewer{}, apperr.Provider(op, err)
		}
	}
	u, err := s.Users.SetWallet(ctx, viewer.ID, "", s.now())
	if err != nil {
		return domainuser.Viewer{}, storeErr(op, err)
	}
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "wallet disconnected", "user_id", u.ID)
	}
	return domainuser.ViewerOf(u), nil
}

func storeErr(op string, err error) error {
	if errors.Is(err, domainuser.ErrNotFound) {
		return apperr.NotAuthenticated(op, "viewer cannot be found")
	}
	return apperr.Store(op, err)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Users == nil:
		return errors.New("wallet: user repository required")
	case s.Provider == nil:
		return errors.New("wallet: provider required")
	default:
		return nil
	}
}
