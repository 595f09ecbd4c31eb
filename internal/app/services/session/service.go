// Package session turns an OAuth code or a resumed session cookie into a
// viewer with a freshly rotated token.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tinyhouse/internal/app/apperr"
	domainuser "tinyhouse/internal/domain/user"
)

var ErrProviderProfile = errors.New("session: identity provider returned no usable profile")

// IdentityProvider is the OAuth collaborator.
type IdentityProvider interface {
	AuthURL() string
	Exchange(ctx context.Context, code string) (domainuser.Profile, error)
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// LoginObserver receives one call per login attempt.
type LoginObserver interface {
	ObserveLogin(mode, outcome string)
}

// CookieAction tells the transport what to do with the session cookie.
type CookieAction int

const (
	CookieKeep CookieAction = iota
	CookieIssue
	CookieClear
)

const (
	modeOAuth  = "oauth"
	modeCookie = "cookie"
	modeNone   = "none"
)

type Service struct {
	Users    domainuser.Repository
	Identity IdentityProvider
	Tokens   TokenGenerator
	Observer LoginObserver
	Logger   *slog.Logger
	Now      func() time.Time
}

type LoginParams struct {
	Code          string
	CookieSubject domainuser.ID
}

type Result struct {
	Viewer  domainuser.Viewer
	User    *domainuser.User
	Cookie  CookieAction
	Created bool
}

func (s *Service) AuthURL() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.AuthURL()
}

// Login authenticates with the OAuth code when present and otherwise tries to
// resume the cookie session. A cookie whose subject has no user is cleared and
// yields an anonymous viewer without error.
func (s *Service) Login(ctx context.Context, params LoginParams) (*Result, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(params.Code)
	if code != "" {
		return s.loginWithCode(ctx, code)
	}
	subject := domainuser.ID(strings.TrimSpace(string(params.CookieSubject)))
	if subject != "" {
		return s.resume(ctx, subject)
	}
	s.observe(modeNone, "anonymous")
	return &Result{Viewer: domainuser.Anonymous(), Cookie: CookieKeep}, nil
}

// Logout always clears the cookie.
func (s *Service) Logout(ctx context.Context) *Result {
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "viewer logged out")
	}
	return &Result{Viewer: domainuser.Anonymous(), Cookie: CookieClear}
}

func (s *Service) loginWithCode(ctx context.Context, code string) (*Result, error) {
	profile, err := s.Identity.Exchange(ctx, code)
	if err != nil {
		s.observe(modeOAuth, "provider_error")
		return nil, apperr.Provider("session.Login", err)
	}
	if err := profile.Validate(); err != nil {
		s.observe(modeOAuth, "provider_error")
		return nil, apperr.Provider("session.Login", errors.Join(ErrProviderProfile, err))
	}
	token, err := s.Tokens.NewToken()
	if err != nil {
		return nil, apperr.Store("session.Login", err)
	}
	u, created, err := s.Users.UpsertLogin(ctx, profile, token, s.now())
	if err != nil {
		s.observe(modeOAuth, "store_error")
		return nil, apperr.Store("session.Login", err)
	}
	s.observe(modeOAuth, "ok")
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "viewer logged in", "user_id", u.ID, "created", created)
	}
	return &Result{Viewer: domainuser.ViewerOf(u), User: u, Cookie: CookieIssue, Created: created}, nil
}

func (s *Service) resume(ctx context.Context, subject domainuser.ID) (*Result, error) {
	token, err := s.Tokens.NewToken()
	if err != nil {
		return nil, apperr.Store("session.Login", err)
	}
	u, err := s.Users.RotateToken(ctx, subject, token, s.now())
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			s.observe(modeCookie, "unknown_subject")
			if s.Logger != nil {
				s.Logger.InfoContext(ctx, "session cookie subject unknown", "user_id", subject)
			}
			return &Result{Viewer: domainuser.Anonymous(), Cookie: CookieClear}, nil
		}
		s.observe(modeCookie, "store_error")
		return nil, apperr.Store("session.Login", err)
	}
	s.observe(modeCookie, "ok")
	return &Result{Viewer: domainuser.ViewerOf(u), User: u, Cookie: CookieKeep}, nil
}

func (s *Service) observe(mode, outcome string) {
	if s.Observer != nil {
		s.Observer.ObserveLogin(mode, outcome)
	}
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
		return errors.New("session: user repository required")
	case s.Identity == nil:
		return errors.New("session: identity provider required")
	case s.Tokens == nil:
		return errors.New("session: token generator required")
	default:
		return nil
	}
}
