package auth

import (
	"context"
	"errors"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/queries"
	"tinyhouse/internal/app/services/session"
	domainuser "tinyhouse/internal/domain/user"
)

const (
	authURLKey = "auth.url"
	loginKey   = "auth.login"
	logoutKey  = "auth.logout"
)

var ErrSessionsRequired = errors.New("auth: session service required")

type AuthURLQuery struct{}

func (AuthURLQuery) Key() string { return authURLKey }

type AuthURLHandler struct {
	Sessions *session.Service
}

func (h *AuthURLHandler) Handle(ctx context.Context, _ AuthURLQuery) (string, error) {
	if h.Sessions == nil {
		return "", ErrSessionsRequired
	}
	return h.Sessions.AuthURL(), nil
}

// LoginCommand logs in with an OAuth code or resumes from the cookie subject
// when Code is empty.
type LoginCommand struct {
	Code          string
	CookieSubject domainuser.ID
}

func (LoginCommand) Key() string { return loginKey }

type LoginHandler struct {
	Sessions *session.Service
}

func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*session.Result, error) {
	if h.Sessions == nil {
		return nil, ErrSessionsRequired
	}
	return h.Sessions.Login(ctx, session.LoginParams{Code: cmd.Code, CookieSubject: cmd.CookieSubject})
}

type LogoutCommand struct{}

func (LogoutCommand) Key() string { return logoutKey }

type LogoutHandler struct {
	Sessions *session.Service
}

func (h *LogoutHandler) Handle(ctx context.Context, _ LogoutCommand) (*session.Result, error) {
	if h.Sessions == nil {
		return nil, ErrSessionsRequired
	}
	return h.Sessions.Logout(ctx), nil
}

// Register binds the session handlers.
func Register(cmds *commands.Registry, qs *queries.Registry, sessions *session.Service) {
	queries.Register[AuthURLQuery, string](qs, authURLKey, &AuthURLHandler{Sessions: sessions})
	commands.Register[LoginCommand, *session.Result](cmds, loginKey, &LoginHandler{Sessions: sessions})
	commands.Register[LogoutCommand, *session.Result](cmds, logoutKey, &LogoutHandler{Sessions: sessions})
}

var (
	_ queries.Handler[AuthURLQuery, string]            = (*AuthURLHandler)(nil)
	_ commands.Handler[LoginCommand, *session.Result]  = (*LoginHandler)(nil)
	_ commands.Handler[LogoutCommand, *session.Result] = (*LogoutHandler)(nil)
)
