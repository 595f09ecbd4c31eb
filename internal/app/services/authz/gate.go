// Package authz resolves the acting viewer from the request credential pair
// and decides field-level visibility.
package authz

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"tinyhouse/internal/app/apperr"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
)

type Gate struct {
	Users  domainuser.Repository
	Logger *slog.Logger
}

// ResolveViewer returns the user whose id is cookieSubject and whose current
// token is headerToken, using a single lookup. A missing credential or a
// mismatch yields nil without error.
func (g *Gate) ResolveViewer(ctx context.Context, cookieSubject domainuser.ID, headerToken string) (*domainuser.User, error) {
	if g.Users == nil {
		return nil, errors.New("authz: user repository required")
	}
	subject := domainuser.ID(strings.TrimSpace(string(cookieSubject)))
	token := strings.TrimSpace(headerToken)
	if subject == "" || token == "" {
		return nil, nil
	}
	u, err := g.Users.ByIDAndToken(ctx, subject, token)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			if g.Logger != nil {
				g.Logger.DebugContext(ctx, "credential pair did not match", "user_id", subject)
			}
			return nil, nil
		}
		return nil, apperr.Store("authz.ResolveViewer", err)
	}
	return u, nil
}

// Viewer is ResolveViewer projected to a Viewer.
func (g *Gate) Viewer(ctx context.Context, cookieSubject domainuser.ID, headerToken string) (domainuser.Viewer, error) {
	u, err := g.ResolveViewer(ctx, cookieSubject, headerToken)
	if err != nil {
		return domainuser.Viewer{}, err
	}
	return domainuser.ViewerOf(u), nil
}

// OwnsUser reports whether v may see the private fields of the user id.
func OwnsUser(v domainuser.Viewer, id domainuser.ID) bool {
	return v.Is(id)
}

// HostsListing reports whether v may see the bookings of l.
func HostsListing(v domainuser.Viewer, l *domainlistings.Listing) bool {
	return l != nil && v.Is(l.Host)
}

// Require fails with NotAuthenticated for an anonymous viewer.
func Require(v domainuser.Viewer, op string) error {
	if !v.Authenticated() {
		return apperr.NotAuthenticated(op, "viewer cannot be found")
	}
	return nil
}
