package ginserver

import (
	"context"
	"log/slog"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	domainuser "tinyhouse/internal/domain/user"
)

const (
	ViewerCookie = "viewer"
	CSRFHeader   = "X-CSRF-TOKEN"

	viewerKey        = "tinyhouse.viewer"
	cookieSubjectKey = "tinyhouse.cookie_subject"
)

type ViewerResolver interface {
	Viewer(ctx context.Context, cookieSubject domainuser.ID, headerToken string) (domainuser.Viewer, error)
}

// CookieCodec signs and verifies the session cookie value.
type CookieCodec interface {
	Sign(subject string) (string, error)
	Verify(value string) (string, error)
	TTL() time.Duration
}

// ViewerMiddleware resolves the viewer from the signed cookie and the CSRF
// header on every request. Bad or missing credentials leave the request
// anonymous; store failures abort it.
type ViewerMiddleware struct {
	Resolver ViewerResolver
	Cookies  CookieCodec
	Logger   *slog.Logger
}

func (m ViewerMiddleware) Handle(c *gin.Context) {
	subject := m.cookieSubject(c)
	if subject != "" {
		c.Set(cookieSubjectKey, subject)
	}
	viewer := domainuser.Anonymous()
	token := strings.TrimSpace(c.GetHeader(CSRFHeader))
	if m.Resolver != nil && subject != "" && token != "" {
		v, err := m.Resolver.Viewer(c.Request.Context(), subject, token)
		if err != nil {
			respondError(c, m.Logger, err)
			return
		}
		viewer = v
	}
	c.Set(viewerKey, viewer)
	c.Next()
}

func (m ViewerMiddleware) cookieSubject(c *gin.Context) domainuser.ID {
	if m.Cookies == nil {
		return ""
	}
	raw, err := c.Cookie(ViewerCookie)
	if err != nil || raw == "" {
		return ""
	}
	subject, err := m.Cookies.Verify(raw)
	if err != nil {
		if m.Logger != nil {
			m.Logger.DebugContext(c.Request.Context(), "session cookie rejected", "error", err)
		}
		return ""
	}
	return domainuser.ID(subject)
}

func currentViewer(c *gin.Context) domainuser.Viewer {
	if v, ok := c.Get(viewerKey); ok {
		if viewer, ok := v.(domainuser.Viewer); ok {
			return viewer
		}
	}
	return domainuser.Anonymous()
}

func cookieSubject(c *gin.Context) domainuser.ID {
	if v, ok := c.Get(cookieSubjectKey); ok {
		if s, ok := v.(domainuser.ID); ok {
			return s
		}
	}
	return ""
}
