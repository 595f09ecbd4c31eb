package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/dto"
	authapp "tinyhouse/internal/app/handlers/auth"
	"tinyhouse/internal/app/queries"
	"tinyhouse/internal/app/services/session"
)

type AuthHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Cookies  CookieCodec
	// Secure marks the session cookie as HTTPS only.
	Secure bool
	Logger *slog.Logger
}

type loginRequest struct {
	Code string `json:"code"`
}

// URL returns the OAuth consent page address.
func (h AuthHandler) URL(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "auth handler")
		return
	}
	url, err := queries.Ask[authapp.AuthURLQuery, string](c.Request.Context(), h.Queries, authapp.AuthURLQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Login accepts an OAuth code, or an empty body to resume the cookie session.
func (h AuthHandler) Login(c *gin.Context) {
	if h.Commands == nil || h.Cookies == nil {
		unavailable(c, "auth handler")
		return
	}
	var req loginRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid login payload")
			return
		}
	}
	cmd := authapp.LoginCommand{Code: req.Code, CookieSubject: cookieSubject(c)}
	res, err := commands.Dispatch[authapp.LoginCommand, *session.Result](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.respond(c, res)
}

func (h AuthHandler) Logout(c *gin.Context) {
	if h.Commands == nil || h.Cookies == nil {
		unavailable(c, "auth handler")
		return
	}
	res, err := commands.Dispatch[authapp.LogoutCommand, *session.Result](c.Request.Context(), h.Commands, authapp.LogoutCommand{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.respond(c, res)
}

func (h AuthHandler) respond(c *gin.Context, res *session.Result) {
	if res == nil {
		respondError(c, h.Logger, commands.ErrResultType)
		return
	}
	switch res.Cookie {
	case session.CookieIssue:
		value, err := h.Cookies.Sign(string(res.Viewer.ID))
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		h.setCookie(c, value, int(h.Cookies.TTL().Seconds()))
	case session.CookieClear:
		h.setCookie(c, "", -1)
	}
	c.JSON(http.StatusOK, dto.MapViewer(res.Viewer))
}

func (h AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(ViewerCookie, value, maxAge, "/", "", h.Secure, true)
}

var _ AuthHTTP = AuthHandler{}
