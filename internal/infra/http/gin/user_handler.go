package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"tinyhouse/internal/app/dto"
	usersapp "tinyhouse/internal/app/handlers/users"
	"tinyhouse/internal/app/queries"
	domainuser "tinyhouse/internal/domain/user"
)

type UserHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h UserHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "user handler")
		return
	}
	query := usersapp.GetUserQuery{
		Viewer:       currentViewer(c),
		ID:           domainuser.ID(c.Param("id")),
		BookingsPage: parseIntWithDefault(c.Query("bookingsPage"), 1),
		ListingsPage: parseIntWithDefault(c.Query("listingsPage"), 1),
		Limit:        parseInt(c.Query("limit")),
	}
	detail, err := queries.Ask[usersapp.GetUserQuery, dto.UserDetail](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

var _ UserHTTP = UserHandler{}
