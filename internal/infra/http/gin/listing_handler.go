package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/dto"
	listingapp "tinyhouse/internal/app/handlers/listings"
	"tinyhouse/internal/app/queries"
	domainlistings "tinyhouse/internal/domain/listings"
)

// ListingHandler wires the catalog queries and the hosting command to HTTP.
type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type hostListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Type        string `json:"type"`
	Address     string `json:"address"`
	Price       int64  `json:"price"`
	NumOfGuests int    `json:"numOfGuests"`
}

// Search responds with one page of listings, optionally filtered by location.
func (h ListingHandler) Search(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "listing handler")
		return
	}
	query := listingapp.SearchListingsQuery{
		Location: c.Query("location"),
		Sort:     domainlistings.ParseSort(c.Query("sort")),
		Page:     parseIntWithDefault(c.Query("page"), 1),
		Limit:    parseInt(c.Query("limit")),
	}
	page, err := queries.Ask[listingapp.SearchListingsQuery, dto.ListingsPage](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h ListingHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "listing handler")
		return
	}
	query := listingapp.GetListingQuery{
		Viewer:       currentViewer(c),
		ID:           domainlistings.ID(c.Param("id")),
		BookingsPage: parseIntWithDefault(c.Query("bookingsPage"), 1),
		Limit:        parseInt(c.Query("limit")),
	}
	detail, err := queries.Ask[listingapp.GetListingQuery, dto.ListingDetail](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Host creates a listing owned by the viewer.
func (h ListingHandler) Host(c *gin.Context) {
	if h.Commands == nil {
		unavailable(c, "listing handler")
		return
	}
	var req hostListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid listing payload")
		return
	}
	cmd := listingapp.HostListingCommand{
		Viewer:      currentViewer(c),
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Type:        req.Type,
		Address:     req.Address,
		Price:       req.Price,
		NumOfGuests: req.NumOfGuests,
	}
	detail, err := commands.Dispatch[listingapp.HostListingCommand, *dto.ListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

var _ ListingHTTP = ListingHandler{}
