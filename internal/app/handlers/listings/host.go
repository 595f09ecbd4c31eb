package listings

import (
	"context"
	"errors"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/dto"
	"tinyhouse/internal/app/queries"
	"tinyhouse/internal/app/services/catalog"
	"tinyhouse/internal/app/services/hosting"
	"tinyhouse/internal/domain/shared/paging"
	domainuser "tinyhouse/internal/domain/user"
)

const hostListingKey = "listings.host"

var ErrHostingRequired = errors.New("listings: hosting service required")

type HostListingCommand struct {
	Viewer      domainuser.Viewer
	Title       string
	Description string
	Image       string
	Type        string
	Address     string
	Price       int64
	NumOfGuests int
}

func (HostListingCommand) Key() string { return hostListingKey }

func (c HostListingCommand) RequiredViewer() domainuser.Viewer { return c.Viewer }

type HostListingHandler struct {
	Hosting *hosting.Service
}

func (h *HostListingHandler) Handle(ctx context.Context, cmd HostListingCommand) (*dto.ListingDetail, error) {
	if h.Hosting == nil {
		return nil, ErrHostingRequired
	}
	l, err := h.Hosting.Create(ctx, hosting.CreateParams{
		Viewer:      cmd.Viewer,
		Title:       cmd.Title,
		Description: cmd.Description,
		Image:       cmd.Image,
		Type:        cmd.Type,
		Address:     cmd.Address,
		Price:       cmd.Price,
		NumOfGuests: cmd.NumOfGuests,
	})
	if err != nil {
		return nil, err
	}
	empty := paging.Page[dto.BookingView]{Result: []dto.BookingView{}}
	detail := dto.MapListingDetail(l, nil, true, &empty)
	return &detail, nil
}

// Register binds the listing handlers.
func Register(cmds *commands.Registry, qs *queries.Registry, cat *catalog.Service, host *hosting.Service) {
	queries.Register[SearchListingsQuery, dto.ListingsPage](qs, searchListingsKey, &SearchListingsHandler{Catalog: cat})
	queries.Register[GetListingQuery, dto.ListingDetail](qs, getListingKey, &GetListingHandler{Catalog: cat})
	commands.Register[HostListingCommand, *dto.ListingDetail](cmds, hostListingKey, &HostListingHandler{Hosting: host})
}

var _ commands.Handler[HostListingCommand, *dto.ListingDetail] = (*HostListingHandler)(nil)
