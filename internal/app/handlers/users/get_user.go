package users

import (
	"context"
	"errors"

	"tinyhouse/internal/app/dto"
	"tinyhouse/internal/app/queries"
	"tinyhouse/internal/app/services/profile"
	domainuser "tinyhouse/internal/domain/user"
)

const getUserKey = "users.get"

var ErrProfileRequired = errors.New("users: profile service required")

type GetUserQuery struct {
	Viewer       domainuser.Viewer
	ID           domainuser.ID
	BookingsPage int
	ListingsPage int
	Limit        int
}

func (GetUserQuery) Key() string { return getUserKey }

type GetUserHandler struct {
	Profiles *profile.Service
}

func (h *GetUserHandler) Handle(ctx context.Context, q GetUserQuery) (dto.UserDetail, error) {
	if h.Profiles == nil {
		return dto.UserDetail{}, ErrProfileRequired
	}
	return h.Profiles.Get(ctx, profile.GetParams{
		Viewer:       q.Viewer,
		ID:           q.ID,
		BookingsPage: q.BookingsPage,
		ListingsPage: q.ListingsPage,
		Limit:        q.Limit,
	})
}

func Register(qs *queries.Registry, profiles *profile.Service) {
	queries.Register[GetUserQuery, dto.UserDetail](qs, getUserKey, &GetUserHandler{Profiles: profiles})
}

var _ queries.Handler[GetUserQuery, dto.UserDetail] = (*GetUserHandler)(nil)
