package middleware

import (
	"context"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/queries"
	"tinyhouse/internal/app/services/authz"
	domainuser "tinyhouse/internal/domain/user"
)

// ViewerRequired is implemented by messages that only a resolved viewer may
// send.
type ViewerRequired interface {
	RequiredViewer() domainuser.Viewer
}

// RequireViewer rejects ViewerRequired commands from anonymous viewers before
// their handler runs.
func RequireViewer() CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		return commands.BusFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if scoped, ok := cmd.(ViewerRequired); ok {
				if err := authz.Require(scoped.RequiredViewer(), cmd.Key()); err != nil {
					return nil, err
				}
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryRequireViewer() QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		return queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if scoped, ok := q.(ViewerRequired); ok {
				if err := authz.Require(scoped.RequiredViewer(), q.Key()); err != nil {
					return nil, err
				}
			}
			return next.Ask(ctx, q)
		})
	}
}
