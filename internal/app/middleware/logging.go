package middleware

import (
	"context"
	"log/slog"
	"time"

	"tinyhouse/internal/app/apperr"
	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/queries"
)

// DispatchObserver records how long each message took and how it ended.
type DispatchObserver interface {
	ObserveDispatch(key, outcome string, elapsed time.Duration)
}

// Logging logs failed commands. Store failures are errors; everything else
// is an expected outcome logged at info.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		return nil
	}
	return func(next commands.Bus) commands.Bus {
		return commands.BusFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			logOutcome(ctx, logger, "command", cmd.Key(), start, err)
			return res, err
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		return nil
	}
	return func(next queries.Bus) queries.Bus {
		return queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			logOutcome(ctx, logger, "query", q.Key(), start, err)
			return res, err
		})
	}
}

func Observe(o DispatchObserver) CommandMiddleware {
	if o == nil {
		return nil
	}
	return func(next commands.Bus) commands.Bus {
		return commands.BusFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			o.ObserveDispatch(cmd.Key(), outcome(err), time.Since(start))
			return res, err
		})
	}
}

func QueryObserve(o DispatchObserver) QueryMiddleware {
	if o == nil {
		return nil
	}
	return func(next queries.Bus) queries.Bus {
		return queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			o.ObserveDispatch(q.Key(), outcome(err), time.Since(start))
			return res, err
		})
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.KindOf(err))
}

func logOutcome(ctx context.Context, logger *slog.Logger, kind, key string, start time.Time, err error) {
	if err == nil {
		logger.DebugContext(ctx, kind+" handled", "key", key, "duration", time.Since(start))
		return
	}
	level := slog.LevelInfo
	if apperr.KindOf(err) == apperr.KindStore {
		level = slog.LevelError
	}
	logger.Log(ctx, level, kind+" failed", "key", key, "kind", apperr.KindOf(err), "duration", time.Since(start), "error", err)
}
