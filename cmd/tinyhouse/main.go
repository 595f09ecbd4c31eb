package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"tinyhouse/internal/app/commands"
	authapp "tinyhouse/internal/app/handlers/auth"
	bookingapp "tinyhouse/internal/app/handlers/bookings"
	listingapp "tinyhouse/internal/app/handlers/listings"
	usersapp "tinyhouse/internal/app/handlers/users"
	walletapp "tinyhouse/internal/app/handlers/wallet"
	"tinyhouse/internal/app/middleware"
	appoutbox "tinyhouse/internal/app/outbox"
	"tinyhouse/internal/app/queries"
	"tinyhouse/internal/app/services/authz"
	"tinyhouse/internal/app/services/catalog"
	"tinyhouse/internal/app/services/hosting"
	"tinyhouse/internal/app/services/profile"
	"tinyhouse/internal/app/services/reservation"
	"tinyhouse/internal/app/services/session"
	walletsvc "tinyhouse/internal/app/services/wallet"
	domainbooking "tinyhouse/internal/domain/booking"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
	"tinyhouse/internal/infra/broker/amqp"
	"tinyhouse/internal/infra/broker/kafka"
	rediscache "tinyhouse/internal/infra/cache/redis"
	"tinyhouse/internal/infra/config"
	mongostore "tinyhouse/internal/infra/db/mongo"
	"tinyhouse/internal/infra/google"
	ginserver "tinyhouse/internal/infra/http/gin"
	"tinyhouse/internal/infra/obs"
	infraoutbox "tinyhouse/internal/infra/outbox"
	"tinyhouse/internal/infra/security"
	"tinyhouse/internal/infra/storage/memory"
	"tinyhouse/internal/infra/storage/s3"
	"tinyhouse/internal/infra/stripe"
)

const (
	// devSessionSecret signs cookies when SESSION_SECRET is unset in dev.
	devSessionSecret = "tinyhouse-dev-session-secret"

	// memoryOutboxLimit bounds unsent events when nothing relays them.
	memoryOutboxLimit = 1000
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV")).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)
	metrics := obs.NewMetrics()

	app, err := buildApplication(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Observer: metrics}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.Store, "broker", cfg.EventsBroker)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

// eventStore is written by the services and drained by the relay worker.
type eventStore interface {
	appoutbox.Outbox
	infraoutbox.Store
}

type paymentProvider interface {
	reservation.PaymentGateway
	walletsvc.Provider
}

type stores struct {
	users       domainuser.Repository
	listings    domainlistings.Repository
	bookings    domainbooking.Repository
	outbox      eventStore
	idempotency middleware.IdempotencyStore
	ready       func(ctx context.Context) error
}

type application struct {
	handlers ginserver.Handlers
	worker   *infraoutbox.Worker
	ready    func(ctx context.Context) error
	closers  []io.Closer
	shutdown []func(ctx context.Context) error
}

func (a *application) close(logger *slog.Logger) {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, fn := range a.shutdown {
		if err := fn(ctx); err != nil {
			logger.Warn("shutdown failed", "error", err)
		}
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) (*application, error) {
	app := &application{}

	st, err := openStores(ctx, cfg, app, logger)
	if err != nil {
		return nil, err
	}
	app.ready = st.ready

	var geocoder catalog.Geocoder = google.NewGeocoder(cfg.GeocodeKey)
	if cfg.RedisAddr != "" {
		rdb, err := rediscache.Connect(ctx, rediscache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, rdb)
		geocoder = &rediscache.CachingGeocoder{Next: geocoder, KV: rdb, TTL: cfg.GeocodeCacheTTL, Logger: logger}
		st.idempotency = &rediscache.IdempotencyStore{KV: rdb, TTL: cfg.IdempotencyTTL}
		logger.Info("redis cache enabled", "addr", cfg.RedisAddr)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		logger.Warn("SESSION_SECRET not set, using development secret")
		secret = devSessionSecret
	}
	cookies, err := security.NewCookieSigner(security.CookieSignerParams{Secret: secret})
	if err != nil {
		return nil, err
	}

	identity := google.NewOAuthClient(google.OAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleSecret,
		RedirectURL:  cfg.PublicURL + "/login",
	})

	var payments paymentProvider
	if cfg.StripeSecretKey == "" && cfg.Dev() {
		logger.Warn("S_SECRET_KEY not set, payments run against the dev gateway")
		payments = stripe.DevGateway{}
	} else {
		payments = stripe.NewClient(stripe.Config{ClientID: cfg.StripeClientID, SecretKey: cfg.StripeSecretKey})
	}

	var images hosting.ImageStore = s3.NoopUploader{}
	if cfg.S3Endpoint != "" {
		uploader, err := s3.NewClient(s3.Config{
			Endpoint:      cfg.S3Endpoint,
			UseSSL:        cfg.S3UseSSL,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicEndpoint,
		}, logger)
		if err != nil {
			return nil, err
		}
		images = uploader
	}

	encoder := appoutbox.JSONEventEncoder{IDGenerator: uuid.NewString}

	sessions := &session.Service{
		Users:    st.users,
		Identity: identity,
		Tokens:   security.RandomTokenGenerator{},
		Observer: metrics,
		Logger:   logger,
	}
	catalogSvc := &catalog.Service{
		Listings: st.listings,
		Users:    st.users,
		Bookings: st.bookings,
		Geocoder: geocoder,
		Logger:   logger,
	}
	hostingSvc := &hosting.Service{
		Listings:  st.listings,
		Users:     st.users,
		Geocoder:  geocoder,
		Sanitizer: security.NewTextSanitizer(),
		Images:    images,
		Outbox:    st.outbox,
		Encoder:   encoder,
		Logger:    logger,
		NewID:     uuid.NewString,
	}
	reservations := &reservation.Service{
		Listings: st.listings,
		Bookings: st.bookings,
		Users:    st.users,
		Payments: payments,
		Outbox:   st.outbox,
		Encoder:  encoder,
		Observer: metrics,
		Logger:   logger,
		NewID:    uuid.NewString,
	}
	profiles := &profile.Service{Users: st.users, Listings: st.listings, Bookings: st.bookings}
	wallets := &walletsvc.Service{Users: st.users, Provider: payments, Logger: logger}

	commandRegistry := commands.NewRegistry()
	queryRegistry := queries.NewRegistry()
	authapp.Register(commandRegistry, queryRegistry, sessions)
	listingapp.Register(commandRegistry, queryRegistry, catalogSvc, hostingSvc)
	bookingapp.Register(commandRegistry, reservations)
	usersapp.Register(queryRegistry, profiles)
	walletapp.Register(commandRegistry, wallets)

	commandBus := middleware.ChainCommands(
		commandRegistry,
		middleware.Logging(logger),
		middleware.Observe(metrics),
		middleware.RequireViewer(),
		middleware.Idempotency(st.idempotency, middleware.JSONResultCodec{}, nil, logger),
	)
	queryBus := middleware.ChainQueries(
		queryRegistry,
		middleware.QueryLogging(logger),
		middleware.QueryObserve(metrics),
		middleware.QueryRequireViewer(),
	)

	gate := &authz.Gate{Users: st.users, Logger: logger}
	viewer := ginserver.ViewerMiddleware{Resolver: gate, Cookies: cookies, Logger: logger}
	app.handlers = ginserver.Handlers{
		Auth:    ginserver.AuthHandler{Commands: commandBus, Queries: queryBus, Cookies: cookies, Secure: !cfg.Dev(), Logger: logger},
		User:    ginserver.UserHandler{Queries: queryBus, Logger: logger},
		Listing: ginserver.ListingHandler{Commands: commandBus, Queries: queryBus, Logger: logger},
		Booking: ginserver.BookingHandler{Commands: commandBus, Logger: logger},
		Wallet:  ginserver.WalletHandler{Commands: commandBus, Logger: logger},
		Viewer:  viewer.Handle,
		Metrics: metrics.Handler(),
	}

	producer, err := openProducer(cfg, app)
	if err != nil {
		return nil, err
	}
	if producer != nil {
		app.worker = &infraoutbox.Worker{
			Store:       st.outbox,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Source:      "tinyhouse",
			ID:          uuid.NewString(),
			Backoff:     cfg.RetryBackoff,
			Observer:    metrics,
			Logger:      logger,
		}
	} else {
		logger.Info("events broker disabled, outbox records stay in the store", "store", cfg.Store)
	}
	return app, nil
}

func openStores(ctx context.Context, cfg config.Config, app *application, logger *slog.Logger) (*stores, error) {
	if cfg.Store == config.StoreMongo {
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		app.shutdown = append(app.shutdown, client.Close)
		if err := client.EnsureIndexes(ctx, cfg.IdempotencyTTL); err != nil {
			return nil, err
		}
		logger.Info("mongo store connected", "database", cfg.MongoDB)
		return &stores{
			users:       mongostore.NewUserRepository(client.DB),
			listings:    mongostore.NewListingRepository(client.DB),
			bookings:    mongostore.NewBookingRepository(client.DB),
			outbox:      mongostore.NewOutboxStore(client.DB),
			idempotency: mongostore.NewIdempotencyStore(client.DB),
			ready:       client.Ping,
		}, nil
	}
	logger.Warn("using in-memory store, data is lost on restart")
	return &stores{
		users:       memory.NewUserRepository(),
		listings:    memory.NewListingRepository(),
		bookings:    memory.NewBookingRepository(),
		outbox:      memory.NewBoundedOutbox(memoryOutboxLimit),
		idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		ready:       func(context.Context) error { return nil },
	}, nil
}

func openProducer(cfg config.Config, app *application) (infraoutbox.Producer, error) {
	switch cfg.EventsBroker {
	case config.BrokerKafka:
		p, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, p)
		return p, nil
	case config.BrokerAMQP:
		p, err := amqp.Dial(cfg.AMQPURL, amqp.DefaultExchange)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, p)
		return p, nil
	default:
		return nil, nil
	}
}
