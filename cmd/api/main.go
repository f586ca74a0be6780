package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/kopikita/backend-kopi/internal/auth"
	"github.com/kopikita/backend-kopi/internal/cart"
	"github.com/kopikita/backend-kopi/internal/catalog"
	"github.com/kopikita/backend-kopi/internal/checkout"
	"github.com/kopikita/backend-kopi/internal/common"
	"github.com/kopikita/backend-kopi/internal/config"
	"github.com/kopikita/backend-kopi/internal/events"
	"github.com/kopikita/backend-kopi/internal/favorites"
	"github.com/kopikita/backend-kopi/internal/health"
	"github.com/kopikita/backend-kopi/internal/kv"
	"github.com/kopikita/backend-kopi/internal/lock"
	"github.com/kopikita/backend-kopi/internal/notify"
	"github.com/kopikita/backend-kopi/internal/obs"
	"github.com/kopikita/backend-kopi/internal/order"
	"github.com/kopikita/backend-kopi/internal/pricing"
	"github.com/kopikita/backend-kopi/internal/ratelimit"
	"github.com/kopikita/backend-kopi/internal/ratings"
	"github.com/kopikita/backend-kopi/internal/rewards"
	"github.com/kopikita/backend-kopi/internal/security"
	"github.com/kopikita/backend-kopi/internal/seed"
	"github.com/kopikita/backend-kopi/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "kopi-api",
			Endpoint:      cfg.TracingEndpoint,
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient = redis.NewClient(redisOpts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("ping redis")
		}
	}

	var store kv.Store
	if redisClient != nil {
		store = kv.NewRedis(redisClient, "kopikita")
	} else {
		logger.Info().Msg("REDIS_URL not set, using in-memory storage")
		store = kv.NewMemory()
	}

	seedData, err := seed.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load seed data")
	}

	catalogService, err := catalog.NewService(catalog.Config{
		Menu:           seedData.Menu,
		Stores:         seedData.Stores,
		Promos:         seedData.Promos,
		PaymentMethods: seedData.PaymentMethods,
		Options:        seedData.Options,
		Users:          seedData.Users,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := &catalog.Handler{Service: catalogService, DefaultLimit: 20, MaxLimit: 100}

	demoCode := cfg.OTPDemoCode
	if demoCode == "" && cfg.AppEnv != "production" {
		demoCode = "123456"
	}
	authService, err := auth.NewService(auth.Config{
		Catalog:        catalogService,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		OTPTTL:         cfg.OTPTTL,
		DemoCode:       demoCode,
		Issuer:         cfg.JWTIssuer,
		Audience:       cfg.JWTAudience,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{Service: authService}
	authMiddleware := auth.Middleware{Service: authService}

	rewardsPolicy := rewards.Policy{
		PointValue:        cfg.PointValue,
		RedeemStep:        cfg.RedeemStep,
		MaxRedeemFraction: cfg.MaxRedeemFraction,
	}
	rewardsService := &rewards.Service{
		Store:  store,
		Rules:  seedData.RewardRules,
		Policy: rewardsPolicy,
		SeedPoints: func(userID string) int {
			u, err := catalogService.User(userID)
			if err != nil {
				return 0
			}
			return u.Points
		},
	}
	rewardsHandler := &rewards.Handler{Service: rewardsService}

	feeSchedule := pricing.Schedule{
		TaxRate:       cfg.TaxRate,
		DeliveryFee:   cfg.DeliveryFee,
		SmallOrderMin: cfg.SmallOrderMin,
		SmallOrderFee: cfg.SmallOrderFee,
	}
	carts := cart.NewStore(feeSchedule, rewardsPolicy, cfg.CartIdleTTL)
	cartHandler := &cart.Handler{Carts: carts, Catalog: catalogService, Rewards: rewardsService}

	orders := order.NewStore()
	for _, o := range seedData.Orders {
		orders.Save(o)
	}
	for _, ev := range seedData.StatusUpdates {
		if err := orders.AppendEvent(ev); err != nil {
			logger.Warn().Err(err).Str("orderId", ev.OrderID).Msg("skip seeded status update")
		}
	}
	orderHandler := &order.Handler{Store: orders, DefaultLimit: 20, MaxLimit: 100}

	feed := notify.NewFeed(seedData.Notifications)
	notifyHandler := &notify.Handler{Feed: feed}
	bus := &events.Bus{
		Store:     &events.MemStore{Cap: 1000},
		Notifiers: []events.Notifier{notify.EventNotifier{Feed: feed}},
	}
	orderAdmin := &order.AdminHandler{Store: orders, Events: bus, Log: logger}

	checkoutService := &checkout.Service{
		Carts:   carts,
		Catalog: catalogService,
		Orders:  orders,
		Factory: order.Factory{
			PickupBaseMinutes:   cfg.PickupBaseMinutes,
			DeliveryBaseMinutes: cfg.DeliveryBaseMinutes,
			EtaPerItemMinutes:   cfg.EtaPerItemMinutes,
			EtaIncrementCap:     cfg.EtaIncrementCap,
		},
		Rewards: rewardsService,
		Events:  bus,
		Slots: checkout.SlotConfig{
			LeadMinutes:     cfg.SlotLeadMinutes,
			IntervalMinutes: cfg.SlotIntervalMinutes,
			MaxSlots:        cfg.SlotMaxSlots,
		},
		Lock: lock.Locker{R: redisClient},
		Log:  logger,
	}
	checkoutHandler := &checkout.Handler{Service: checkoutService}

	userService := &user.Service{Store: store}
	userHandler := &user.Handler{Service: userService}

	favService := &favorites.Service{Store: store}
	favHandler := &favorites.Handler{Svc: favService, Catalog: catalogService}

	ratingService := &ratings.Service{Store: store, Orders: orders}
	ratingHandler := &ratings.Handler{Service: ratingService}

	idem := common.Idem{R: redisClient, TTL: 10 * time.Minute}
	otpLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:otp"},
		Config: ratelimit.Config{
			Key:    common.ClientIP,
			Window: cfg.OTPRateWindow,
			Max:    cfg.OTPRateLimit,
		},
		OnError: func(err error) { logger.Error().Err(err).Msg("otp rate limiter") },
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(cfg.MetricsBuckets)
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnable, EnableHSTS: cfg.EnableHSTS}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		pprofUser := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pprofPass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), pprofUser, pprofPass))
	}

	healthHandler := health.Handler{RedisTimeout: 300 * time.Millisecond}
	if redisClient != nil {
		healthHandler.Checker = readinessChecker{redis: redisClient}
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/menu", catalogHandler.Menu)
		v.Get("/menu/{itemId}", catalogHandler.MenuItemDetail)
		v.Get("/stores", catalogHandler.Stores)
		v.Get("/payment-methods", catalogHandler.PaymentMethods)
		v.Get("/promos", catalogHandler.Promos)

		v.Route("/auth", func(a chi.Router) {
			a.With(otpLimit.Middleware).Post("/otp/request", authHandler.RequestOTP)
			a.Post("/otp/verify", authHandler.VerifyOTP)
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Route("/carts", func(c chi.Router) {
			c.Use(authMiddleware.RequireAuth)
			c.Get("/{cartId}", cartHandler.Get)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", cartHandler.Create)
				g.Post("/{cartId}/items", cartHandler.AddItem)
				g.Patch("/{cartId}/items/{lineId}", cartHandler.UpdateItem)
				g.Delete("/{cartId}/items/{lineId}", cartHandler.RemoveItem)
				g.Delete("/{cartId}/items", cartHandler.Clear)
				g.Post("/{cartId}/apply-promo", cartHandler.ApplyPromo)
				g.Delete("/{cartId}/promo", cartHandler.RemovePromo)
				g.Post("/{cartId}/redeem-points", cartHandler.RedeemPoints)
			})
		})

		v.Get("/checkout/slots", checkoutHandler.Slots)
		v.With(authMiddleware.RequireAuth, idem.Middleware).Post("/checkout", checkoutHandler.Checkout)

		v.Group(func(authR chi.Router) {
			authR.Use(authMiddleware.RequireAuth)
			authR.Get("/orders", orderHandler.List)
			authR.Get("/orders/{orderId}", orderHandler.Get)
			authR.Get("/orders/{orderId}/status", orderHandler.StatusTimeline)
			authR.Put("/orders/{orderId}/rating", ratingHandler.Rate)
			authR.Get("/orders/{orderId}/rating", ratingHandler.Get)

			authR.Get("/rewards", rewardsHandler.Summary)

			authR.Get("/users/me/profile", userHandler.GetProfile)
			authR.Put("/users/me/profile", userHandler.UpdateProfile)
			authR.Route("/users/me/addresses", func(a chi.Router) {
				a.Get("/", userHandler.ListAddresses)
				a.Post("/", userHandler.CreateAddress)
				a.Patch("/{addressId}", userHandler.UpdateAddress)
				a.Delete("/{addressId}", userHandler.DeleteAddress)
			})

			authR.Get("/users/me/favorites", favHandler.List)
			authR.Put("/users/me/favorites/{itemId}", favHandler.Add)
			authR.Delete("/users/me/favorites/{itemId}", favHandler.Remove)

			authR.Get("/notifications", notifyHandler.List)
			authR.Post("/notifications/{notificationId}/read", notifyHandler.MarkRead)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Post("/orders/{orderId}/status", orderAdmin.PushStatus)
		})
	})

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go carts.Janitor(janitorCtx, cfg.CartSweepInterval, logger)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-sigCtx.Done():
		logger.Info().Msg("shutdown signal received")
		health.SetReady(false)
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	redis *redis.Client
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
