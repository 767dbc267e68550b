package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"autoparts/internal/cache"
	"autoparts/internal/config"
	"autoparts/internal/database"
	"autoparts/internal/document"
	"autoparts/internal/events"
	"autoparts/internal/metrics"
	custommiddleware "autoparts/internal/middleware"
	"autoparts/internal/repository"
	"autoparts/internal/service"
	"autoparts/internal/transport"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// idempotencyTTL is how long a stored response can be replayed
const idempotencyTTL = 24 * time.Hour

// Deps are the optional collaborators of the API. A nil Cache disables rate
// limiting and Idempotency-Key replay; a nil Metrics records nothing.
type Deps struct {
	Metrics *metrics.Metrics
	Cache   *cache.Client
}

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	db      *database.DB
	cache   *cache.Client
	bus     *events.Bus
	users   service.UserService
	metrics *metrics.Metrics
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *database.DB, deps Deps) (*Server, error) {
	pricing, err := service.ParseCheckoutPricing(cfg.Checkout)
	if err != nil {
		return nil, fmt.Errorf("invalid checkout configuration: %w", err)
	}

	// Event bus with the metrics and audit consumers
	bus := events.NewBus(logger, deps.Metrics)
	events.SubscribeMetrics(bus, deps.Metrics)
	events.SubscribeAudit(bus, logger)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)
	chatbotRepo := repository.NewChatbotRepository(db)

	// Initialize services
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT)
	catalogService := service.NewCatalogService(productRepo)
	cartService := service.NewCartService(cartRepo, productRepo, deps.Metrics)
	orderService := service.NewOrderService(orderRepo, productRepo, subscriberRepo, settingsRepo,
		document.NewRenderer(), bus, cfg.Orders.StrictTransitions)
	subscriberService := service.NewSubscriberService(subscriberRepo)
	checkoutService := service.NewCheckoutService(cartService, orderService, subscriberService, pricing, logger)
	settingsService := service.NewSettingsService(settingsRepo)
	chatbotService := service.NewChatbotService(chatbotRepo, settingsRepo, deps.Metrics)

	s := &Server{
		config:  cfg,
		logger:  logger,
		db:      db,
		cache:   deps.Cache,
		bus:     bus,
		users:   userService,
		metrics: deps.Metrics,
	}

	router := chi.NewRouter()

	// Add basic middleware
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.MetricsMiddleware(deps.Metrics))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(custommiddleware.MaxBodySize(custommiddleware.DefaultMaxBodyBytes))

	router.Get("/api/health", s.health)
	router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	requireAdmin := custommiddleware.RequireAdmin(userService, logger)
	adminOnly := func(next http.Handler) http.Handler {
		return authMiddleware(requireAdmin(next))
	}
	idempotent := custommiddleware.Idempotency(s.idempotencyStore(), idempotencyTTL, deps.Metrics.IdempotentReplay, logger)

	router.Group(func(r chi.Router) {
		if s.cache != nil {
			r.Use(custommiddleware.RateLimitMiddleware(s.cache, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.Redis.RateLimitRequests,
				Window:            time.Duration(cfg.Redis.RateLimitWindow) * time.Second,
				KeyPrefix:         "api",
				OnLimited:         deps.Metrics.RateLimited,
			}, logger))
		}

		// Register routes
		transport.NewProductHandler(catalogService, logger).RegisterRoutes(r, adminOnly)
		transport.NewCartHandler(cartService, logger).RegisterRoutes(r)
		transport.NewCheckoutHandler(checkoutService, settingsService, logger).RegisterRoutes(r, idempotent)
		transport.NewOrderHandler(orderService, logger).RegisterRoutes(r, adminOnly, idempotent)
		transport.NewConfigHandler(settingsService, logger).RegisterRoutes(r, adminOnly)
		transport.NewSubscriberHandler(subscriberService, logger).RegisterRoutes(r, adminOnly)
		transport.NewChatbotHandler(chatbotService, logger).RegisterRoutes(r, adminOnly)
		transport.NewReportHandler(orderService, logger).RegisterRoutes(r, adminOnly)
		transport.NewUserHandler(userService, logger).RegisterRoutes(r, authMiddleware)
	})

	router.NotFound(s.notFound(newSPAHandler(cfg.Server.StaticDir)))
	router.MethodNotAllowed(custommiddleware.MethodNotAllowedJSON)

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

// EnsureAdmin creates or promotes the configured admin account
func (s *Server) EnsureAdmin(ctx context.Context) error {
	admin, err := s.users.EnsureAdmin(ctx, s.config.Admin)
	if err != nil {
		return err
	}
	if admin == nil {
		s.logger.Warn("No admin account configured; set ADMIN_EMAIL and ADMIN_PASSWORD")
		return nil
	}
	s.logger.Info("Admin account ready", zap.String("email", admin.Email))
	return nil
}

func (s *Server) idempotencyStore() custommiddleware.IdempotencyStore {
	if s.cache == nil {
		return nil
	}
	return s.cache
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	dbHealth := s.db.Health(r.Context())

	status := http.StatusOK
	body := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  dbHealth,
	}
	if dbHealth["status"] != "up" {
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
	}
	if s.cache != nil {
		if err := s.cache.Ping(r.Context()); err != nil {
			body["redis"] = "down"
		} else {
			body["redis"] = "up"
		}
	}

	custommiddleware.RespondWithJSON(w, status, body)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Drain in-flight events before the database goes away
	s.bus.Close()

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
