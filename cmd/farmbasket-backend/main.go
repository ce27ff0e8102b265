package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farmbasket/farmbasket-backend/internal/api/handlers"
	"github.com/farmbasket/farmbasket-backend/internal/api/middleware"
	"github.com/farmbasket/farmbasket-backend/internal/basket"
	"github.com/farmbasket/farmbasket-backend/internal/cache"
	"github.com/farmbasket/farmbasket-backend/internal/config"
	"github.com/farmbasket/farmbasket-backend/internal/health"
	"github.com/farmbasket/farmbasket-backend/internal/metrics"
	"github.com/farmbasket/farmbasket-backend/internal/reconcile"
	repository "github.com/farmbasket/farmbasket-backend/internal/repositories"
	"github.com/farmbasket/farmbasket-backend/internal/schedule"
	service "github.com/farmbasket/farmbasket-backend/internal/services"
	"github.com/farmbasket/farmbasket-backend/internal/tracing"
	"github.com/farmbasket/farmbasket-backend/pkg/sendgrid"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	sellerID, err := uuid.Parse(cfg.Seller.ID)
	if err != nil {
		slog.Error("❌ Invalid seller id in config", "error", err.Error())
		os.Exit(1)
	}

	calc, err := schedule.NewCalculator(cfg.Schedule)
	if err != nil {
		slog.Error("❌ Invalid pickup schedule in config", "error", err.Error())
		os.Exit(1)
	}

	// Tracing setup
	shutdownTracing, err := tracing.Init(context.Background(), cfg.Otel)
	if err != nil {
		slog.Error("❌ Error setting up tracing", "error", err.Error())
		os.Exit(1)
	}

	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := shutdownTracing(flushCtx); err != nil {
			slog.Error("⚠️ Error flushing trace spans", slog.String("error", err.Error()))
		}
	}()

	// Database setup
	repos, orderRepo, profileRepo, articleRepo, userRepo, err := repository.New(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", "error", err.Error())
		os.Exit(1)
	}

	// Redis setup
	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", "error", err.Error())
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Error("⚠️ Error closing redis connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Redis connection closed")
		}
	}()

	rateLimiter := repository.NewRateLimitRepo(redisClient, cfg)
	articleCache := cache.NewRedisCache(redisClient, &cfg.Cache)

	jwtKey := []byte(cfg.Security.JWTKey)
	emailClient := sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	// The profile repository doubles as the draft mirror, so an in-progress
	// basket survives a restart.
	basketStore := basket.NewStore(profileRepo, logger)
	defer basketStore.Close()

	reconciler := reconcile.NewReconciler(calc, orderRepo, sellerID)

	authService := service.NewAuthService(userRepo, profileRepo, rateLimiter, jwtKey, cfg.Security.JWTExpiryHours)
	defer authService.Close()
	catalogService := service.NewCatalogService(articleRepo, articleCache, sellerID, cfg.Cache.DefaultTTL)
	defer catalogService.Close()
	profileService := service.NewProfileService(profileRepo)
	orderService := service.NewOrderLifecycleService(orderRepo, profileRepo, basketStore, reconciler, calc, catalogService, emailClient, sellerID, cfg.Seller.Name)
	sessionService := service.NewSessionService(authService, profileRepo, orderRepo, catalogService, basketStore, calc, sellerID)
	defer sessionService.Close()
	accountService := service.NewAccountService(userRepo, profileRepo, orderRepo, authService, basketStore, calc, sellerID)

	authHandler := handlers.NewAuthHandler(authService)
	accountHandler := handlers.NewAccountHandler(accountService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	profileHandler := handlers.NewProfileHandler(profileService)
	basketHandler := handlers.NewBasketHandler(basketStore, catalogService)
	orderHandler := handlers.NewOrderHandler(orderService, sellerID)
	articleHandler := handlers.NewArticleHandler(catalogService, sellerID)
	authMiddleware := middleware.NewAuthMiddleware(jwtKey)

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error creating the health checks", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// Setup router. Bootstrap and pickup-dates stay public: the bootstrap
	// handler reads the bearer token itself so a brand-new visitor without
	// a session can still start one.
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/auth/anonymous", authHandler.Anonymous())
	routerMux.HandleFunc("POST /api/v1/auth/register", authHandler.Register())
	routerMux.HandleFunc("POST /api/v1/auth/login", authHandler.Login())
	routerMux.HandleFunc("POST /api/v1/auth/link", authMiddleware.Authenticate(accountHandler.Link()))
	routerMux.HandleFunc("POST /api/v1/auth/logout", authMiddleware.Authenticate(accountHandler.Logout()))
	routerMux.HandleFunc("DELETE /api/v1/account", authMiddleware.Authenticate(accountHandler.DeleteAccount()))
	routerMux.HandleFunc("POST /api/v1/session/bootstrap", sessionHandler.Bootstrap())
	routerMux.HandleFunc("GET /api/v1/pickup-dates", sessionHandler.PickupDates())
	routerMux.HandleFunc("GET /api/v1/profile", authMiddleware.Authenticate(profileHandler.GetProfile()))
	routerMux.HandleFunc("PUT /api/v1/profile", authMiddleware.Authenticate(profileHandler.UpdateProfile()))
	routerMux.HandleFunc("GET /api/v1/basket", authMiddleware.Authenticate(basketHandler.GetBasket()))
	routerMux.HandleFunc("PUT /api/v1/basket", authMiddleware.Authenticate(basketHandler.UpdateDetails()))
	routerMux.HandleFunc("POST /api/v1/basket/items", authMiddleware.Authenticate(basketHandler.AddItem()))
	routerMux.HandleFunc("PUT /api/v1/basket/items", authMiddleware.Authenticate(basketHandler.UpdateQuantity()))
	routerMux.HandleFunc("DELETE /api/v1/basket/items/{articleId}", authMiddleware.Authenticate(basketHandler.RemoveItem()))
	routerMux.HandleFunc("DELETE /api/v1/basket", authMiddleware.Authenticate(basketHandler.ClearBasket()))
	routerMux.HandleFunc("POST /api/v1/basket/reorder", authMiddleware.Authenticate(orderHandler.Reorder()))
	routerMux.HandleFunc("POST /api/v1/checkout", authMiddleware.Authenticate(orderHandler.Checkout()))
	routerMux.HandleFunc("POST /api/v1/checkout/merge", authMiddleware.Authenticate(orderHandler.ConfirmMerge()))
	routerMux.HandleFunc("GET /api/v1/orders", authMiddleware.Authenticate(orderHandler.ListOrders()))
	routerMux.HandleFunc("GET /api/v1/orders/{id}", authMiddleware.Authenticate(orderHandler.GetOrder()))
	routerMux.HandleFunc("PUT /api/v1/orders/{id}", authMiddleware.Authenticate(orderHandler.UpdateOrder()))
	routerMux.HandleFunc("DELETE /api/v1/orders/{id}", authMiddleware.Authenticate(orderHandler.CancelOrder()))
	routerMux.HandleFunc("POST /api/v1/orders/{id}/complete", authMiddleware.Authenticate(orderHandler.CompleteOrder()))
	routerMux.HandleFunc("GET /api/v1/articles", authMiddleware.Authenticate(articleHandler.ListArticles()))
	routerMux.HandleFunc("POST /api/v1/articles", authMiddleware.Authenticate(articleHandler.CreateArticle()))
	routerMux.HandleFunc("PUT /api/v1/articles/{id}", authMiddleware.Authenticate(articleHandler.UpdateArticle()))
	routerMux.HandleFunc("DELETE /api/v1/articles/{id}", authMiddleware.Authenticate(articleHandler.DeleteArticle()))
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "farmbasket-backend")

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() { // Starts the HTTP server in a new goroutine so it doesn't block the main thread.

		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done // blocking, until no signal is added to "done" channel, after the some signal is received the code after this point would be executed

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

}
