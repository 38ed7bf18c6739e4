package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/postcraft/backend/docs"
	"github.com/postcraft/backend/internal/audit"
	"github.com/postcraft/backend/internal/config"
	"github.com/postcraft/backend/internal/database"
	"github.com/postcraft/backend/internal/generation"
	"github.com/postcraft/backend/internal/handlers"
	"github.com/postcraft/backend/internal/logger"
	mW "github.com/postcraft/backend/internal/middleware"
	"github.com/postcraft/backend/internal/payments"
	"github.com/postcraft/backend/internal/services"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title PostCraft Backend API
// @version 1.0
// @description Credit-gated content generation API
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "json").WithError(err).Fatal("failed to load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY is required")
	}

	docs.SwaggerInfo.Host = "localhost:" + cfg.Port
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	ctx := context.Background()

	var store services.LedgerStore
	switch cfg.Storage {
	case "memory":
		log.Warn("using in-memory ledger, balances are lost on restart")
		store = services.NewMemoryLedger()
	default:
		db, err := database.InitDB(ctx, log)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize database")
		}
		defer db.Close()
		store = services.NewPostgresLedger(db)
	}

	redisClient := database.InitRedis(ctx, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	catalog := services.DefaultPricingCatalog()
	if cfg.PricingFile != "" {
		catalog, err = services.LoadPricingCatalog(cfg.PricingFile)
		if err != nil {
			log.WithError(err).WithField("file", cfg.PricingFile).Fatal("failed to load pricing catalog")
		}
	}

	invoker := generation.New(config.LoadGenerationConfig())
	if !invoker.Configured() {
		log.Warn("generation provider not configured, generation requests will be refused")
	}

	razorpay := payments.NewClient(cfg.Razorpay)
	if !razorpay.Configured() {
		log.Warn("razorpay not configured, top-ups are disabled")
	}

	auditLogger := audit.NewAuditLogger(log)
	orchestrator := services.NewOrchestrator(store, invoker, catalog, auditLogger, log)
	topUps := services.NewTopUpService(store, catalog, redisClient, auditLogger, log)
	topUps.RegisterConfirmer(payments.ProviderRazorpay, razorpay)

	auth := mW.NewAuthenticator(cfg.JWTSecret, redisClient, log)
	generationHandler := handlers.NewGenerationHandler(orchestrator)
	accountHandler := handlers.NewAccountHandler(store, catalog, cfg.SignupBonus, log)
	paymentHandler := handlers.NewPaymentHandler(topUps, razorpay.KeySecret(), cfg.Razorpay.WebhookSecret, log)
	sessionHandler := handlers.NewSessionHandler(auth, log)

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(mW.RequestTimeout(invoker.Timeout())))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		services.SendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/pricing", accountHandler.GetPricing)
		r.Post("/payments/razorpay/webhook", paymentHandler.RazorpayWebhook)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Post("/auth/logout", sessionHandler.Logout)

			r.Post("/account", accountHandler.EnsureAccount)
			r.Get("/account/credits", accountHandler.GetCredits)
			r.Get("/account/ledger", accountHandler.ListLedger)

			r.Post("/generate/{tool}", generationHandler.Generate)

			r.Post("/payments/verify", paymentHandler.VerifyPayment)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: mW.WriteTimeout(invoker.Timeout()),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server stopped")
}
