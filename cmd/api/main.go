package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/quotation-api/internal/application/service"
	"github.com/sangkips/quotation-api/internal/config"
	"github.com/sangkips/quotation-api/internal/infrastructure/database"
	"github.com/sangkips/quotation-api/internal/infrastructure/repository"
	"github.com/sangkips/quotation-api/internal/presentation/http/handler"
	"github.com/sangkips/quotation-api/internal/presentation/http/routes"
	"github.com/sangkips/quotation-api/pkg/asset"
	"github.com/sangkips/quotation-api/pkg/email"
	"github.com/sangkips/quotation-api/pkg/pdfdoc"
	"github.com/sangkips/quotation-api/pkg/pricing"
	"github.com/sangkips/quotation-api/pkg/quotedoc"
	"github.com/sangkips/quotation-api/pkg/utils"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed the first administrator
	if err := database.SeedAdmin(db); err != nil {
		log.Printf("Warning: Failed to seed admin user: %v", err)
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewLoginAuditRepository(db)
	clientRepo := repository.NewClientRepository(db)
	productRepo := repository.NewProductRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	counterRepo := repository.NewCounterRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize the document pipeline
	pipeline, calc, err := newPipeline(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize document pipeline: %v", err)
	}

	// Initialize email service
	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.Host,
		SMTPPort:     cfg.Email.Port,
		SMTPUsername: cfg.Email.Username,
		SMTPPassword: cfg.Email.Password,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.From,
	})

	// Initialize services
	authService := service.NewAuthService(userRepo, auditRepo, jwtManager)
	userService := service.NewUserService(userRepo, auditRepo)
	clientService := service.NewClientService(clientRepo, userRepo)
	productService := service.NewProductService(productRepo)
	dashboardService := service.NewDashboardService(analyticsRepo, clientRepo)
	quotationService := service.NewQuotationService(
		quotationRepo,
		counterRepo,
		clientRepo,
		productRepo,
		userRepo,
		pipeline,
		emailService,
		calc,
		service.QuotationServiceConfig{
			DefaultCurrency: cfg.Document.Currency,
			ExportMaxRows:   cfg.Storage.ExportMaxRows,
		},
	)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		User:      handler.NewUserHandler(userService),
		Client:    handler.NewClientHandler(clientService),
		Product:   handler.NewProductHandler(productService),
		Quotation: handler.NewQuotationHandler(quotationService, cfg.Document.RenderTimeout),
		Dashboard: handler.NewDashboardHandler(dashboardService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		Stop:            ctx.Done(),
	})

	go purgeIdempotencyKeys(ctx, idempotencyRepo.DeleteExpired, time.Hour)

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("Server exited")
}

// newPipeline builds the quotation document stack. The letterhead itself is
// loaded lazily on the first render.
func newPipeline(ctx context.Context, cfg *config.Config) (*quotedoc.Pipeline, *pricing.Calculator, error) {
	rate, err := decimal.NewFromString(cfg.Document.VATRate)
	if err != nil {
		return nil, nil, err
	}
	calc, err := pricing.NewCalculator(rate)
	if err != nil {
		return nil, nil, err
	}

	setup, err := pdfdoc.SetupByName(cfg.Document.PageSize)
	if err != nil {
		return nil, nil, err
	}
	renderer, err := pdfdoc.NewRenderer(setup)
	if err != nil {
		return nil, nil, err
	}

	var opts []option.ClientOption
	if cfg.Storage.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Storage.CredentialsFile))
	}
	source, err := asset.NewSourceFromLocation(ctx, cfg.Document.LetterheadPath, opts...)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Letterhead source: %s", source.Location())

	return quotedoc.NewPipeline(calc, renderer, quotedoc.NewLetterheadCache(source)), calc, nil
}

// purgeIdempotencyKeys removes expired idempotency records until ctx ends.
func purgeIdempotencyKeys(ctx context.Context, purge func(context.Context, time.Time) (int64, error), every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := purge(ctx, now)
			if err != nil {
				log.Printf("Failed to purge idempotency keys: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Purged %d expired idempotency keys", n)
			}
		}
	}
}
