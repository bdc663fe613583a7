package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/gatehouse-io/gatehouse-engine/pkg/audit"
	"github.com/gatehouse-io/gatehouse-engine/pkg/auth"
	"github.com/gatehouse-io/gatehouse-engine/pkg/config"
	"github.com/gatehouse-io/gatehouse-engine/pkg/database"
	"github.com/gatehouse-io/gatehouse-engine/pkg/handlers"
	"github.com/gatehouse-io/gatehouse-engine/pkg/middleware"
	"github.com/gatehouse-io/gatehouse-engine/pkg/notify"
	"github.com/gatehouse-io/gatehouse-engine/pkg/repositories"
	"github.com/gatehouse-io/gatehouse-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const migrationsPath = "migrations"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", cfg.Database.Database))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Authentication
	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	// Repositories
	profileRepo := repositories.NewProfileRepository()
	roleRepo := repositories.NewRoleRepository()
	visitorRepo := repositories.NewVisitorRepository()
	preregRepo := repositories.NewPreregistrationRepository()
	webhookRepo := repositories.NewWebhookRepository()
	auditRepo := repositories.NewAuditRepository()

	// Services
	securityAuditor := audit.NewSecurityAuditor(logger)
	dispatcher := notify.NewDispatcher(logger)

	onboardingService := services.NewOnboardingService(profileRepo, roleRepo, auditRepo, db, logger)
	roleService := services.NewRoleService(roleRepo, profileRepo, auditRepo, db, logger)
	visitorService := services.NewVisitorService(visitorRepo, roleRepo, logger)
	preregService := services.NewPreregistrationService(preregRepo, roleRepo, logger)
	webhookService := services.NewWebhookService(webhookRepo, roleRepo, auditRepo, db, logger)
	auditService := services.NewAuditService(auditRepo, roleRepo, logger)
	notificationService := services.NewNotificationService(
		webhookRepo, visitorRepo, roleRepo, dispatcher, securityAuditor,
		services.EmailSettings{
			Enabled:          cfg.Notifications.EmailEnabled,
			NotifyOnCheckin:  cfg.Notifications.EmailNotifyOnCheckin,
			NotifyOnCheckout: cfg.Notifications.EmailNotifyOnCheckout,
			SMTP: notify.SMTPConfig{
				Host:       cfg.Notifications.SMTPHost,
				Port:       cfg.Notifications.SMTPPort,
				Username:   cfg.Notifications.SMTPUsername,
				Password:   cfg.Notifications.SMTPPassword,
				From:       cfg.Notifications.EmailFrom,
				Recipients: cfg.Notifications.EmailRecipients,
			},
		},
		nil, logger)

	// Handlers
	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewMeHandler(onboardingService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUsersHandler(roleService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewVisitorsHandler(visitorService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewPreregistrationsHandler(preregService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewWebhooksHandler(webhookService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewAuditHandler(auditService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewNotificationsHandler(notificationService, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(database.WithScope(db)(mux))

	// Background sweep that expires overdue pending pre-registrations.
	go runExpirySweep(ctx, db, preregService, cfg.Preregistrations.ExpirySweepMinutes, logger)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting gatehouse-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// runMigrations applies pending migrations using a short-lived database/sql
// connection, as required by golang-migrate.
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return database.RunMigrations(sqlDB, migrationsPath, logger)
}

// runExpirySweep periodically marks overdue pending pre-registrations as
// expired. The sweep binds its own database scope since it runs outside the
// HTTP middleware chain.
func runExpirySweep(ctx context.Context, db *database.DB, preregService services.PreregistrationService, intervalMinutes int, logger *zap.Logger) {
	if intervalMinutes <= 0 {
		return
	}

	ticker := time.NewTicker(time.Duration(intervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx := database.SetScope(ctx, &database.Scope{Conn: db.Pool})
			if _, err := preregService.ExpireOverdue(sweepCtx); err != nil {
				logger.Error("Preregistration expiry sweep failed", zap.Error(err))
			}
		}
	}
}
