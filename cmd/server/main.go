package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"rendezvous/config"
	"rendezvous/internal/adapters/auth"
	rediscache "rendezvous/internal/adapters/cache"
	"rendezvous/internal/adapters/email"
	deliveryhttp "rendezvous/internal/delivery/http"
	"rendezvous/internal/delivery/http/controllers"
	"rendezvous/internal/delivery/http/middleware"
	"rendezvous/internal/domain"
	"rendezvous/internal/repository/postgres"
	"rendezvous/internal/services"
)

const serviceTimeout = 5 * time.Second

// @title Rendez Vous API
// @version 1.0
// @description Group meeting scheduling: propose dates, collect attendee availability, fix the date and export the calendar entry.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}

	// The query cache is optional: if Redis is unreachable at boot we serve
	// every list from Postgres instead of refusing to start.
	var resultCache domain.Cache
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, list caching disabled", "addr", cfg.RedisAddr, "err", err)
	} else {
		resultCache = rediscache.NewRedisCache(redisClient)
	}
	cancel()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFrom,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.SES.Region,
			AccessKeyID:        cfg.SES.AccessKeyID,
			SecretAccessKey:    cfg.SES.SecretAccessKey,
			InsecureSkipVerify: cfg.SES.InsecureSkipVerify,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}

	rvRepo := postgres.NewRendezVousRepository(db)
	availRepo := postgres.NewAvailabilityRepository(db)
	attendeeRepo := postgres.NewAttendeeRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	typeRepo := postgres.NewTypeRepository(db)
	members := postgres.NewMemberRepository(db)

	memberLinks := services.NewLinkResolver(cfg.BaseURL)
	groupLinks := services.NewGroupLinkResolver(cfg.BaseURL)
	notifier := services.NewNotifier(members, notificationRepo, mailer, email.NewTemplateRenderer(), memberLinks, groupLinks)
	rdvService := services.NewRendezVousService(
		rvRepo, availRepo, attendeeRepo, notificationRepo, typeRepo,
		notifier, resultCache, nil, serviceTimeout,
	)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	caps := services.NewCapabilityMapper(cfg.Moderators)
	rdvController := controllers.NewRendezVousController(logger, rdvService, typeRepo, caps, memberLinks, groupLinks)
	notificationController := controllers.NewNotificationController(logger, notificationRepo)

	mux := deliveryhttp.NewRouter(logger, verifier, rdvController, notificationController)
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.AllowedOrigins, mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
