package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/waste3d/edemy-api/config"
	"github.com/waste3d/edemy-api/internal/application"
	"github.com/waste3d/edemy-api/internal/infrastructure/cache"
	"github.com/waste3d/edemy-api/internal/infrastructure/email"
	"github.com/waste3d/edemy-api/internal/infrastructure/identity"
	"github.com/waste3d/edemy-api/internal/infrastructure/payment"
	"github.com/waste3d/edemy-api/internal/infrastructure/repository"
	"github.com/waste3d/edemy-api/internal/infrastructure/storage"
	"github.com/waste3d/edemy-api/internal/logger"
	"github.com/waste3d/edemy-api/internal/middleware"
	grpc_server "github.com/waste3d/edemy-api/internal/transport/grpc"
	handlers "github.com/waste3d/edemy-api/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.New(cfg.RollbarToken, cfg.Env)
	if c, ok := appLog.(interface{ Close() }); ok {
		defer c.Close()
	}

	db, err := repository.Open(repository.DBConfig{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
	}, !cfg.IsProduction())
	if err != nil {
		appLog.Fatal("Failed to connect to DB", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		appLog.Fatal("Failed to connect to Redis", err)
	}
	appLog.Info("Connected to Redis at " + cfg.RedisAddr)

	clerk, err := identity.NewClerk(identity.Config{
		SecretKey: cfg.ClerkSecretKey,
		APIURL:    cfg.ClerkAPIURL,
		JWTKey:    cfg.ClerkJWTKey,
	})
	if err != nil {
		appLog.Fatal("Failed to init identity provider", err)
	}
	stripe := payment.NewStripe(payment.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		APIURL:        cfg.StripeAPIURL,
	})
	thumbnails := storage.NewSFTPStore(storage.Config{
		Host:      cfg.SFTPHost,
		Port:      cfg.SFTPPort,
		User:      cfg.SFTPUser,
		Pass:      cfg.SFTPPassword,
		RemoteDir: cfg.SFTPDir,
		BaseURL:   cfg.ThumbnailBaseURL,
	})

	var mailer email.Sender = email.NewConsoleService(appLog)
	if cfg.SendGridAPIKey != "" {
		mailer = email.NewSendgridService(cfg.SendGridAPIKey, mail.Address{Name: "Edemy", Address: cfg.SenderEmail}, appLog)
	}

	courseRepo := repository.NewCourseRepository(db, cache.NewCourseCache(rdb, appLog))
	userRepo := repository.NewUserRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)

	retry := application.DefaultRetryPolicy()
	retry.Attempts = cfg.EnrollMaxAttempts

	courseUseCase := application.NewCourseUseCase(courseRepo, userRepo, enrollmentRepo, thumbnails)
	userUseCase := application.NewUserUseCase(userRepo, courseRepo, enrollmentRepo)
	ratingUseCase := application.NewRatingUseCase(courseRepo, enrollmentRepo, retry)
	progressUseCase := application.NewProgressUseCase(courseRepo, enrollmentRepo, progressRepo, retry)
	enrollmentUseCase := application.NewEnrollmentUseCase(courseRepo, userRepo, enrollmentRepo, purchaseRepo, stripe, mailer, appLog,
		application.EnrollmentConfig{FrontendURL: cfg.FrontendURL, Currency: cfg.Currency, Retry: retry})
	educatorUseCase := application.NewEducatorUseCase(clerk, courseRepo, userRepo, enrollmentRepo, purchaseRepo, courseUseCase)

	reconcilerCfg := application.DefaultReconcilerConfig()
	reconcilerCfg.Schedule = cfg.ReconcileSchedule
	reconciler := application.NewReconciler(enrollmentUseCase, purchaseRepo, appLog, reconcilerCfg)
	if err := reconciler.Start(); err != nil {
		appLog.Fatal("Failed to start reconciler", err)
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		AllowedOrigins: cfg.Origins(),
		Log:            appLog,
		Verifier:       clerk,
		Users:          userUseCase,
		Educators:      educatorUseCase,
		Limiter:        middleware.NewRateLimiter(rdb),
		Course:         handlers.NewCourseHandler(courseUseCase),
		User:           handlers.NewUserHandler(userUseCase, enrollmentUseCase, ratingUseCase, progressUseCase),
		Educator:       handlers.NewEducatorHandler(educatorUseCase, courseUseCase),
		Webhook:        handlers.NewWebhookHandler(stripe, enrollmentUseCase, appLog),
	})
	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	health := grpc_server.NewHealthServer(appLog, 15*time.Second, map[string]grpc_server.Check{
		"postgres": func(ctx context.Context) error { return repository.Ping(ctx, db) },
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})
	healthCtx, stopHealth := context.WithCancel(context.Background())
	go health.Run(healthCtx)

	grpcServer := grpc_server.NewServer(health)
	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		appLog.Fatal("Failed to listen", err)
	}

	go func() {
		appLog.Info("gRPC health service is running on port " + cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			appLog.Fatal("Failed to serve gRPC", err)
		}
	}()
	go func() {
		appLog.Info("API is running on port " + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Failed to run server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	appLog.Info("Shutting down server...")
	stopHealth()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLog.Error("HTTP shutdown", err)
	}
	reconciler.Stop(ctx)
	grpcServer.GracefulStop()
	closeAll(appLog, db, rdb)
}

func closeAll(appLog logger.Logger, db *gorm.DB, rdb *redis.Client) {
	if err := rdb.Close(); err != nil {
		appLog.Warn("close redis", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			appLog.Warn("close postgres", err)
		}
	}
}
