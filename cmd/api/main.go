package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"brigade-service/config"
	"brigade-service/internal/handler"
	"brigade-service/internal/middleware"
	"brigade-service/internal/redis"
	"brigade-service/internal/repository"
	"brigade-service/internal/server"
	"brigade-service/internal/services"
	"brigade-service/internal/storage"
	"brigade-service/pkg/database"
	"brigade-service/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.LogMode)
	logger.SetGlobalLogger(l)
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.Connect(cfg)
	defer database.Close()

	if err := repository.InitSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer, err := storage.NewPrometheusObserver("brigade", reg)
	if err != nil {
		log.Fatalf("Failed to register storage metrics: %v", err)
	}

	store, err := storage.NewClient(ctx, storage.S3ConfigFrom(cfg), storage.WithObserver(observer))
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}

	campaignRepo := repository.NewCampaignRepository(db)
	reportRepo := repository.NewReportRepository(db)
	postRepo := repository.NewPostRepository(db)
	imageRepo := repository.NewImageRepository(db)
	vacancyRepo := repository.NewVacancyRepository(db)
	userRepo := repository.NewUserRepository(db)

	attachments := services.NewAttachmentService(imageRepo, store, l, cfg.UploadConcurrent, store.PresignTTL())
	reportService := services.NewReportService(reportRepo, campaignRepo, attachments)
	campaignService := services.NewCampaignService(campaignRepo, reportService, attachments)
	postService := services.NewPostService(postRepo, attachments)
	vacancyService := services.NewVacancyService(vacancyRepo)
	imageService := services.NewImageService(attachments, imageRepo, campaignRepo, reportRepo, postRepo)
	sweeper := services.NewSweeperService(imageRepo, store, attachments, cfg.SweepPendingTTL, cfg.SweepOrphanGrace, l)
	authService := services.NewAuthService(userRepo, cfg)

	var limiter middleware.Limiter
	if cfg.RateLimitEnabled {
		rdb := redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()
		if err := redis.Ping(ctx, rdb, 3*time.Second); err != nil {
			l.Warnf("Rate limiting disabled: %v", err)
		} else {
			limiter = redis.NewRateLimiter(rdb, redis.DefaultRateLimitConfig())
		}
	}

	if cfg.SweepInterval > 0 {
		go sweeper.Run(ctx, cfg.SweepInterval)
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Donations: handler.NewDonationHandler(campaignService),
		Reports:   handler.NewReportHandler(reportService),
		Posts:     handler.NewPostHandler(postService),
		Vacancies: handler.NewVacancyHandler(vacancyService),
		Images:    handler.NewImageHandler(imageService),
		Admin:     handler.NewAdminHandler(sweeper),
	}, server.Deps{
		Tokens:  authService,
		Limiter: limiter,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Health:  database.HealthCheck,
	})

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
