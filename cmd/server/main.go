package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/qoricharge/storefront/internal/config"
	"github.com/qoricharge/storefront/internal/db"
	"github.com/qoricharge/storefront/internal/es"
	"github.com/qoricharge/storefront/internal/events"
	"github.com/qoricharge/storefront/internal/geo"
	"github.com/qoricharge/storefront/internal/geoip"
	"github.com/qoricharge/storefront/internal/handlers"
	"github.com/qoricharge/storefront/internal/hash"
	"github.com/qoricharge/storefront/internal/lock"
	"github.com/qoricharge/storefront/internal/logging"
	loggingmw "github.com/qoricharge/storefront/internal/middleware/logging"
	"github.com/qoricharge/storefront/internal/middleware/metrics"
	"github.com/qoricharge/storefront/internal/models"
	"github.com/qoricharge/storefront/internal/notify"
	ordersvc "github.com/qoricharge/storefront/internal/service/order"
	presencesvc "github.com/qoricharge/storefront/internal/service/presence"
	"github.com/qoricharge/storefront/internal/service/token"
	httpserver "github.com/qoricharge/storefront/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := config.Migrate(gormDB); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	if err := ensureAdmin(gormDB, cfg); err != nil {
		log.Fatalf("admin seed error: %v", err)
	}

	geoTable, err := geo.Load()
	if err != nil {
		log.Fatalf("geo table error: %v", err)
	}

	var redisClient *redis.Client
	var locker lock.Locker = lock.NewMemoryLocker()
	var geoCache geoip.Cache = geoip.NewMemoryCache()
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		locker = &lock.RedisLocker{Client: redisClient}
		geoCache = &geoip.RedisCache{Client: redisClient}
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	} else {
		logger.Warn("KAFKA_BROKERS not set, analytics events disabled")
	}

	var esClient *elasticsearch.Client
	if cfg.ES_URL != "" {
		c, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		esClient = c
	} else {
		logger.Warn("ES_URL not set, order search disabled")
	}

	tokens := &token.Service{
		DB:            gormDB,
		JWTSecret:     []byte(cfg.JWTSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
	}

	orderService := &ordersvc.Service{DB: gormDB, Geo: geoTable, Locker: locker}
	presenceService := &presencesvc.Service{
		DB:  gormDB,
		Geo: geoip.NewClient(cfg.GeoIPURL, geoCache),
		Log: logger,
	}
	presenceService.StartReaper(ctx)

	notifier := &notify.Notifier{
		Log:        logger,
		WebhookURL: cfg.WebhookURL,
		Producer:   publisherOrNil(producer),
		ES:         esClient,
		ESIndex:    cfg.ES_INDEX,
	}
	if cfg.WebhookURL == "" {
		logger.Warn("ORDER_WEBHOOK_URL not set, order.created webhooks will be skipped")
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(metrics.Middleware())

	httpserver.Register(e, &httpserver.Deps{
		CheckoutHandler: &handlers.CheckoutHandler{Svc: orderService, Notifier: notifier},
		GeoHandler:      &handlers.GeoHandler{Table: geoTable},
		PresenceHandler: &handlers.PresenceHandler{Svc: presenceService},
		AuthHandler:     &handlers.AuthHandler{DB: gormDB, Tokens: tokens},
		AdminHandler:    &handlers.AdminHandler{DB: gormDB, ES: esClient, ESIndex: cfg.ES_INDEX},
		Tokens:          tokens,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("redis close error: %v", err)
		}
	}

	logger.Info("shutdown complete")
}

// ensureAdmin seeds the back-office account from env on first boot.
func ensureAdmin(gormDB *gorm.DB, cfg *config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	var existing models.AdminUser
	err := gormDB.Where("username = ?", cfg.AdminUsername).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	pwHash, err := hash.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	return gormDB.Create(&models.AdminUser{
		Username:     cfg.AdminUsername,
		PasswordHash: pwHash,
		Role:         "admin",
	}).Error
}

func publisherOrNil(p *events.Producer) events.Publisher {
	if p == nil {
		return nil
	}
	return p
}
