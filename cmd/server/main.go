package main // Entry point package

import (
    "log" // Logging library

    "github.com/joho/godotenv"    // Loads .env files in development
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/homerecords/beatstore/internal/config"     // Internal config loader
    "github.com/homerecords/beatstore/internal/database"   // MySQL connection helper
    "github.com/homerecords/beatstore/internal/handler"    // HTTP handlers
    "github.com/homerecords/beatstore/internal/middleware" // Cache and rate limit middleware
    "github.com/homerecords/beatstore/internal/payment"    // Payment gateway client
    "github.com/homerecords/beatstore/internal/queue"      // RabbitMQ publisher and consumer
    "github.com/homerecords/beatstore/internal/repository" // Data access layer
    "github.com/homerecords/beatstore/internal/router"     // Route registration
    "github.com/homerecords/beatstore/internal/service"    // Purchase settlement engine
)

func main() {
    _ = godotenv.Load() // Load .env if present; real env vars win

    cfg := config.Load() // Load environment config

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    beatRepo := repository.NewBeatRepo(db)
    saleRepo := repository.NewSaleRepo(db)

    gateway := payment.NewStripeGateway(cfg.StripeSecretKey)
    svc := service.NewPurchaseService(beatRepo, saleRepo, gateway, queue.PublishSaleSettled)

    // Redis backs the response cache and the rate limiter; both degrade to
    // no-ops when it is unreachable.
    rdb := config.NewRedisClient()
    cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
    limitMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterAuth(e, &handler.AuthHandler{Cfg: cfg})
    router.RegisterPublic(e, &handler.BeatHandler{BeatRepo: beatRepo}, cacheMW)

    pay := &handler.PaymentHandler{Svc: svc, Cfg: cfg}
    router.RegisterPayment(e, pay, limitMW)
    router.RegisterAdmin(e, &handler.AdminBeatHandler{BeatRepo: beatRepo}, pay, cfg.JWTSecret)

    // Consume sale.settled events in the background for bookkeeping.
    go queue.StartSalesConsumer()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
