package main // Entry point package

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os/signal"
    "syscall"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "go.uber.org/zap"

    "github.com/iliyamo/digital-services-site/internal/config"
    "github.com/iliyamo/digital-services-site/internal/database"
    "github.com/iliyamo/digital-services-site/internal/handler"
    "github.com/iliyamo/digital-services-site/internal/middleware"
    "github.com/iliyamo/digital-services-site/internal/queue"
    "github.com/iliyamo/digital-services-site/internal/realtime"
    "github.com/iliyamo/digital-services-site/internal/repository"
    "github.com/iliyamo/digital-services-site/internal/router"
    "github.com/iliyamo/digital-services-site/internal/service"
    "github.com/iliyamo/digital-services-site/internal/throttle"
    "github.com/iliyamo/digital-services-site/internal/utils"
)

func main() {
    config.LoadDotEnv()
    cfg := config.Load()

    logger, err := utils.InitLogger(cfg.Env, cfg.LogLevel, cfg.LogFormat)
    if err != nil {
        log.Fatalf("logger: %v", err)
    }
    defer utils.SyncLogger()

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    // ---- Storage ----
    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        logger.Fatal("database connection failed", zap.Error(err))
    }
    defer db.Close()
    if err := database.Migrate(db); err != nil {
        logger.Fatal("migrations failed", zap.Error(err))
    }

    rdb := config.NewRedisClient(config.LoadRedisConfig())
    if rdb == nil {
        logger.Warn("redis unavailable; using in-process rate limit, stats and change feed")
    } else {
        defer rdb.Close()
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    services := repository.NewServiceRepo(db)
    bookings := repository.NewBookingRepo(db)
    messages := repository.NewMessageRepo(db)
    content := repository.NewContentRepo(db)
    analytics := repository.NewAnalyticsRepo(db)

    if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
        if len(cfg.AdminPassword) < utils.MinPasswordLength {
            logger.Fatal("ADMIN_PASSWORD too short")
        }
        created, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
        if err != nil {
            logger.Fatal("ensure admin failed", zap.Error(err))
        }
        logger.Info("admin account ready", zap.String("email", cfg.AdminEmail), zap.Bool("created", created))
    }

    go purgeTokens(ctx, tokens, logger)

    // ---- Form throttles ----
    tcfg := config.LoadThrottleConfig()
    throttles := throttle.NewRegistry(tcfg.Presets,
        throttle.WithIdleTTL(tcfg.IdleTTL),
        throttle.WithCleanupEvery(tcfg.CleanupEvery),
    )
    throttles.StartJanitor(ctx)

    var stats throttle.StatsStore = throttle.NewMemoryStats()
    var feed realtime.Feed = realtime.NewMemoryFeed()
    if rdb != nil {
        stats = throttle.NewRedisStats(rdb, throttle.WithStatsPrefix(tcfg.StatsPrefix))
        feed = realtime.NewRedisFeed(rdb, realtime.DefaultChannel, logger)
    }

    // ---- Messaging ----
    var publisher service.Publisher = service.NopPublisher{}
    if cfg.RabbitURL != "" {
        amqpPub := service.NewAMQPPublisher(cfg.RabbitURL, logger)
        defer amqpPub.Close()
        publisher = amqpPub
        go queue.NewConsumer(cfg.RabbitURL, logger).Run(ctx)
    } else {
        logger.Info("RABBITMQ_URL not set; domain events are not published")
    }

    // ---- HTTP ----
    rl := config.LoadRateLimitConfig()
    local := middleware.NewLocalLimiterStore(rl.RPS(), rl.Capacity, rl.TTL)
    local.StartJanitor(ctx, time.Minute)

    cc := config.LoadCacheConfig()
    purge := func(ctx context.Context) {
        if _, err := middleware.PurgeCache(ctx, rdb, cc.Prefix); err != nil {
            logger.Warn("cache purge failed", zap.Error(err))
        }
    }

    e := echo.New()
    e.HideBanner = true
    e.HidePort = true
    e.Use(echomw.Recover())
    e.Use(echomw.RequestID())
    e.Use(middleware.RequestLogger(logger))
    e.Use(middleware.NewTokenBucket(rl, rdb, local, logger))

    secure := cfg.Env == "production"
    router.RegisterRoutes(e, db)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, logger), cfg.JWTSecret)
    router.RegisterPublic(e, &handler.PublicHandler{
        Services: services, Content: content, Bookings: bookings, Log: logger,
    }, middleware.NewRedisCache(cc, rdb, logger))
    router.RegisterForms(e, &handler.FormsHandler{
        Throttles: throttles,
        Stats:     stats,
        Services:  services,
        Bookings:  bookings,
        Messages:  messages,
        Publisher: publisher,
        Feed:      feed,
        Log:       logger,
    }, &handler.AnalyticsHandler{Store: analytics, Salt: cfg.IPHashSalt, Log: logger}, secure)
    router.RegisterAdmin(e, &handler.AdminHandler{
        Services:  services,
        Bookings:  bookings,
        Content:   content,
        Messages:  messages,
        Users:     users,
        Tokens:    tokens,
        Analytics: analytics,
        Stats:     stats,
        Throttles: throttles,
        Feed:      feed,
        Purge:     purge,
        Log:       logger,
    }, cfg.JWTSecret)

    addr := ":" + cfg.Port
    go func() {
        logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            logger.Fatal("server failed", zap.Error(err))
        }
    }()

    <-ctx.Done()
    logger.Info("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        logger.Error("shutdown failed", zap.Error(err))
    }
}

// purgeTokens drops dead refresh tokens once an hour until ctx is done.
func purgeTokens(ctx context.Context, tokens *repository.TokenRepo, logger *zap.Logger) {
    t := time.NewTicker(time.Hour)
    defer t.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-t.C:
            n, err := tokens.PurgeExpired(ctx, 7*24*time.Hour)
            if err != nil {
                logger.Warn("refresh token purge failed", zap.Error(err))
                continue
            }
            logger.Debug("refresh tokens purged", zap.Int64("rows", n))
        }
    }
}
