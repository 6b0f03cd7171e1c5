package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/recall/internal/bookmarkapi"
	"github.com/MrSnakeDoc/recall/internal/config"
	"github.com/MrSnakeDoc/recall/internal/domain"
	"github.com/MrSnakeDoc/recall/internal/httpserver"
	"github.com/MrSnakeDoc/recall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/recall/internal/logger"
	"github.com/MrSnakeDoc/recall/internal/redis"
	"github.com/MrSnakeDoc/recall/internal/scheduler"
	"github.com/MrSnakeDoc/recall/internal/sources/seed"
	"github.com/MrSnakeDoc/recall/internal/state"
	redisstore "github.com/MrSnakeDoc/recall/internal/store/redis"
	"github.com/MrSnakeDoc/recall/internal/utils"
	"github.com/MrSnakeDoc/recall/internal/version"
	"github.com/MrSnakeDoc/recall/internal/web"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	bookmarks   *state.Container
	refresher   *scheduler.Refresher
	gc          *scheduler.GarbageCollector
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Operation status lives in redis when configured, in memory otherwise.
	var (
		redisClient *goredis.Client
		statuses    state.StatusStore
	)
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("Redis initialized successfully")
		redisClient = client
		statuses = redisstore.NewStatusStore(client, cfg.RedisStateTTL)
	} else {
		loggerClient.Info("redis not configured, keeping operation status in memory")
		statuses = state.NewMemoryStatusStore()
	}

	api := bookmarkapi.New(bookmarkapi.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		RPS:     cfg.APIRPS,
		Burst:   cfg.APIBurst,
	}, loggerClient)

	bookmarks := state.New(api, statuses, loggerClient)

	renderer, err := web.NewRenderer()
	if err != nil {
		loggerClient.Errorf("Failed to parse page templates: %v", err)
		os.Exit(1)
	}

	refreshTrigger := make(chan struct{}, 1)
	refresher := scheduler.NewRefresher(bookmarks, loggerClient, cfg.RefreshInterval, refreshTrigger)
	gc := scheduler.NewGarbageCollector(statuses, loggerClient, cfg.GCInterval, cfg.StaleOpAfter)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		Location:       cfg.Location,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		CORSOrigins:    cfg.CORSOrigins,
		RateBurst:      cfg.RateBurst,
		RateRefill:     cfg.RateRefillPerMin,
		Bookmarks:      bookmarks,
		Renderer:       renderer,
		List:           web.NewListBuilder(domain.NewFaviconResolver(cfg.FaviconURL, cfg.FaviconSize), cfg.Location),
		API:            api,
		APIBaseURL:     api.BaseURL(),
		RedisClient:    redisClient,
		RefreshTrigger: refreshTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		bookmarks:   bookmarks,
		refresher:   refresher,
		gc:          gc,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Recall %s on %s", version.String(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Seed entries go through the add path, so they need the API up.
	if a.cfg.SeedFile != "" {
		now := func() time.Time { return time.Now().In(a.cfg.Location) }
		importer := seed.NewImporter(a.cfg.SeedFile, a.bookmarks, a.logger, now)
		if _, err := importer.Import(ctx); err != nil {
			a.logger.Warn("seed import failed, continuing without it",
				logger.String("file", a.cfg.SeedFile),
				logger.Error(err))
		}
	}

	a.refresher.Start(ctx)
	a.logger.Info("refresher started",
		logger.Duration("interval", a.cfg.RefreshInterval))

	a.gc.Start(ctx)
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.refresher.Stop()
		a.gc.Stop()
		return err
	}

	a.refresher.Stop()
	a.gc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, "redis", a.logger)
	}

	a.logger.Info("✅ Recall stopped cleanly")
	_ = a.logger.Sync() // EINVAL on stdout is expected
	return nil
}
