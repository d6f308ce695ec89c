// Package app wires configuration, the dashboard document, the outbound
// probers and the HTTP server into one process.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/linkus/internal/alerts"
	"github.com/MrSnakeDoc/linkus/internal/config"
	"github.com/MrSnakeDoc/linkus/internal/dashboard"
	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/httpserver"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkus/internal/identity"
	"github.com/MrSnakeDoc/linkus/internal/logger"
	"github.com/MrSnakeDoc/linkus/internal/plugins"
	"github.com/MrSnakeDoc/linkus/internal/probe"
	"github.com/MrSnakeDoc/linkus/internal/redis"
	redisstore "github.com/MrSnakeDoc/linkus/internal/store/redis"
	"github.com/MrSnakeDoc/linkus/internal/suggest"
	"github.com/MrSnakeDoc/linkus/internal/upstream"
	"github.com/MrSnakeDoc/linkus/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	store       *dashboard.Store
	reloader    *dashboard.Reloader
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// The plugin cache is optional: without it every plugin call is fresh.
	var (
		redisClient *goredis.Client
		cache       *redisstore.Store
	)
	if cfg.RedisEnabled() {
		redisClient, err = redis.New(context.Background(), redis.OptionsFromConfig(cfg), loggerClient)
		if err != nil {
			loggerClient.Warn("redis unavailable, plugin cache disabled", logger.Error(err))
			redisClient = nil
		} else {
			cache = redisstore.NewStore(redisClient)
		}
	} else {
		loggerClient.Info("redis not configured, plugin cache disabled")
	}

	store := dashboard.NewStore()
	reloadTrigger := make(chan struct{}, 1)
	reloader := dashboard.NewReloader(
		dashboard.NewLoader(cfg.ConfigFile, cfg.ExampleConfigFile),
		store,
		loggerClient,
		cfg.WatchConfig,
		reloadTrigger,
	)

	client := upstream.New(loggerClient, upstream.DefaultBreaker)
	registry := plugins.DefaultRegistry(client, cfg.PluginTimeout, loggerClient)

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedHosts:  cfg.AllowedHosts,
		TrustProxy:    cfg.TrustProxy,
		ConfigFile:    cfg.ConfigFile,
		Dashboard:     store,
		Identity:      identity.NewResolver(headersFromConfig(cfg), cfg.DevMode),
		Prober:        probe.New(cfg.StatusTimeout, loggerClient),
		Alerts:        alerts.New(alerts.Options{HTTPTimeout: cfg.AlertHTTPTimeout, PingTimeout: cfg.PingTimeout}, loggerClient),
		Suggest:       suggest.New(cfg.SuggestURL, cfg.SuggestLanguage, 0, loggerClient),
		PluginNames:   registry.Names(),
		ReloadTrigger: reloadTrigger,
	}

	// Typed nils must not reach interface fields.
	if cache != nil {
		d.Cache = cache
		d.Plugins = plugins.NewAggregator(registry, store, cache, loggerClient)
		reloader.OnSwap(syncCacheOnSwap(cache, loggerClient))
	} else {
		d.Plugins = plugins.NewAggregator(registry, store, nil, loggerClient)
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		store:       store,
		reloader:    reloader,
	}, nil
}

func headersFromConfig(cfg *config.Config) identity.Headers {
	return identity.Headers{
		User:   cfg.HeaderUser,
		Name:   cfg.HeaderName,
		Email:  cfg.HeaderEmail,
		Groups: cfg.HeaderGroups,
	}
}

// payloadCache is the part of the Redis store the reload hook needs.
type payloadCache interface {
	InvalidatePayload(ctx context.Context, plugin, service string) error
	PrunePayloads(ctx context.Context, keep func(plugin, service string) bool) (int, error)
}

// syncCacheOnSwap drops cached payloads that a reload made stale: services
// whose definition changed (credentials, base URL, visibility) and services
// that no longer exist.
func syncCacheOnSwap(cache payloadCache, log logger.Logger) func(prev, next *domain.Dashboard) {
	return func(prev, next *domain.Dashboard) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for _, s := range changedPluginServices(prev, next) {
			if err := cache.InvalidatePayload(ctx, s.Plugin, s.Name); err != nil {
				log.Warn("failed to invalidate plugin payload",
					logger.String("plugin", s.Plugin),
					logger.String("service", s.Name),
					logger.Error(err))
			}
		}

		n, err := cache.PrunePayloads(ctx, func(plugin, service string) bool {
			_, ok := next.FindService(service, plugin)
			return ok
		})
		if err != nil {
			log.Warn("failed to prune plugin cache after reload", logger.Error(err))
			return
		}
		log.Debug("plugin cache pruned after reload", logger.Int("keys", n))
	}
}

// changedPluginServices lists plugin services present in both snapshots
// whose definition differs.
func changedPluginServices(prev, next *domain.Dashboard) []domain.Service {
	var out []domain.Service
	if next == nil {
		return out
	}
	for _, s := range next.Services {
		if s.Plugin == "" {
			continue
		}
		old, ok := prev.FindService(s.Name, s.Plugin)
		if ok && !reflect.DeepEqual(old, s) {
			out = append(out, s)
		}
	}
	return out
}

func (a *App) Run() error {
	a.logger.Infof("Starting Linkus v%s on %s", version.Version, a.cfg.ListenAddr)
	a.logger.Infof("Linkus %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to load dashboard: %w", err)
	}
	a.logger.Info("dashboard loaded",
		logger.String("file", a.cfg.ConfigFile),
		logger.Bool("watch", a.cfg.WatchConfig))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully")
	case err := <-errCh:
		a.reloader.Stop()
		return err
	}

	a.reloader.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("redis closed cleanly")
		}
	}

	a.logger.Info("linkus stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
