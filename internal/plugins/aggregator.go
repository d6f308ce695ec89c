package plugins

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/goccy/go-json"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/logger"
	"github.com/MrSnakeDoc/linkus/internal/metrics"
)

// Snapshotter returns the active dashboard.
type Snapshotter interface {
	Load() *domain.Dashboard
}

// Cache stores encoded payloads. Implemented by store/redis.Store.
type Cache interface {
	GetPayload(ctx context.Context, plugin, service string) ([]byte, error)
	SetPayload(ctx context.Context, plugin, service string, data []byte, ttl time.Duration) error
}

// Aggregator resolves a (plugin, service) pair, applies the access gate and
// runs the registered fetch routine.
type Aggregator struct {
	registry *Registry
	store    Snapshotter
	cache    Cache // nil = every request is fresh
	logger   logger.Logger
}

func NewAggregator(registry *Registry, store Snapshotter, cache Cache, log logger.Logger) *Aggregator {
	return &Aggregator{
		registry: registry,
		store:    store,
		cache:    cache,
		logger:   log,
	}
}

// emptyPayload is returned for client-rendered plugins.
var emptyPayload = map[string]any{}

// Run returns the payload of plugin for the service named serviceName.
// Errors are *domain.Error; not found and forbidden wrap the matching sentinels.
func (a *Aggregator) Run(ctx context.Context, plugin, serviceName string, id domain.Identity) (any, error) {
	if a.registry.IsClientSide(plugin) {
		metrics.PluginRequests.WithLabelValues(plugin, "client_side").Inc()
		return emptyPayload, nil
	}

	fetch, ok := a.registry.Lookup(plugin)
	if !ok {
		metrics.PluginRequests.WithLabelValues("unknown", "not_found").Inc()
		return nil, domain.Wrap(domain.KindValidation, "plugins.Run", domain.ErrNotFound,
			fmt.Sprintf("Plugin %s not found", plugin))
	}

	svc, ok := a.store.Load().FindService(serviceName, plugin)
	if !ok {
		metrics.PluginRequests.WithLabelValues(plugin, "not_found").Inc()
		return nil, domain.Wrap(domain.KindValidation, "plugins.Run", domain.ErrNotFound,
			fmt.Sprintf("Service %s with plugin %s not found", serviceName, plugin))
	}

	if !domain.IsAuthorized(id, svc.Visibility) {
		metrics.PluginRequests.WithLabelValues(plugin, "forbidden").Inc()
		a.logger.Warn("plugin access denied",
			logger.String("plugin", plugin),
			logger.String("service", serviceName),
			logger.String("user", id.User))
		return nil, domain.Wrap(domain.KindValidation, "plugins.Run", domain.ErrForbidden, "Forbidden")
	}

	ttl := svc.UpdateInterval()
	if cached, ok := a.cached(ctx, plugin, serviceName, ttl); ok {
		metrics.PluginRequests.WithLabelValues(plugin, "cache_hit").Inc()
		return cached, nil
	}

	start := time.Now()
	payload, err := a.safeFetch(ctx, fetch, plugin, svc)
	if err != nil {
		metrics.PluginRequests.WithLabelValues(plugin, "error").Inc()
		a.logger.Error("plugin fetch failed",
			logger.String("plugin", plugin),
			logger.String("service", serviceName),
			logger.String("kind", domain.KindOf(err).String()),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
		return nil, err
	}

	metrics.PluginRequests.WithLabelValues(plugin, "ok").Inc()
	a.logger.Debug("plugin fetched",
		logger.String("plugin", plugin),
		logger.String("service", serviceName),
		logger.Duration("elapsed", time.Since(start)))

	a.remember(ctx, plugin, serviceName, payload, ttl)
	return payload, nil
}

// safeFetch keeps a panicking routine from reaching the transport layer.
func (a *Aggregator) safeFetch(ctx context.Context, fetch FetchFunc, plugin string, svc domain.Service) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("plugin fetch panicked",
				logger.String("plugin", plugin),
				logger.String("service", svc.Name),
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())))
			payload = nil
			err = domain.Errorf(domain.KindTransport, plugin, "Plugin %s failed: %v", plugin, r)
		}
	}()
	return fetch(ctx, svc)
}

func (a *Aggregator) cached(ctx context.Context, plugin, service string, ttl time.Duration) (any, bool) {
	if a.cache == nil || ttl <= 0 {
		return nil, false
	}
	data, err := a.cache.GetPayload(ctx, plugin, service)
	if err != nil {
		a.logger.Warn("plugin cache read failed", logger.String("plugin", plugin), logger.Error(err))
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	return json.RawMessage(data), true
}

func (a *Aggregator) remember(ctx context.Context, plugin, service string, payload any, ttl time.Duration) {
	if a.cache == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		a.logger.Warn("plugin payload not cacheable", logger.String("plugin", plugin), logger.Error(err))
		return
	}
	if err := a.cache.SetPayload(ctx, plugin, service, data, ttl); err != nil {
		a.logger.Warn("plugin cache write failed", logger.String("plugin", plugin), logger.Error(err))
	}
}
