package dashboard

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/logger"
	"github.com/MrSnakeDoc/linkus/internal/metrics"
)

// debounce coalesces the burst of events editors emit for one save.
const debounce = 250 * time.Millisecond

// Reloader keeps the Store in sync with the document on disk.
type Reloader struct {
	loader        *Loader
	mapper        *Mapper
	store         *Store
	logger        logger.Logger
	watch         bool
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
	watcher       *fsnotify.Watcher
	onSwap        []func(prev, next *domain.Dashboard)
	mu            sync.Mutex // serializes reloads
}

// NewReloader creates a reloader. manualTrigger may be nil.
func NewReloader(
	loader *Loader,
	store *Store,
	log logger.Logger,
	watch bool,
	manualTrigger chan struct{},
) *Reloader {
	return &Reloader{
		loader:        loader,
		mapper:        NewMapper(),
		store:         store,
		logger:        log,
		watch:         watch,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// OnSwap registers fn to run after every successful reload that replaced an
// existing snapshot. Register before Start.
func (r *Reloader) OnSwap(fn func(prev, next *domain.Dashboard)) {
	r.onSwap = append(r.onSwap, fn)
}

// Start ensures the file exists, performs the initial load and then follows
// file changes and manual triggers until Stop or ctx cancellation.
func (r *Reloader) Start(ctx context.Context) error {
	copied, err := r.loader.EnsureFile()
	if err != nil {
		return err
	}
	if copied {
		r.logger.Warn("config file missing, example copied into place",
			logger.String("file", r.loader.Path()))
	}

	// Load immediately on start
	if err := r.Reload(); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	if r.watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		// Watch the directory: editors and ConfigMaps replace the file.
		if err := w.Add(filepath.Dir(r.loader.Path())); err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to watch config directory: %w", err)
		}
		r.watcher = w
		events, errs = w.Events, w.Errors
		r.logger.Info("watching config file for changes",
			logger.String("file", r.loader.Path()))
	}

	go r.loop(ctx, events, errs)
	return nil
}

func (r *Reloader) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !r.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			r.logger.Info("config file changed, reloading")
			r.reloadLogged()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.logger.Warn("config watcher error", logger.Error(err))
		case <-r.manualTrigger:
			r.logger.Info("manual reload triggered")
			r.reloadLogged()
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reloader) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	return base == filepath.Base(r.loader.Path()) || base == "..data"
}

func (r *Reloader) reloadLogged() {
	if err := r.Reload(); err != nil {
		r.logger.Error("failed to reload config, keeping previous snapshot",
			logger.Error(err))
	}
}

// Stop stops the reloader. Safe to call more than once.
func (r *Reloader) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if r.watcher != nil {
			_ = r.watcher.Close()
		}
	})
}

// Reload reads, validates and atomically installs a new snapshot.
// On failure the current snapshot stays in place.
func (r *Reloader) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loader.Load()
	if err != nil {
		metrics.ConfigReloads.WithLabelValues("failure").Inc()
		return err
	}

	next, err := r.mapper.Map(doc, r.loader.Path())
	if err != nil {
		metrics.ConfigReloads.WithLabelValues("failure").Inc()
		return fmt.Errorf("invalid config: %w", err)
	}

	prev := r.store.Swap(next)
	metrics.ConfigReloads.WithLabelValues("success").Inc()
	metrics.ConfigServices.Set(float64(len(next.Services)))

	r.logger.Info("config loaded",
		logger.Int("services", len(next.Services)),
		logger.Int("categories", len(next.Categories)),
		logger.Int("alerts", len(next.Alerts)))

	if prev != nil {
		for _, fn := range r.onSwap {
			fn(prev, next)
		}
	}
	return nil
}
