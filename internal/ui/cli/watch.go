package cli

import (
	"context"
	"log/slog"
	coreapp "nsresolver/internal/core/app"
	"nsresolver/internal/core/config"
	"nsresolver/internal/core/watcher"
	"nsresolver/internal/data/workspace"
	"nsresolver/internal/shared/observability"
	"nsresolver/internal/shared/util"
	"sort"
	"time"
)

const limiterTTL = 10 * time.Minute

// sortOnChange re-sorts the imports of files reported by the watcher. Each
// file has its own rate limit so the write caused by a sort, or an editor
// saving in a loop, cannot keep the watcher busy.
type sortOnChange struct {
	ctx      context.Context
	resolver *coreapp.Resolver
	ws       *workspace.Workspace
	limiters *util.LimiterRegistry
}

func (h *sortOnChange) handle(paths []string) {
	cfg := h.resolver.Config()
	if !cfg.Resolver.AutoSortEnabled() {
		return
	}
	exclude, err := workspace.CompileExclude(cfg.Resolver.Exclude)
	if err != nil {
		slog.Warn("ignoring invalid exclude pattern", "pattern", cfg.Resolver.Exclude, "error", err)
	}

	sort.Strings(paths)
	for _, path := range paths {
		if h.ctx.Err() != nil {
			return
		}
		if workspace.Excluded(exclude, util.RelativePatternPath(h.ws.Root(), path)) {
			slog.Debug("skipping excluded file", "path", path)
			continue
		}
		if !h.limiters.Get(path).Allow(1) {
			observability.WatchSortsThrottledTotal.Inc()
			slog.Debug("sort throttled", "path", path)
			continue
		}

		h.ws.Forget(path)
		changed, err := h.resolver.SortFile(h.ctx, path)
		if err != nil {
			slog.Warn("failed to sort imports", "path", path, "error", err)
			continue
		}
		if changed {
			slog.Info("imports sorted", "path", path)
		}
	}
}

// runWatch keeps sorting imports of changed PHP files until ctx is done.
func runWatch(ctx context.Context, resolver *coreapp.Resolver, ws *workspace.Workspace, cfgPath string) int {
	cfg := resolver.Config()

	limiters := util.NewLimiterRegistry(cfg.Watch.RatePerSecond, cfg.Watch.Burst, limiterTTL)
	defer limiters.Close()

	handler := &sortOnChange{ctx: ctx, resolver: resolver, ws: ws, limiters: limiters}
	w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Watch.ExcludeDirs, handler.handle)
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		return 1
	}
	defer w.Close()

	if err := w.Watch([]string{ws.Root()}); err != nil {
		slog.Error("failed to start watcher", "root", ws.Root(), "error", err)
		return 1
	}

	if cfg.Observability.Enabled {
		server := NewObservabilityServer(cfg.Observability.Address, coreapp.NewHealthService(resolver, ws.Root()))
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				slog.Warn("observability server shutdown failed", "error", err)
			}
		}()
	}

	if cfgPath != "" {
		cw := config.NewWatcher(cfgPath, func(next *config.Config) {
			resolver.SetConfig(next)
			w.SetDebounce(next.Watch.Debounce)
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config hot reload unavailable", "path", cfgPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	slog.Info("watching for PHP changes", "root", ws.Root(), "auto_sort", cfg.Resolver.AutoSortEnabled())
	<-ctx.Done()
	slog.Info("watcher stopped")
	return 0
}
