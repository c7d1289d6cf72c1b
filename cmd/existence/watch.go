package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/laev/existence/internal/api"
	"github.com/laev/existence/internal/auth"
	"github.com/laev/existence/internal/config"
	"github.com/laev/existence/internal/engine"
	"github.com/laev/existence/internal/source"
	"github.com/laev/existence/internal/store"
)

const shutdownTimeout = 5 * time.Second

// watcher re-evaluates phenomena whenever the config changes or a source is
// polled, keeping the store current for the HTTP API.
type watcher struct {
	eng *engine.Engine
	st  *store.Store

	outMu sync.Mutex
	out   io.Writer

	mu          sync.Mutex
	stopSources context.CancelFunc
	sources     sync.WaitGroup
}

// runWatch blocks until ctx is cancelled. Server settings (http_addr, ttl) are
// read once at start; phenomena, sources and the default threshold follow
// config reloads.
func runWatch(ctx context.Context, path string, cfg *config.Config, stdout io.Writer) int {
	w := &watcher{
		eng: engine.New(),
		st:  store.New(cfg.Server.TTL),
		out: stdout,
	}
	go w.st.Run(ctx)

	w.apply(ctx, cfg, nil)

	if addr := cfg.Server.HTTPAddr; addr != "" {
		a := cfg.Server.Auth
		if a.Mode == "apikey" && a.Key() == "" {
			slog.Warn("http api: apikey mode but key variable is empty, auth disabled", "key_env", a.KeyEnv)
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           auth.APIKey(a.Mode, a.Header, a.Key(), api.New(w.st)),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("http api listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http api stopped", "err", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				slog.Warn("http api shutdown", "err", err)
			}
		}()
	}

	go func() {
		if err := config.Watch(ctx, path, func(updated *config.Config, d config.Diff) {
			w.apply(ctx, updated, d.RemovedPhenomena)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	<-ctx.Done()
	w.stop()
	slog.Info("existence shutting down")
	return exitOK
}

// apply evaluates the configured phenomena of cfg, drops the removed ones,
// and restarts source polling with cfg's sources.
func (w *watcher) apply(ctx context.Context, cfg *config.Config, removed []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, id := range removed {
		w.eng.Forget(id)
		w.st.Delete(id)
		slog.Info("phenomenon removed", "phenomenon", id)
	}

	w.record(w.eng.ProcessAll(engine.FromConfig(cfg), time.Now().UTC()))

	w.stopSourcesLocked()
	sctx, cancel := context.WithCancel(ctx)
	w.stopSources = cancel
	for _, src := range cfg.Sources {
		w.sources.Add(1)
		go func(src config.Source) {
			defer w.sources.Done()
			w.poll(sctx, src, cfg.Threshold)
		}(src)
	}
}

// poll reads src immediately and then every src.Interval until ctx is done.
func (w *watcher) poll(ctx context.Context, src config.Source, def float64) {
	reader, err := source.New(src)
	if err != nil {
		slog.Error("skipping source, could not build reader", "source", src.ID, "err", err)
		return
	}
	slog.Info("polling source", "source", src.ID, "endpoint", src.Endpoint, "interval", src.Interval)

	t := time.NewTicker(src.Interval)
	defer t.Stop()
	for {
		reading, err := reader.Read(ctx)
		switch {
		case err == nil:
			w.record(w.eng.ProcessAll(engine.FromReading(reading, def), time.Now().UTC()))
		case ctx.Err() == nil:
			slog.Warn("source read failed", "source", src.ID, "err", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// record stores results and prints those that changed verdict or failed.
func (w *watcher) record(results []*engine.Result) {
	w.st.PutAll(results)

	w.outMu.Lock()
	defer w.outMu.Unlock()
	for _, r := range results {
		if r.Changed || r.Err != "" {
			fmt.Fprintln(w.out, formatResult(r))
		}
	}
}

func (w *watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopSourcesLocked()
}

func (w *watcher) stopSourcesLocked() {
	if w.stopSources != nil {
		w.stopSources()
		w.sources.Wait()
		w.stopSources = nil
	}
}
