package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chazu/selvage/pkg/config"
	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/metrics"
	"github.com/chazu/selvage/pkg/pattern"
	"github.com/chazu/selvage/pkg/snapshot"
)

// session holds what every command shares: settings, logger, metrics and
// the snapshot store used before collection.
type session struct {
	cfg     config.Config
	log     *slog.Logger
	reg     *prometheus.Registry
	metrics *metrics.Metrics
	snaps   snapshot.Snapshotter
	closers []func() error
}

func openSession(stderr io.Writer) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	s := &session{cfg: cfg, log: newLogger(stderr, cfg.Log), reg: prometheus.NewRegistry()}
	s.reg.MustRegister(collectors.NewGoCollector())
	if s.metrics, err = metrics.New(s.reg, nil); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	if s.snaps, err = s.openSnapshots(); err != nil {
		return nil, err
	}
	if cfg.Metrics.Addr != "" {
		s.serveMetrics(cfg.Metrics.Addr)
	}
	return s, nil
}

// newLogger picks a text handler for terminals and JSON otherwise, unless
// the format is forced.
func newLogger(w io.Writer, lc config.Log) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	text := lc.Format == "text"
	if lc.Format == "" || lc.Format == "auto" {
		if f, ok := w.(*os.File); ok {
			text = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}
	if text {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func (s *session) openSnapshots() (snapshot.Snapshotter, error) {
	switch s.cfg.Backup.Kind {
	case "badger":
		b, err := snapshot.OpenBadger(s.cfg.Backup.Dir, s.log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, b.Close)
		return b, nil
	case "none":
		return snapshot.Nop{}, nil
	default:
		return snapshot.File{Dir: s.cfg.Backup.Dir}, nil
	}
}

func (s *session) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	s.log.Info("serving metrics", "addr", addr)
	s.closers = append(s.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.log.Warn("close failed", "error", err)
		}
	}
}

// open loads path and builds a batch orchestrator for it.
func (s *session) open(path string, cfg config.Config) (*pattern.Pattern, error) {
	d, err := doc.Load(path)
	if err != nil {
		return nil, err
	}
	return pattern.New(d, pattern.Options{
		Config:    cfg,
		Snapshots: s.snaps,
		Metrics:   s.metrics,
		Logger:    s.log,
	})
}

// parse runs a full parse of path and waits for formula checks, collection
// and the geometry refresh to finish.
func (s *session) parse(ctx context.Context, path string, cfg config.Config) (*pattern.Pattern, error) {
	p, err := s.open(path, cfg)
	if err != nil {
		return nil, err
	}
	if err := p.FullParseTree(ctx); err != nil {
		p.Close()
		return nil, err
	}
	if err := p.Settle(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}
