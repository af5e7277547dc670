package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/chazu/selvage/pkg/config"
)

// watcher re-parses one file after it changes. Change events only mark the
// file stale; the reload loop coalesces them and is throttled by a limiter.
type watcher struct {
	s       *session
	cfg     config.Config
	path    string
	limiter *rate.Limiter
	stale   chan struct{}
	reload  func(ctx context.Context) error
}

func newWatcher(s *session, cfg config.Config, path string, every time.Duration) *watcher {
	if every <= 0 {
		every = time.Second
	}
	w := &watcher{
		s:       s,
		cfg:     cfg,
		path:    path,
		limiter: rate.NewLimiter(rate.Every(every), 1),
		stale:   make(chan struct{}, 1),
	}
	w.reload = w.parseOnce
	return w
}

// markStale never blocks; a pending reload already covers the change.
func (w *watcher) markStale() {
	select {
	case w.stale <- struct{}{}:
	default:
	}
}

// parseOnce runs a batch parse. Failures are logged and the watch goes on.
func (w *watcher) parseOnce(ctx context.Context) error {
	p, err := w.s.parse(ctx, w.path, w.cfg)
	if err != nil {
		w.s.log.Error("reload failed", "path", w.path, "error", err)
		return err
	}
	defer p.Close()
	sum := summarize(p)
	w.s.log.Info("reloaded", "path", w.path, "tools", sum.Tools, "pieces", len(sum.Pieces),
		"collected", len(sum.Collected))
	return nil
}

// reloadLoop drains stale marks until ctx is done.
func (w *watcher) reloadLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stale:
		}
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
		_ = w.reload(ctx)
	}
}

// relevant reports whether ev touches the watched file. Editors often
// replace the file, so create and rename count as well as write.
func (w *watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (w *watcher) run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	// The directory is watched so the file survives being replaced.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	done := make(chan error, 1)
	go func() { done <- w.reloadLoop(ctx) }()
	w.markStale()

	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				w.s.log.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
				w.markStale()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.s.log.Warn("watch error", "error", err)
		}
	}
}

func runWatchCommand(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	cfg := s.cfg
	cfg.Interactive = false

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	s.log.Info("watching", "path", path)
	return newWatcher(s, cfg, path, s.cfg.RefreshDelay).run(ctx)
}
