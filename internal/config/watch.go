package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/dshills/inkwell/internal/watcher"
)

// DefaultReloadDelay coalesces the writes of one save.
const DefaultReloadDelay = 100 * time.Millisecond

// Watch reloads the configuration at path whenever the file changes and
// passes the result to fn, until ctx is done. A reload that fails to
// parse or validate reaches fn as an error; callers keep their previous
// configuration.
func Watch(ctx context.Context, path string, fn func(*Config, error), opts ...LoadOption) error {
	w, err := watcher.New(watcher.WithDebounce(DefaultReloadDelay))
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if ev.Op == watcher.OpChmod {
				continue
			}
			slog.Debug("config changed", "path", ev.Path, "op", ev.Op.String())
			fn(Load(path, opts...))
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			fn(nil, err)
		}
	}
}
