package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"mercator-hq/saturn/pkg/config"
)

// pricingFile is the on-disk format watched for hot reload. It mirrors the
// pricing section of the main configuration.
type pricingFile struct {
	Models       map[string]config.ModelPriceConfig `yaml:"models"`
	DefaultModel string                             `yaml:"default_model"`
}

// Watcher reloads a price table from a YAML file when the file changes.
// It debounces rapid write sequences (editors often emit several events
// per save) before triggering a reload.
type Watcher struct {
	table    *Table
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher creates a watcher that keeps table in sync with the pricing
// file at path. Call Watch to start it.
func NewWatcher(table *Table, path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		table:    table,
		path:     path,
		debounce: 100 * time.Millisecond,
		watcher:  fsw,
		logger:   logger.With("component", "pricing.watcher"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch loads the file once, then blocks processing change events until
// the context is cancelled or Stop is called.
func (w *Watcher) Watch(ctx context.Context) error {
	defer close(w.doneCh)

	if err := w.reload(); err != nil {
		return fmt.Errorf("initial pricing load: %w", err)
	}

	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.path, err)
	}

	w.logger.Info("pricing watcher started",
		"path", w.path,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	var pending *time.Timer
	var pendingC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("pricing watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("pricing watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			// Debounce: restart the timer on every event in a burst.
			if pending == nil {
				pending = time.NewTimer(w.debounce)
				pendingC = pending.C
			} else {
				if !pending.Stop() {
					<-pending.C
				}
				pending.Reset(w.debounce)
			}

		case <-pendingC:
			pending = nil
			pendingC = nil
			if err := w.reload(); err != nil {
				w.logger.Error("pricing reload failed, keeping previous table", "error", err)
				continue
			}
			w.logger.Info("pricing table reloaded", "path", w.path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// Stop terminates the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

// reload parses the pricing file and swaps the table contents.
func (w *Watcher) reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to read pricing file %q: %w", w.path, err)
	}

	var pf pricingFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse pricing file %q: %w", w.path, err)
	}
	if len(pf.Models) == 0 {
		return fmt.Errorf("pricing file %q contains no models", w.path)
	}

	w.table.Update(pf.Models, pf.DefaultModel)
	return nil
}
