package internal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/gnolang/reroll/internal/types"
	"github.com/gnolang/reroll/scanner"
)

// settle is how long the watcher waits for more writes before it re-lints,
// so that a burst of writes from an editor is processed once.
const settle = 100 * time.Millisecond

// ReportFunc receives the issues of a re-linted file.
type ReportFunc func(filename string, issues []tt.Issue)

// Watch re-lints the .go and .gno files under dirs whenever they are
// written, until ctx is done.
func (e *Engine) Watch(ctx context.Context, logger *zap.Logger, dirs []string, report ReportFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range dirs {
		subdirs, err := scanner.New(dir).Dirs()
		if err != nil {
			return err
		}
		for _, sub := range subdirs {
			if err := watcher.Add(sub); err != nil {
				return fmt.Errorf("error adding directory to watcher: %w", err)
			}
		}
	}
	logger.Info("Watching for changes", zap.Strings("dirs", dirs))

	pending := make(map[string]bool)
	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watchedEvent(event) {
				continue
			}
			logger.Debug("File changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
			pending[event.Name] = true
			timer.Reset(settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watcher error", zap.Error(err))
		case <-timer.C:
			e.relint(ctx, logger, pending, report)
			pending = make(map[string]bool)
		}
	}
}

func watchedEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return strings.HasSuffix(event.Name, ".go") || strings.HasSuffix(event.Name, ".gno")
}

// relint runs the engine on every pending file, in name order.
func (e *Engine) relint(ctx context.Context, logger *zap.Logger, pending map[string]bool, report ReportFunc) {
	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		e.Invalidate(name)
		issues, err := e.Run(ctx, name)
		if err != nil {
			logger.Error("Error linting file", zap.String("file", name), zap.Error(err))
			continue
		}
		logger.Debug("Linted file", zap.String("file", name), zap.Int("issues", len(issues)))
		report(name, issues)
	}
}
