package commands

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/leapmodel/internal/loader"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var opts BuildOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild whenever model or directive files change",
		Long: `Run a build, then watch the inputs and the directives directory and
rebuild after changes settle for watch_debounce (default 300ms).

Build errors are reported and watching continues. Changes to leapmodel.yaml
require a restart.`,
		Example: `  # Watch the configured inputs
  leapmodel watch

  # Debounce bursts of saves for one second
  LEAPMODEL_WATCH_DEBOUNCE=1s leapmodel watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return cmdCtx.Watch(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.DumpOut, "dump-out", "", "Write the state dump to this file when resolution fails")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record runs in the state database")

	return cmd
}

// Watch builds once, then rebuilds on relevant file changes until ctx is done.
func (c *CommandContext) Watch(ctx context.Context, opts BuildOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dirs := watchDirs(c.Cfg.Inputs, c.Cfg.DirectivesDir)
	for _, dir := range dirs {
		if err := addTree(watcher, dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	rebuild := func(ctx context.Context) {
		report, err := c.Build(ctx, opts)
		if err != nil {
			if ctx.Err() == nil {
				c.Renderer.Error(err.Error())
			}
			return
		}
		if err := renderBuild(c, report); err != nil {
			c.Logger.Warn("failed to render build", slog.String("error", err.Error()))
		}
	}

	rebuild(ctx)
	c.Renderer.Muted(fmt.Sprintf("Watching %d directories, press Ctrl+C to stop", len(dirs)))

	loop := &watchLoop{
		debounce: c.Cfg.WatchDebounce,
		relevant: relevantChange,
		rebuild:  rebuild,
		logger:   c.Logger,
		onDir: func(dir string) {
			if err := addTree(watcher, dir); err != nil {
				c.Logger.Warn("failed to watch new directory", slog.String("dir", dir), slog.String("error", err.Error()))
			}
		},
	}
	return loop.run(ctx, watcher.Events, watcher.Errors)
}

// watchLoop coalesces file events into debounced rebuilds. Rebuilds run on
// the loop goroutine, so they never overlap.
type watchLoop struct {
	debounce time.Duration
	relevant func(name string) bool
	rebuild  func(ctx context.Context)
	onDir    func(dir string)
	logger   *slog.Logger
}

func (w *watchLoop) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && w.onDir != nil {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.onDir(event.Name)
					continue
				}
			}
			if !w.relevant(event.Name) {
				continue
			}
			w.logger.Debug("change detected", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case <-timer.C:
			w.rebuild(ctx)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// relevantChange reports whether a change to name can affect a build.
func relevantChange(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return loader.Supported(name) || filepath.Ext(name) == ".star"
}

// watchDirs returns the existing directories holding inputs and directives.
// Globs are watched from their first static parent.
func watchDirs(inputs []string, directivesDir string) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if seen[dir] {
			return
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	for _, in := range inputs {
		if i := strings.IndexAny(in, "*?["); i >= 0 {
			add(filepath.Dir(in[:i]))
			continue
		}
		if info, err := os.Stat(in); err == nil && info.IsDir() {
			add(in)
			continue
		}
		add(filepath.Dir(in))
	}
	if directivesDir != "" {
		add(directivesDir)
	}
	return dirs
}

// addTree adds dir and its subdirectories to the watcher, skipping hidden ones.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
