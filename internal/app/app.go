// Package app provides the main application structure and coordination
// for the Settler settings panel. It wires the descriptor table, the
// config store, the reconciliation engine, and the terminal panel, and
// manages the application lifecycle.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/settler/internal/descriptor"
	"github.com/dshills/settler/internal/panel"
	"github.com/dshills/settler/internal/preset"
	"github.com/dshills/settler/internal/reconcile"
	"github.com/dshills/settler/internal/store"
	"github.com/dshills/settler/internal/store/jsonfile"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the settings file. When empty the
	// default user config location is used.
	ConfigPath string

	// PresetPath points to a TOML or Lua preset file. When empty the
	// built-in recommended preset is used.
	PresetPath string

	// InMemory disables file persistence and keeps settings in a
	// process-local store.
	InMemory bool

	// QuietPeriod overrides the debounce quiet period. Zero keeps the
	// default.
	QuietPeriod time.Duration

	// LogLevel sets the logging verbosity.
	LogLevel string

	// Debug enables debug mode with extra logging.
	Debug bool
}

// Application is the central coordinator for all Settler components.
type Application struct {
	mu sync.Mutex

	opts   Options
	logger *Logger

	table   *descriptor.Table
	store   store.Store
	presets []preset.Preset
	panels  *panel.Registry

	screen tcell.Screen
	panel  *panel.Panel
	engine *reconcile.Engine

	closed bool
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:   opts,
		logger: GetLogger(),
		panels: panel.NewRegistry(),
	}

	if opts.Debug {
		app.logger.SetLevel(LogLevelDebug)
	} else if opts.LogLevel != "" {
		app.logger.SetLevel(ParseLogLevel(opts.LogLevel))
	}

	if err := app.bootstrap(); err != nil {
		return nil, err
	}

	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	app.table = descriptor.Builtin()

	if app.opts.InMemory {
		app.store = store.NewMemory()
	} else {
		path, err := app.configPath()
		if err != nil {
			return &InitError{Component: "config path", Err: err}
		}
		st, err := jsonfile.Open(path)
		if err != nil {
			return &InitError{Component: "settings store", Err: err}
		}
		app.store = st
		app.logger.WithComponent("store").Debug("settings file: %s", path)
	}

	presets, err := app.loadPresets()
	if err != nil {
		// Preset load errors are non-fatal; fall back to the built-in.
		app.logger.WithComponent("preset").Warn("load failed: %v", err)
		presets = []preset.Preset{preset.Recommended()}
	}
	app.presets = presets

	return nil
}

// configPath resolves the settings file location.
func (app *Application) configPath() (string, error) {
	if app.opts.ConfigPath != "" {
		return app.opts.ConfigPath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "settler", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// loadPresets reads the preset file named by the options, choosing the
// parser by extension.
func (app *Application) loadPresets() ([]preset.Preset, error) {
	if app.opts.PresetPath == "" {
		return []preset.Preset{preset.Recommended()}, nil
	}
	switch strings.ToLower(filepath.Ext(app.opts.PresetPath)) {
	case ".toml":
		return preset.LoadTOML(app.opts.PresetPath, app.table)
	case ".lua":
		return preset.LoadLua(app.opts.PresetPath, app.table)
	default:
		return nil, fmt.Errorf("unsupported preset format %q", filepath.Ext(app.opts.PresetPath))
	}
}

// SetScreen injects a screen instead of letting Run create one. Tests
// use it with tcell's simulation screen.
func (app *Application) SetScreen(screen tcell.Screen) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.screen = screen
}

// Run starts the panel and blocks until the user quits.
func (app *Application) Run() error {
	if err := app.start(); err != nil {
		return err
	}
	app.panel.Run()
	return nil
}

// start brings up the screen, the panel, and the engine. It is split
// from Run so tests can exercise the wiring without an event loop.
func (app *Application) start() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.closed {
		return reconcile.ErrClosed
	}
	if app.engine != nil {
		return nil
	}

	if app.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return &InitError{Component: "terminal", Err: err}
		}
		if err := screen.Init(); err != nil {
			return &InitError{Component: "terminal", Err: err}
		}
		app.screen = screen
	}

	p, created, err := app.panels.Acquire("settings", func() (*panel.Panel, error) {
		return panel.New(app.screen, app.table, panel.Callbacks{
			Commit:      app.commit,
			ApplyPreset: app.applyPreset,
			Reset:       app.reset,
		}), nil
	})
	if err != nil {
		return &InitError{Component: "panel", Err: err}
	}
	app.panel = p
	if created {
		app.logger.WithComponent("panel").Debug("panel %s created", p.ID())
	}

	var engineOpts []reconcile.Option
	if app.opts.QuietPeriod > 0 {
		engineOpts = append(engineOpts, reconcile.WithQuietPeriod(app.opts.QuietPeriod))
	}
	app.engine = reconcile.New(app.table, app.store, app.panel, engineOpts...)
	app.engine.Start()

	return nil
}

// commit forwards a finalized panel change to the engine.
func (app *Application) commit(key string, raw any) error {
	err := app.engine.OnUserCommit(key, raw)
	if err != nil {
		app.logger.WithComponent("engine").Warn("commit %s: %v", key, err)
	}
	return err
}

// applyPreset applies the first loaded preset.
func (app *Application) applyPreset() error {
	if len(app.presets) == 0 {
		return nil
	}
	return app.engine.ApplyPreset(app.presets[0])
}

// reset clears every managed override.
func (app *Application) reset() error {
	return app.engine.Reset()
}

// Presets returns the loaded presets.
func (app *Application) Presets() []preset.Preset {
	return app.presets
}

// Engine returns the reconciliation engine, or nil before Run.
func (app *Application) Engine() *reconcile.Engine {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.engine
}

// Panel returns the active panel, or nil before Run.
func (app *Application) Panel() *panel.Panel {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.panel
}

// Shutdown stops all components. It is safe to call multiple times and
// on all exit paths.
func (app *Application) Shutdown() {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.closed {
		return
	}
	app.closed = true

	if app.engine != nil {
		app.engine.Close()
	}
	if app.panel != nil {
		app.panels.Release("settings")
		app.panel = nil
	}
	if app.store != nil {
		if err := app.store.Close(); err != nil {
			app.logger.WithComponent("store").Error("close: %v", err)
		}
	}
	if app.screen != nil {
		app.screen.Fini()
		app.screen = nil
	}
}
