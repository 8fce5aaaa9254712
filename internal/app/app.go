package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"studio/internal/components"
	"studio/internal/config"
	"studio/internal/domain"
	"studio/internal/secret"
	"studio/internal/service"
	"studio/internal/session"
	"studio/internal/sharedstore"
	"studio/internal/storage"
	"studio/internal/surface"
	"studio/internal/symbols"
	"studio/internal/visibility"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context
	log zerolog.Logger
	cfg *config.Config

	db        *storage.DB
	protos    domain.PrototypeStore
	snapshots *storage.SnapshotStore

	surf       *surface.Wails
	controller *session.Controller
	autosaver  *session.Autosaver
	watcher    *sessionWatcher

	prototypes *service.PrototypeService
	symbols    *symbols.Service
	assets     *service.AssetService
	settings   *service.SettingsService
	registry   *components.Registry
	dimensions *visibility.ActiveDimensions
}

// New creates a new App.
func New() *App {
	return &App{}
}

// Emit implements service.EventEmitter over the Wails runtime.
func (a *App) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to load config: %v", err)
		return
	}
	a.cfg = cfg
	a.log = newLogger(cfg.Debug)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to create data dir: %v", err)
		return
	}

	db, err := storage.New(cfg.DatabasePath(), cfg.DataDir)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open database: %v", err)
		return
	}
	a.db = db
	a.protos = storage.NewPrototypeStore(db)
	a.snapshots = storage.NewSnapshotStore(db)
	a.settings = service.NewSettingsService(db)

	// Shared symbol backends; a scope without store config stays nil and the
	// symbol service degrades to local-only behavior.
	teamBackend := openBackend(a.log, cfg.DataDir, "team", cfg.Team)
	orgBackend := openBackend(a.log, cfg.DataDir, "org", cfg.Org)

	localSymbols := storage.NewLocalSymbolStore(db, domain.ScopePrototype)
	a.symbols = symbols.NewService(a.log, localSymbols, teamBackend, orgBackend, cfg.Team.ID, cfg.Org.ID)
	a.symbols.OnChange = func(ctx context.Context) {
		a.Emit(ctx, string(surface.EventSymbolsChanged), nil)
	}

	a.registry = components.NewRegistry()
	a.registry.RegisterBuiltins()

	a.dimensions = visibility.NewActiveDimensions(a)
	a.prototypes = service.NewPrototypeService(a.protos, a)
	a.surf = surface.NewWails(ctx)

	frameTimeout, err := cfg.FrameReadyTimeoutDuration()
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Bad frame_ready_timeout, using default: %v", err)
	}

	a.assets = service.NewAssetService(a.log, cfg.AssetDirs, a.surf)

	a.controller = session.NewController(session.Deps{
		Log:               a.log,
		Surface:           a.surf,
		Store:             a.protos,
		Snapshots:         storage.NewDocumentSnapshots(a.snapshots),
		Symbols:           a.symbols,
		Assets:            a.assets,
		Templates:         a.registry,
		AllowedWidgets:    a.registry.AllowList(),
		FrameReadyTimeout: frameTimeout,
	})
	a.controller.Start(ctx)
	a.controller.Machine().SetNotify(func(state domain.SessionState) {
		a.surf.Emit(ctx, surface.EventSessionChanged, state)
		if state.Status == domain.StatusError {
			a.surf.Emit(ctx, surface.EventSessionError, map[string]string{"error": state.Error})
		}
	})

	a.autosaver = session.NewAutosaver(a.log, a.controller)
	if interval, err := cfg.AutosaveIntervalDuration(); err != nil {
		wailsRuntime.LogErrorf(ctx, "Bad autosave_interval, autosave disabled: %v", err)
	} else if interval > 0 {
		if err := a.autosaver.Start(ctx, interval); err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to start autosave: %v", err)
		}
	}

	if err := a.assets.StartWatcher(ctx); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start asset watcher: %v", err)
	}

	a.watcher = newSessionWatcher(ctx, a)
	a.watcher.Start()
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.autosaver != nil {
		a.autosaver.Stop()
	}
	if a.assets != nil {
		a.assets.Stop()
	}
	if a.controller != nil {
		// Flush unsaved work before the surface goes away.
		if a.controller.Machine().State().Dirty {
			if err := a.controller.Save(ctx); err != nil {
				a.log.Warn().Err(err).Msg("final save on shutdown failed")
			}
		}
		a.controller.Close()
	}
	if a.symbols != nil {
		a.symbols.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// openBackend opens one shared symbol store, resolving the password from the
// OS keychain. Returns nil when the scope has no store configured or the
// connection fails; shared scopes are an enhancement, not a requirement.
func openBackend(log zerolog.Logger, dataDir, scope string, sc config.ScopeConfig) sharedstore.Backend {
	if sc.Store == nil {
		return nil
	}

	cfg := *sc.Store
	if cfg.FilePath != "" && !filepath.IsAbs(cfg.FilePath) {
		cfg.FilePath = filepath.Join(dataDir, cfg.FilePath)
	}

	password := ""
	if cfg.Username != "" {
		if raw, err := keychainPassword(scope, sc.ID); err == nil {
			password = raw
		} else {
			log.Warn().Str("scope", scope).Err(err).Msg("no keychain password for shared store")
		}
	}

	backend, err := sharedstore.NewBackend(&cfg, password)
	if err != nil {
		log.Warn().Str("scope", scope).Err(err).Msg("shared store unavailable")
		return nil
	}
	if err := backend.TestConnection(context.Background()); err != nil {
		log.Warn().Str("scope", scope).Err(err).Msg("shared store unreachable")
		backend.Close()
		return nil
	}
	return backend
}

// keychainPassword looks up the password for a shared store in the OS
// keychain under a per-scope key.
func keychainPassword(scope, id string) (string, error) {
	raw, err := secret.NewKeychainStore().Get("sharedstore:" + scope + ":" + id)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
