package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/components"
	"studio/internal/config"
	"studio/internal/domain"
	mcpserver "studio/internal/mcp"
	"studio/internal/service"
	"studio/internal/session"
	"studio/internal/storage"
	"studio/internal/surface"
	"studio/internal/symbols"
	"studio/internal/visibility"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no Wails frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no
// GUI. It edits the shared database directly; a running GUI picks the changes
// up through its session watcher. A headless session gives agents the full
// open/edit/save lifecycle without a webview.
func ServeMCP() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data dir: %v", err)
	}

	db, err := storage.New(cfg.DatabasePath(), cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()
	emitter := noopEmitter{}

	protoStore := storage.NewPrototypeStore(db)
	localSymbols := storage.NewLocalSymbolStore(db, domain.ScopePrototype)

	teamBackend := openBackend(logger, cfg.DataDir, "team", cfg.Team)
	orgBackend := openBackend(logger, cfg.DataDir, "org", cfg.Org)
	symbolsSvc := symbols.NewService(logger, localSymbols, teamBackend, orgBackend, cfg.Team.ID, cfg.Org.ID)
	defer symbolsSvc.Close()
	prototypesSvc := service.NewPrototypeService(protoStore, emitter)

	// Headless session so agents can open, edit and save prototypes with the
	// same state machine the GUI uses. There is no frame to wait for, so the
	// frame-ready wait always resolves by timeout.
	registry := components.NewRegistry()
	registry.RegisterBuiltins()
	surf := surface.NewHeadless()
	assetsSvc := service.NewAssetService(logger, cfg.AssetDirs, surf)
	controller := session.NewController(session.Deps{
		Log:               logger,
		Surface:           surf,
		Store:             protoStore,
		Snapshots:         storage.NewDocumentSnapshots(storage.NewSnapshotStore(db)),
		Symbols:           symbolsSvc,
		Assets:            assetsSvc,
		Templates:         registry,
		AllowedWidgets:    registry.AllowList(),
		FrameReadyTimeout: 100 * time.Millisecond,
	})
	controller.Start(ctx)
	defer controller.Close()

	mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter:    emitter,
		Prototypes: prototypesSvc,
		Store:      protoStore,
		Symbols:    symbolsSvc,
		Controller: controller,
		Dimensions: visibility.NewActiveDimensions(emitter),
	})

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
