package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"studio/internal/session"
	"studio/internal/surface"
)

// ─────────────────────────────────────────────────────────────
// Asset Service — custom stylesheets/scripts for the frame
// ─────────────────────────────────────────────────────────────

// AssetService loads the user's custom stylesheets and scripts from the
// configured asset directories and hot-reloads them into the rendering frame
// when a file changes on disk.
type AssetService struct {
	log  zerolog.Logger
	dirs []string
	surf surface.Surface

	reloads runningJobsGuard

	// watcher lifecycle
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
}

// NewAssetService creates an AssetService over the given directories.
func NewAssetService(log zerolog.Logger, dirs []string, surf surface.Surface) *AssetService {
	return &AssetService{
		log:  log.With().Str("component", "assets").Logger(),
		dirs: dirs,
		surf: surf,
	}
}

// LoadAll reads every .css and .js file across the asset directories, sorted
// by file name so injection order is stable. A missing directory is skipped;
// an unreadable file fails the whole load so the caller can retry.
func (s *AssetService) LoadAll(_ context.Context) ([]session.Asset, error) {
	var paths []string
	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read asset dir %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if kindForFile(e.Name()) == "" {
				continue
			}
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		return filepath.Base(paths[i]) < filepath.Base(paths[j])
	})

	assets := make([]session.Asset, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read asset %s: %w", p, err)
		}
		assets = append(assets, session.Asset{
			Kind:    kindForFile(p),
			Name:    filepath.Base(p),
			Content: string(content),
		})
	}
	return assets, nil
}

func kindForFile(name string) surface.AssetKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".css":
		return surface.AssetStylesheet
	case ".js":
		return surface.AssetScript
	default:
		return ""
	}
}

// ── Hot reload ─────────────────────────────────────────────

// StartWatcher watches the asset directories and re-injects everything after
// a change settles. Safe to call with no directories configured.
func (s *AssetService) StartWatcher(ctx context.Context) error {
	s.Stop()
	if len(s.dirs) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("asset watcher: %w", err)
	}
	s.watcher = watcher

	watched := 0
	for _, dir := range s.dirs {
		if err := watcher.Add(dir); err != nil {
			s.log.Warn().Err(err).Str("dir", dir).Msg("asset dir not watchable")
			continue
		}
		watched++
	}
	if watched == 0 {
		watcher.Close()
		s.watcher = nil
		return nil
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel

	go func() {
		var timer *time.Timer
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
					continue
				}
				if kindForFile(event.Name) == "" {
					continue
				}
				// Let rapid successive writes settle before reloading.
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(500*time.Millisecond, func() {
					s.reload(ctx)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn().Err(err).Msg("asset watcher error")
			}
		}
	}()

	s.log.Info().Int("dirs", watched).Msg("asset watcher started")
	return nil
}

func (s *AssetService) reload(ctx context.Context) {
	if !s.reloads.TryLock("asset-reload") {
		return
	}
	defer s.reloads.Unlock("asset-reload")

	assets, err := s.LoadAll(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("asset reload failed")
		return
	}
	for _, a := range assets {
		s.surf.InjectAsset(ctx, a.Kind, a.Name, a.Content)
	}
	s.surf.RefreshFrame(ctx)
	s.surf.Emit(ctx, surface.EventAssetsReloaded, map[string]int{"count": len(assets)})
	s.log.Debug().Int("count", len(assets)).Msg("assets reloaded")
}

// WaitRunning blocks until an in-flight reload finishes or ctx is cancelled.
func (s *AssetService) WaitRunning(ctx context.Context) {
	s.reloads.WaitAll(ctx)
}

// Stop tears down the watcher.
func (s *AssetService) Stop() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
}
