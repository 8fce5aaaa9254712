package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"studio/internal/domain"
)

// Autosaver drives periodic save ticks against a controller. A tick that
// lands while the session is saving or switching pages is dropped; the dirty
// flag survives, so the next tick retries.
type Autosaver struct {
	log        zerolog.Logger
	cron       *cron.Cron
	controller *Controller
	entry      cron.EntryID
}

func NewAutosaver(log zerolog.Logger, controller *Controller) *Autosaver {
	return &Autosaver{
		log:        log.With().Str("component", "autosave").Logger(),
		cron:       cron.New(),
		controller: controller,
	}
}

// Start schedules the autosave tick. Interval must be at least one second.
func (a *Autosaver) Start(ctx context.Context, interval time.Duration) error {
	if interval < time.Second {
		return fmt.Errorf("autosave interval too short: %s", interval)
	}
	spec := fmt.Sprintf("@every %s", interval)
	entry, err := a.cron.AddFunc(spec, func() { a.tick(ctx) })
	if err != nil {
		return fmt.Errorf("schedule autosave: %w", err)
	}
	a.entry = entry
	a.cron.Start()
	a.log.Info().Str("interval", interval.String()).Msg("autosave scheduled")
	return nil
}

func (a *Autosaver) tick(ctx context.Context) {
	state := a.controller.Machine().State()
	if state.Status != domain.StatusReady || !state.Dirty {
		return
	}
	if err := a.controller.Save(ctx); err != nil {
		a.log.Warn().Err(err).Msg("autosave failed")
	}
}

// Stop halts the schedule and waits for a running tick to finish.
func (a *Autosaver) Stop() {
	stopCtx := a.cron.Stop()
	<-stopCtx.Done()
}
