package save

import (
	"go.uber.org/zap"

	"github.com/ironkeep/worldkeeper/internal/world"
)

// AutoSave saves the world every N ticks of the caller's loop. Tick runs on
// the loop goroutine, between turns, so the world is quiescent while it saves.
type AutoSave struct {
	m         *Manager
	player    func() *world.Entity
	log       *zap.Logger
	tickCount int
	interval  int // save every N ticks, 0 = off
}

func NewAutoSave(m *Manager, player func() *world.Entity, log *zap.Logger, intervalTicks int) *AutoSave {
	return &AutoSave{
		m:        m,
		player:   player,
		log:      log,
		interval: intervalTicks,
	}
}

// Tick counts one turn and saves when the interval is reached. It reports
// whether a save ran.
func (a *AutoSave) Tick() (bool, error) {
	if a.interval <= 0 {
		return false, nil
	}
	a.tickCount++
	if a.tickCount < a.interval {
		return false, nil
	}
	a.tickCount = 0
	if err := a.m.Save(a.player()); err != nil {
		a.log.Error("autosave failed", zap.Error(err))
		return false, err
	}
	return true, nil
}
