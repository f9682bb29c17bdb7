// Package save runs the save and load pipelines over a set of registries and
// keeps a bounded history of backups.
//
// Callers must not touch the registries or any live object while Save or
// Load runs. Nothing here locks.
package save

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ironkeep/worldkeeper/internal/config"
	"github.com/ironkeep/worldkeeper/internal/convert"
	"github.com/ironkeep/worldkeeper/internal/record"
	"github.com/ironkeep/worldkeeper/internal/snapshot"
	"github.com/ironkeep/worldkeeper/internal/world"
)

// ErrNoPlayer is returned by callers that need a player and got none.
var ErrNoPlayer = errors.New("no saved player")

// Observer is told about every successful save.
type Observer interface {
	SaveCompleted(ctx context.Context, s Summary) error
}

// Summary describes one completed save.
type Summary struct {
	At     time.Time
	Backup string
	Counts map[string]int // records written per stage
}

// LoadReport describes one completed load.
type LoadReport struct {
	Dir      string
	Counts   map[string]int // objects reconstructed per stage
	Skipped  int
	Dangling int
	Rejected int // references that resolved but did not fit
	// PlayerFrom is the file the player was read from. It differs from the
	// load directory when the player came from a backup.
	PlayerFrom string
}

type Manager struct {
	cfg      config.StorageConfig
	reg      *world.Registries
	log      *zap.Logger
	observer Observer
	now      func() time.Time

	last LoadReport
}

func NewManager(cfg config.StorageConfig, reg *world.Registries, log *zap.Logger) *Manager {
	return &Manager{
		cfg: cfg,
		reg: reg,
		log: log,
		now: time.Now,
	}
}

// SetObserver registers o to be told about each successful save.
func (m *Manager) SetObserver(o Observer) { m.observer = o }

// LastLoad returns the report of the most recent successful load.
func (m *Manager) LastLoad() LoadReport { return m.last }

func (m *Manager) ensureDirs() error {
	if err := os.MkdirAll(m.cfg.SaveDir, 0o755); err != nil {
		return fmt.Errorf("create save directory: %w", err)
	}
	if err := os.MkdirAll(m.cfg.BackupDir, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	return nil
}

// Save writes every stage of the pipeline, copies the result into a new
// backup and applies retention. Any write failure aborts the save; files
// already written stay as they are and the previous backup is the way back.
func (m *Manager) Save(player *world.Entity) error {
	if err := m.ensureDirs(); err != nil {
		return err
	}
	counts := make(map[string]int, 5)
	for _, st := range pipeline() {
		objs := st.collect(m.reg, player)
		recs := make([]record.Record, 0, len(objs))
		for _, obj := range objs {
			rec, err := convert.ToRecord(obj)
			if err != nil {
				return fmt.Errorf("save %s: %w", st.name, err)
			}
			recs = append(recs, rec)
		}
		if err := snapshot.Write(filepath.Join(m.cfg.SaveDir, st.file), st.name, recs); err != nil {
			return fmt.Errorf("save %s: %w", st.name, err)
		}
		counts[st.name] = len(recs)
	}

	at := m.now()
	backup, err := m.backup(at)
	if err != nil {
		return err
	}
	if err := m.retain(); err != nil {
		return err
	}

	m.log.Info("world saved",
		zap.String("dir", m.cfg.SaveDir),
		zap.String("backup", backup),
		zap.Int("items", counts["items"]),
		zap.Int("entities", counts["entities"]),
		zap.Int("dungeons", counts["dungeons"]),
		zap.Int("locations", counts["locations"]),
	)

	if m.observer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s := Summary{At: at, Backup: backup, Counts: counts}
		if err := m.observer.SaveCompleted(ctx, s); err != nil {
			m.log.Error("save history", zap.Error(err))
		}
	}
	return nil
}

// Load replaces the contents of the registries with the save directory and
// returns the player. A first run, with nothing saved anywhere, returns a nil
// player and no error.
func (m *Manager) Load() (*world.Entity, error) {
	return m.LoadFrom(m.cfg.SaveDir)
}

// LoadFrom runs the load pipeline against dir, which may be a backup.
func (m *Manager) LoadFrom(dir string) (*world.Entity, error) {
	return m.load(dir, pipeline())
}

func (m *Manager) load(dir string, stages []stage) (*world.Entity, error) {
	if err := m.ensureDirs(); err != nil {
		return nil, err
	}
	m.reg.Reset()
	rc := convert.NewReconstructor(m.reg, m.log)
	report := LoadReport{Dir: dir, Counts: make(map[string]int, len(stages))}

	var player *world.Entity
	for _, st := range stages {
		path := filepath.Join(dir, st.file)
		if st.player {
			path = m.playerPath(path)
			report.PlayerFrom = path
		}
		f, err := snapshot.Read(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", st.name, err)
		}
		for _, skipped := range f.Skipped {
			report.Skipped++
			m.log.Warn("skipping record", zap.String("snapshot", st.name), zap.Error(skipped))
		}
		recs := make([]record.Record, 0, len(f.Records))
		for _, rec := range f.Records {
			if !st.accepts(rec.RecordKind()) {
				report.Skipped++
				m.log.Warn("skipping record",
					zap.String("snapshot", st.name),
					zap.String("kind", string(rec.RecordKind())),
					zap.Stringer("id", rec.RecordID()),
				)
				continue
			}
			recs = append(recs, rec)
		}

		objs := rc.Batch(recs)
		report.Counts[st.name] = len(objs)
		if st.player {
			player = pickPlayer(objs, m.log)
		}
	}
	rc.Settle()

	report.Skipped += rc.Skipped()
	report.Dangling = rc.Dangling()
	report.Rejected = rc.Rejected()
	m.last = report
	m.log.Info("world loaded",
		zap.String("dir", dir),
		zap.Int("items", report.Counts["items"]),
		zap.Int("entities", report.Counts["entities"]),
		zap.Int("dungeons", report.Counts["dungeons"]),
		zap.Int("locations", report.Counts["locations"]),
		zap.Bool("player", player != nil),
		zap.Int("skipped", report.Skipped),
		zap.Int("dangling", report.Dangling),
		zap.Int("rejected", report.Rejected),
	)
	return player, nil
}

// playerPath returns path if it exists, otherwise the newest player file
// among the backups. With no backup player either, path is returned and reads
// as empty.
func (m *Manager) playerPath(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	fallback, err := m.latestPlayerFile()
	if err != nil {
		m.log.Warn("player fallback", zap.Error(err))
		return path
	}
	if fallback == "" {
		return path
	}
	m.log.Warn("player file missing, using backup", zap.String("backup", fallback))
	return fallback
}

func pickPlayer(objs []any, log *zap.Logger) *world.Entity {
	var player *world.Entity
	for _, obj := range objs {
		e, ok := obj.(*world.Entity)
		if !ok || e.Kind() != world.KindPlayer {
			continue
		}
		if player != nil {
			log.Warn("extra player record ignored", zap.Stringer("id", e.ID()))
			continue
		}
		player = e
	}
	return player
}

// HasSave reports whether anything has been saved, either in the save
// directory or as a backup.
func (m *Manager) HasSave() bool {
	for _, st := range pipeline() {
		if _, err := os.Stat(filepath.Join(m.cfg.SaveDir, st.file)); err == nil {
			return true
		}
	}
	dirs, err := m.backups()
	return err == nil && len(dirs) > 0
}

// Wipe deletes the save directory and every backup.
func (m *Manager) Wipe() error {
	if err := os.RemoveAll(m.cfg.SaveDir); err != nil {
		return fmt.Errorf("wipe saves: %w", err)
	}
	if err := os.RemoveAll(m.cfg.BackupDir); err != nil {
		return fmt.Errorf("wipe backups: %w", err)
	}
	m.log.Info("saves wiped", zap.String("dir", m.cfg.SaveDir), zap.String("backups", m.cfg.BackupDir))
	return nil
}
