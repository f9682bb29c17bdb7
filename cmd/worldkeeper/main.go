package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ironkeep/worldkeeper/internal/config"
	"github.com/ironkeep/worldkeeper/internal/persist"
	"github.com/ironkeep/worldkeeper/internal/save"
	"github.com/ironkeep/worldkeeper/internal/scripting"
	"github.com/ironkeep/worldkeeper/internal/snapshot"
	"github.com/ironkeep/worldkeeper/internal/world"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

const usage = `usage: worldkeeper [command] [flags]

commands:
  play     load the world (or seed a new one), advance turns, save  (default)
  seed     build a fresh world from the seed script and save it
  load     load the saved world and print a summary
  verify   check every backup against its manifest
  wipe     delete all saves and backups
  history  list recent saves recorded in the database
`

// ── Console output ───────────────────────────────────────────────

var out = message.NewPrinter(language.English)

func printSection(title string) {
	lineLen := 44 - len(title)
	if lineLen < 3 {
		lineLen = 3
	}
	out.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	num := out.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(num)
	if dotsLen < 3 {
		dotsLen = 3
	}
	out.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), num)
}

func printOK(msg string) {
	out.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printWarn(msg string) {
	out.Printf("  \033[33m!\033[0m %s\n", msg)
}

func printRegistries(reg *world.Registries) {
	printStat("items", reg.Items.Len())
	printStat("entities", reg.Entities.Len())
	printStat("locations", reg.Locations.Len())
	printStat("containers", reg.Containers.Len())
}

func printPlayer(p *world.Entity) {
	loc := "nowhere"
	if p.Location != nil {
		loc = p.Location.Name()
	}
	printOK(out.Sprintf("%s, level %d %s, in %s", p.Name, p.Player.Level, p.Player.Class, loc))
}

// ── Commands ─────────────────────────────────────────────────────

type app struct {
	cfg *config.Config
	log *zap.Logger
	reg *world.Registries
	mgr *save.Manager
	db  *persist.DB
}

func run(args []string) error {
	cmd := "play"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Registries and the save manager
	reg := world.NewRegistries()
	a := &app{
		cfg: cfg,
		log: log,
		reg: reg,
		mgr: save.NewManager(cfg.Storage, reg, log),
	}

	// 4. Optional save history
	if cfg.Database.DSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.Open(ctx, cfg.Database, log)
		cancel()
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		a.db = db
		a.mgr.SetObserver(persist.NewSaveLogRepo(db))
	}

	switch cmd {
	case "play":
		return a.play(args)
	case "seed":
		return a.seed()
	case "load":
		return a.load()
	case "verify":
		return a.verify()
	case "wipe":
		return a.wipe()
	case "history":
		return a.history(args)
	case "help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// restore loads the save directory. When a snapshot cannot be read, or a
// save exists but yields no player, it retries once from the newest backup.
// With a save on disk it never returns a nil player without an error.
func (a *app) restore() (*world.Entity, error) {
	player, err := a.mgr.Load()
	switch {
	case errors.Is(err, snapshot.ErrCorrupt), errors.Is(err, snapshot.ErrVersion):
		a.log.Error("save unreadable, trying newest backup", zap.Error(err))
	case err != nil:
		return nil, err
	case player != nil || !a.mgr.HasSave():
		return player, nil
	default:
		a.log.Error("save has no usable player, trying newest backup")
		err = save.ErrNoPlayer
	}

	dir, berr := a.mgr.LatestBackup()
	if berr != nil {
		return nil, fmt.Errorf("%w (no backup to fall back to: %v)", err, berr)
	}
	player, lerr := a.mgr.LoadFrom(dir)
	if lerr != nil {
		return nil, fmt.Errorf("%v; backup %s: %w", err, dir, lerr)
	}
	if player == nil {
		return nil, fmt.Errorf("backup %s: %w", dir, save.ErrNoPlayer)
	}
	printWarn("save damaged, restored from " + dir)
	return player, nil
}

func (a *app) seedWorld() (*world.Entity, error) {
	a.reg.Reset()
	eng := scripting.NewEngine(a.reg, a.log)
	defer eng.Close()
	return eng.Seed(a.cfg.Scripting.SeedScript)
}

func (a *app) play(args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	turns := fs.Int("turns", 0, "number of idle turns to advance before saving")
	if err := fs.Parse(args); err != nil {
		return err
	}

	printSection("world")
	var player *world.Entity
	var err error
	if a.mgr.HasSave() {
		// A damaged save is never replaced by a fresh world.
		if player, err = a.restore(); err != nil {
			return fmt.Errorf("load world: %w", err)
		}
	} else {
		printOK("no save found, seeding a new world")
		if player, err = a.seedWorld(); err != nil {
			return err
		}
	}
	printRegistries(a.reg)
	printPlayer(player)

	auto := save.NewAutoSave(a.mgr, func() *world.Entity { return player }, a.log, a.cfg.Storage.AutosaveTicks)
	saves := 0
	for i := 0; i < *turns; i++ {
		player.TickEffects()
		saved, err := auto.Tick()
		if err != nil {
			return fmt.Errorf("turn %d: %w", i+1, err)
		}
		if saved {
			saves++
		}
	}
	if *turns > 0 {
		printStat("turns", *turns)
		printStat("autosaves", saves)
	}

	if err := a.mgr.Save(player); err != nil {
		return fmt.Errorf("save world: %w", err)
	}
	printOK("world saved to " + a.cfg.Storage.SaveDir)
	return nil
}

func (a *app) seed() error {
	printSection("seed")
	player, err := a.seedWorld()
	if err != nil {
		return err
	}
	printRegistries(a.reg)
	printPlayer(player)
	if err := a.mgr.Save(player); err != nil {
		return fmt.Errorf("save world: %w", err)
	}
	printOK("world saved to " + a.cfg.Storage.SaveDir)
	return nil
}

func (a *app) load() error {
	printSection("load")
	player, err := a.restore()
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}
	if player == nil {
		return save.ErrNoPlayer
	}
	r := a.mgr.LastLoad()
	for _, name := range []string{"items", "entities", "dungeons", "locations"} {
		printStat(name, r.Counts[name])
	}
	if r.Skipped > 0 {
		printStat("skipped records", r.Skipped)
	}
	if r.Dangling > 0 {
		printStat("dangling references", r.Dangling)
	}
	if r.Rejected > 0 {
		printStat("rejected references", r.Rejected)
	}
	printPlayer(player)
	return nil
}

func (a *app) verify() error {
	printSection("verify")
	dirs, err := a.mgr.Backups()
	if err != nil {
		return err
	}
	bad := 0
	for _, dir := range dirs {
		if err := a.mgr.VerifyBackup(dir); err != nil {
			bad++
			printWarn(err.Error())
			continue
		}
		printOK(dir)
	}
	printStat("backups", len(dirs))
	if bad > 0 {
		return fmt.Errorf("%d of %d backups failed verification", bad, len(dirs))
	}
	return nil
}

func (a *app) wipe() error {
	if err := a.mgr.Wipe(); err != nil {
		return err
	}
	printOK("saves and backups deleted")
	return nil
}

func (a *app) history(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("n", 10, "number of saves to list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.db == nil {
		return errors.New("history needs [database] dsn to be set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rows, err := persist.NewSaveLogRepo(a.db).Recent(ctx, *limit)
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	printSection("history")
	for _, row := range rows {
		out.Printf("  %s  items %d  entities %d  dungeons %d  locations %d  %s\n",
			row.SavedAt.Local().Format("2006-01-02 15:04:05"),
			row.Items, row.Entities, row.Dungeons, row.Locations, row.BackupDir)
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
