package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/ironkeep/worldkeeper/internal/world"
)

// Engine wraps a single gopher-lua VM that builds a fresh world from a seed
// script. Scripts call host functions (item, weapon, npc, town, ...) that
// construct and register live objects; each returns the new object's id as
// a string, which later calls use to refer to it.
// Single-goroutine access only.
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	reg    *world.Registries
	player *world.Entity
}

// NewEngine creates a Lua engine whose host functions register into reg.
func NewEngine(reg *world.Registries, log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, reg: reg}
	for name, fn := range map[string]lua.LGFunction{
		"item":    e.luaItem,
		"weapon":  e.luaWeapon,
		"armor":   e.luaArmor,
		"potion":  e.luaPotion,
		"npc":     e.luaNPC,
		"enemy":   e.luaEnemy,
		"player":  e.luaPlayer,
		"town":    e.luaTown,
		"shop":    e.luaShop,
		"dungeon": e.luaDungeon,
		"world":   e.luaWorld,
	} {
		vm.SetGlobal(name, vm.NewFunction(fn))
	}
	return e
}

// Seed runs the script at path, or every .lua file in it when path is a
// directory, and returns the player the script created.
func (e *Engine) Seed(path string) (*world.Entity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("seed script: %w", err)
	}
	if info.IsDir() {
		err = e.loadDir(path)
	} else {
		err = e.vm.DoFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return e.finish()
}

// SeedString runs src as a seed script.
func (e *Engine) SeedString(src string) (*world.Entity, error) {
	if err := e.vm.DoString(src); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return e.finish()
}

func (e *Engine) finish() (*world.Entity, error) {
	if e.player == nil {
		return nil, errors.New("seed script created no player")
	}
	e.log.Info("world seeded",
		zap.Int("items", e.reg.Items.Len()),
		zap.Int("entities", e.reg.Entities.Len()),
		zap.Int("locations", e.reg.Locations.Len()),
		zap.String("player", e.player.Name),
	)
	return e.player, nil
}

// loadDir loads all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
