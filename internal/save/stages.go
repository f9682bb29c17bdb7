package save

import (
	"sort"

	"github.com/ironkeep/worldkeeper/internal/record"
	"github.com/ironkeep/worldkeeper/internal/world"
)

// Snapshot file names inside a save directory.
const (
	ItemsFile     = "items_snapshot"
	EntitiesFile  = "entities_snapshot"
	DungeonsFile  = "dungeons_snapshot"
	LocationsFile = "locations_snapshot"
	PlayerFile    = "player_save"
)

// stage is one step of the save and load pipelines. Both pipelines walk the
// same list in the same order.
type stage struct {
	name  string
	file  string
	kinds []record.Kind

	// collect picks the live objects this stage writes.
	collect func(reg *world.Registries, player *world.Entity) []any

	player bool
}

// pipeline returns the fixed stage order. Loading depends on it: each stage
// resolves identifiers against registries filled by the stages before it.
//
//	items      no outbound references
//	entities   weapon, armor and inventory contents resolve against items
//	dungeons   floor enemies resolve against entities, chests against items
//	locations  world towns and dungeons resolve against locations
//	player     last; shop occupants and entity locations that point at
//	           later stages are settled once it has loaded
func pipeline() []stage {
	return []stage{
		{
			name:    "items",
			file:    ItemsFile,
			kinds:   []record.Kind{record.KindItem, record.KindWeapon, record.KindArmor, record.KindPotion},
			collect: collectItems,
		},
		{
			name:    "entities",
			file:    EntitiesFile,
			kinds:   []record.Kind{record.KindNPC, record.KindEnemy},
			collect: collectEntities,
		},
		{
			name:    "dungeons",
			file:    DungeonsFile,
			kinds:   []record.Kind{record.KindDungeon},
			collect: collectDungeons,
		},
		{
			name:    "locations",
			file:    LocationsFile,
			kinds:   []record.Kind{record.KindWorld, record.KindTown},
			collect: collectLocations,
		},
		{
			name:    "player",
			file:    PlayerFile,
			kinds:   []record.Kind{record.KindPlayer},
			collect: collectPlayer,
			player:  true,
		},
	}
}

func (s stage) accepts(k record.Kind) bool {
	for _, want := range s.kinds {
		if k == want {
			return true
		}
	}
	return false
}

func collectItems(reg *world.Registries, _ *world.Entity) []any {
	items := reg.Items.All()
	sort.Slice(items, func(i, j int) bool { return idLess(items[i].ID(), items[j].ID()) })
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

// collectEntities returns every entity except player characters; the player
// has a file of its own.
func collectEntities(reg *world.Registries, player *world.Entity) []any {
	var es []*world.Entity
	reg.Entities.Each(func(_ world.ID, e *world.Entity) {
		if e == player || e.Kind() == world.KindPlayer {
			return
		}
		es = append(es, e)
	})
	sort.Slice(es, func(i, j int) bool { return idLess(es[i].ID(), es[j].ID()) })
	out := make([]any, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

func collectDungeons(reg *world.Registries, _ *world.Entity) []any {
	ds := reg.Dungeons()
	sort.Slice(ds, func(i, j int) bool { return idLess(ds[i].ID(), ds[j].ID()) })
	out := make([]any, len(ds))
	for i, d := range ds {
		out[i] = d
	}
	return out
}

// collectLocations returns worlds and towns. Shops travel inside their
// town; dungeons and floors have their own stage.
func collectLocations(reg *world.Registries, _ *world.Entity) []any {
	var ls []world.Location
	reg.Locations.Each(func(_ world.ID, l world.Location) {
		switch l.(type) {
		case *world.World, *world.Town:
			ls = append(ls, l)
		}
	})
	sort.Slice(ls, func(i, j int) bool { return idLess(ls[i].ID(), ls[j].ID()) })
	out := make([]any, len(ls))
	for i, l := range ls {
		out[i] = l
	}
	return out
}

func collectPlayer(_ *world.Registries, player *world.Entity) []any {
	if player == nil {
		return nil
	}
	return []any{player}
}

func idLess(a, b world.ID) bool {
	return a.String() < b.String()
}
