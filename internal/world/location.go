package world

// LocationKind is the concrete subtype of a location.
type LocationKind string

const (
	KindWorld   LocationKind = "world"
	KindTown    LocationKind = "town"
	KindShop    LocationKind = "shop"
	KindDungeon LocationKind = "dungeon"
	KindFloor   LocationKind = "floor"
)

// Location is anywhere an entity can stand.
type Location interface {
	ID() ID
	Kind() LocationKind
	Name() string
}

type locationBase struct {
	id   ID
	name string
}

func (l *locationBase) ID() ID           { return l.id }
func (l *locationBase) Name() string     { return l.name }
func (l *locationBase) SetName(n string) { l.name = n }

// World is the root location holding every town and dungeon.
type World struct {
	locationBase
	Towns    []*Town
	Dungeons []*Dungeon
}

func (*World) Kind() LocationKind { return KindWorld }

// Town is a settlement holding shops.
type Town struct {
	locationBase
	Starting bool
	Shops    []*Shop
}

func (*Town) Kind() LocationKind { return KindTown }

// AddShop attaches s to the town.
func (t *Town) AddShop(s *Shop) {
	s.town = t
	t.Shops = append(t.Shops, s)
}

// ShopType is what a shop trades in.
type ShopType string

const (
	ShopBlacksmith ShopType = "blacksmith"
	ShopTavern     ShopType = "tavern"
	ShopEmporium   ShopType = "emporium"
	ShopGeneral    ShopType = "general"
)

// Shop is owned by an NPC. The owner normally stands in the shop, which
// closes a cycle: shop → owner → location → shop.
type Shop struct {
	locationBase
	Type      ShopType
	town      *Town
	Owner     *Entity
	Occupants []*Entity
}

func (*Shop) Kind() LocationKind { return KindShop }

func (s *Shop) Town() *Town { return s.town }

// Enter places e in the shop.
func (s *Shop) Enter(e *Entity) {
	for _, o := range s.Occupants {
		if o == e {
			e.MoveTo(s)
			return
		}
	}
	s.Occupants = append(s.Occupants, e)
	e.MoveTo(s)
}

// Dungeon is an ordered stack of floors.
type Dungeon struct {
	locationBase
	Floors     []*Floor
	Current    *Floor
	Difficulty float64
	Cleared    bool
}

func (*Dungeon) Kind() LocationKind { return KindDungeon }

// AddFloor appends f to the dungeon.
func (d *Dungeon) AddFloor(f *Floor) {
	f.dungeon = d
	d.Floors = append(d.Floors, f)
}

// RecalculateDifficulty sets the dungeon's difficulty to the sum of its floors.
func (d *Dungeon) RecalculateDifficulty() {
	var total float64
	for _, f := range d.Floors {
		total += f.Difficulty
	}
	d.Difficulty = total
}

// FloorByID returns the dungeon's floor with the given id, or nil.
func (d *Dungeon) FloorByID(id ID) *Floor {
	for _, f := range d.Floors {
		if f.ID() == id {
			return f
		}
	}
	return nil
}

// Floor is one level of a dungeon.
type Floor struct {
	locationBase
	dungeon    *Dungeon
	Number     int
	Difficulty float64
	Enemies    []*Entity
	Chest      *Chest
}

func (*Floor) Kind() LocationKind { return KindFloor }

func (f *Floor) Dungeon() *Dungeon { return f.dungeon }

// Spawn places an enemy on the floor.
func (f *Floor) Spawn(e *Entity) {
	f.Enemies = append(f.Enemies, e)
	e.MoveTo(f)
}

// PlaceChest puts c on the floor.
func (f *Floor) PlaceChest(c *Chest) {
	c.floor = f
	f.Chest = c
}

// AliveEnemies returns the enemies still standing.
func (f *Floor) AliveEnemies() []*Entity {
	var out []*Entity
	for _, e := range f.Enemies {
		if e.Alive {
			out = append(out, e)
		}
	}
	return out
}

func NewWorld(r *Registries, id ID) *World {
	w := &World{locationBase: locationBase{id: id, name: "World"}}
	r.Locations.Register(id, w)
	return w
}

func NewTown(r *Registries, id ID, name string, starting bool) *Town {
	t := &Town{locationBase: locationBase{id: id, name: name}, Starting: starting}
	r.Locations.Register(id, t)
	return t
}

func NewShop(r *Registries, id ID, name string, typ ShopType) *Shop {
	s := &Shop{locationBase: locationBase{id: id, name: name}, Type: typ}
	r.Locations.Register(id, s)
	return s
}

func NewDungeon(r *Registries, id ID, name string) *Dungeon {
	d := &Dungeon{locationBase: locationBase{id: id, name: name}}
	r.Locations.Register(id, d)
	return d
}

func NewFloor(r *Registries, id ID, number int, difficulty float64) *Floor {
	f := &Floor{locationBase: locationBase{id: id, name: "Floor"}, Number: number, Difficulty: difficulty}
	r.Locations.Register(id, f)
	return f
}

// DespawnLocation removes l from the location registry. A dungeon takes its
// floors and their chests with it.
func (r *Registries) DespawnLocation(l Location) {
	r.Locations.Remove(l.ID())
	if d, ok := l.(*Dungeon); ok {
		for _, f := range d.Floors {
			r.Locations.Remove(f.ID())
			if f.Chest != nil {
				r.Containers.Remove(f.Chest.ID())
			}
		}
	}
}
