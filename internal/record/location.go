package record

import "github.com/ironkeep/worldkeeper/internal/world"

// FloorRecord is one dungeon floor, embedded in its dungeon.
type FloorRecord struct {
	Kind       Kind             `yaml:"kind"`
	ID         world.ID         `yaml:"id"`
	Number     int              `yaml:"number"`
	Difficulty float64          `yaml:"difficulty"`
	Enemies    []world.ID       `yaml:"enemies,omitempty"`
	Chest      *ContainerRecord `yaml:"chest,omitempty"`
}

type DungeonRecord struct {
	Kind         Kind          `yaml:"kind"`
	ID           world.ID      `yaml:"id"`
	Name         string        `yaml:"name"`
	Difficulty   float64       `yaml:"difficulty"`
	Cleared      bool          `yaml:"cleared,omitempty"`
	CurrentFloor world.ID      `yaml:"current_floor,omitempty"`
	Floors       []FloorRecord `yaml:"floors,omitempty"`
}

func (*DungeonRecord) RecordKind() Kind    { return KindDungeon }
func (r *DungeonRecord) RecordID() world.ID { return r.ID }

func (r *DungeonRecord) Validate() error {
	if err := checkHeader(KindDungeon, r.Kind, r.ID); err != nil {
		return err
	}
	for i := range r.Floors {
		f := &r.Floors[i]
		if err := checkHeader(KindFloor, f.Kind, f.ID); err != nil {
			return invalid(KindDungeon, r.ID, "floor %d: %v", i, err)
		}
		if err := checkIDs(KindFloor, f.ID, "enemies", f.Enemies); err != nil {
			return invalid(KindDungeon, r.ID, "floor %d: %v", i, err)
		}
		if f.Chest != nil {
			if err := f.Chest.validate(KindChest); err != nil {
				return invalid(KindDungeon, r.ID, "floor %d chest: %v", i, err)
			}
		}
	}
	return nil
}

// ShopRecord is one shop, embedded in its town.
type ShopRecord struct {
	Kind      Kind       `yaml:"kind"`
	ID        world.ID   `yaml:"id"`
	Name      string     `yaml:"name"`
	Type      string     `yaml:"type"`
	Owner     world.ID   `yaml:"owner,omitempty"`
	Occupants []world.ID `yaml:"occupants,omitempty"`
}

type TownRecord struct {
	Kind     Kind         `yaml:"kind"`
	ID       world.ID     `yaml:"id"`
	Name     string       `yaml:"name"`
	Starting bool         `yaml:"starting,omitempty"`
	Shops    []ShopRecord `yaml:"shops,omitempty"`
}

func (*TownRecord) RecordKind() Kind    { return KindTown }
func (r *TownRecord) RecordID() world.ID { return r.ID }

func (r *TownRecord) Validate() error {
	if err := checkHeader(KindTown, r.Kind, r.ID); err != nil {
		return err
	}
	for i := range r.Shops {
		s := &r.Shops[i]
		if err := checkHeader(KindShop, s.Kind, s.ID); err != nil {
			return invalid(KindTown, r.ID, "shop %d: %v", i, err)
		}
		if err := checkIDs(KindShop, s.ID, "occupants", s.Occupants); err != nil {
			return invalid(KindTown, r.ID, "shop %d: %v", i, err)
		}
	}
	return nil
}

// WorldRecord is the root location: towns and dungeons by id.
type WorldRecord struct {
	Kind     Kind       `yaml:"kind"`
	ID       world.ID   `yaml:"id"`
	Name     string     `yaml:"name"`
	Towns    []world.ID `yaml:"towns,omitempty"`
	Dungeons []world.ID `yaml:"dungeons,omitempty"`
}

func (*WorldRecord) RecordKind() Kind    { return KindWorld }
func (r *WorldRecord) RecordID() world.ID { return r.ID }

func (r *WorldRecord) Validate() error {
	if err := checkHeader(KindWorld, r.Kind, r.ID); err != nil {
		return err
	}
	if err := checkIDs(KindWorld, r.ID, "towns", r.Towns); err != nil {
		return err
	}
	return checkIDs(KindWorld, r.ID, "dungeons", r.Dungeons)
}
