// Package convert turns live domain objects into flat records and back.
package convert

import (
	"fmt"

	"github.com/ironkeep/worldkeeper/internal/record"
	"github.com/ironkeep/worldkeeper/internal/world"
)

// ToRecord converts a live object into its record. It never mutates the
// object and never touches a registry. Floors, shops and containers are
// owned sub-records and have no top-level record of their own.
func ToRecord(obj any) (record.Record, error) {
	switch v := obj.(type) {
	case world.Item:
		return ItemToRecord(v)
	case *world.Entity:
		return EntityToRecord(v)
	case *world.Dungeon:
		return DungeonToRecord(v), nil
	case *world.Town:
		return TownToRecord(v), nil
	case *world.World:
		return WorldToRecord(v), nil
	}
	return nil, fmt.Errorf("convert %T: no top-level record", obj)
}

func itemHeader(kind record.Kind, b *world.ItemBase) record.ItemHeader {
	return record.ItemHeader{
		Kind:   kind,
		ID:     b.ID(),
		Name:   b.Name,
		Rarity: string(b.Rarity),
		Value:  b.Value,
	}
}

// ItemToRecord converts any item subtype.
func ItemToRecord(it world.Item) (record.Record, error) {
	switch v := it.(type) {
	case *world.BaseItem:
		return &record.ItemRecord{ItemHeader: itemHeader(record.KindItem, &v.ItemBase)}, nil
	case *world.Weapon:
		return &record.WeaponRecord{
			ItemHeader:       itemHeader(record.KindWeapon, &v.ItemBase),
			Damage:           v.Damage,
			Durability:       v.Durability,
			ArmorPenetration: v.ArmorPenetration,
			Quality:          v.Quality,
			Material:         v.Material,
		}, nil
	case *world.Armor:
		return &record.ArmorRecord{
			ItemHeader: itemHeader(record.KindArmor, &v.ItemBase),
			Slot:       v.Slot.String(),
			Defense:    v.Defense,
			Quality:    v.Quality,
			Material:   v.Material,
		}, nil
	case *world.Potion:
		effects := make([]string, 0, len(v.Effects))
		for _, e := range v.Effects {
			effects = append(effects, string(e))
		}
		return &record.PotionRecord{
			ItemHeader: itemHeader(record.KindPotion, &v.ItemBase),
			PotionType: v.PotionType,
			Effects:    effects,
		}, nil
	}
	return nil, fmt.Errorf("convert item %T: unknown kind", it)
}

func itemIDs(items []world.Item) []world.ID {
	if len(items) == 0 {
		return nil
	}
	ids := make([]world.ID, len(items))
	for i, it := range items {
		ids[i] = it.ID()
	}
	return ids
}

func entityIDs(es []*world.Entity) []world.ID {
	if len(es) == 0 {
		return nil
	}
	ids := make([]world.ID, len(es))
	for i, e := range es {
		ids[i] = e.ID()
	}
	return ids
}

func inventoryRecord(inv *world.Inventory) record.ContainerRecord {
	rec := record.ContainerRecord{
		Kind:  record.KindInventory,
		ID:    inv.ID(),
		Items: itemIDs(inv.Items()),
	}
	if o := inv.Owner(); o != nil {
		rec.Owner = o.ID()
	}
	return rec
}

func chestRecord(c *world.Chest) *record.ContainerRecord {
	return &record.ContainerRecord{
		Kind:   record.KindChest,
		ID:     c.ID(),
		Rarity: string(c.Rarity),
		Key:    c.KeyID,
		Items:  itemIDs(c.Items()),
	}
}

func entityHeader(kind record.Kind, e *world.Entity) record.EntityHeader {
	h := record.EntityHeader{
		Kind:    kind,
		ID:      e.ID(),
		Name:    e.Name,
		HP:      e.HP,
		MaxHP:   e.MaxHP,
		Defense: e.Defense,
		Alive:   e.Alive,
		Stats: record.StatsRecord{
			Strength:     e.Stats.Strength,
			Dexterity:    e.Stats.Dexterity,
			Vitality:     e.Stats.Vitality,
			Intelligence: e.Stats.Intelligence,
			Luck:         e.Stats.Luck,
			Charisma:     e.Stats.Charisma,
		},
		Inventory: inventoryRecord(e.Inventory()),
	}
	if w := e.Equip.Weapon; w != nil {
		h.Weapon = w.ID()
	}
	for _, a := range e.Equip.Armors() {
		if h.Armor == nil {
			h.Armor = make(map[string]world.ID)
		}
		h.Armor[a.Slot.String()] = a.ID()
	}
	if e.Location != nil {
		h.Location = e.Location.ID()
	}
	for effect, turns := range e.Effects {
		if h.Effects == nil {
			h.Effects = make(map[string]int)
		}
		h.Effects[string(effect)] = turns
	}
	return h
}

// EntityToRecord converts a player, NPC or enemy.
func EntityToRecord(e *world.Entity) (record.Record, error) {
	switch e.Kind() {
	case world.KindPlayer:
		rec := &record.PlayerRecord{EntityHeader: entityHeader(record.KindPlayer, e), Level: 1}
		if p := e.Player; p != nil {
			rec.Class = p.Class
			rec.Level = p.Level
			rec.GameState = p.GameState
			rec.PreviousGameState = p.PreviousGameState
		}
		return rec, nil
	case world.KindNPC:
		rec := &record.NPCRecord{EntityHeader: entityHeader(record.KindNPC, e)}
		if n := e.NPC; n != nil {
			rec.Personality = n.Personality
			rec.HasQuest = n.HasQuest
		}
		return rec, nil
	case world.KindEnemy:
		rec := &record.EnemyRecord{EntityHeader: entityHeader(record.KindEnemy, e)}
		if en := e.Enemy; en != nil {
			rec.EnemyType = en.EnemyType
			rec.QuestEnemy = en.QuestEnemy
		}
		return rec, nil
	}
	return nil, fmt.Errorf("convert entity %s: unknown kind %q", e.ID(), e.Kind())
}

// DungeonToRecord converts a dungeon with its floors and their chests.
func DungeonToRecord(d *world.Dungeon) *record.DungeonRecord {
	rec := &record.DungeonRecord{
		Kind:       record.KindDungeon,
		ID:         d.ID(),
		Name:       d.Name(),
		Difficulty: d.Difficulty,
		Cleared:    d.Cleared,
	}
	if d.Current != nil {
		rec.CurrentFloor = d.Current.ID()
	}
	for _, f := range d.Floors {
		fr := record.FloorRecord{
			Kind:       record.KindFloor,
			ID:         f.ID(),
			Number:     f.Number,
			Difficulty: f.Difficulty,
			Enemies:    entityIDs(f.Enemies),
		}
		if f.Chest != nil {
			fr.Chest = chestRecord(f.Chest)
		}
		rec.Floors = append(rec.Floors, fr)
	}
	return rec
}

// TownToRecord converts a town with its shops.
func TownToRecord(t *world.Town) *record.TownRecord {
	rec := &record.TownRecord{
		Kind:     record.KindTown,
		ID:       t.ID(),
		Name:     t.Name(),
		Starting: t.Starting,
	}
	for _, s := range t.Shops {
		sr := record.ShopRecord{
			Kind:      record.KindShop,
			ID:        s.ID(),
			Name:      s.Name(),
			Type:      string(s.Type),
			Occupants: entityIDs(s.Occupants),
		}
		if s.Owner != nil {
			sr.Owner = s.Owner.ID()
		}
		rec.Shops = append(rec.Shops, sr)
	}
	return rec
}

func WorldToRecord(w *world.World) *record.WorldRecord {
	rec := &record.WorldRecord{
		Kind: record.KindWorld,
		ID:   w.ID(),
		Name: w.Name(),
	}
	for _, t := range w.Towns {
		rec.Towns = append(rec.Towns, t.ID())
	}
	for _, d := range w.Dungeons {
		rec.Dungeons = append(rec.Dungeons, d.ID())
	}
	return rec
}
