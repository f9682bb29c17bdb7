package convert

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ironkeep/worldkeeper/internal/record"
	"github.com/ironkeep/worldkeeper/internal/world"
)

// Reconstructor turns records back into live, registered objects.
//
// Every batch runs in two passes. The first builds each object from its
// scalar fields and registers it; the second resolves identifier fields
// against the registries. Objects in one batch can therefore reference each
// other in any order. An identifier that resolves to nothing is logged and
// the field is left absent.
//
// Some references point at objects loaded in a later stage: entity
// locations, and shop owners and occupants (the player loads last). Those are
// parked until Settle runs.
type Reconstructor struct {
	reg     *world.Registries
	log     *zap.Logger
	pending []func()

	dangling int
	skipped  int
	rejected int
}

type built struct {
	rec record.Record
	obj any
}

func NewReconstructor(reg *world.Registries, log *zap.Logger) *Reconstructor {
	return &Reconstructor{reg: reg, log: log}
}

// Dangling returns how many references failed to resolve so far.
func (r *Reconstructor) Dangling() int { return r.dangling }

// Skipped returns how many records were rejected as invalid so far.
func (r *Reconstructor) Skipped() int { return r.skipped }

// Rejected returns how many resolved references were refused by their
// target: an item listed twice or past a full inventory, or armor filed
// under a slot it does not fit.
func (r *Reconstructor) Rejected() int { return r.rejected }

// FromRecord reconstructs a single record and settles everything parked.
func (r *Reconstructor) FromRecord(rec record.Record) (any, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	obj, err := r.build(rec)
	if err != nil {
		return nil, err
	}
	r.link(built{rec: rec, obj: obj})
	r.Settle()
	return obj, nil
}

// Batch reconstructs every valid record and returns the live objects in
// record order. Invalid records are skipped with a warning.
func (r *Reconstructor) Batch(recs []record.Record) []any {
	objs := make([]built, 0, len(recs))
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			r.skip(rec, err)
			continue
		}
		obj, err := r.build(rec)
		if err != nil {
			r.skip(rec, err)
			continue
		}
		objs = append(objs, built{rec: rec, obj: obj})
	}
	for _, b := range objs {
		r.link(b)
	}
	out := make([]any, len(objs))
	for i, b := range objs {
		out[i] = b.obj
	}
	return out
}

// Settle resolves every parked reference. Whatever still does not resolve
// is dangling. Call it once every stage has been loaded.
func (r *Reconstructor) Settle() {
	for _, fn := range r.pending {
		fn()
	}
	r.pending = nil
}

func (r *Reconstructor) skip(rec record.Record, err error) {
	r.skipped++
	r.log.Warn("skipping record",
		zap.String("kind", string(rec.RecordKind())),
		zap.Stringer("id", rec.RecordID()),
		zap.Error(err),
	)
}

func (r *Reconstructor) rejectRef(kind string, owner world.ID, field string, target world.ID, reason string) {
	r.rejected++
	r.log.Warn("rejected reference",
		zap.String("kind", kind),
		zap.Stringer("id", owner),
		zap.String("field", field),
		zap.Stringer("target", target),
		zap.String("reason", reason),
	)
}

func (r *Reconstructor) danglingRef(kind string, owner world.ID, field string, target world.ID) {
	r.dangling++
	r.log.Warn("dangling reference",
		zap.String("kind", kind),
		zap.Stringer("id", owner),
		zap.String("field", field),
		zap.Stringer("target", target),
	)
}

// build constructs and registers an object from scalar fields only.
func (r *Reconstructor) build(rec record.Record) (any, error) {
	switch v := rec.(type) {
	case *record.ItemRecord:
		return world.NewBaseItem(r.reg, v.ID, v.Name, world.Rarity(v.Rarity), v.Value), nil
	case *record.WeaponRecord:
		w := world.NewWeapon(r.reg, v.ID, v.Name, world.Rarity(v.Rarity), v.Value)
		w.Damage = v.Damage
		w.Durability = v.Durability
		w.ArmorPenetration = v.ArmorPenetration
		w.Quality = v.Quality
		w.Material = v.Material
		return w, nil
	case *record.ArmorRecord:
		a := world.NewArmor(r.reg, v.ID, world.ArmorSlotFromName(v.Slot), v.Name, world.Rarity(v.Rarity), v.Value)
		a.Defense = v.Defense
		a.Quality = v.Quality
		a.Material = v.Material
		return a, nil
	case *record.PotionRecord:
		p := world.NewPotion(r.reg, v.ID, v.PotionType, v.Name, world.Rarity(v.Rarity), v.Value)
		for _, e := range v.Effects {
			p.Effects = append(p.Effects, world.StatusEffect(e))
		}
		return p, nil
	case *record.NPCRecord:
		e := r.buildEntity(world.KindNPC, &v.EntityHeader)
		e.NPC.Personality = v.Personality
		e.NPC.HasQuest = v.HasQuest
		return e, nil
	case *record.EnemyRecord:
		e := r.buildEntity(world.KindEnemy, &v.EntityHeader)
		e.Enemy.EnemyType = v.EnemyType
		e.Enemy.QuestEnemy = v.QuestEnemy
		return e, nil
	case *record.PlayerRecord:
		e := r.buildEntity(world.KindPlayer, &v.EntityHeader)
		e.Player.Class = v.Class
		e.Player.Level = v.Level
		e.Player.GameState = v.GameState
		e.Player.PreviousGameState = v.PreviousGameState
		return e, nil
	case *record.DungeonRecord:
		return r.buildDungeon(v), nil
	case *record.TownRecord:
		t := world.NewTown(r.reg, v.ID, v.Name, v.Starting)
		for _, sr := range v.Shops {
			t.AddShop(world.NewShop(r.reg, sr.ID, sr.Name, world.ShopType(sr.Type)))
		}
		return t, nil
	case *record.WorldRecord:
		w := world.NewWorld(r.reg, v.ID)
		if v.Name != "" {
			w.SetName(v.Name)
		}
		return w, nil
	}
	return nil, fmt.Errorf("reconstruct %s: unsupported record %T", rec.RecordKind(), rec)
}

func (r *Reconstructor) buildEntity(kind world.EntityKind, h *record.EntityHeader) *world.Entity {
	e := world.NewEntity(r.reg, h.ID, kind, h.Name, h.Inventory.ID)
	e.HP = h.HP
	e.MaxHP = h.MaxHP
	e.Defense = h.Defense
	e.Alive = h.Alive
	e.Stats = world.Stats{
		Strength:     h.Stats.Strength,
		Dexterity:    h.Stats.Dexterity,
		Vitality:     h.Stats.Vitality,
		Intelligence: h.Stats.Intelligence,
		Luck:         h.Stats.Luck,
		Charisma:     h.Stats.Charisma,
	}
	for effect, turns := range h.Effects {
		e.ApplyEffect(world.StatusEffect(effect), turns)
	}
	return e
}

func (r *Reconstructor) buildDungeon(v *record.DungeonRecord) *world.Dungeon {
	d := world.NewDungeon(r.reg, v.ID, v.Name)
	d.Difficulty = v.Difficulty
	d.Cleared = v.Cleared
	for _, fr := range v.Floors {
		f := world.NewFloor(r.reg, fr.ID, fr.Number, fr.Difficulty)
		d.AddFloor(f)
		if fr.Chest != nil {
			c := world.NewChest(r.reg, fr.Chest.ID, world.ChestRarity(fr.Chest.Rarity))
			c.KeyID = fr.Chest.Key
			f.PlaceChest(c)
		}
	}
	if !v.CurrentFloor.IsZero() {
		d.Current = d.FloorByID(v.CurrentFloor)
		if d.Current == nil {
			r.danglingRef(string(world.KindDungeon), v.ID, "current_floor", v.CurrentFloor)
		}
	}
	return d
}

// link resolves the identifier fields of an already registered object.
func (r *Reconstructor) link(b built) {
	switch v := b.rec.(type) {
	case *record.NPCRecord:
		r.linkEntity(b.obj.(*world.Entity), &v.EntityHeader)
	case *record.EnemyRecord:
		r.linkEntity(b.obj.(*world.Entity), &v.EntityHeader)
	case *record.PlayerRecord:
		r.linkEntity(b.obj.(*world.Entity), &v.EntityHeader)
	case *record.DungeonRecord:
		r.linkDungeon(b.obj.(*world.Dungeon), v)
	case *record.TownRecord:
		r.linkTown(b.obj.(*world.Town), v)
	case *record.WorldRecord:
		r.linkWorld(b.obj.(*world.World), v)
	}
}

func (r *Reconstructor) fill(c world.Container, kind string, owner world.ID, ids []world.ID) {
	for _, id := range ids {
		it := r.reg.LookupItem(id)
		if it == nil {
			r.danglingRef(kind, owner, "items", id)
			continue
		}
		if !c.Add(it) {
			reason := "duplicate"
			if inv, ok := c.(*world.Inventory); ok && inv.IsFull() {
				reason = "inventory full"
			}
			r.rejectRef(kind, owner, "items", id, reason)
		}
	}
}

func (r *Reconstructor) linkEntity(e *world.Entity, h *record.EntityHeader) {
	r.fill(e.Inventory(), string(world.KindInventory), e.Inventory().ID(), h.Inventory.Items)

	if !h.Weapon.IsZero() {
		if w, ok := r.reg.LookupItem(h.Weapon).(*world.Weapon); ok {
			e.Equip.Weapon = w
		} else {
			r.danglingRef(string(e.Kind()), e.ID(), "weapon", h.Weapon)
		}
	}
	// Armor filed under the wrong slot moves to its own slot, unless a
	// correctly filed piece already holds it.
	var misfiled []*world.Armor
	for slot, id := range h.Armor {
		a, ok := r.reg.LookupItem(id).(*world.Armor)
		if !ok {
			r.danglingRef(string(e.Kind()), e.ID(), "armor."+slot, id)
			continue
		}
		if a.Slot != world.ArmorSlotFromName(slot) {
			r.rejectRef(string(e.Kind()), e.ID(), "armor."+slot, id, "worn in "+a.Slot.String())
			misfiled = append(misfiled, a)
			continue
		}
		e.Equip.Equip(a)
	}
	sort.Slice(misfiled, func(i, j int) bool { return misfiled[i].ID().String() < misfiled[j].ID().String() })
	for _, a := range misfiled {
		if e.Equip.Get(a.Slot) == nil {
			e.Equip.Equip(a)
		}
	}

	if h.Location.IsZero() {
		return
	}
	if loc := r.reg.LookupLocation(h.Location); loc != nil {
		e.MoveTo(loc)
		return
	}
	target := h.Location
	r.pending = append(r.pending, func() {
		loc := r.reg.LookupLocation(target)
		if loc == nil {
			r.danglingRef(string(e.Kind()), e.ID(), "location", target)
			return
		}
		e.MoveTo(loc)
	})
}

func (r *Reconstructor) linkDungeon(d *world.Dungeon, v *record.DungeonRecord) {
	for i, fr := range v.Floors {
		f := d.Floors[i]
		for _, id := range fr.Enemies {
			e := r.reg.LookupEntity(id)
			if e == nil {
				r.danglingRef(string(world.KindFloor), f.ID(), "enemies", id)
				continue
			}
			f.Enemies = append(f.Enemies, e)
		}
		if fr.Chest != nil {
			r.fill(f.Chest, string(world.KindChest), f.Chest.ID(), fr.Chest.Items)
		}
	}
}

func (r *Reconstructor) linkTown(t *world.Town, v *record.TownRecord) {
	for i := range v.Shops {
		s, sr := t.Shops[i], v.Shops[i]
		r.pending = append(r.pending, func() { r.linkShop(s, sr) })
	}
}

func (r *Reconstructor) linkShop(s *world.Shop, sr record.ShopRecord) {
	if !sr.Owner.IsZero() {
		if s.Owner = r.reg.LookupEntity(sr.Owner); s.Owner == nil {
			r.danglingRef(string(world.KindShop), s.ID(), "owner", sr.Owner)
		}
	}
	for _, id := range sr.Occupants {
		e := r.reg.LookupEntity(id)
		if e == nil {
			r.danglingRef(string(world.KindShop), s.ID(), "occupants", id)
			continue
		}
		s.Occupants = append(s.Occupants, e)
	}
}

func (r *Reconstructor) linkWorld(w *world.World, v *record.WorldRecord) {
	for _, id := range v.Towns {
		if t, ok := r.reg.LookupLocation(id).(*world.Town); ok {
			w.Towns = append(w.Towns, t)
		} else {
			r.danglingRef(string(world.KindWorld), w.ID(), "towns", id)
		}
	}
	for _, id := range v.Dungeons {
		if d, ok := r.reg.LookupLocation(id).(*world.Dungeon); ok {
			w.Dungeons = append(w.Dungeons, d)
		} else {
			r.danglingRef(string(world.KindWorld), w.ID(), "dungeons", id)
		}
	}
}
