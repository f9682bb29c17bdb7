package world

import "sort"

// EntityKind is the concrete subtype of an entity.
type EntityKind string

const (
	KindPlayer EntityKind = "player"
	KindNPC    EntityKind = "npc"
	KindEnemy  EntityKind = "enemy"
)

// Stats are an entity's six base attributes.
type Stats struct {
	Strength     int
	Dexterity    int
	Vitality     int
	Intelligence int
	Luck         int
	Charisma     int
}

// StatusEffect is a timed effect on an entity.
type StatusEffect string

const (
	EffectStrengthPotion StatusEffect = "strength_potion"
	EffectSpeedPotion    StatusEffect = "speed_potion"
	EffectPoison         StatusEffect = "poison"
	EffectRegeneration   StatusEffect = "regeneration"
	EffectBleeding       StatusEffect = "bleeding"
	EffectCharismaPotion StatusEffect = "charisma_potion"
)

// PlayerProfile holds what only the player character carries.
type PlayerProfile struct {
	Class             string
	Level             int
	GameState         string
	PreviousGameState string
}

// NPCProfile holds what only non-hostile characters carry.
type NPCProfile struct {
	Personality string
	HasQuest    bool
}

// EnemyProfile holds what only hostile characters carry.
type EnemyProfile struct {
	EnemyType  string
	QuestEnemy bool
}

// Entity is a live character. Accessed only from the caller's loop goroutine.
type Entity struct {
	id        ID
	kind      EntityKind
	Name      string
	HP        float64
	MaxHP     float64
	Defense   float64
	Alive     bool
	Stats     Stats
	inventory *Inventory
	Equip     Equipment
	Location  Location

	// Effects maps an active status effect to its remaining turns.
	Effects map[StatusEffect]int

	Player *PlayerProfile
	NPC    *NPCProfile
	Enemy  *EnemyProfile
}

func (e *Entity) ID() ID                { return e.id }
func (e *Entity) Kind() EntityKind      { return e.kind }
func (e *Entity) Inventory() *Inventory { return e.inventory }

// NewEntity creates and registers an entity together with its inventory.
// The inventory gets invID, or a fresh id when invID is NilID.
func NewEntity(r *Registries, id ID, kind EntityKind, name string, invID ID) *Entity {
	e := &Entity{
		id:      id,
		kind:    kind,
		Name:    name,
		Alive:   true,
		Effects: make(map[StatusEffect]int),
	}
	switch kind {
	case KindPlayer:
		e.Player = &PlayerProfile{Level: 1}
	case KindNPC:
		e.NPC = &NPCProfile{}
	case KindEnemy:
		e.Enemy = &EnemyProfile{}
	}
	if invID.IsZero() {
		invID = NewID()
	}
	r.Entities.Register(id, e)
	e.inventory = NewInventory(r, invID, e)
	return e
}

// Pickup adds it to the inventory.
func (e *Entity) Pickup(it Item) bool {
	return e.inventory.Add(it)
}

// Wield makes w the current weapon. The weapon is also placed in the
// inventory so it survives unequipping.
func (e *Entity) Wield(w *Weapon) {
	e.inventory.Add(w)
	e.Equip.Weapon = w
}

// Wear equips a in its slot, keeping it in the inventory.
func (e *Entity) Wear(a *Armor) {
	e.inventory.Add(a)
	e.Equip.Equip(a)
}

// ApplyEffect starts or refreshes a timed effect.
func (e *Entity) ApplyEffect(effect StatusEffect, turns int) {
	if turns <= 0 {
		delete(e.Effects, effect)
		return
	}
	e.Effects[effect] = turns
}

// TickEffects decrements every effect and drops the expired ones.
func (e *Entity) TickEffects() {
	for effect, turns := range e.Effects {
		if turns <= 1 {
			delete(e.Effects, effect)
			continue
		}
		e.Effects[effect] = turns - 1
	}
}

// EffectNames returns active effects in a stable order.
func (e *Entity) EffectNames() []StatusEffect {
	out := make([]StatusEffect, 0, len(e.Effects))
	for effect := range e.Effects {
		out = append(out, effect)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MoveTo sets the current location. A nil location means "nowhere".
func (e *Entity) MoveTo(l Location) {
	e.Location = l
}

// DestroyEntity removes a dead or despawned entity and its inventory from the
// registries. Items it carried stay registered; they may be dropped as loot.
func (r *Registries) DestroyEntity(e *Entity) {
	e.Alive = false
	r.Entities.Remove(e.id)
	r.Containers.Remove(e.inventory.ID())
}
