package record

import "github.com/ironkeep/worldkeeper/internal/world"

// StatsRecord mirrors world.Stats.
type StatsRecord struct {
	Strength     int `yaml:"strength"`
	Dexterity    int `yaml:"dexterity"`
	Vitality     int `yaml:"vitality"`
	Intelligence int `yaml:"intelligence"`
	Luck         int `yaml:"luck"`
	Charisma     int `yaml:"charisma"`
}

// ContainerRecord is an inventory or chest. It is embedded in the record of
// whatever owns it, and lists its contents by item id only.
type ContainerRecord struct {
	Kind   Kind       `yaml:"kind"`
	ID     world.ID   `yaml:"id"`
	Owner  world.ID   `yaml:"owner,omitempty"`
	Rarity string     `yaml:"rarity,omitempty"`
	Key    world.ID   `yaml:"key,omitempty"`
	Items  []world.ID `yaml:"items,omitempty"`
}

func (c *ContainerRecord) validate(want Kind) error {
	if err := checkHeader(want, c.Kind, c.ID); err != nil {
		return err
	}
	return checkIDs(want, c.ID, "items", c.Items)
}

// EntityHeader is shared by every entity record. Weapon, Armor and Location
// are identifiers; absent references are omitted.
type EntityHeader struct {
	Kind      Kind                `yaml:"kind"`
	ID        world.ID            `yaml:"id"`
	Name      string              `yaml:"name"`
	HP        float64             `yaml:"hp"`
	MaxHP     float64             `yaml:"max_hp"`
	Defense   float64             `yaml:"defense"`
	Alive     bool                `yaml:"alive"`
	Stats     StatsRecord         `yaml:"stats"`
	Inventory ContainerRecord     `yaml:"inventory"`
	Weapon    world.ID            `yaml:"weapon,omitempty"`
	Armor     map[string]world.ID `yaml:"armor,omitempty"`
	Location  world.ID            `yaml:"location,omitempty"`
	Effects   map[string]int      `yaml:"effects,omitempty"`
}

func (h *EntityHeader) RecordID() world.ID { return h.ID }

func (h *EntityHeader) validate(want Kind) error {
	if err := checkHeader(want, h.Kind, h.ID); err != nil {
		return err
	}
	if err := h.Inventory.validate(KindInventory); err != nil {
		return invalid(want, h.ID, "inventory: %v", err)
	}
	if !h.Inventory.Owner.IsZero() && h.Inventory.Owner != h.ID {
		return invalid(want, h.ID, "inventory owned by %s", h.Inventory.Owner)
	}
	for slot, id := range h.Armor {
		if world.ArmorSlotFromName(slot) == world.SlotNone {
			return invalid(want, h.ID, "unknown armor slot %q", slot)
		}
		if id.IsZero() {
			return invalid(want, h.ID, "armor slot %q is empty", slot)
		}
	}
	return nil
}

type NPCRecord struct {
	EntityHeader `yaml:",inline"`
	Personality  string `yaml:"personality,omitempty"`
	HasQuest     bool   `yaml:"has_quest,omitempty"`
}

func (*NPCRecord) RecordKind() Kind  { return KindNPC }
func (r *NPCRecord) Validate() error { return r.validate(KindNPC) }

type EnemyRecord struct {
	EntityHeader `yaml:",inline"`
	EnemyType    string `yaml:"enemy_type"`
	QuestEnemy   bool   `yaml:"quest_enemy,omitempty"`
}

func (*EnemyRecord) RecordKind() Kind  { return KindEnemy }
func (r *EnemyRecord) Validate() error { return r.validate(KindEnemy) }

// PlayerRecord is the single distinguished entity saved to its own file.
type PlayerRecord struct {
	EntityHeader      `yaml:",inline"`
	Class             string `yaml:"class"`
	Level             int    `yaml:"level"`
	GameState         string `yaml:"game_state,omitempty"`
	PreviousGameState string `yaml:"previous_game_state,omitempty"`
}

func (*PlayerRecord) RecordKind() Kind { return KindPlayer }

func (r *PlayerRecord) Validate() error {
	if err := r.validate(KindPlayer); err != nil {
		return err
	}
	if r.Level < 1 {
		return invalid(KindPlayer, r.ID, "level %d", r.Level)
	}
	return nil
}
