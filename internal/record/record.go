// Package record holds the flat, acyclic shapes that live domain objects are
// persisted as. Every relationship to another domain object is an identifier.
// Records are plain data: they are never registered anywhere.
package record

import (
	"errors"
	"fmt"

	"github.com/ironkeep/worldkeeper/internal/world"
)

// ErrInvalid marks a record whose own fields are structurally unusable.
var ErrInvalid = errors.New("invalid record")

// Kind is the explicit discriminator written first in every record.
type Kind string

const (
	KindItem    Kind = "item"
	KindWeapon  Kind = "weapon"
	KindArmor   Kind = "armor"
	KindPotion  Kind = "potion"
	KindNPC     Kind = "npc"
	KindEnemy   Kind = "enemy"
	KindPlayer  Kind = "player"
	KindDungeon Kind = "dungeon"
	KindWorld   Kind = "world"
	KindTown    Kind = "town"

	// Owned sub-records, embedded in their owner and never top-level.
	KindFloor     Kind = "floor"
	KindShop      Kind = "shop"
	KindInventory Kind = "inventory"
	KindChest     Kind = "chest"
)

// Record is one top-level persisted object.
type Record interface {
	RecordKind() Kind
	RecordID() world.ID
	Validate() error
}

// New returns an empty record for a top-level kind.
func New(k Kind) (Record, bool) {
	switch k {
	case KindItem:
		return &ItemRecord{}, true
	case KindWeapon:
		return &WeaponRecord{}, true
	case KindArmor:
		return &ArmorRecord{}, true
	case KindPotion:
		return &PotionRecord{}, true
	case KindNPC:
		return &NPCRecord{}, true
	case KindEnemy:
		return &EnemyRecord{}, true
	case KindPlayer:
		return &PlayerRecord{}, true
	case KindDungeon:
		return &DungeonRecord{}, true
	case KindWorld:
		return &WorldRecord{}, true
	case KindTown:
		return &TownRecord{}, true
	}
	return nil, false
}

func invalid(kind Kind, id world.ID, format string, args ...any) error {
	return fmt.Errorf("%s %s: %s: %w", kind, id, fmt.Sprintf(format, args...), ErrInvalid)
}

// checkHeader verifies the discriminator and identifier every record carries.
func checkHeader(want, got Kind, id world.ID) error {
	if got != want {
		return invalid(want, id, "kind tag %q", got)
	}
	if id.IsZero() {
		return invalid(want, id, "missing id")
	}
	return nil
}

func checkIDs(kind Kind, owner world.ID, field string, ids []world.ID) error {
	for i, id := range ids {
		if id.IsZero() {
			return invalid(kind, owner, "%s[%d] is empty", field, i)
		}
	}
	return nil
}
