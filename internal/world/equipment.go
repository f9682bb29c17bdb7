package world

// ArmorSlot identifies where an armor piece is worn.
type ArmorSlot int

const (
	SlotNone       ArmorSlot = 0
	SlotHelmet     ArmorSlot = 1
	SlotChestplate ArmorSlot = 2
	SlotLeggings   ArmorSlot = 3
	SlotBoots      ArmorSlot = 4
	SlotMax        ArmorSlot = 5
)

var slotNames = [SlotMax]string{
	SlotNone:       "none",
	SlotHelmet:     "helmet",
	SlotChestplate: "chestplate",
	SlotLeggings:   "leggings",
	SlotBoots:      "boots",
}

func (s ArmorSlot) String() string {
	if s < SlotNone || s >= SlotMax {
		return "none"
	}
	return slotNames[s]
}

// ArmorSlotFromName maps a slot name (as stored in records) to an ArmorSlot.
func ArmorSlotFromName(name string) ArmorSlot {
	switch name {
	case "helmet", "helm":
		return SlotHelmet
	case "chestplate", "chest":
		return SlotChestplate
	case "leggings", "legs":
		return SlotLeggings
	case "boots":
		return SlotBoots
	default:
		return SlotNone
	}
}

// Equipment tracks what an entity currently wields and wears.
// A nil slot is empty.
type Equipment struct {
	Weapon *Weapon
	Slots  [SlotMax]*Armor
}

// Get returns the armor in a slot, or nil.
func (e *Equipment) Get(slot ArmorSlot) *Armor {
	if slot <= SlotNone || slot >= SlotMax {
		return nil
	}
	return e.Slots[slot]
}

// Set places armor in a slot (or nil to clear).
func (e *Equipment) Set(slot ArmorSlot, a *Armor) {
	if slot > SlotNone && slot < SlotMax {
		e.Slots[slot] = a
	}
}

// Equip wears a in its own slot and returns whatever was there before.
func (e *Equipment) Equip(a *Armor) (previous *Armor) {
	previous = e.Get(a.Slot)
	e.Set(a.Slot, a)
	return previous
}

// Armors returns the worn pieces in slot order.
func (e *Equipment) Armors() []*Armor {
	var out []*Armor
	for s := SlotHelmet; s < SlotMax; s++ {
		if a := e.Slots[s]; a != nil {
			out = append(out, a)
		}
	}
	return out
}

// TotalDefense sums the defense of all worn armor.
func (e *Equipment) TotalDefense() float64 {
	var total float64
	for _, a := range e.Armors() {
		total += a.Defense
	}
	return total
}

// Unequip clears any slot holding the item with the given id.
func (e *Equipment) Unequip(id ID) {
	if e.Weapon != nil && e.Weapon.ID() == id {
		e.Weapon = nil
	}
	for s := SlotHelmet; s < SlotMax; s++ {
		if a := e.Slots[s]; a != nil && a.ID() == id {
			e.Slots[s] = nil
		}
	}
}
