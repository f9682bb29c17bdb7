package record

import "github.com/ironkeep/worldkeeper/internal/world"

// ItemHeader is shared by every item record.
type ItemHeader struct {
	Kind   Kind     `yaml:"kind"`
	ID     world.ID `yaml:"id"`
	Name   string   `yaml:"name"`
	Rarity string   `yaml:"rarity,omitempty"`
	Value  int      `yaml:"value"`
}

func (h *ItemHeader) RecordID() world.ID { return h.ID }

func (h *ItemHeader) validate(want Kind) error {
	if err := checkHeader(want, h.Kind, h.ID); err != nil {
		return err
	}
	if h.Rarity != "" && !world.Rarity(h.Rarity).Valid() {
		return invalid(want, h.ID, "unknown rarity %q", h.Rarity)
	}
	return nil
}

// ItemRecord is a plain item.
type ItemRecord struct {
	ItemHeader `yaml:",inline"`
}

func (*ItemRecord) RecordKind() Kind  { return KindItem }
func (r *ItemRecord) Validate() error { return r.validate(KindItem) }

type WeaponRecord struct {
	ItemHeader       `yaml:",inline"`
	Damage           float64 `yaml:"damage"`
	Durability       float64 `yaml:"durability"`
	ArmorPenetration float64 `yaml:"armor_penetration"`
	Quality          string  `yaml:"quality,omitempty"`
	Material         string  `yaml:"material,omitempty"`
}

func (*WeaponRecord) RecordKind() Kind  { return KindWeapon }
func (r *WeaponRecord) Validate() error { return r.validate(KindWeapon) }

type ArmorRecord struct {
	ItemHeader `yaml:",inline"`
	Slot       string  `yaml:"slot"`
	Defense    float64 `yaml:"defense"`
	Quality    string  `yaml:"quality,omitempty"`
	Material   string  `yaml:"material,omitempty"`
}

func (*ArmorRecord) RecordKind() Kind { return KindArmor }

func (r *ArmorRecord) Validate() error {
	if err := r.validate(KindArmor); err != nil {
		return err
	}
	if world.ArmorSlotFromName(r.Slot) == world.SlotNone {
		return invalid(KindArmor, r.ID, "unknown slot %q", r.Slot)
	}
	return nil
}

type PotionRecord struct {
	ItemHeader `yaml:",inline"`
	PotionType string   `yaml:"potion_type"`
	Effects    []string `yaml:"effects,omitempty"`
}

func (*PotionRecord) RecordKind() Kind  { return KindPotion }
func (r *PotionRecord) Validate() error { return r.validate(KindPotion) }
