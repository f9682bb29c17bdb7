package world

// ItemKind is the concrete subtype of an item.
type ItemKind string

const (
	KindItem   ItemKind = "item"
	KindWeapon ItemKind = "weapon"
	KindArmor  ItemKind = "armor"
	KindPotion ItemKind = "potion"
)

// Rarity orders items from common to demonic.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythical  Rarity = "mythical"
	RarityDemonic   Rarity = "demonic"
)

var rarityOrder = map[Rarity]int{
	RarityCommon:    0,
	RarityUncommon:  1,
	RarityRare:      2,
	RarityEpic:      3,
	RarityLegendary: 4,
	RarityMythical:  5,
	RarityDemonic:   6,
}

// Valid reports whether r is a known rarity.
func (r Rarity) Valid() bool {
	_, ok := rarityOrder[r]
	return ok
}

// Rank returns the ordinal of r; unknown rarities rank as common.
func (r Rarity) Rank() int { return rarityOrder[r] }

// Item is any live item. Items hold no references to other domain objects.
type Item interface {
	ID() ID
	Kind() ItemKind
	Base() *ItemBase
}

// ItemBase holds the fields shared by every item kind.
type ItemBase struct {
	id     ID
	Name   string
	Rarity Rarity
	Value  int
}

func (b *ItemBase) ID() ID          { return b.id }
func (b *ItemBase) Base() *ItemBase { return b }

// Price is what a shop asks for the item: value scaled by rarity.
func (b *ItemBase) Price() int {
	return b.Value * (b.Rarity.Rank() + 1)
}

// BaseItem is an item with no kind-specific attributes.
type BaseItem struct {
	ItemBase
}

func (*BaseItem) Kind() ItemKind { return KindItem }

type Weapon struct {
	ItemBase
	Damage           float64
	Durability       float64
	ArmorPenetration float64
	Quality          string
	Material         string
}

func (*Weapon) Kind() ItemKind { return KindWeapon }

type Armor struct {
	ItemBase
	Slot     ArmorSlot
	Defense  float64
	Quality  string
	Material string
}

func (*Armor) Kind() ItemKind { return KindArmor }

type Potion struct {
	ItemBase
	PotionType string
	Effects    []StatusEffect
}

func (*Potion) Kind() ItemKind { return KindPotion }

// NewBaseItem creates and registers a plain item.
func NewBaseItem(r *Registries, id ID, name string, rarity Rarity, value int) *BaseItem {
	it := &BaseItem{ItemBase{id: id, Name: name, Rarity: rarity, Value: value}}
	r.Items.Register(id, it)
	return it
}

// NewWeapon creates and registers a weapon with no attributes beyond the base.
func NewWeapon(r *Registries, id ID, name string, rarity Rarity, value int) *Weapon {
	w := &Weapon{ItemBase: ItemBase{id: id, Name: name, Rarity: rarity, Value: value}}
	r.Items.Register(id, w)
	return w
}

// NewArmor creates and registers an armor piece for the given slot.
func NewArmor(r *Registries, id ID, slot ArmorSlot, name string, rarity Rarity, value int) *Armor {
	a := &Armor{ItemBase: ItemBase{id: id, Name: name, Rarity: rarity, Value: value}, Slot: slot}
	r.Items.Register(id, a)
	return a
}

func NewPotion(r *Registries, id ID, potionType, name string, rarity Rarity, value int) *Potion {
	p := &Potion{ItemBase: ItemBase{id: id, Name: name, Rarity: rarity, Value: value}, PotionType: potionType}
	r.Items.Register(id, p)
	return p
}

// ConsumeItem removes it from the item registry and from any container
// still holding it.
func (r *Registries) ConsumeItem(it Item) {
	r.Items.Remove(it.ID())
	r.Containers.Each(func(_ ID, c Container) {
		c.Remove(it.ID())
	})
}
