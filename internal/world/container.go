package world

// ContainerKind is the concrete subtype of a container.
type ContainerKind string

const (
	KindInventory ContainerKind = "inventory"
	KindChest     ContainerKind = "chest"
)

// MaxInventorySize bounds how many items one inventory holds.
const MaxInventorySize = 180

// Container is an ordered holder of items.
type Container interface {
	ID() ID
	Kind() ContainerKind
	Items() []Item
	Add(it Item) bool
	Remove(id ID) bool
}

type containerBase struct {
	id    ID
	items []Item
}

func (c *containerBase) ID() ID        { return c.id }
func (c *containerBase) Items() []Item { return c.items }

// Find returns the held item with the given id, or nil.
func (c *containerBase) Find(id ID) Item {
	for _, it := range c.items {
		if it.ID() == id {
			return it
		}
	}
	return nil
}

func (c *containerBase) Add(it Item) bool {
	if it == nil || c.Find(it.ID()) != nil {
		return false
	}
	c.items = append(c.items, it)
	return true
}

// Remove drops the item with the given id. Returns true if it was held.
func (c *containerBase) Remove(id ID) bool {
	for i, it := range c.items {
		if it.ID() == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *containerBase) Size() int { return len(c.items) }

// Inventory is the container owned by exactly one entity. The owner pointer
// is a back-reference; the entity owns the inventory, not the other way.
type Inventory struct {
	containerBase
	owner *Entity
}

func (*Inventory) Kind() ContainerKind { return KindInventory }

func (inv *Inventory) Owner() *Entity { return inv.owner }

// IsFull returns true if the inventory is at max capacity.
func (inv *Inventory) IsFull() bool {
	return len(inv.items) >= MaxInventorySize
}

func (inv *Inventory) Add(it Item) bool {
	if inv.IsFull() {
		return false
	}
	return inv.containerBase.Add(it)
}

// ChestRarity scales a chest's loot.
type ChestRarity string

const (
	ChestCommon    ChestRarity = "common"
	ChestUncommon  ChestRarity = "uncommon"
	ChestRare      ChestRarity = "rare"
	ChestEpic      ChestRarity = "epic"
	ChestLegendary ChestRarity = "legendary"
)

// Chest sits on a dungeon floor. KeyID, when set, names the item that opens it.
type Chest struct {
	containerBase
	Rarity ChestRarity
	KeyID  ID
	floor  *Floor
}

func (*Chest) Kind() ContainerKind { return KindChest }

func (c *Chest) Floor() *Floor { return c.floor }

// NewInventory creates and registers an inventory owned by owner.
func NewInventory(r *Registries, id ID, owner *Entity) *Inventory {
	inv := &Inventory{containerBase: containerBase{id: id}, owner: owner}
	r.Containers.Register(id, inv)
	return inv
}

// NewChest creates and registers an empty chest.
func NewChest(r *Registries, id ID, rarity ChestRarity) *Chest {
	c := &Chest{containerBase: containerBase{id: id}, Rarity: rarity}
	r.Containers.Register(id, c)
	return c
}
