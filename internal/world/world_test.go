package world

import (
	"strings"
	"testing"
)

func TestRegistryLastWriteWins(t *testing.T) {
	r := NewRegistry[string]()
	id := NewID()
	r.Register(id, "first")
	r.Register(id, "second")
	if v, ok := r.Lookup(id); !ok || v != "second" {
		t.Fatalf("Lookup = %q, %v", v, ok)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	r.Remove(id)
	if r.Has(id) {
		t.Fatal("id still registered after Remove")
	}
	if _, ok := r.Lookup(NewID()); ok {
		t.Fatal("unknown id resolved")
	}
}

func TestNewEntityRegistersInventory(t *testing.T) {
	reg := NewRegistries()
	invID := NewID()
	e := NewEntity(reg, NewID(), KindNPC, "Brann", invID)

	if reg.LookupEntity(e.ID()) != e {
		t.Fatal("entity not registered")
	}
	c, ok := reg.Containers.Lookup(invID)
	if !ok || c != Container(e.Inventory()) {
		t.Fatal("inventory not registered under the given id")
	}
	if e.Inventory().Owner() != e {
		t.Fatal("inventory owner back-reference not set")
	}
	if e.NPC == nil || e.Player != nil || e.Enemy != nil {
		t.Fatal("wrong profile for npc")
	}

	p := NewEntity(reg, NewID(), KindPlayer, "Ada", NilID)
	if p.Inventory().ID().IsZero() {
		t.Fatal("player inventory got the nil id")
	}
	if p.Player.Level != 1 {
		t.Fatalf("player level = %d, want 1", p.Player.Level)
	}
}

func TestDestroyEntityKeepsItems(t *testing.T) {
	reg := NewRegistries()
	e := NewEntity(reg, NewID(), KindEnemy, "Rat", NilID)
	tooth := NewBaseItem(reg, NewID(), "Tooth", RarityCommon, 1)
	e.Pickup(tooth)

	reg.DestroyEntity(e)
	if e.Alive {
		t.Fatal("destroyed entity still alive")
	}
	if reg.Entities.Has(e.ID()) || reg.Containers.Has(e.Inventory().ID()) {
		t.Fatal("entity or inventory still registered")
	}
	if reg.LookupItem(tooth.ID()) == nil {
		t.Fatal("carried item was removed with the entity")
	}
}

func TestConsumeItemLeavesContainers(t *testing.T) {
	reg := NewRegistries()
	e := NewEntity(reg, NewID(), KindPlayer, "Ada", NilID)
	tonic := NewPotion(reg, NewID(), "healing", "Tonic", RarityCommon, 5)
	e.Pickup(tonic)

	reg.ConsumeItem(tonic)
	if reg.LookupItem(tonic.ID()) != nil {
		t.Fatal("consumed item still registered")
	}
	if e.Inventory().Find(tonic.ID()) != nil {
		t.Fatal("consumed item still in inventory")
	}
}

func TestContainerRejectsDuplicates(t *testing.T) {
	reg := NewRegistries()
	c := NewChest(reg, NewID(), ChestRare)
	key := NewBaseItem(reg, NewID(), "Key", RarityCommon, 0)
	if !c.Add(key) {
		t.Fatal("first Add failed")
	}
	if c.Add(key) {
		t.Fatal("same item added twice")
	}
	if c.Add(nil) {
		t.Fatal("nil item added")
	}
	if !c.Remove(key.ID()) || c.Remove(key.ID()) {
		t.Fatal("Remove should succeed exactly once")
	}
}

func TestEquipment(t *testing.T) {
	reg := NewRegistries()
	e := NewEntity(reg, NewID(), KindPlayer, "Ada", NilID)
	cap1 := NewArmor(reg, NewID(), SlotHelmet, "Cap", RarityCommon, 2)
	cap1.Defense = 1
	cap2 := NewArmor(reg, NewID(), SlotHelmet, "Hood", RarityCommon, 3)
	cap2.Defense = 2
	vest := NewArmor(reg, NewID(), SlotChestplate, "Vest", RarityCommon, 4)
	vest.Defense = 3
	axe := NewWeapon(reg, NewID(), "Axe", RarityUncommon, 12)

	e.Wear(cap1)
	if prev := e.Equip.Equip(cap2); prev != cap1 {
		t.Fatalf("Equip returned %v, want the cap it replaced", prev)
	}
	e.Wear(vest)
	e.Wield(axe)

	if got := e.Equip.TotalDefense(); got != 5 {
		t.Fatalf("TotalDefense = %v, want 5", got)
	}
	if e.Inventory().Find(axe.ID()) == nil || e.Inventory().Find(vest.ID()) == nil {
		t.Fatal("equipped items must stay in the inventory")
	}
	armors := e.Equip.Armors()
	if len(armors) != 2 || armors[0] != cap2 || armors[1] != vest {
		t.Fatalf("Armors = %v, want slot order", armors)
	}

	e.Equip.Unequip(axe.ID())
	e.Equip.Unequip(vest.ID())
	if e.Equip.Weapon != nil || e.Equip.Get(SlotChestplate) != nil {
		t.Fatal("Unequip left the item equipped")
	}
	if e.Equip.Get(SlotNone) != nil || e.Equip.Get(SlotMax) != nil {
		t.Fatal("out of range slots must read as empty")
	}
}

func TestArmorSlotNames(t *testing.T) {
	tests := []struct {
		name string
		want ArmorSlot
	}{
		{"helmet", SlotHelmet},
		{"helm", SlotHelmet},
		{"chestplate", SlotChestplate},
		{"legs", SlotLeggings},
		{"boots", SlotBoots},
		{"tail", SlotNone},
	}
	for _, tt := range tests {
		if got := ArmorSlotFromName(tt.name); got != tt.want {
			t.Errorf("ArmorSlotFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	for s := SlotHelmet; s < SlotMax; s++ {
		if ArmorSlotFromName(s.String()) != s {
			t.Errorf("slot %d does not survive its own name", s)
		}
	}
}

func TestEffectsTick(t *testing.T) {
	e := NewEntity(NewRegistries(), NewID(), KindPlayer, "Ada", NilID)
	e.ApplyEffect(EffectPoison, 2)
	e.ApplyEffect(EffectRegeneration, 1)
	e.ApplyEffect(EffectBleeding, 0)

	names := e.EffectNames()
	if len(names) != 2 || names[0] != EffectPoison || names[1] != EffectRegeneration {
		t.Fatalf("EffectNames = %v", names)
	}
	e.TickEffects()
	if e.Effects[EffectPoison] != 1 {
		t.Fatalf("poison = %d, want 1", e.Effects[EffectPoison])
	}
	if _, ok := e.Effects[EffectRegeneration]; ok {
		t.Fatal("expired effect not dropped")
	}
	e.TickEffects()
	if len(e.Effects) != 0 {
		t.Fatalf("effects = %v, want none", e.Effects)
	}
}

func TestShopCycle(t *testing.T) {
	reg := NewRegistries()
	town := NewTown(reg, NewID(), "Ashford", true)
	shop := NewShop(reg, NewID(), "The Anvil", ShopBlacksmith)
	town.AddShop(shop)
	owner := NewEntity(reg, NewID(), KindNPC, "Brann", NilID)
	shop.Owner = owner
	shop.Enter(owner)
	shop.Enter(owner)

	if shop.Town() != town {
		t.Fatal("shop does not know its town")
	}
	if len(shop.Occupants) != 1 {
		t.Fatalf("occupants = %d, want 1", len(shop.Occupants))
	}
	if owner.Location != Location(shop) {
		t.Fatal("owner is not standing in the shop")
	}
}

func TestDungeonFloors(t *testing.T) {
	reg := NewRegistries()
	d := NewDungeon(reg, NewID(), "Old Crypt")
	f1 := NewFloor(reg, NewID(), 1, 1.5)
	f2 := NewFloor(reg, NewID(), 2, 2.5)
	d.AddFloor(f1)
	d.AddFloor(f2)
	d.RecalculateDifficulty()
	if d.Difficulty != 4 {
		t.Fatalf("Difficulty = %v, want 4", d.Difficulty)
	}
	if d.FloorByID(f2.ID()) != f2 || f2.Dungeon() != d {
		t.Fatal("floor links broken")
	}

	rat := NewEntity(reg, NewID(), KindEnemy, "Rat", NilID)
	ghoul := NewEntity(reg, NewID(), KindEnemy, "Ghoul", NilID)
	f1.Spawn(rat)
	f1.Spawn(ghoul)
	ghoul.Alive = false
	if alive := f1.AliveEnemies(); len(alive) != 1 || alive[0] != rat {
		t.Fatalf("AliveEnemies = %v", alive)
	}

	chest := NewChest(reg, NewID(), ChestEpic)
	f2.PlaceChest(chest)
	if chest.Floor() != f2 {
		t.Fatal("chest does not know its floor")
	}

	reg.DespawnLocation(d)
	if reg.Locations.Len() != 0 || reg.Containers.Has(chest.ID()) {
		t.Fatal("dungeon despawn left floors or chest behind")
	}
	if len(reg.Dungeons()) != 0 {
		t.Fatal("despawned dungeon still listed")
	}
}

func TestIDText(t *testing.T) {
	id := NewID()
	b, err := id.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var back ID
	if err := back.UnmarshalText(b); err != nil || back != id {
		t.Fatalf("UnmarshalText = %v, %v", back, err)
	}
	if err := back.UnmarshalText(nil); err != nil || !back.IsZero() {
		t.Fatal("empty text should decode to NilID")
	}
	if _, err := ParseID("not-an-id"); err == nil || !strings.Contains(err.Error(), "not-an-id") {
		t.Fatalf("ParseID error = %v", err)
	}
}

func TestPrice(t *testing.T) {
	reg := NewRegistries()
	ring := NewBaseItem(reg, NewID(), "Ring", RarityEpic, 10)
	if got := ring.Price(); got != 40 {
		t.Fatalf("Price = %d, want 40", got)
	}
	odd := NewBaseItem(reg, NewID(), "Odd", Rarity("shiny"), 10)
	if odd.Rarity.Valid() || odd.Price() != 10 {
		t.Fatal("unknown rarity should price as common")
	}
}
