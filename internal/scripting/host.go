package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/text/unicode/norm"

	"github.com/ironkeep/worldkeeper/internal/world"
)

// --- items ---

func (e *Engine) luaItem(L *lua.LState) int {
	t := L.CheckTable(1)
	it := world.NewBaseItem(e.reg, world.NewID(), lName(t), e.rarity(L, t), lInt(t, "value"))
	return pushID(L, it.ID())
}

func (e *Engine) luaWeapon(L *lua.LState) int {
	t := L.CheckTable(1)
	w := world.NewWeapon(e.reg, world.NewID(), lName(t), e.rarity(L, t), lInt(t, "value"))
	w.Damage = lFloat(t, "damage")
	w.Durability = lFloat(t, "durability")
	if w.Durability == 0 {
		w.Durability = 100
	}
	w.ArmorPenetration = lFloat(t, "armor_penetration")
	w.Quality = lStr(t, "quality")
	w.Material = lStr(t, "material")
	return pushID(L, w.ID())
}

func (e *Engine) luaArmor(L *lua.LState) int {
	t := L.CheckTable(1)
	slot := world.ArmorSlotFromName(lStr(t, "slot"))
	if slot == world.SlotNone {
		L.ArgError(1, "unknown armor slot "+lStr(t, "slot"))
		return 0
	}
	a := world.NewArmor(e.reg, world.NewID(), slot, lName(t), e.rarity(L, t), lInt(t, "value"))
	a.Defense = lFloat(t, "defense")
	a.Quality = lStr(t, "quality")
	a.Material = lStr(t, "material")
	return pushID(L, a.ID())
}

func (e *Engine) luaPotion(L *lua.LState) int {
	t := L.CheckTable(1)
	p := world.NewPotion(e.reg, world.NewID(), lStr(t, "potion_type"), lName(t), e.rarity(L, t), lInt(t, "value"))
	for _, s := range lStrings(t, "effects") {
		p.Effects = append(p.Effects, world.StatusEffect(s))
	}
	return pushID(L, p.ID())
}

// --- entities ---

func (e *Engine) luaNPC(L *lua.LState) int {
	t := L.CheckTable(1)
	n := e.entity(L, t, world.KindNPC)
	n.NPC.Personality = lStr(t, "personality")
	n.NPC.HasQuest = lBool(t, "has_quest")
	return pushID(L, n.ID())
}

func (e *Engine) luaEnemy(L *lua.LState) int {
	t := L.CheckTable(1)
	en := e.entity(L, t, world.KindEnemy)
	en.Enemy.EnemyType = lStr(t, "enemy_type")
	en.Enemy.QuestEnemy = lBool(t, "quest_enemy")
	return pushID(L, en.ID())
}

func (e *Engine) luaPlayer(L *lua.LState) int {
	if e.player != nil {
		L.RaiseError("player already created")
		return 0
	}
	t := L.CheckTable(1)
	p := e.entity(L, t, world.KindPlayer)
	p.Player.Class = lStr(t, "class")
	if lvl := lInt(t, "level"); lvl > 0 {
		p.Player.Level = lvl
	}
	p.Player.GameState = lStr(t, "game_state")
	e.player = p
	return pushID(L, p.ID())
}

// entity builds the fields every entity kind shares.
func (e *Engine) entity(L *lua.LState, t *lua.LTable, kind world.EntityKind) *world.Entity {
	ent := world.NewEntity(e.reg, world.NewID(), kind, lName(t), world.NilID)
	ent.HP = lFloat(t, "hp")
	if ent.HP <= 0 {
		ent.HP = 10
	}
	ent.MaxHP = lFloat(t, "max_hp")
	if ent.MaxHP < ent.HP {
		ent.MaxHP = ent.HP
	}
	ent.Defense = lFloat(t, "defense")
	if st, ok := t.RawGetString("stats").(*lua.LTable); ok {
		ent.Stats = world.Stats{
			Strength:     lInt(st, "strength"),
			Dexterity:    lInt(st, "dexterity"),
			Vitality:     lInt(st, "vitality"),
			Intelligence: lInt(st, "intelligence"),
			Luck:         lInt(st, "luck"),
			Charisma:     lInt(st, "charisma"),
		}
	}
	for _, id := range e.ids(L, t, "items") {
		ent.Pickup(e.item(L, id))
	}
	if v := t.RawGetString("weapon"); v != lua.LNil {
		w, ok := e.item(L, e.id(L, v)).(*world.Weapon)
		if !ok {
			L.RaiseError("%s: weapon is not a weapon", ent.Name)
		}
		ent.Wield(w)
	}
	for _, id := range e.ids(L, t, "armor") {
		a, ok := e.item(L, id).(*world.Armor)
		if !ok {
			L.RaiseError("%s: armor %s is not armor", ent.Name, id)
		}
		ent.Wear(a)
	}
	if v := t.RawGetString("location"); v != lua.LNil {
		loc := e.location(L, e.id(L, v))
		if s, ok := loc.(*world.Shop); ok {
			s.Enter(ent)
		} else {
			ent.MoveTo(loc)
		}
	}
	if eff, ok := t.RawGetString("effects").(*lua.LTable); ok {
		eff.ForEach(func(k, v lua.LValue) {
			ent.ApplyEffect(world.StatusEffect(lua.LVAsString(k)), int(lua.LVAsNumber(v)))
		})
	}
	return ent
}

// --- locations ---

func (e *Engine) luaTown(L *lua.LState) int {
	t := L.CheckTable(1)
	town := world.NewTown(e.reg, world.NewID(), lName(t), lBool(t, "starting"))
	return pushID(L, town.ID())
}

func (e *Engine) luaShop(L *lua.LState) int {
	t := L.CheckTable(1)
	town, ok := e.location(L, e.id(L, t.RawGetString("town"))).(*world.Town)
	if !ok {
		L.ArgError(1, "shop town is not a town")
		return 0
	}
	typ := world.ShopType(lStr(t, "type"))
	switch typ {
	case "":
		typ = world.ShopGeneral
	case world.ShopBlacksmith, world.ShopTavern, world.ShopEmporium, world.ShopGeneral:
	default:
		L.ArgError(1, "unknown shop type "+string(typ))
		return 0
	}
	s := world.NewShop(e.reg, world.NewID(), lName(t), typ)
	town.AddShop(s)
	if v := t.RawGetString("owner"); v != lua.LNil {
		owner := e.entityByID(L, e.id(L, v))
		s.Owner = owner
		s.Enter(owner)
	}
	return pushID(L, s.ID())
}

func (e *Engine) luaDungeon(L *lua.LState) int {
	t := L.CheckTable(1)
	d := world.NewDungeon(e.reg, world.NewID(), lName(t))
	floors, _ := t.RawGetString("floors").(*lua.LTable)
	for i := 1; floors != nil && i <= floors.Len(); i++ {
		ft, ok := floors.RawGetInt(i).(*lua.LTable)
		if !ok {
			L.ArgError(1, "floors must be tables")
			return 0
		}
		f := world.NewFloor(e.reg, world.NewID(), i, lFloat(ft, "difficulty"))
		d.AddFloor(f)
		for _, id := range e.ids(L, ft, "enemies") {
			en := e.entityByID(L, id)
			if en.Kind() != world.KindEnemy {
				L.RaiseError("floor %d: %s is not an enemy", i, en.Name)
			}
			f.Spawn(en)
		}
		if ct, ok := ft.RawGetString("chest").(*lua.LTable); ok {
			rarity := world.ChestRarity(lStr(ct, "rarity"))
			if rarity == "" {
				rarity = world.ChestCommon
			}
			c := world.NewChest(e.reg, world.NewID(), rarity)
			if v := ct.RawGetString("key"); v != lua.LNil {
				c.KeyID = e.item(L, e.id(L, v)).ID()
			}
			for _, id := range e.ids(L, ct, "items") {
				c.Add(e.item(L, id))
			}
			f.PlaceChest(c)
		}
	}
	if len(d.Floors) > 0 {
		d.Current = d.Floors[0]
	}
	d.RecalculateDifficulty()
	return pushID(L, d.ID())
}

func (e *Engine) luaWorld(L *lua.LState) int {
	t := L.CheckTable(1)
	w := world.NewWorld(e.reg, world.NewID())
	if name := lName(t); name != "" {
		w.SetName(name)
	}
	for _, id := range e.ids(L, t, "towns") {
		town, ok := e.location(L, id).(*world.Town)
		if !ok {
			L.RaiseError("world: %s is not a town", id)
		}
		w.Towns = append(w.Towns, town)
	}
	for _, id := range e.ids(L, t, "dungeons") {
		d, ok := e.location(L, id).(*world.Dungeon)
		if !ok {
			L.RaiseError("world: %s is not a dungeon", id)
		}
		w.Dungeons = append(w.Dungeons, d)
	}
	return pushID(L, w.ID())
}

// --- lookups ---

func (e *Engine) id(L *lua.LState, v lua.LValue) world.ID {
	s, ok := v.(lua.LString)
	if !ok {
		L.RaiseError("expected an id, got %s", v.Type().String())
		return world.NilID
	}
	id, err := world.ParseID(string(s))
	if err != nil {
		L.RaiseError("%v", err)
	}
	return id
}

func (e *Engine) ids(L *lua.LState, t *lua.LTable, key string) []world.ID {
	list, ok := t.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}
	out := make([]world.ID, 0, list.Len())
	for i := 1; i <= list.Len(); i++ {
		out = append(out, e.id(L, list.RawGetInt(i)))
	}
	return out
}

func (e *Engine) item(L *lua.LState, id world.ID) world.Item {
	it := e.reg.LookupItem(id)
	if it == nil {
		L.RaiseError("unknown item %s", id)
	}
	return it
}

func (e *Engine) entityByID(L *lua.LState, id world.ID) *world.Entity {
	ent := e.reg.LookupEntity(id)
	if ent == nil {
		L.RaiseError("unknown entity %s", id)
	}
	return ent
}

func (e *Engine) location(L *lua.LState, id world.ID) world.Location {
	loc := e.reg.LookupLocation(id)
	if loc == nil {
		L.RaiseError("unknown location %s", id)
	}
	return loc
}

func (e *Engine) rarity(L *lua.LState, t *lua.LTable) world.Rarity {
	r := world.Rarity(lStr(t, "rarity"))
	if r == "" {
		return world.RarityCommon
	}
	if !r.Valid() {
		L.ArgError(1, "unknown rarity "+string(r))
	}
	return r
}

// --- Lua helpers ---

func pushID(L *lua.LState, id world.ID) int {
	L.Push(lua.LString(id.String()))
	return 1
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

func lFloat(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

func lBool(t *lua.LTable, key string) bool {
	return lua.LVAsBool(t.RawGetString(key))
}

// lName reads the name field in NFC so that names typed with combining
// marks compare equal to precomposed ones.
func lName(t *lua.LTable) string {
	return norm.NFC.String(lStr(t, "name"))
}

func lStrings(t *lua.LTable, key string) []string {
	list, ok := t.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}
	out := make([]string, 0, list.Len())
	for i := 1; i <= list.Len(); i++ {
		out = append(out, lua.LVAsString(list.RawGetInt(i)))
	}
	return out
}
