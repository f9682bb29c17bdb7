package save

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ironkeep/worldkeeper/internal/config"
	"github.com/ironkeep/worldkeeper/internal/snapshot"
	"github.com/ironkeep/worldkeeper/internal/world"
)

func newTestManager(t *testing.T, limit int) (*Manager, *world.Registries) {
	t.Helper()
	root := t.TempDir()
	cfg := config.StorageConfig{
		SaveDir:     filepath.Join(root, "saves"),
		BackupDir:   filepath.Join(root, "backups", "saves"),
		BackupLimit: limit,
	}
	reg := world.NewRegistries()
	m := NewManager(cfg, reg, zaptest.NewLogger(t))
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return m, reg
}

func newPlayer(reg *world.Registries, name string) *world.Entity {
	p := world.NewEntity(reg, world.NewID(), world.KindPlayer, name, world.NilID)
	p.HP, p.MaxHP = 50, 50
	p.Player.Class = "warrior"
	return p
}

func TestSaveLoadPlayerAndDungeon(t *testing.T) {
	m, reg := newTestManager(t, 10)
	w := world.NewWeapon(reg, world.NewID(), "Cleaver", world.RarityEpic, 90)
	w.Damage = 17.25
	e := newPlayer(reg, "Ada")
	e.Wield(w)
	d := world.NewDungeon(reg, world.NewID(), "Hollow")

	if err := m.Save(e); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reg.Reset()
	if reg.Items.Len()+reg.Entities.Len()+reg.Locations.Len()+reg.Containers.Len() != 0 {
		t.Fatal("registries not empty after reset")
	}

	p, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p == nil || p.ID() != e.ID() {
		t.Fatalf("player = %v", p)
	}
	got, ok := reg.LookupItem(w.ID()).(*world.Weapon)
	if !ok {
		t.Fatal("weapon not registered after load")
	}
	if got.Damage != 17.25 {
		t.Fatalf("damage = %v, want 17.25", got.Damage)
	}
	if p.Equip.Weapon == nil || p.Equip.Weapon.ID() != w.ID() {
		t.Fatal("player weapon not restored")
	}
	if p.Equip.Weapon != got {
		t.Fatal("player weapon is not the registered weapon")
	}
	d2, ok := reg.LookupLocation(d.ID()).(*world.Dungeon)
	if !ok {
		t.Fatal("dungeon not registered after load")
	}
	if len(d2.Floors) != 0 {
		t.Fatalf("dungeon floors = %d, want 0", len(d2.Floors))
	}
}

func TestCycleClosure(t *testing.T) {
	m, reg := newTestManager(t, 10)
	owner := world.NewEntity(reg, world.NewID(), world.KindNPC, "Mira", world.NilID)
	town := world.NewTown(reg, world.NewID(), "Ashford", true)
	shop := world.NewShop(reg, world.NewID(), "Mira's Tavern", world.ShopTavern)
	town.AddShop(shop)
	shop.Owner = owner
	shop.Enter(owner)
	player := newPlayer(reg, "Ada")
	shop.Enter(player)

	if err := m.Save(player); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reg.Reset()
	p, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	s, ok := reg.LookupLocation(shop.ID()).(*world.Shop)
	if !ok {
		t.Fatal("shop not registered")
	}
	e := reg.LookupEntity(owner.ID())
	if e == nil || s.Owner != e {
		t.Fatal("shop owner does not resolve to reconstructed owner")
	}
	if e.Location != world.Location(s) {
		t.Fatal("owner location does not resolve to reconstructed shop")
	}
	if p.Location != world.Location(s) {
		t.Fatal("player location does not resolve to reconstructed shop")
	}
	if len(s.Occupants) != 2 {
		t.Fatalf("occupants = %d, want 2", len(s.Occupants))
	}
	if m.LastLoad().Dangling != 0 {
		t.Fatalf("dangling = %d", m.LastLoad().Dangling)
	}
}

func buildDungeon(reg *world.Registries) (*world.Dungeon, *world.Floor, *world.Entity, *world.Chest) {
	d := world.NewDungeon(reg, world.NewID(), "Crypt")
	f := world.NewFloor(reg, world.NewID(), 1, 4)
	d.AddFloor(f)
	d.Current = f
	d.RecalculateDifficulty()
	enemy := world.NewEntity(reg, world.NewID(), world.KindEnemy, "Ghoul", world.NilID)
	enemy.Enemy.EnemyType = "undead"
	f.Spawn(enemy)
	chest := world.NewChest(reg, world.NewID(), world.ChestEpic)
	key := world.NewBaseItem(reg, world.NewID(), "Bone Key", world.RarityRare, 0)
	chest.KeyID = key.ID()
	chest.Add(world.NewBaseItem(reg, world.NewID(), "Gold", world.RarityCommon, 25))
	f.PlaceChest(chest)
	return d, f, enemy, chest
}

func TestDungeonRoundTrip(t *testing.T) {
	m, reg := newTestManager(t, 10)
	d, f, enemy, chest := buildDungeon(reg)
	root := world.NewWorld(reg, world.NewID())
	root.Dungeons = append(root.Dungeons, d)

	if err := m.Save(nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reg.Reset()
	p, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p != nil {
		t.Fatal("no player was saved")
	}

	d2 := reg.LookupLocation(d.ID()).(*world.Dungeon)
	if d2.Difficulty != 4 || len(d2.Floors) != 1 || d2.Current == nil || d2.Current.ID() != f.ID() {
		t.Fatalf("dungeon = %+v", d2)
	}
	f2 := d2.Floors[0]
	if f2.Dungeon() != d2 || len(f2.Enemies) != 1 || f2.Enemies[0].ID() != enemy.ID() {
		t.Fatalf("floor = %+v", f2)
	}
	if f2.Enemies[0].Location != world.Location(f2) {
		t.Fatal("enemy location does not resolve to its floor")
	}
	if f2.Chest == nil || f2.Chest.ID() != chest.ID() || f2.Chest.KeyID != chest.KeyID || f2.Chest.Size() != 1 {
		t.Fatalf("chest = %+v", f2.Chest)
	}
	if f2.Chest.Floor() != f2 {
		t.Fatal("chest floor back-reference not restored")
	}
	w2 := reg.LookupLocation(root.ID()).(*world.World)
	if len(w2.Dungeons) != 1 || w2.Dungeons[0] != d2 {
		t.Fatal("world dungeons not restored")
	}
}

func TestLoadOrderSensitivity(t *testing.T) {
	m, reg := newTestManager(t, 10)
	d, _, _, _ := buildDungeon(reg)
	if err := m.Save(nil); err != nil {
		t.Fatalf("Save: %v", err)
	}

	wrong := pipeline()
	wrong[1], wrong[2] = wrong[2], wrong[1] // dungeons before entities
	if _, err := m.load(m.cfg.SaveDir, wrong); err != nil {
		t.Fatalf("load: %v", err)
	}
	floor := reg.LookupLocation(d.ID()).(*world.Dungeon).Floors[0]
	if len(floor.Enemies) != 0 {
		t.Fatal("enemies resolved even though entities loaded after dungeons")
	}
	if m.LastLoad().Dangling == 0 {
		t.Fatal("expected dangling enemy references")
	}

	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	floor = reg.LookupLocation(d.ID()).(*world.Dungeon).Floors[0]
	if len(floor.Enemies) != 1 || m.LastLoad().Dangling != 0 {
		t.Fatal("mandated order should resolve every enemy")
	}
}

func TestPipelineOrder(t *testing.T) {
	var names []string
	for _, st := range pipeline() {
		names = append(names, st.name)
	}
	want := "items,entities,dungeons,locations,player"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("pipeline = %s, want %s", got, want)
	}
}

func TestRetentionBound(t *testing.T) {
	const limit = 4
	m, reg := newTestManager(t, limit)
	player := newPlayer(reg, "Ada")

	var created []string
	for i := 0; i < limit+5; i++ {
		if err := m.Save(player); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		latest, err := m.LatestBackup()
		if err != nil {
			t.Fatal(err)
		}
		created = append(created, latest)
	}

	kept, err := m.Backups()
	if err != nil {
		t.Fatal(err)
	}
	if len(kept) != limit {
		t.Fatalf("kept %d backups, want %d", len(kept), limit)
	}
	want := created[len(created)-limit:]
	for i := range want {
		if kept[i] != want[i] {
			t.Fatalf("kept[%d] = %s, want %s", i, kept[i], want[i])
		}
	}
}

func TestBackupNamesAreUnique(t *testing.T) {
	m, reg := newTestManager(t, 10)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	player := newPlayer(reg, "Ada")
	for i := 0; i < 3; i++ {
		if err := m.Save(player); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	kept, err := m.Backups()
	if err != nil {
		t.Fatal(err)
	}
	if len(kept) != 3 {
		t.Fatalf("kept %d backups, want 3", len(kept))
	}
}

func TestPlayerFallbackToNewestBackup(t *testing.T) {
	m, reg := newTestManager(t, 10)
	player := newPlayer(reg, "Ada")
	player.Player.Level = 3
	if err := m.Save(player); err != nil {
		t.Fatal(err)
	}
	player.Player.Level = 5
	if err := m.Save(player); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(m.cfg.SaveDir, PlayerFile)); err != nil {
		t.Fatal(err)
	}

	reg.Reset()
	p, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p == nil || p.Player.Level != 5 {
		t.Fatalf("player = %+v, want level 5 from newest backup", p)
	}
	if !strings.HasPrefix(m.LastLoad().PlayerFrom, m.cfg.BackupDir) {
		t.Fatalf("player read from %s, want a backup", m.LastLoad().PlayerFrom)
	}
}

func TestCorruptSnapshotIsFatal(t *testing.T) {
	m, reg := newTestManager(t, 10)
	player := newPlayer(reg, "Ada")
	world.NewBaseItem(reg, world.NewID(), "Rope", world.RarityCommon, 1)
	if err := m.Save(player); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(m.cfg.SaveDir, ItemsFile)
	if err := os.WriteFile(path, []byte("records: [ {kind: item, id"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := m.Load()
	if !errors.Is(err, snapshot.ErrCorrupt) {
		t.Fatalf("Load error = %v, want ErrCorrupt", err)
	}

	backup, err := m.LatestBackup()
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.LoadFrom(backup)
	if err != nil {
		t.Fatalf("LoadFrom backup: %v", err)
	}
	if p == nil || p.ID() != player.ID() || reg.Items.Len() != 1 {
		t.Fatal("backup did not restore the world")
	}
}

func TestFirstRunLoad(t *testing.T) {
	m, _ := newTestManager(t, 10)
	if m.HasSave() {
		t.Fatal("fresh directory reports a save")
	}
	p, err := m.Load()
	if err != nil || p != nil {
		t.Fatalf("Load = %v, %v; want nil, nil", p, err)
	}
	for _, dir := range []string{m.cfg.SaveDir, m.cfg.BackupDir} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("directory %s not created: %v", dir, err)
		}
	}
}

func TestHasSaveAndWipe(t *testing.T) {
	m, reg := newTestManager(t, 10)
	if err := m.Save(newPlayer(reg, "Ada")); err != nil {
		t.Fatal(err)
	}
	if !m.HasSave() {
		t.Fatal("HasSave = false after Save")
	}
	if err := m.Wipe(); err != nil {
		t.Fatal(err)
	}
	if m.HasSave() {
		t.Fatal("HasSave = true after Wipe")
	}
	if _, err := m.LatestBackup(); !errors.Is(err, ErrNoBackup) {
		t.Fatalf("LatestBackup error = %v, want ErrNoBackup", err)
	}
}

func TestVerifyBackup(t *testing.T) {
	m, reg := newTestManager(t, 10)
	if err := m.Save(newPlayer(reg, "Ada")); err != nil {
		t.Fatal(err)
	}
	dir, err := m.LatestBackup()
	if err != nil {
		t.Fatal(err)
	}
	if err := m.VerifyBackup(dir); err != nil {
		t.Fatalf("VerifyBackup: %v", err)
	}

	path := filepath.Join(dir, PlayerFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.VerifyBackup(dir); !errors.Is(err, ErrManifestMismatch) {
		t.Fatalf("VerifyBackup error = %v, want ErrManifestMismatch", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := m.VerifyBackup(dir); !errors.Is(err, ErrManifestMismatch) {
		t.Fatalf("VerifyBackup error = %v, want ErrManifestMismatch", err)
	}
}

type recordingObserver struct {
	got []Summary
}

func (o *recordingObserver) SaveCompleted(_ context.Context, s Summary) error {
	o.got = append(o.got, s)
	return nil
}

func TestObserverSeesEachSave(t *testing.T) {
	m, reg := newTestManager(t, 10)
	obs := &recordingObserver{}
	m.SetObserver(obs)
	world.NewBaseItem(reg, world.NewID(), "Rope", world.RarityCommon, 1)
	world.NewBaseItem(reg, world.NewID(), "Torch", world.RarityCommon, 2)
	if err := m.Save(newPlayer(reg, "Ada")); err != nil {
		t.Fatal(err)
	}
	if len(obs.got) != 1 {
		t.Fatalf("observer called %d times", len(obs.got))
	}
	s := obs.got[0]
	if s.Counts["items"] != 2 || s.Counts["player"] != 1 || s.Backup == "" {
		t.Fatalf("summary = %+v", s)
	}
}

func TestAutoSave(t *testing.T) {
	m, reg := newTestManager(t, 10)
	player := newPlayer(reg, "Ada")
	a := NewAutoSave(m, func() *world.Entity { return player }, zaptest.NewLogger(t), 3)

	for i := 1; i <= 6; i++ {
		saved, err := a.Tick()
		if err != nil {
			t.Fatal(err)
		}
		if want := i%3 == 0; saved != want {
			t.Fatalf("tick %d saved = %v, want %v", i, saved, want)
		}
	}
	kept, _ := m.Backups()
	if len(kept) != 2 {
		t.Fatalf("backups = %d, want 2", len(kept))
	}

	off := NewAutoSave(m, func() *world.Entity { return player }, zaptest.NewLogger(t), 0)
	if saved, _ := off.Tick(); saved {
		t.Fatal("disabled autosave saved")
	}
}

func TestRetentionUnderFixedClockKeepsNewest(t *testing.T) {
	const limit = 4
	m, reg := newTestManager(t, limit)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	player := newPlayer(reg, "Ada")

	var created []string
	for i := 0; i < 12; i++ {
		if err := m.Save(player); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		latest, err := m.LatestBackup()
		if err != nil {
			t.Fatal(err)
		}
		if len(created) > 0 && latest == created[len(created)-1] {
			t.Fatalf("save %d: newest backup is still %s", i, latest)
		}
		created = append(created, latest)
	}

	kept, err := m.Backups()
	if err != nil {
		t.Fatal(err)
	}
	want := created[len(created)-limit:]
	if len(kept) != limit {
		t.Fatalf("kept %d backups, want %d", len(kept), limit)
	}
	for i := range want {
		if kept[i] != want[i] {
			t.Fatalf("kept[%d] = %s, want %s", i, filepath.Base(kept[i]), filepath.Base(want[i]))
		}
	}
}

func TestBackupNameOrder(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"save_20260301T120000.000Z", "save_20260301T120000.000Z_1", true},
		{"save_20260301T120000.000Z_2", "save_20260301T120000.000Z_10", true},
		{"save_20260301T120000.000Z_10", "save_20260301T120000.000Z_2", false},
		{"save_20260301T120000.000Z_10", "save_20260301T120001.000Z", true},
	}
	for _, tt := range tests {
		if got := backupNameLess(tt.a, tt.b); got != tt.want {
			t.Errorf("backupNameLess(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
