package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironkeep/worldkeeper/internal/record"
	"github.com/ironkeep/worldkeeper/internal/world"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves", "items_snapshot")
	sword := &record.WeaponRecord{
		ItemHeader: record.ItemHeader{Kind: record.KindWeapon, ID: world.NewID(), Name: "Sword", Rarity: "rare", Value: 40},
		Damage:     12.5,
	}
	rope := &record.ItemRecord{ItemHeader: record.ItemHeader{Kind: record.KindItem, ID: world.NewID(), Name: "Rope", Value: 1}}

	if err := Write(path, "items", []record.Record{sword, rope}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.Name != "items" || len(f.Records) != 2 || len(f.Skipped) != 0 {
		t.Fatalf("got name=%q records=%d skipped=%v", f.Name, len(f.Records), f.Skipped)
	}
	w, ok := f.Records[0].(*record.WeaponRecord)
	if !ok {
		t.Fatalf("first record is %T, want weapon", f.Records[0])
	}
	if w.ID != sword.ID || w.Damage != 12.5 || w.Rarity != "rare" {
		t.Fatalf("weapon = %+v", w)
	}
	if _, ok := f.Records[1].(*record.ItemRecord); !ok {
		t.Fatalf("second record is %T, want item", f.Records[1])
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestReadMissingFileIsEmpty(t *testing.T) {
	f, err := Read(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(f.Records) != 0 {
		t.Fatalf("got %d records", len(f.Records))
	}
}

func TestReadEmptyFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(path, []byte("\n  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Read(path)
	if err != nil || len(f.Records) != 0 {
		t.Fatalf("Read = %v, %v", f, err)
	}
}

func TestWriteEmptyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dungeons_snapshot")
	if err := Write(path, "dungeons", nil); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "records: []") {
		t.Fatalf("unexpected content:\n%s", raw)
	}
	f, err := Read(path)
	if err != nil || len(f.Records) != 0 {
		t.Fatalf("Read = %v, %v", f, err)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"broken yaml", "snapshot: items\nversion: 1\nrecords:\n  - kind: [unterminated\n", ErrCorrupt},
		{"not a document", "just some words", ErrCorrupt},
		{"records not a list", "snapshot: items\nversion: 1\nrecords: 7\n", ErrCorrupt},
		{"future version", "snapshot: items\nversion: 9\nrecords: []\n", ErrVersion},
		{"missing version", "snapshot: items\nrecords: []\n", ErrVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "snap")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Read(path)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Read error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadSkipsBadRecords(t *testing.T) {
	good := world.NewID()
	content := "snapshot: items\nversion: 1\nrecords:\n" +
		"  - kind: item\n    id: " + good.String() + "\n    name: Rope\n    value: 1\n" +
		"  - name: no kind\n" +
		"  - kind: dragon\n    id: " + world.NewID().String() + "\n" +
		"  - kind: weapon\n    id: not-a-uuid\n" +
		"  - just a scalar\n"
	path := filepath.Join(t.TempDir(), "items_snapshot")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(f.Records) != 1 || f.Records[0].RecordID() != good {
		t.Fatalf("records = %v", f.Records)
	}
	if len(f.Skipped) != 4 {
		t.Fatalf("skipped = %v, want 4 errors", f.Skipped)
	}
}

func TestDiscriminatorDecidesVariant(t *testing.T) {
	// An armor record with weapon-only fields must still decode as armor.
	id := world.NewID()
	content := "snapshot: items\nversion: 1\nrecords:\n" +
		"  - kind: armor\n    id: " + id.String() + "\n    slot: boots\n    damage: 9\n"
	path := filepath.Join(t.TempDir(), "items_snapshot")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	a, ok := f.Records[0].(*record.ArmorRecord)
	if !ok || a.Slot != "boots" {
		t.Fatalf("record = %#v", f.Records[0])
	}
}
