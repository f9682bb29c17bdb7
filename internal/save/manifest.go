package save

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ManifestFile lists a digest for every file copied into a backup.
const ManifestFile = "MANIFEST"

// ErrManifestMismatch means a backup no longer matches its manifest.
var ErrManifestMismatch = errors.New("backup does not match manifest")

type manifestEntry struct {
	name string
	sum  []byte
}

func newDigest() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only a key longer than 64 bytes fails; there is no key.
		panic(err)
	}
	return h
}

func writeManifest(dir string, entries []manifestEntry) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s  %s\n", hex.EncodeToString(e.sum), e.name)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func readManifest(dir string) (map[string]string, error) {
	f, err := os.Open(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	out := make(map[string]string)
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		sum, name, ok := strings.Cut(text, "  ")
		if !ok {
			return nil, fmt.Errorf("manifest line %d: %w", line, ErrManifestMismatch)
		}
		out[name] = sum
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return out, nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := newDigest()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyBackup re-hashes every file in a backup directory and compares it
// with the manifest written when the backup was made.
func (m *Manager) VerifyBackup(dir string) error {
	want, err := readManifest(dir)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Name() == ManifestFile || !e.Type().IsRegular() {
			continue
		}
		sum, ok := want[e.Name()]
		if !ok {
			return fmt.Errorf("%s: unlisted file %s: %w", dir, e.Name(), ErrManifestMismatch)
		}
		got, err := fileDigest(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("hash %s: %w", e.Name(), err)
		}
		if got != sum {
			return fmt.Errorf("%s: %s changed: %w", dir, e.Name(), ErrManifestMismatch)
		}
		seen[e.Name()] = true
	}
	for name := range want {
		if !seen[name] {
			return fmt.Errorf("%s: %s missing: %w", dir, name, ErrManifestMismatch)
		}
	}
	return nil
}
