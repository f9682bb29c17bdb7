// Package snapshot reads and writes one file of records of a single kind.
//
// A snapshot is a YAML document with a small header and a list of records.
// Each record carries its kind discriminator; the reader looks at the kind
// before decoding anything else.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ironkeep/worldkeeper/internal/record"
)

// Version is the only snapshot format version this build reads and writes.
const Version = 1

var (
	// ErrCorrupt means the file exists but could not be parsed at all.
	ErrCorrupt = errors.New("corrupt snapshot")
	// ErrVersion means the file declares a format this build cannot read.
	ErrVersion = errors.New("unsupported snapshot version")
)

// File is the decoded content of one snapshot.
type File struct {
	Name    string
	Records []record.Record

	// Skipped holds one error per record that could not be decoded.
	Skipped []error
}

type document struct {
	Snapshot string          `yaml:"snapshot"`
	Version  int             `yaml:"version"`
	Records  []record.Record `yaml:"records"`
}

type rawDocument struct {
	Snapshot string      `yaml:"snapshot"`
	Version  int         `yaml:"version"`
	Records  []yaml.Node `yaml:"records"`
}

// Write replaces the file at path with recs. The new content is written to a
// temporary file in the same directory and renamed over the old one.
func Write(path, name string, recs []record.Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	if recs == nil {
		recs = []record.Record{}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(document{Snapshot: name, Version: Version, Records: recs}); err != nil {
		return fmt.Errorf("encode snapshot %s: %w", name, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode snapshot %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("sync snapshot %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp snapshot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot %s: %w", name, err)
	}
	return nil
}

// Read parses the snapshot at path. A missing or empty file yields an empty
// File and no error. A file that does not parse as a snapshot returns
// ErrCorrupt; a single record that does not decode is reported in
// File.Skipped and the rest still load.
func Read(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &File{}, nil
	}

	var doc rawDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w: %v", path, ErrCorrupt, err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("parse %s: %w: %d", path, ErrVersion, doc.Version)
	}

	f := &File{Name: doc.Snapshot, Records: make([]record.Record, 0, len(doc.Records))}
	for i := range doc.Records {
		rec, err := decodeRecord(&doc.Records[i])
		if err != nil {
			f.Skipped = append(f.Skipped, fmt.Errorf("%s record %d (line %d): %w", path, i, doc.Records[i].Line, err))
			continue
		}
		f.Records = append(f.Records, rec)
	}
	return f, nil
}

// decodeRecord reads the discriminator first, then decodes the whole node
// into the variant it names.
func decodeRecord(n *yaml.Node) (record.Record, error) {
	var probe struct {
		Kind record.Kind `yaml:"kind"`
	}
	if err := n.Decode(&probe); err != nil {
		return nil, err
	}
	if probe.Kind == "" {
		return nil, errors.New("missing kind")
	}
	rec, ok := record.New(probe.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", probe.Kind)
	}
	if err := n.Decode(rec); err != nil {
		return nil, err
	}
	return rec, nil
}
