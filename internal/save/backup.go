package save

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	backupPrefix = "save_"
	// backupStamp sorts lexicographically in time order.
	backupStamp = "20060102T150405.000Z"
)

// ErrNoBackup is returned when the backup directory holds no backups.
var ErrNoBackup = errors.New("no backup")

type backupDir struct {
	name    string
	path    string
	modTime time.Time
}

// backup copies the save directory into a new timestamp-named directory and
// writes its manifest.
func (m *Manager) backup(at time.Time) (string, error) {
	dir, err := m.newBackupDir(at.UTC().Format(backupStamp))
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(m.cfg.SaveDir)
	if err != nil {
		return "", fmt.Errorf("read save directory: %w", err)
	}
	var manifest []manifestEntry
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		sum, err := copyFile(filepath.Join(m.cfg.SaveDir, e.Name()), filepath.Join(dir, e.Name()))
		if err != nil {
			return "", fmt.Errorf("backup %s: %w", e.Name(), err)
		}
		manifest = append(manifest, manifestEntry{name: e.Name(), sum: sum})
		if err := os.Chtimes(filepath.Join(dir, e.Name()), at, at); err != nil {
			return "", fmt.Errorf("backup %s: %w", e.Name(), err)
		}
	}
	if err := writeManifest(dir, manifest); err != nil {
		return "", err
	}
	if err := os.Chtimes(dir, at, at); err != nil {
		return "", fmt.Errorf("stamp backup: %w", err)
	}
	return dir, nil
}

// newBackupDir creates the directory for a backup taken at stamp. A stamp
// already in use gets a suffix above every existing one, so a name freed by
// retention is never reused out of order.
func (m *Manager) newBackupDir(stamp string) (string, error) {
	existing, err := m.backups()
	if err != nil {
		return "", err
	}
	next := 0
	for _, d := range existing {
		if s, n := splitBackupName(d.name); s == stamp && n+1 > next {
			next = n + 1
		}
	}
	base := filepath.Join(m.cfg.BackupDir, backupPrefix+stamp)
	for n := next; ; n++ {
		dir := base
		if n > 0 {
			dir = base + "_" + strconv.Itoa(n)
		}
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("create backup: %w", err)
		}
	}
}

func copyFile(src, dst string) ([]byte, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, err
	}
	h := newDigest()
	if _, err := io.Copy(io.MultiWriter(out, h), in); err != nil {
		out.Close()
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// backups lists backup directories, oldest first. Equal modification times
// fall back to name order.
func (m *Manager) backups() ([]backupDir, error) {
	entries, err := os.ReadDir(m.cfg.BackupDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}
	var out []backupDir
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat backup %s: %w", e.Name(), err)
		}
		out = append(out, backupDir{
			name:    e.Name(),
			path:    filepath.Join(m.cfg.BackupDir, e.Name()),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].modTime.Equal(out[j].modTime) {
			return out[i].modTime.Before(out[j].modTime)
		}
		return backupNameLess(out[i].name, out[j].name)
	})
	return out, nil
}

// backupNameLess orders backup names by timestamp, then by collision
// suffix as a number, so save_X_2 comes before save_X_10.
func backupNameLess(a, b string) bool {
	aStamp, aN := splitBackupName(a)
	bStamp, bN := splitBackupName(b)
	if aStamp != bStamp {
		return aStamp < bStamp
	}
	if aN != bN {
		return aN < bN
	}
	return a < b
}

// splitBackupName returns the timestamp part of a backup name and its
// collision suffix, 0 when there is none.
func splitBackupName(name string) (string, int) {
	stamp := strings.TrimPrefix(name, backupPrefix)
	i := strings.LastIndexByte(stamp, '_')
	if i < 0 {
		return stamp, 0
	}
	n, err := strconv.Atoi(stamp[i+1:])
	if err != nil {
		return stamp, 0
	}
	return stamp[:i], n
}

// retain deletes the single oldest backup when there are more than the
// configured limit.
func (m *Manager) retain() error {
	dirs, err := m.backups()
	if err != nil {
		return err
	}
	if len(dirs) <= m.cfg.BackupLimit {
		return nil
	}
	oldest := dirs[0]
	if err := os.RemoveAll(oldest.path); err != nil {
		return fmt.Errorf("remove backup %s: %w", oldest.name, err)
	}
	m.log.Debug("backup removed", zap.String("backup", oldest.path), zap.Int("limit", m.cfg.BackupLimit))
	return nil
}

// Backups returns every backup directory, oldest first.
func (m *Manager) Backups() ([]string, error) {
	dirs, err := m.backups()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = d.path
	}
	return out, nil
}

// LatestBackup returns the newest backup directory.
func (m *Manager) LatestBackup() (string, error) {
	dirs, err := m.backups()
	if err != nil {
		return "", err
	}
	if len(dirs) == 0 {
		return "", ErrNoBackup
	}
	return dirs[len(dirs)-1].path, nil
}

// latestPlayerFile returns the player file with the newest modification time
// across all backups, or "" when no backup has one.
func (m *Manager) latestPlayerFile() (string, error) {
	dirs, err := m.backups()
	if err != nil {
		return "", err
	}
	var (
		best     string
		bestTime time.Time
	)
	for _, d := range dirs {
		path := filepath.Join(d.path, PlayerFile)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if best == "" || !info.ModTime().Before(bestTime) {
			best, bestTime = path, info.ModTime()
		}
	}
	return best, nil
}
