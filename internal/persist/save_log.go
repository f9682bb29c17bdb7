package persist

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ironkeep/worldkeeper/internal/save"
)

// SaveLogRow is one recorded save.
type SaveLogRow struct {
	ID        int64
	SavedAt   time.Time
	BackupDir string
	Items     int32
	Entities  int32
	Dungeons  int32
	Locations int32
	HasPlayer bool
}

// SaveLogRepo appends a row per completed save. It satisfies save.Observer.
type SaveLogRepo struct {
	db *DB
}

func NewSaveLogRepo(db *DB) *SaveLogRepo {
	return &SaveLogRepo{db: db}
}

func rowFromSummary(s save.Summary) SaveLogRow {
	return SaveLogRow{
		SavedAt:   s.At.UTC(),
		BackupDir: s.Backup,
		Items:     int32(s.Counts["items"]),
		Entities:  int32(s.Counts["entities"]),
		Dungeons:  int32(s.Counts["dungeons"]),
		Locations: int32(s.Counts["locations"]),
		HasPlayer: s.Counts["player"] > 0,
	}
}

func (r *SaveLogRepo) SaveCompleted(ctx context.Context, s save.Summary) error {
	row := rowFromSummary(s)
	if _, err := r.db.Pool.Exec(ctx,
		`INSERT INTO save_log (saved_at, backup_dir, items, entities, dungeons, locations, has_player)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		row.SavedAt, row.BackupDir, row.Items, row.Entities, row.Dungeons, row.Locations, row.HasPlayer,
	); err != nil {
		return fmt.Errorf("insert save_log: %w", err)
	}
	r.db.log.Debug("save recorded", zap.String("backup", row.BackupDir))
	return nil
}

// Recent returns up to limit saves, newest first.
func (r *SaveLogRepo) Recent(ctx context.Context, limit int) ([]SaveLogRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, saved_at, backup_dir, items, entities, dungeons, locations, has_player
		 FROM save_log ORDER BY saved_at DESC, id DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SaveLogRow
	for rows.Next() {
		var row SaveLogRow
		if err := rows.Scan(
			&row.ID, &row.SavedAt, &row.BackupDir,
			&row.Items, &row.Entities, &row.Dungeons, &row.Locations, &row.HasPlayer,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
