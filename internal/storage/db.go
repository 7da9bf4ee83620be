package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"rocketpass/internal"
)

// runTimeLayout is fixed width so createdAt sorts chronologically as text.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS seasons (
  season INTEGER PRIMARY KEY,
  sourceUrl TEXT NOT NULL,
  updatedAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rewards (
  season INTEGER NOT NULL,
  position INTEGER NOT NULL,
  tier INTEGER NOT NULL,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  rarity TEXT NOT NULL,
  isFree INTEGER NOT NULL,
  imageUrl TEXT NOT NULL DEFAULT '',
  PRIMARY KEY(season, position),
  FOREIGN KEY(season) REFERENCES seasons(season)
);
CREATE INDEX IF NOT EXISTS idx_rewards_season_tier ON rewards(season, tier);

CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  season INTEGER NOT NULL,
  sourceUrl TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  items INTEGER NOT NULL DEFAULT 0,
  error TEXT NOT NULL DEFAULT '',
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_createdAt ON runs(createdAt);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceSeasonRewards swaps the stored catalog of a season for items, in
// the given order, inside one transaction.
func (d *DB) ReplaceSeasonRewards(season int, sourceURL string, items []internal.RewardItem) error {
	if len(items) == 0 {
		return errors.New("refusing to store an empty catalog")
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`
INSERT INTO seasons (season, sourceUrl, updatedAt) VALUES (?, ?, ?)
ON CONFLICT(season) DO UPDATE SET sourceUrl = excluded.sourceUrl, updatedAt = excluded.updatedAt
`, season, sourceURL, now); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM rewards WHERE season = ?`, season); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO rewards (season, position, tier, name, type, rarity, isFree, imageUrl)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, item := range items {
		if _, err := stmt.Exec(season, i, item.Tier, item.Name, item.Type, item.Rarity, item.IsFree, item.ImageURL); err != nil {
			return fmt.Errorf("insert reward %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// ListRewards returns the stored catalog of a season in its original
// order. track filters by premium/free when non-empty.
func (d *DB) ListRewards(season int, track internal.Track) ([]internal.RewardItem, error) {
	query := `
SELECT tier, name, type, rarity, isFree, imageUrl
FROM rewards WHERE season = ?`
	args := []any{season}
	switch track {
	case internal.TrackFree:
		query += ` AND isFree = 1`
	case internal.TrackPremium:
		query += ` AND isFree = 0`
	case "":
	default:
		return nil, fmt.Errorf("unknown track: %s", track)
	}
	query += ` ORDER BY position ASC`

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.RewardItem{}
	for rows.Next() {
		var item internal.RewardItem
		if err := rows.Scan(&item.Tier, &item.Name, &item.Type, &item.Rarity, &item.IsFree, &item.ImageURL); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (d *DB) ListSeasons() ([]internal.SeasonSummary, error) {
	rows, err := d.conn.Query(`
SELECT
  s.season,
  s.sourceUrl,
  COUNT(r.position),
  COALESCE(SUM(CASE WHEN r.isFree = 0 THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN r.isFree = 1 THEN 1 ELSE 0 END), 0),
  COALESCE(MAX(r.tier), 0),
  s.updatedAt
FROM seasons s
LEFT JOIN rewards r ON r.season = s.season
GROUP BY s.season
ORDER BY s.season DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.SeasonSummary{}
	for rows.Next() {
		var s internal.SeasonSummary
		if err := rows.Scan(&s.Season, &s.SourceURL, &s.Items, &s.Premium, &s.Free, &s.MaxTier, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(run internal.RunRecord) error {
	timingsJSON, _ := json.Marshal(run.Timings)
	countsJSON, _ := json.Marshal(run.Counts)
	createdAt := run.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(runTimeLayout)
	}
	_, err := d.conn.Exec(`
INSERT INTO runs (id, season, sourceUrl, status, items, error, timingsJson, countsJson, createdAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.Season, run.SourceURL, string(run.Status), run.Items, run.Error, string(timingsJSON), string(countsJSON), createdAt)
	return err
}

// ListRuns returns the most recent runs first.
func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
SELECT id, season, sourceUrl, status, items, error, timingsJson, countsJson, createdAt
FROM runs ORDER BY createdAt DESC, rowid DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.RunRecord{}
	for rows.Next() {
		var run internal.RunRecord
		var status, timingsJSON, countsJSON string
		if err := rows.Scan(&run.ID, &run.Season, &run.SourceURL, &status, &run.Items, &run.Error, &timingsJSON, &countsJSON, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Status = internal.RunStatus(status)
		_ = json.Unmarshal([]byte(timingsJSON), &run.Timings)
		_ = json.Unmarshal([]byte(countsJSON), &run.Counts)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
