// Package investigation archives closed lifecycle investigations
// (resolved, timed-out, or finalized-appearance) in a size-capped
// SQLite database (WAL + busy_timeout + incremental-vacuum FIFO store),
// complementing internal/lifecycle's per-odd JSON log tree with a
// queryable, bounded history.
package investigation

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fahdbohli/oddsarb/internal/apperr"
	"github.com/fahdbohli/oddsarb/internal/telemetry"
)

const (
	defaultMaxBytes int64 = 256 << 20 // 256 MiB
	evictBatchSize        = 50
	vacuumInterval        = 100
)

// Record is one closed investigation, archived after
// internal/lifecycle decides it is resolved, timed out, or finalized.
type Record struct {
	ID                int64
	UniqueID          string
	GroupID           string
	OddName           string
	InvestigationType string // appearance_investigations | disappearance_investigations | timed_out
	OverpriceSource   string
	ClosedAt          time.Time
	Payload           map[string]any
}

// Archive is a FIFO-bounded SQLite store of closed investigations.
type Archive struct {
	db           *sql.DB
	maxBytes     int64
	mu           sync.Mutex
	cachedSize   int64
	evictCounter int
}

// Open opens (creating if absent) the archive database at path,
// capped at maxBytes of payload (defaultMaxBytes when maxBytes <= 0).
func Open(path string, maxBytes int64) (*Archive, error) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperr.Wrap(apperr.IOWrite, "create archive dir", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, apperr.Wrap(apperr.CacheUnreadable, "open investigation archive", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`PRAGMA auto_vacuum = INCREMENTAL`,
		`CREATE TABLE IF NOT EXISTS investigations (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			unique_id           TEXT    NOT NULL,
			group_id            TEXT    NOT NULL,
			odd_name            TEXT    NOT NULL,
			investigation_type  TEXT    NOT NULL,
			overprice_source    TEXT    NOT NULL DEFAULT '',
			closed_at           TEXT    NOT NULL,
			byte_size           INTEGER NOT NULL,
			payload             TEXT    NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_inv_group ON investigations(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_inv_unique ON investigations(unique_id)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, apperr.Wrap(apperr.ConfigInvalid, "init investigation schema: "+stmt, err)
		}
	}

	var size int64
	if err := db.QueryRow(`SELECT COALESCE(SUM(byte_size), 0) FROM investigations`).Scan(&size); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.CacheUnreadable, "read archive size", err)
	}

	telemetry.Infof("investigation archive: opened %s rows_bytes=%d", path, size)
	return &Archive{db: db, maxBytes: maxBytes, cachedSize: size}, nil
}

// Record appends a closed investigation, evicting oldest rows if the
// archive exceeds its byte budget.
func (a *Archive) Record(rec Record) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return apperr.Wrap(apperr.RecordMalformed, "marshal investigation payload", err)
	}
	size := int64(len(payload))

	a.mu.Lock()
	defer a.mu.Unlock()

	_, err = a.db.Exec(
		`INSERT INTO investigations (unique_id, group_id, odd_name, investigation_type, overprice_source, closed_at, byte_size, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UniqueID, rec.GroupID, rec.OddName, rec.InvestigationType, rec.OverpriceSource,
		rec.ClosedAt.UTC().Format(time.RFC3339Nano), size, string(payload),
	)
	if err != nil {
		return apperr.Wrap(apperr.IOWrite, "insert investigation record", err)
	}

	a.cachedSize += size
	if a.cachedSize > a.maxBytes {
		a.evict()
	}
	return nil
}

// evict removes oldest rows until the archive is back under budget.
// Must be called with a.mu held.
func (a *Archive) evict() {
	for a.cachedSize > a.maxBytes {
		var freed int64
		err := a.db.QueryRow(
			`WITH deleted AS (
				DELETE FROM investigations
				WHERE id IN (SELECT id FROM investigations ORDER BY id ASC LIMIT ?)
				RETURNING byte_size
			)
			SELECT COALESCE(SUM(byte_size), 0) FROM deleted`,
			evictBatchSize,
		).Scan(&freed)
		if err != nil || freed == 0 {
			break
		}
		a.cachedSize -= freed
		a.evictCounter++

		if a.evictCounter%vacuumInterval == 0 {
			a.db.Exec(`PRAGMA incremental_vacuum`)
		}
	}
}

// ForGroup returns every archived investigation for groupID, most
// recent first.
func (a *Archive) ForGroup(groupID string) ([]Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.db.Query(
		`SELECT id, unique_id, group_id, odd_name, investigation_type, overprice_source, closed_at, payload
		 FROM investigations WHERE group_id = ? ORDER BY id DESC`, groupID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CacheUnreadable, "query investigations for "+groupID, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var closedAt, payload string
		if err := rows.Scan(&r.ID, &r.UniqueID, &r.GroupID, &r.OddName, &r.InvestigationType, &r.OverpriceSource, &closedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan investigation row: %w", err)
		}
		r.ClosedAt, _ = time.Parse(time.RFC3339Nano, closedAt)
		json.Unmarshal([]byte(payload), &r.Payload)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
