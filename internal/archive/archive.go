// Package archive persists completed mission records to a local SQLite
// database. Records are append-only: written once, never mutated, read
// back newest first.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// StorageError reports a failed archive read or write. The simulation
// results the caller holds in memory stay valid; only persistence failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Record is the archived outcome of one simulated transmission (or one
// aggregated pass). Metadata is a free-form blob for forward-compatible
// extension.
type Record struct {
	ID               int64
	Timestamp        time.Time
	MessageSent      string
	MessageReceived  string
	BER              float64
	SNRdB            float64
	PacketsTotal     int
	PacketsCorrupted int
	Metadata         map[string]any
}

// Filter narrows a mission query. Nil fields are ignored.
type Filter struct {
	Limit    int
	MinSNRdB *float64
	MaxBER   *float64
}

// Archive wraps the mission database.
type Archive struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS missions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp REAL NOT NULL,
	message_sent TEXT,
	message_received TEXT,
	ber REAL,
	snr_db REAL,
	packets_total INTEGER,
	packets_corrupted INTEGER,
	metadata TEXT
);
CREATE INDEX IF NOT EXISTS missions_timestamp ON missions(timestamp);
`

// Open opens (creating if needed) the mission database at path. The
// special path ":memory:" keeps the archive in memory, which the tests
// use.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	// The archive only ever sees sequential access, one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &StorageError{Op: "init schema", Err: err}
	}
	return &Archive{db: db}, nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error {
	if err := a.db.Close(); err != nil {
		return &StorageError{Op: "close", Err: err}
	}
	return nil
}

// SaveMission appends rec and returns its assigned id. Valid input is
// never rejected; only write failures surface, as StorageError.
func (a *Archive) SaveMission(ctx context.Context, rec Record) (int64, error) {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	var metadata any
	if rec.Metadata != nil {
		data, err := json.Marshal(rec.Metadata)
		if err != nil {
			return 0, &StorageError{Op: "encode metadata", Err: err}
		}
		metadata = string(data)
	}
	res, err := a.db.ExecContext(ctx, `
		INSERT INTO missions (timestamp, message_sent, message_received, ber, snr_db, packets_total, packets_corrupted, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		float64(ts.UnixNano())/1e9, rec.MessageSent, rec.MessageReceived,
		rec.BER, rec.SNRdB, rec.PacketsTotal, rec.PacketsCorrupted, metadata)
	if err != nil {
		return 0, &StorageError{Op: "insert", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &StorageError{Op: "insert id", Err: err}
	}
	return id, nil
}

// QueryMissions returns records matching filter, newest first. Every call
// runs a fresh query, so the sequence is restartable.
func (a *Archive) QueryMissions(ctx context.Context, filter Filter) ([]Record, error) {
	query := `SELECT id, timestamp, message_sent, message_received, ber, snr_db, packets_total, packets_corrupted, metadata
		FROM missions WHERE 1=1`
	args := []any{}
	if filter.MinSNRdB != nil {
		query += " AND snr_db >= ?"
		args = append(args, *filter.MinSNRdB)
	}
	if filter.MaxBER != nil {
		query += " AND ber <= ?"
		args = append(args, *filter.MaxBER)
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "query", Err: err}
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "scan", Err: err}
	}
	return records, nil
}

// MissionByID fetches one record. A missing id returns sql.ErrNoRows
// wrapped in a StorageError.
func (a *Archive) MissionByID(ctx context.Context, id int64) (Record, error) {
	row := a.db.QueryRowContext(ctx, `SELECT id, timestamp, message_sent, message_received, ber, snr_db, packets_total, packets_corrupted, metadata
		FROM missions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Stats summarizes the whole archive.
type Stats struct {
	TotalMissions   int
	AverageBER      float64
	AverageSNRdB    float64
	TotalPackets    int
	TotalCorrupted  int
	PacketErrorRate float64
}

// Summarize computes aggregate statistics over all archived missions.
func (a *Archive) Summarize(ctx context.Context) (Stats, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(ber), 0), COALESCE(AVG(snr_db), 0),
		       COALESCE(SUM(packets_total), 0), COALESCE(SUM(packets_corrupted), 0)
		FROM missions`)
	var s Stats
	if err := row.Scan(&s.TotalMissions, &s.AverageBER, &s.AverageSNRdB, &s.TotalPackets, &s.TotalCorrupted); err != nil {
		return Stats{}, &StorageError{Op: "summarize", Err: err}
	}
	if s.TotalPackets > 0 {
		s.PacketErrorRate = float64(s.TotalCorrupted) / float64(s.TotalPackets)
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec      Record
		ts       float64
		metadata sql.NullString
	)
	if err := row.Scan(&rec.ID, &ts, &rec.MessageSent, &rec.MessageReceived,
		&rec.BER, &rec.SNRdB, &rec.PacketsTotal, &rec.PacketsCorrupted, &metadata); err != nil {
		return Record{}, &StorageError{Op: "scan", Err: err}
	}
	sec := int64(ts)
	rec.Timestamp = time.Unix(sec, int64((ts-float64(sec))*1e9))
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &rec.Metadata); err != nil {
			return Record{}, &StorageError{Op: "decode metadata", Err: err}
		}
	}
	return rec, nil
}
