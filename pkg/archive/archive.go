// Package archive journals sessions into a sqlite database for later
// inspection. It is write-only from the server's point of view: nothing is
// read back when a server starts.
package archive

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("no archived session")

// Record is one archived session. Content is the saved automerge document
// holding the text and its per-contribution history.
type Record struct {
	ID        string
	StartedAt time.Time
	UpdatedAt time.Time
	Version   uint64
	Text      string
	Content   []byte
}

type Archive struct {
	database *sql.DB
}

func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	a := &Archive{database: db}
	if err := a.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) init() error {
	if _, err := a.database.Exec(
		`CREATE TABLE IF NOT EXISTS sessions (
		id text not null primary key,
		started_at integer not null,
		updated_at integer not null,
		version integer not null,
		text text not null,
		content text not null
		)`,
	); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	return nil
}

// Record stores rec, replacing an earlier record with the same ID. It reports
// whether anything changed.
func (a *Archive) Record(ctx context.Context, rec Record) (bool, error) {
	res, err := a.database.ExecContext(
		ctx,
		`INSERT INTO sessions (id, started_at, updated_at, version, text, content) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			updated_at = excluded.updated_at,
			version = excluded.version,
			text = excluded.text,
			content = excluded.content
		WHERE sessions.version != excluded.version`,
		rec.ID,
		rec.StartedAt.UnixNano(),
		rec.UpdatedAt.UnixNano(),
		int64(rec.Version),
		rec.Text,
		base64.StdEncoding.EncodeToString(rec.Content),
	)
	if err != nil {
		return false, fmt.Errorf("failed to record session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count rows affected by record: %w", err)
	}
	return n > 0, nil
}

// Latest returns the most recently updated session.
func (a *Archive) Latest(ctx context.Context) (Record, error) {
	var (
		rec                  Record
		startedAt, updatedAt int64
		version              int64
		rawContent           string
	)
	if err := a.database.QueryRowContext(
		ctx,
		`SELECT id, started_at, updated_at, version, text, content FROM sessions ORDER BY updated_at DESC LIMIT 1`,
	).Scan(&rec.ID, &startedAt, &updatedAt, &version, &rec.Text, &rawContent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("failed to query: %w", err)
	}
	content, err := base64.StdEncoding.DecodeString(rawContent)
	if err != nil {
		return Record{}, fmt.Errorf("failed to decode: %w", err)
	}
	rec.StartedAt = time.Unix(0, startedAt)
	rec.UpdatedAt = time.Unix(0, updatedAt)
	rec.Version = uint64(version)
	rec.Content = content
	return rec, nil
}

func (a *Archive) Close() error {
	return a.database.Close()
}
