// Package completions records which items were completed on which dates.
package completions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/harrisonrobin/dayline/pkg/model"

	_ "modernc.org/sqlite"
)

// Log is a sqlite-backed completion log.
type Log struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the completion database at path.
func Open(ctx context.Context, path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("completions: ensure dir: %w", err)
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Log{db: db, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS completions (
			item_kind TEXT NOT NULL,
			item_id TEXT NOT NULL,
			date TEXT NOT NULL,
			completed_at_unixms INTEGER NOT NULL,
			PRIMARY KEY (item_kind, item_id, date)
		);`,
		`CREATE INDEX IF NOT EXISTS completions_by_date ON completions(date);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("completions: migrate: %w", err)
		}
	}
	return nil
}

func (l *Log) Close() error {
	return l.db.Close()
}

// Mark records the item as completed on date, or clears it when done is false.
func (l *Log) Mark(ctx context.Context, key model.Key, date string, done bool) error {
	if _, err := model.ParseDate(date); err != nil {
		return fmt.Errorf("completions: invalid date %q: %w", date, err)
	}
	if done {
		_, err := l.db.ExecContext(ctx,
			`INSERT INTO completions(item_kind, item_id, date, completed_at_unixms) VALUES(?, ?, ?, ?)
			 ON CONFLICT(item_kind, item_id, date) DO UPDATE SET completed_at_unixms = excluded.completed_at_unixms`,
			string(key.Kind), key.ID, date, l.now().UnixMilli())
		return err
	}
	_, err := l.db.ExecContext(ctx,
		`DELETE FROM completions WHERE item_kind = ? AND item_id = ? AND date = ?`,
		string(key.Kind), key.ID, date)
	return err
}

// Completed reports whether the log holds a completion for key on date.
func (l *Log) Completed(ctx context.Context, key model.Key, date string) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx,
		`SELECT 1 FROM completions WHERE item_kind = ? AND item_id = ? AND date = ?`,
		string(key.Kind), key.ID, date).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CompletedOn lists the keys completed on date.
func (l *Log) CompletedOn(ctx context.Context, date string) ([]model.Key, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT item_kind, item_id FROM completions WHERE date = ? ORDER BY item_kind, item_id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Key
	for rows.Next() {
		var kind, id string
		if err := rows.Scan(&kind, &id); err != nil {
			return nil, err
		}
		out = append(out, model.Key{Kind: model.Kind(kind), ID: id})
	}
	return out, rows.Err()
}

// IsCompleted combines the item's own completion flags with the log. A
// non-recurring task carries its state on the task; a per-date exception
// flag wins for recurring items; everything else falls back to the log.
func (l *Log) IsCompleted(ctx context.Context, item model.ScheduledItem, date string) bool {
	return decide(item, date, func() bool {
		done, err := l.Completed(ctx, item.Key(), date)
		if err != nil {
			log.Printf("Warning: completion lookup for %s on %s: %v", item.Key(), date, err)
			return false
		}
		return done
	})
}

// Checker loads the completions of date with one query and returns a test
// equivalent to IsCompleted for items on that date.
func (l *Log) Checker(ctx context.Context, date string) (func(model.ScheduledItem) bool, error) {
	keys, err := l.CompletedOn(ctx, date)
	if err != nil {
		return nil, err
	}
	logged := make(map[model.Key]bool, len(keys))
	for _, k := range keys {
		logged[k] = true
	}
	return func(item model.ScheduledItem) bool {
		return decide(item, date, func() bool { return logged[item.Key()] })
	}, nil
}

func decide(item model.ScheduledItem, date string, inLog func() bool) bool {
	if ItemCompleted(item, date) {
		return true
	}
	if ex, ok := item.Exceptions[date]; ok && ex.Completed != nil {
		return *ex.Completed
	}
	return inLog()
}

// ItemCompleted reads only the completion flags stored on the item.
func ItemCompleted(item model.ScheduledItem, date string) bool {
	if ex, ok := item.Exceptions[date]; ok && ex.Completed != nil && *ex.Completed {
		return true
	}
	return item.Kind == model.KindTask && item.Task != nil && !item.Task.Recurring && item.Task.Completed
}
