// Package history keeps a bounded SQLite record of fetched schedules and of
// the alarms that already went off.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/smokyabdulrahman/prayer-widget/internal/prayer"
)

const (
	dateLayout = "2006-01-02"

	// DefaultKeepDays is how many days of schedules are retained.
	DefaultKeepDays = 7
)

type DB struct {
	handler  *sql.DB
	log      zerolog.Logger
	lock     sync.RWMutex
	squirrel sq.StatementBuilderType
	keepDays int
}

// Record is one stored schedule.
type Record struct {
	Date      string
	Schedule  prayer.Schedule
	Origin    string
	FetchedAt time.Time
}

// Open opens (and creates or migrates) the database at path. keepDays <= 0
// selects DefaultKeepDays.
func Open(path string, keepDays int, log zerolog.Logger) (*DB, error) {
	if keepDays <= 0 {
		keepDays = DefaultKeepDays
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "unable to create database directory")
	}

	db := &DB{
		log:      log.With().Str("module", "history").Logger(),
		squirrel: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		keepDays: keepDays,
	}

	var err error
	db.handler, err = sql.Open("sqlite", path+"?_pragma=busy_timeout%3d1000")
	if err != nil {
		return nil, errors.Wrap(err, "unable to open history database")
	}

	if _, err = db.handler.Exec(`PRAGMA journal_mode = wal;`); err != nil {
		db.handler.Close()
		return nil, errors.Wrap(err, "unable to enable WAL mode")
	}

	if err := db.migrate(); err != nil {
		db.handler.Close()
		return nil, errors.Wrap(err, "failed to migrate schema")
	}

	return db, nil
}

func (db *DB) migrate() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	var version int
	if err := db.handler.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return errors.Wrap(err, "failed to query schema version")
	}

	if version == len(migrations) {
		return nil
	} else if version > len(migrations) {
		return errors.Errorf("history schema version (%d) is newer than supported (%d)", version, len(migrations))
	}

	tx, err := db.handler.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if version == 0 {
		if _, err := tx.Exec(schema); err != nil {
			return errors.Wrap(err, "failed to initialize schema")
		}
		db.log.Debug().Msg("created history schema")
	} else {
		for i := version; i < len(migrations); i++ {
			if migrations[i] == "" {
				continue
			}
			if _, err := tx.Exec(migrations[i]); err != nil {
				return errors.Wrapf(err, "failed to execute migration #%v", i)
			}
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(migrations))); err != nil {
		return errors.Wrap(err, "failed to bump schema version")
	}

	return tx.Commit()
}

func (db *DB) Close() error {
	if _, err := db.handler.Exec(`PRAGMA optimize;`); err != nil {
		db.handler.Close()
		return errors.Wrap(err, "query planner optimization")
	}
	return db.handler.Close()
}

// RecordSchedule stores date's schedule, replacing any earlier copy, and
// prunes days older than the retention window.
func (db *DB) RecordSchedule(ctx context.Context, date time.Time, sched prayer.Schedule, origin string) error {
	payload, err := json.Marshal(sched)
	if err != nil {
		return errors.Wrap(err, "error encoding schedule")
	}

	query, args, err := db.squirrel.
		Replace("schedules").
		Columns("date", "payload", "origin", "fetched_at").
		Values(date.Format(dateLayout), string(payload), origin, time.Now().UTC().Format(time.RFC3339)).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	db.log.Trace().Str("query", query).Interface("args", args).Msg("RecordSchedule")

	db.lock.Lock()
	_, err = db.handler.ExecContext(ctx, query, args...)
	db.lock.Unlock()
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return db.Prune(ctx, date)
}

// Schedules returns up to limit records, newest first. limit <= 0 returns all.
func (db *DB) Schedules(ctx context.Context, limit int) ([]Record, error) {
	builder := db.squirrel.
		Select("date", "payload", "origin", "fetched_at").
		From("schedules").
		OrderBy("date DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	db.lock.RLock()
	defer db.lock.RUnlock()

	rows, err := db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r                  Record
			payload, fetchedAt string
		)
		if err := rows.Scan(&r.Date, &payload, &r.Origin, &fetchedAt); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		if err := json.Unmarshal([]byte(payload), &r.Schedule); err != nil {
			db.log.Warn().Err(err).Str("date", r.Date).Msg("skipping unreadable schedule")
			continue
		}
		r.FetchedAt, _ = time.Parse(time.RFC3339, fetchedAt)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return records, nil
}

// Prune drops schedules and alarms older than the retention window ending at today.
func (db *DB) Prune(ctx context.Context, today time.Time) error {
	cutoff := today.AddDate(0, 0, -(db.keepDays - 1)).Format(dateLayout)

	db.lock.Lock()
	defer db.lock.Unlock()

	for _, table := range []string{"schedules", "alarms"} {
		query, args, err := db.squirrel.
			Delete(table).
			Where(sq.Lt{"date": cutoff}).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "error building query")
		}

		if _, err := db.handler.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrapf(err, "error pruning %s", table)
		}
	}
	return nil
}

// MarkFired records that name's alarm went off on date.
// Marking the same pair twice is not an error.
func (db *DB) MarkFired(ctx context.Context, date, name string, at time.Time) error {
	query, args, err := db.squirrel.
		Insert("alarms").
		Options("OR IGNORE").
		Columns("date", "prayer", "fired_at").
		Values(date, name, at.UTC().Format(time.RFC3339)).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	db.lock.Lock()
	defer db.lock.Unlock()

	if _, err := db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}
	return nil
}

// Fired returns the prayers whose alarm already went off on date.
func (db *DB) Fired(ctx context.Context, date string) ([]string, error) {
	query, args, err := db.squirrel.
		Select("prayer").
		From("alarms").
		Where(sq.Eq{"date": date}).
		OrderBy("fired_at").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	db.lock.RLock()
	defer db.lock.RUnlock()

	rows, err := db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return names, nil
}
