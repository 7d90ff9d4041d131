// Package storage is the persistence adapter of the session core. It reads
// room rows and writes playback snapshots and chat messages through
// database/sql, on SQLite (modernc.org/sqlite) or PostgreSQL (lib/pq).
package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var errNoDB = fmt.Errorf("storage: missing database connection")

type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

type Options struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

type dialect struct {
	name     string
	serialPK string
}

var dialects = map[string]dialect{
	DriverSQLite:   {name: DriverSQLite, serialPK: "INTEGER PRIMARY KEY AUTOINCREMENT"},
	DriverPostgres: {name: DriverPostgres, serialPK: "BIGSERIAL PRIMARY KEY"},
}

// rebind turns ? placeholders into $n for PostgreSQL.
func (d dialect) rebind(query string) string {
	if d.name != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Open connects to the database named by driver and dsn.
func Open(driver, dsn string, options Options) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		if err := configureSQLite(db, dsn, options); err != nil {
			_ = db.Close()
			return nil, err
		}
	} else if options.MaxOpenConns > 0 {
		db.SetMaxOpenConns(options.MaxOpenConns)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping %s: %w", driver, err)
	}
	return &Store{db: db, dialect: d, now: time.Now}, nil
}

func configureSQLite(db *sql.DB, dsn string, options Options) error {
	// Every connection to :memory: is a separate database.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	} else if options.MaxOpenConns > 0 {
		db.SetMaxOpenConns(options.MaxOpenConns)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return err
	}
	if dsn != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return err
		}
	}
	busyTimeoutMs := int(options.BusyTimeout / time.Millisecond)
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMs)); err != nil {
		return err
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) exec(query string) string {
	return s.dialect.rebind(query)
}
