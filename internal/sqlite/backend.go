package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/manifest/pkg/types"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "manifest.db"

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Backend is the persistent store adapter. It owns schema creation and
// migration and exposes the typed operations of the engine: the feature
// tree store, the criterion tracker, the session/task lifecycle manager,
// notes, and the history log.
//
// All writes run through withWriteTx (see tx.go), which serializes them
// and guarantees all-or-nothing visibility. Reads query the pooled handle
// directly; since writes are atomic, a reader may see a slightly stale
// snapshot but never a partial one.
type Backend struct {
	mu       sync.RWMutex // guards attach/detach state
	writeMu  sync.Mutex   // serializes write transactions
	attached bool
	config   types.Config
	db       *sql.DB
}

// NewBackend creates a detached backend; call Attach before use.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens (or creates) the database under config.DataDir, applies
// the base schema and then all pending additive migrations. No operation
// is accepted before migration completes. Returns ErrAlreadyAttached on
// a second call.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(config.DataDir, DBFileName)
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("applying %s: %w", pragma, err)
		}
	}

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach closes the database. Idempotent: detaching a detached backend
// succeeds. After Detach, operations return ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	db := b.db
	b.db = nil
	if db != nil {
		return db.Close()
	}
	return nil
}

// handle returns the live database handle, or ErrDetached.
func (b *Backend) handle() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.db, nil
}

// author returns the history author label from config.
func (b *Backend) author() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.config.Author == "" {
		return types.DefaultAuthor
	}
	return b.config.Author
}

// applyMigrations adds any missing columns from the migrations list.
// Idempotent: a column already present is skipped, so re-running at every
// Attach is safe.
func applyMigrations(db *sql.DB) error {
	for _, m := range migrations {
		present, err := columnExists(db, m.table, m.column)
		if err != nil {
			return fmt.Errorf("inspecting %s.%s: %w", m.table, m.column, err)
		}
		if present {
			continue
		}
		if _, err := db.Exec(m.ddl); err != nil {
			return fmt.Errorf("migrating %s.%s: %w", m.table, m.column, err)
		}
	}
	return nil
}

// columnExists reports whether the table already has the named column.
func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Stats holds aggregate store counts, used by the status command.
type Stats struct {
	Features       int
	ActiveSessions int
	Tasks          int
	HistoryEntries int
}

// Stats returns aggregate counts over the store.
func (b *Backend) Stats() (*Stats, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	s := &Stats{}
	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM features", &s.Features},
		{"SELECT COUNT(*) FROM sessions WHERE status = 'active'", &s.ActiveSessions},
		{"SELECT COUNT(*) FROM tasks", &s.Tasks},
		{"SELECT COUNT(*) FROM feature_history", &s.HistoryEntries},
	}
	for _, c := range counts {
		if err := db.QueryRow(c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("counting: %w", err)
		}
	}
	return s, nil
}

// nowUTC returns the current time truncated to whole seconds in UTC,
// matching the RFC3339 text stored in timestamp columns.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
