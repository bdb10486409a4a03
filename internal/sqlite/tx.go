package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Bounded retry for transient SQLITE_BUSY failures. Logical errors
// (NotFound, Conflict) are never retried; retrying cannot resolve an
// invariant breach.
const (
	writeRetryAttempts  = 5
	writeRetryBaseDelay = 10 * time.Millisecond
)

// withWriteTx runs fn inside a serialized write transaction. It is the
// concurrency guard for every multi-row invariant in the engine: the
// write mutex linearizes writers, and the transaction guarantees that fn
// either commits in full or leaves the store exactly as it was — on
// error returns and on panics alike.
//
// Transient busy failures from the driver are retried with backoff up to
// writeRetryAttempts; the transaction is re-run from the top each time,
// never resumed mid-way.
func (b *Backend) withWriteTx(fn func(tx *sql.Tx) error) error {
	db, err := b.handle()
	if err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	for attempt := 0; ; attempt++ {
		err := runTx(db, fn)
		if err == nil || !isBusy(err) || attempt >= writeRetryAttempts {
			return err
		}
		time.Sleep(writeRetryBaseDelay << attempt)
	}
}

// runTx executes one attempt of a write transaction. Rollback is
// guaranteed on every non-commit exit path, including panics in fn.
func runTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	return nil
}

// isBusy reports whether the error is a transient SQLite contention
// failure worth retrying.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
