// Package lock provides MySQL advisory locks that serialize snapshot writes across
// processes.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrLockTimeout is returned when the lock is held elsewhere for the whole timeout.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Lock acquisition timeouts in seconds. Zero fails at once when the lock is taken.
const (
	// DefaultTimeout is the default wait for a concurrent snapshot writer.
	DefaultTimeout = 10
	// TimeoutInfinite waits until the lock is acquired. MySQL treats negative values
	// as an infinite wait.
	TimeoutInfinite = -1
)

// NormalizeTimeout maps every negative value to TimeoutInfinite.
func NormalizeTimeout(seconds int) int {
	if seconds < 0 {
		return TimeoutInfinite
	}
	return seconds
}

// maxLockNameLength is MySQL's limit on GET_LOCK names.
const maxLockNameLength = 64

// AdvisoryLock is a named MySQL lock taken with GET_LOCK. MySQL binds the lock to the
// session that took it, so the lock pins one pooled connection until it is released.
type AdvisoryLock struct {
	db   *sql.DB
	conn *sql.Conn
	name string
}

// NewAdvisoryLock creates a lock with the given name. Nothing is acquired yet.
func NewAdvisoryLock(db *sql.DB, name string) *AdvisoryLock {
	return &AdvisoryLock{db: db, name: name}
}

// GenerateOntologyLockName returns "ontoforge:ontology:<name>" with characters outside
// [A-Za-z0-9_-] replaced by underscores, truncated to MySQL's lock name limit.
func GenerateOntologyLockName(ontology string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, ontology)

	name := "ontoforge:ontology:" + sanitized
	if len(name) > maxLockNameLength {
		name = name[:maxLockNameLength]
	}
	return name
}

// NewOntologyLock creates the lock guarding snapshot writes for one ontology.
func NewOntologyLock(db *sql.DB, ontology string) *AdvisoryLock {
	return NewAdvisoryLock(db, GenerateOntologyLockName(ontology))
}

// Name returns the lock name.
func (a *AdvisoryLock) Name() string {
	return a.name
}

// IsHeld reports whether this instance holds the lock.
func (a *AdvisoryLock) IsHeld() bool {
	return a.conn != nil
}

// Acquire waits up to timeoutSeconds for the lock. It returns false without error when
// the timeout expires.
//
// MySQL GET_LOCK() return values:
//   - 1: Lock was obtained successfully
//   - 0: Timeout was reached without obtaining the lock
//   - NULL: An error occurred (e.g., out of memory, thread killed)
func (a *AdvisoryLock) Acquire(ctx context.Context, timeoutSeconds int) (bool, error) {
	if a.IsHeld() {
		return true, nil
	}
	if a.db == nil {
		return false, fmt.Errorf("lock %q has no database", a.name)
	}

	conn, err := a.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to reserve connection for lock %q: %w", a.name, err)
	}

	var result sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", a.name, NormalizeTimeout(timeoutSeconds)).Scan(&result); err != nil {
		conn.Close()
		return false, fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}
	if !result.Valid {
		conn.Close()
		return false, fmt.Errorf("GET_LOCK returned NULL for lock %q", a.name)
	}

	switch result.Int64 {
	case 1:
		a.conn = conn
		return true, nil
	case 0:
		conn.Close()
		return false, nil
	default:
		conn.Close()
		return false, fmt.Errorf("unexpected GET_LOCK return value: %d", result.Int64)
	}
}

// Release releases the lock and returns its connection to the pool. It returns false
// when the lock was not held.
//
// MySQL RELEASE_LOCK() return values:
//   - 1: Lock was released successfully
//   - 0: Lock was not established by this thread
//   - NULL: Named lock did not exist
func (a *AdvisoryLock) Release(ctx context.Context) (bool, error) {
	if !a.IsHeld() {
		return false, nil
	}
	conn := a.conn
	a.conn = nil
	defer conn.Close()

	var result sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", a.name).Scan(&result); err != nil {
		return false, fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
	}
	if !result.Valid {
		return false, fmt.Errorf("RELEASE_LOCK returned NULL for lock %q (lock did not exist)", a.name)
	}
	return result.Int64 == 1, nil
}

// WithLock runs fn while holding the lock. The lock is released when fn returns or
// panics. ErrLockTimeout is returned if the lock is not acquired in time.
func (a *AdvisoryLock) WithLock(ctx context.Context, timeoutSeconds int, fn func() error) error {
	acquired, err := a.Acquire(ctx, timeoutSeconds)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: lock %q is held by another instance", ErrLockTimeout, a.name)
	}

	defer func() {
		// A cancelled ctx must not prevent the release.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = a.Release(releaseCtx)
	}()

	return fn()
}
