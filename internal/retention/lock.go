package retention

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// Locker guards a run against overlapping runs. TryLock returns ok=false
// when another run holds the lock.
type Locker interface {
	TryLock(ctx context.Context) (unlock func(), ok bool, err error)
}

// LocalLocker serializes runs within one process
type LocalLocker struct {
	mu sync.Mutex
}

// TryLock implements Locker
func (l *LocalLocker) TryLock(context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}

// AdvisoryLockKey identifies the cleanup job among PostgreSQL advisory locks
const AdvisoryLockKey int64 = 0x6675656c6f6e65 // "fuelone"

// AdvisoryLocker serializes runs across processes with a session-level
// PostgreSQL advisory lock held on a dedicated connection.
type AdvisoryLocker struct {
	db  *gorm.DB
	key int64
}

// NewAdvisoryLocker creates a locker on the master database
func NewAdvisoryLocker(db *gorm.DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db, key: AdvisoryLockKey}
}

// TryLock implements Locker
func (l *AdvisoryLocker) TryLock(ctx context.Context) (func(), bool, error) {
	sqlDB, err := l.db.DB()
	if err != nil {
		return nil, false, err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock connection: %w", err)
	}

	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.key).Scan(&ok); err != nil {
		_ = conn.Close()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		_ = conn.Close()
		return nil, false, nil
	}

	return func() { release(conn, l.key) }, true, nil
}

func release(conn *sql.Conn, key int64) {
	// the lock also goes away with the session if the unlock fails
	_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", key)
	_ = conn.Close()
}
