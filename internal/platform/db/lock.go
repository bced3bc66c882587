package db

import (
	"context"
	"fmt"
)

// LockKey takes a transaction scoped advisory lock keyed by the hash of key.
// It must run inside a transaction; the lock is released on commit or rollback.
func LockKey(ctx context.Context, exec DBTX, key string) error {
	if _, err := exec.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("platform/db: advisory lock %q: %w", key, err)
	}
	return nil
}
