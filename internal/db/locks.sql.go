package db

import (
	"context"
)

const advisoryXactLock = `SELECT pg_advisory_xact_lock($1)`

// AdvisoryXactLock blocks until the transaction-scoped lock is held. It is
// released on commit or rollback.
func (q *Queries) AdvisoryXactLock(ctx context.Context, key int64) error {
	_, err := q.db.Exec(ctx, advisoryXactLock, key)
	return err
}
