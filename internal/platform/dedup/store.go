// Package dedup records provider transaction ids that have already triggered
// notifications, so repeated webhook deliveries for the same transaction do
// not send duplicate mail. The store only gates mail: reconciliation itself
// stays idempotent without it.
package dedup

import (
	"context"
	"time"
)

// Store marks transactions as notified. MarkNotified returns true when the
// transaction was already recorded by an earlier call, meaning the caller
// should skip notification. First writer wins.
type Store interface {
	MarkNotified(ctx context.Context, transactionID string, now time.Time) (alreadySeen bool, err error)
}
