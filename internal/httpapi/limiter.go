package httpapi

import (
	"context"
	"time"

	"cdr-analyzer/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const uploadSlotsKey = "cdr:upload:slots"

// UploadLimiter caps how many upload passes may run at once across all API
// processes. An upload holds the database and the request goroutine for the
// whole parse+insert pass, so a fleet-wide cap protects the store from a
// burst of large files.
//
// Backed by a shared redis counter with a TTL so crashed processes cannot
// leak slots.
type UploadLimiter struct {
	rdb   *redis.Client
	slots int
	ttl   time.Duration
}

func NewUploadLimiter(rdb *redis.Client, slots int, ttl time.Duration) *UploadLimiter {
	return &UploadLimiter{rdb: rdb, slots: slots, ttl: ttl}
}

// Acquire grabs one upload slot. Returns false when the cap is exhausted.
func (l *UploadLimiter) Acquire(ctx context.Context) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, l.rdb, uploadSlotsKey, l.slots, l.ttl)
}

// Release frees a previously acquired slot. Best-effort; the TTL reclaims
// slots that a crashed process never returned.
func (l *UploadLimiter) Release(ctx context.Context) {
	_ = utils.ReleaseConcurrencyCap(ctx, l.rdb, uploadSlotsKey)
}
