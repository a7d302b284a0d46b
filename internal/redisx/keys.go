package redisx

import "time"

const (
	// Per-user cart hash: cart:user_{user_id}, field = product_id, value = qty
	KeyCart = "cart:user_%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	// Sliding window, refreshed on every successful cart mutation.
	TTLCart = 7 * 24 * time.Hour

	TTLDedup = 48 * time.Hour
)
