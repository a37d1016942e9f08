package models

import (
	"time"

	"github.com/uptrace/bun"
)

// KVEntry is one persisted key-value pair. Session, tab and layout state
// are stored as opaque string values keyed by their storage key.
type KVEntry struct {
	bun.BaseModel `bun:"table:kv_entries,alias:kv"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
