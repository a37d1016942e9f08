package bunx

import "github.com/google/uuid"

// NewUUIDv7 generates a time-ordered UUIDv7 string.
//
// Used for user ids and generated widget ids. It panics only if the entropy
// source fails, in which case nothing else in the process can work either.
func NewUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}
