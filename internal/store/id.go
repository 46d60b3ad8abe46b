package store

import "github.com/oklog/ulid/v2"

// NewID returns a ULID from the package's monotonic entropy source, so ids minted within one
// millisecond still sort in creation order.
func NewID() string {
	return ulid.Make().String()
}
