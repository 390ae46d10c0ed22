package ticket

import "github.com/oklog/ulid/v2"

// NewID generates a fresh ticket id: a 26-character Crockford-base32 ULID,
// already in the canonical uppercase form.
func NewID() string {
	return ulid.Make().String()
}
