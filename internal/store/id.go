package store

import (
	"strings"

	"github.com/google/uuid"
)

// idPrefix is the conventional (opaque to the core) note id prefix, spec §3.
const idPrefix = "qp-"

// NewID generates an opaque note id from a UUIDv7, the way the teacher's
// internal/store generates ticket ids, base32-shortened for a terser token.
func NewID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	return idPrefix + shortToken(u), nil
}

// shortToken renders a uuid as a lowercase, unpadded base32 token.
func shortToken(u uuid.UUID) string {
	const alphabet = "0123456789abcdefghjkmnpqrstvwxyz" // Crockford-ish, no padding chars

	b := u[:]

	var sb strings.Builder

	bits := 0
	val := 0

	for _, by := range b {
		val = (val << 8) | int(by)
		bits += 8

		for bits >= 5 {
			bits -= 5
			sb.WriteByte(alphabet[(val>>bits)&0x1F])
		}
	}

	if bits > 0 {
		sb.WriteByte(alphabet[(val<<(5-bits))&0x1F])
	}

	return sb.String()
}
