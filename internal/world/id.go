package world

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is the identifier of one domain object. It is a random 128-bit token
// assigned once at creation and never reused.
type ID uuid.UUID

// NilID is the zero identifier. It never names a live object.
var NilID ID

// NewID returns a fresh random identifier.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID parses the canonical text form of an identifier.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, fmt.Errorf("parse id %q: %w", s, err)
	}
	return ID(u), nil
}

// IsZero reports whether id is NilID. yaml.v3 uses it for omitempty.
func (id ID) IsZero() bool { return id == NilID }

func (id ID) String() string { return uuid.UUID(id).String() }

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = NilID
		return nil
	}
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
