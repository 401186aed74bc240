package core

import (
	"fmt"

	"github.com/google/uuid"
)

// typeIDNamespace is the namespace used to derive name based type ids.
var typeIDNamespace = uuid.MustParse("6c1f3c1e-5b9e-4a5e-9a0e-a9d1e3b0c0de")

// TypeID is the 128-bit identifier of an asset kind. It is stable across builds
// and does not depend on the Go type that represents the asset in memory.
type TypeID uuid.UUID

// NilTypeID is never a valid asset kind.
var NilTypeID = TypeID(uuid.Nil)

// ParseTypeID parses the canonical textual form of a type id.
func ParseTypeID(s string) (TypeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilTypeID, fmt.Errorf("%w %q: %v", ErrInvalidTypeID, s, err)
	}
	if u == uuid.Nil {
		return NilTypeID, fmt.Errorf("%w: nil uuid", ErrInvalidTypeID)
	}
	return TypeID(u), nil
}

// MustTypeID is like ParseTypeID but panics on malformed input. Meant for
// package level asset kind declarations.
func MustTypeID(s string) TypeID {
	id, err := ParseTypeID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// TypeIDFromName derives a deterministic type id from a fully qualified name.
func TypeIDFromName(name string) TypeID {
	return TypeID(uuid.NewSHA1(typeIDNamespace, []byte(name)))
}

func (id TypeID) IsNil() bool {
	return id == NilTypeID
}

func (id TypeID) String() string {
	return uuid.UUID(id).String()
}
