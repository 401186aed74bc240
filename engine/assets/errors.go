package assets

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTypeID is returned when two different descriptors claim the same TypeID.
	ErrDuplicateTypeID = errors.New("duplicate asset type id")
	// ErrUnknownAssetKind is returned by load calls for TypeIDs that were never registered.
	ErrUnknownAssetKind = errors.New("unknown asset kind")
	// ErrSourceNotFound is stored on a handle whose source key could not be resolved.
	ErrSourceNotFound = errors.New("asset source not found")

	ErrInvalidDescriptor  = errors.New("invalid asset kind descriptor")
	ErrRegistrySealed     = errors.New("asset registry is sealed")
	ErrAssetTypeMismatch  = errors.New("asset storage holds a different Go type")
	ErrAmbiguousAssetKind = errors.New("source key matches more than one asset kind")
	ErrInvalidHandle      = errors.New("invalid asset handle")
	ErrUnsupportedFormat  = errors.New("unsupported asset format")
)

// ImportError reports malformed or undecodable source bytes.
type ImportError struct {
	Key    string
	Reason error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import '%s': %v", e.Key, e.Reason)
}

func (e *ImportError) Unwrap() error {
	return e.Reason
}

// ProcessError reports a failure converting imported data into the runtime asset value.
type ProcessError struct {
	Key    string
	Reason error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("process '%s': %v", e.Key, e.Reason)
}

func (e *ProcessError) Unwrap() error {
	return e.Reason
}
