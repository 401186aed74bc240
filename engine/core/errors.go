package core

import (
	"errors"
)

var (
	ErrInvalidTypeID = errors.New("invalid type id")
	ErrUnknown       = errors.New("unknown")
)
