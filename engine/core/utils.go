package core

import "golang.org/x/exp/constraints"

// Clamp returns f limited to the [low, high] range.
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}
