package drift

import (
	"fmt"
	"slices"
	"strings"
)

// Mode selects how two token sequences are compared.
type Mode int

const (
	// ModeOrdered requires the same tokens in the same order. Reordering
	// alone is drift.
	ModeOrdered Mode = iota

	// ModeMultiset requires the same tokens with the same counts in any
	// order.
	ModeMultiset
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeOrdered:
		return "ordered"
	case ModeMultiset:
		return "multiset"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a configuration value to a Mode. The empty string
// yields [ModeOrdered].
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ordered":
		return ModeOrdered, nil
	case "multiset":
		return ModeMultiset, nil
	default:
		return 0, fmt.Errorf("drift: unknown comparison mode %q (want ordered or multiset)", s)
	}
}

// equalSeq reports whether a and b are equal under mode.
func equalSeq[T comparable](a, b []T, mode Mode) bool {
	if mode == ModeMultiset {
		return sameMultiset(a, b)
	}
	return slices.Equal(a, b)
}

func sameMultiset[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[T]int, len(a))
	for _, x := range a {
		counts[x]++
	}
	for _, x := range b {
		if counts[x] == 0 {
			return false
		}
		counts[x]--
	}
	return true
}
