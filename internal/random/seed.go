// Package random provides seed helpers for the engines' pseudo-random
// generators.
//
// A configured seed of 0 means "pick one": Resolve draws it from crypto/rand
// so it can be logged and stored alongside a run for later replay.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"
)

// NewSeed generates a non-zero random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	seed := int64(binary.LittleEndian.Uint64(b[:]))
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}

// Resolve returns seed unchanged unless it is 0, in which case a fresh seed is
// generated. The wall clock is used if the system entropy source fails.
func Resolve(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	s, err := NewSeed()
	if err != nil {
		return time.Now().UnixNano()
	}
	return s
}

// New returns a generator for the resolved seed along with the seed used.
func New(seed int64) (*rand.Rand, int64) {
	seed = Resolve(seed)
	return rand.New(rand.NewSource(seed)), seed
}
