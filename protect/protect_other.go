// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

//go:build !windows

package protect

import "sync"

// SimulatedPrimitive tracks protection over a set of disjoint regions in a
// plain map rather than calling into any OS facility. It exists for tests
// and for non-Windows analysis tooling that wants the derived descriptors
// without real enforcement.
type SimulatedPrimitive struct {
	mu      sync.Mutex
	regions map[uintptr]Protection
}

// NewSimulated returns an empty SimulatedPrimitive.
func NewSimulated() *SimulatedPrimitive {
	return &SimulatedPrimitive{regions: make(map[uintptr]Protection)}
}

// SetProtection implements Primitive. Regions are keyed by base alone:
// length is not recorded and overlapping regions are not detected.
func (s *SimulatedPrimitive) SetProtection(base uintptr, length uint32, desired Protection) (Protection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.regions[base]
	s.regions[base] = desired
	return previous, nil
}

// New returns the platform primitive: a SimulatedPrimitive on this build.
func New() Primitive {
	return NewSimulated()
}
