// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

//go:build !windows

package protect

import "testing"

func TestSimulatedPrimitiveReturnsPreviousProtection(t *testing.T) {
	p := NewSimulated()

	prev, err := p.SetProtection(0x1000, 0x200, Protection{Read: true})
	if err != nil {
		t.Fatalf("first SetProtection: %v", err)
	}
	if prev != (Protection{}) {
		t.Fatalf("expected zero-value previous protection, got %+v", prev)
	}

	prev, err = p.SetProtection(0x1000, 0x200, Protection{Read: true, Write: true})
	if err != nil {
		t.Fatalf("second SetProtection: %v", err)
	}
	if prev != (Protection{Read: true}) {
		t.Fatalf("expected previous protection {Read: true}, got %+v", prev)
	}
}

func TestNewReturnsSimulatedPrimitive(t *testing.T) {
	if _, ok := New().(*SimulatedPrimitive); !ok {
		t.Fatal("expected New() to return a *SimulatedPrimitive on this platform")
	}
}
