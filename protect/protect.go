// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

// Package protect defines the page-protection collaborator pecore.Module
// delegates to, and provides two implementations: a real Windows one
// backed by VirtualProtect, and a simulation usable on any platform for
// testing and analysis tooling that never needs actual enforcement.
package protect

// Protection mirrors pecore.Protection without importing the root package,
// so this package stays free to be imported by it. Callers normally pass
// pecore.Protection values, which share this exact field set.
type Protection struct {
	Read         bool
	Write        bool
	Execute      bool
	NoCache      bool
	WriteCombine bool
}

// Primitive changes the protection of a region of memory and reports what
// it was before the change.
type Primitive interface {
	SetProtection(base uintptr, length uint32, desired Protection) (previous Protection, err error)
}
