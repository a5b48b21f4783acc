// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package pecore

import "github.com/corecave/peimage/protect"

// Protection is a derived page-protection descriptor: the read/write/
// execute bits a section's Characteristics imply, plus the two flags that
// modify caching behavior rather than access. It is deliberately not a raw
// OS constant so any protect.Primitive can translate it. Protection is an
// alias of protect.Protection so callers never need to convert between the
// two packages' views of the same descriptor.
type Protection = protect.Protection

// DeriveProtection maps a section's Characteristics bits onto the closed
// R/W/X truth table: MEM_EXECUTE, MEM_READ and MEM_WRITE combine directly,
// independent of CNT_CODE/CNT_INITIALIZED_DATA/CNT_UNINITIALIZED_DATA,
// which describe content, not access. MEM_NOT_CACHED propagates separately.
// There is no section-characteristics bit for write-combining in the PE
// format, so WriteCombine is always false here; it exists on Protection
// only so a Primitive that derives it some other way still has somewhere
// to put it.
func DeriveProtection(characteristics uint32) Protection {
	return Protection{
		Read:    characteristics&ScnMemRead != 0,
		Write:   characteristics&ScnMemWrite != 0,
		Execute: characteristics&ScnMemExecute != 0,
		NoCache: characteristics&ScnMemNotCached != 0,
	}
}

// headerProtection is the fixed descriptor applied to the header region:
// read-only, no execute, cacheable.
func headerProtection() Protection {
	return Protection{Read: true}
}

// Protect applies read-only protection to m's header region and the
// derived protection to each section region, using p as the OS collaborator.
// VirtualSize is used unaligned. No protected state is recorded on m:
// Protect and Unprotect do not check whether m is already protected, and a
// failure part-way leaves the regions already changed as they are.
func (m *Module) Protect(p protect.Primitive) error {
	return m.setProtection(p, true)
}

// Unprotect restores read-write protection to m's header and section
// regions, the inverse of Protect.
func (m *Module) Unprotect(p protect.Primitive) error {
	return m.setProtection(p, false)
}

func (m *Module) setProtection(p protect.Primitive, protecting bool) error {
	if m.Layout() != LayoutImage {
		return peErr("Protect", errNotImageLayout)
	}

	nt := m.NTHeaders()
	headerLen := nt.sizeOfHeaders()

	headerDesired := headerProtection()
	if !protecting {
		headerDesired = Protection{Read: true, Write: true}
	}
	if _, err := p.SetProtection(m.BaseAddress, headerLen, headerDesired); err != nil {
		return peErr("Protect", err)
	}

	for _, s := range m.Sections() {
		desired := DeriveProtection(s.Characteristics)
		if !protecting {
			desired = Protection{Read: true, Write: true}
		}
		base := m.BaseAddress + uintptr(s.VirtualAddress)
		if _, err := p.SetProtection(base, s.VirtualSize, desired); err != nil {
			return peErr("Protect", err)
		}
	}

	return nil
}
