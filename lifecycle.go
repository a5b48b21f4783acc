// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package pecore

// Free releases an Owned view's backing buffer and bookkeeping. It is an
// error to Free an Attached view; use Detach (directly, or via Release,
// which dispatches correctly).
func (v *View) Free() error {
	if v.released {
		return peErr("Free", errZeroedView)
	}
	if v.attached {
		return peErr("Free", errAttached)
	}
	v.sections = nil
	v.buf = nil
	v.released = true
	return nil
}

// Release dispatches to Detach or Free depending on whether v is Attached
// or Owned, so a caller holding a *View without tracking its provenance can
// always tear it down with one call.
func (v *View) Release() error {
	if v.attached {
		return v.Detach()
	}
	return v.Free()
}

// Module wraps an image-layout View with the loader-facing identity a
// process module table carries: the address it was mapped at, an optional
// name, and its position in the intrusive sibling list of modules sharing
// an address space. NewModule starts a module as a singleton list of one;
// CopyImage results, once wrapped with NewModule, are spliced in via Adopt.
type Module struct {
	*View

	BaseAddress uintptr
	Name        string

	flink *Module
	blink *Module
}

// NewModule wraps an image-layout view as the head of a new, singleton
// sibling list.
func NewModule(v *View, base uintptr, name string) (*Module, error) {
	if v.Layout() != LayoutImage {
		return nil, peErr("NewModule", errNotImageLayout)
	}
	m := &Module{View: v, BaseAddress: base, Name: name}
	m.flink = m
	m.blink = m
	return m, nil
}

// NewModuleFromUTF16Name wraps an image-layout view as the head of a new
// singleton sibling list, the same as NewModule, but decodes name from a
// raw UTF-16LE UNICODE_STRING-shaped byte slice (as a loader's module table
// entry carries it) instead of taking an already-decoded Go string.
func NewModuleFromUTF16Name(v *View, base uintptr, rawName []byte) (*Module, error) {
	name, err := DecodeUTF16ModuleName(rawName)
	if err != nil {
		return nil, err
	}
	return NewModule(v, base, name)
}

// Adopt splices cm immediately after m in m's sibling list, mirroring the
// original implementation's Blink/Flink splice on CopyImage.
func (m *Module) Adopt(cm *Module) {
	cm.blink = m
	cm.flink = m.flink
	m.flink.blink = cm
	m.flink = cm
}

// Unlink removes m from whatever sibling list it belongs to, leaving it as
// a singleton list of one. Detach/Free call this for image-layout views so
// a released module never dangles in a surviving list.
func (m *Module) Unlink() {
	if m.flink == m {
		return
	}
	m.blink.flink = m.flink
	m.flink.blink = m.blink
	m.flink = m
	m.blink = m
}

// Siblings walks m's intrusive sibling list into a plain slice, the
// non-intrusive escape hatch for callers (an arena, a loader's module
// table) that would rather not touch flink/blink directly.
func (m *Module) Siblings() []*Module {
	out := []*Module{m}
	for cur := m.flink; cur != m; cur = cur.flink {
		out = append(out, cur)
	}
	return out
}

// Detach overrides View.Detach to also unlink m from its sibling list.
func (m *Module) Detach() error {
	if err := m.View.Detach(); err != nil {
		return err
	}
	m.Unlink()
	return nil
}

// Free overrides View.Free to also unlink m from its sibling list.
func (m *Module) Free() error {
	if err := m.View.Free(); err != nil {
		return err
	}
	m.Unlink()
	return nil
}

// Release dispatches to Module's own Detach/Free (not View's), so the
// sibling-list unlink always happens on a Module's teardown.
func (m *Module) Release() error {
	if m.Attached() {
		return m.Detach()
	}
	return m.Free()
}
