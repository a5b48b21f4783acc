// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package pecore

import (
	"bytes"
	"testing"
)

func TestReleaseDispatchesByAttachment(t *testing.T) {
	buf := buildPE(t, Width32, nil)

	attached, err := Attach(buf, LayoutFile, Options{})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := attached.Release(); err != nil {
		t.Fatalf("Release on attached view: %v", err)
	}
	if err := attached.Detach(); err == nil {
		t.Fatal("expected error re-detaching an already-released view")
	}

	src, err := Attach(buf, LayoutFile, Options{})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	owned, err := FileToImage(src)
	if err != nil {
		t.Fatalf("FileToImage: %v", err)
	}
	if owned.Attached() {
		t.Fatal("expected FileToImage result to be Owned")
	}
	if err := owned.Release(); err != nil {
		t.Fatalf("Release on owned view: %v", err)
	}
}

func TestModuleSiblingSplice(t *testing.T) {
	buf := buildPE(t, Width32, nil)
	v, err := Attach(buf, LayoutImage, Options{})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	head, err := NewModule(v, 0x400000, "head.dll")
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}

	v2, err := Attach(buf, LayoutImage, Options{})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	second, err := NewModule(v2, 0x500000, "second.dll")
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}

	v3, err := Attach(buf, LayoutImage, Options{})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	third, err := NewModule(v3, 0x600000, "third.dll")
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}

	head.Adopt(second)
	head.Adopt(third)

	siblings := head.Siblings()
	if len(siblings) != 3 {
		t.Fatalf("expected 3 siblings, got %d", len(siblings))
	}
	if siblings[0] != head || siblings[1] != third || siblings[2] != second {
		t.Fatalf("unexpected sibling order: %+v", siblings)
	}

	third.Unlink()
	if len(head.Siblings()) != 2 {
		t.Fatalf("expected 2 siblings after unlink, got %d", len(head.Siblings()))
	}
	if len(third.Siblings()) != 1 {
		t.Fatalf("expected third to be a singleton after unlink, got %d", len(third.Siblings()))
	}
}

func TestCopyImageSiblingSplice(t *testing.T) {
	buf := buildPE(t, Width32, roundTripSections())

	v, err := Attach(buf, LayoutImage, Options{})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	original, err := NewModule(v, 0x400000, "original.dll")
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}

	copiedView, err := CopyImage(v)
	if err != nil {
		t.Fatalf("CopyImage: %v", err)
	}
	copied, err := NewModule(copiedView, 0x500000, "copy.dll")
	if err != nil {
		t.Fatalf("NewModule on copy: %v", err)
	}

	original.Adopt(copied)

	siblings := original.Siblings()
	if len(siblings) != 2 {
		t.Fatalf("expected 2 siblings after adopting the CopyImage result, got %d", len(siblings))
	}
	if siblings[0] != original || siblings[1] != copied {
		t.Fatalf("unexpected sibling order: %+v", siblings)
	}
	if !bytes.Equal(copied.Bytes(), original.Bytes()) {
		t.Fatal("CopyImage result does not carry the same bytes as the original")
	}
}

func TestNewModuleFromUTF16Name(t *testing.T) {
	buf := buildPE(t, Width32, nil)
	v, err := Attach(buf, LayoutImage, Options{})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	// "ntdll.dll" as raw UTF-16LE bytes, the shape a loader's module table
	// entry carries.
	raw := []byte{
		'n', 0, 't', 0, 'd', 0, 'l', 0, 'l', 0,
		'.', 0, 'd', 0, 'l', 0, 'l', 0,
	}

	m, err := NewModuleFromUTF16Name(v, 0x77000000, raw)
	if err != nil {
		t.Fatalf("NewModuleFromUTF16Name: %v", err)
	}
	if m.Name != "ntdll.dll" {
		t.Fatalf("expected decoded name %q, got %q", "ntdll.dll", m.Name)
	}
}

func TestNewModuleRejectsFileLayout(t *testing.T) {
	buf := buildPE(t, Width32, nil)
	v, err := Attach(buf, LayoutFile, Options{})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, err := NewModule(v, 0, ""); err == nil {
		t.Fatal("expected error wrapping a file-layout view as a Module")
	}
}
