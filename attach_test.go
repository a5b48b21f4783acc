// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package pecore

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func marshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return buf.Bytes()
}

type testSection struct {
	name            string
	vaddr, vsize    uint32
	praw, sraw      uint32
	characteristics uint32
	fill            byte
}

// buildPE assembles a minimal synthetic PE buffer: DOS header with no stub
// (e_lfanew == dosHeaderSize), NT headers of the given width, and one
// 40-byte row per entry of sections, each "written" with its fill byte
// across its raw-data span so conversion tests can verify exactly which
// bytes moved where.
func buildPE(t *testing.T, width Width, sections []testSection) []byte {
	t.Helper()

	const lfanew = dosHeaderSize
	optSize := int(optionalHeaderSize(width))
	fileHeaderOffset := lfanew + 4
	optOffset := fileHeaderOffset + 20
	sectionTableOffset := optOffset + optSize
	headersEnd := uint32(sectionTableOffset + len(sections)*sectionHeaderSize)

	size := headersEnd
	for _, s := range sections {
		if end := s.praw + s.sraw; end > size {
			size = end
		}
		if end := s.vaddr + s.vsize; end > size {
			size = end
		}
	}

	buf := make([]byte, size)

	dos := DOSHeader{Magic: dosSignature, AddressOfNewEXEHeader: uint32(lfanew)}
	copy(buf[0:], marshal(t, dos))

	binary.LittleEndian.PutUint32(buf[lfanew:], ntSignature)

	fh := FileHeader{
		Machine:              0x014c,
		NumberOfSections:     uint16(len(sections)),
		SizeOfOptionalHeader: uint16(optSize),
		Characteristics:      0x0102,
	}
	copy(buf[fileHeaderOffset:], marshal(t, fh))

	switch width {
	case Width64:
		oh := OptionalHeader64{
			Magic:             optMagic64,
			SectionAlignment:  4096,
			FileAlignment:     512,
			SizeOfHeaders:     headersEnd,
			NumberOfRvaAndSizes: 16,
		}
		copy(buf[optOffset:], marshal(t, oh))
	default:
		oh := OptionalHeader32{
			Magic:             optMagic32,
			SectionAlignment:  4096,
			FileAlignment:     512,
			SizeOfHeaders:     headersEnd,
			NumberOfRvaAndSizes: 16,
		}
		copy(buf[optOffset:], marshal(t, oh))
	}

	for i, s := range sections {
		var sh SectionHeader
		copy(sh.Name[:], s.name)
		sh.VirtualAddress = s.vaddr
		sh.VirtualSize = s.vsize
		sh.PointerToRawData = s.praw
		sh.SizeOfRawData = s.sraw
		sh.Characteristics = s.characteristics
		copy(buf[sectionTableOffset+i*sectionHeaderSize:], marshal(t, sh))

		for j := uint32(0); j < s.sraw; j++ {
			buf[s.praw+j] = s.fill
		}
	}

	return buf
}

func TestAttachStrictRejectsBadDOSMagic(t *testing.T) {
	buf := buildPE(t, Width32, nil)
	buf[0] = 'X'

	_, err := Attach(buf, LayoutFile, Options{})
	if err == nil {
		t.Fatal("expected error for bad DOS magic under Strict")
	}
	if !IsPEError(err) {
		t.Fatalf("expected KindPE, got %v", err)
	}
}

func TestAttachLenientAcceptsBadDOSMagic(t *testing.T) {
	buf := buildPE(t, Width32, nil)
	buf[0] = 'X'

	v, err := Attach(buf, LayoutFile, Options{Strictness: Lenient})
	if err != nil {
		t.Fatalf("unexpected error under Lenient: %v", err)
	}
	if v.Width() != Width32 {
		t.Fatalf("expected Width32, got %s", v.Width())
	}
}

func TestAttachWidth64(t *testing.T) {
	buf := buildPE(t, Width64, nil)

	v, err := Attach(buf, LayoutFile, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Width() != Width64 {
		t.Fatalf("expected Width64, got %s", v.Width())
	}
}

func TestAttachSectionTruncation(t *testing.T) {
	sections := make([]testSection, 5)
	for i := range sections {
		sections[i] = testSection{name: "s", vaddr: uint32(0x1000 * (i + 1)), vsize: 0x10, praw: uint32(0x400 * (i + 1)), sraw: 0x10}
	}
	buf := buildPE(t, Width32, sections)

	v, err := Attach(buf, LayoutFile, Options{MaxSections: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Sections()) != 2 {
		t.Fatalf("expected truncation to 2 sections, got %d", len(v.Sections()))
	}
}

func TestAttachZeroSections(t *testing.T) {
	buf := buildPE(t, Width32, nil)

	v, err := Attach(buf, LayoutFile, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Sections()) != 0 {
		t.Fatalf("expected zero sections, got %d", len(v.Sections()))
	}
}

func TestAttachRejectsSectionCeilingAsAllocationError(t *testing.T) {
	buf := buildPE(t, Width32, nil)

	_, err := Attach(buf, LayoutFile, Options{MaxSections: maxSectionCeiling + 1})
	if err == nil {
		t.Fatal("expected error exceeding the section ceiling")
	}
	if !IsAllocationError(err) {
		t.Fatalf("expected KindAllocation, got %v", err)
	}
	if IsPEError(err) {
		t.Fatal("section ceiling error must not also report as KindPE")
	}
}

func TestDetachRejectsOwnedView(t *testing.T) {
	buf := buildPE(t, Width32, nil)
	src, err := Attach(buf, LayoutFile, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	owned, err := FileToImage(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := owned.Detach(); err == nil {
		t.Fatal("expected error detaching an Owned view")
	}
}
