// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package pecore

import (
	"bytes"
	"encoding/binary"

	"github.com/corecave/peimage/internal/log"
)

// View is a structural, navigable parse of a PE buffer in one of the two
// addressing layouts. A View is either Attached (borrowing buf, which must
// outlive it) or Owned (buf is this View's own backing array, acquired by a
// conversion or copy). Release dispatches to the matching teardown.
type View struct {
	buf      []byte
	attached bool
	released bool

	layout Layout
	width  Width
	opts   Options

	dos                DOSHeader
	ntHeaderOffset      int
	nt                  NTHeaders
	sectionTableOffset  int
	sections            []SectionHeader
}

// Attached reports whether v borrows its buffer rather than owning it.
func (v *View) Attached() bool { return v.attached }

// Layout reports the addressing rule v was attached/built with.
func (v *View) Layout() Layout { return v.layout }

// Width reports the optional-header width.
func (v *View) Width() Width { return v.width }

// DOSHeader returns the parsed DOS header.
func (v *View) DOSHeader() DOSHeader { return v.dos }

// NTHeaders returns the parsed NT headers.
func (v *View) NTHeaders() NTHeaders { return v.nt }

// Sections returns the parsed section header table, in file order. The
// returned slice shares storage with v; callers must not retain it past a
// call to Release.
func (v *View) Sections() []SectionHeader { return v.sections }

// Bytes returns the underlying buffer. For an Attached view this is the
// caller's buffer; for an Owned view it is the buffer this View acquired.
func (v *View) Bytes() []byte { return v.buf }

// structUnpack decodes little-endian fields from b into dst, the same
// binary.Read-over-a-fixed-layout-struct approach as the teacher's
// helper.go structUnpack.
func structUnpack(b []byte, dst interface{}) error {
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, dst); err != nil {
		return errOutsideBoundary
	}
	return nil
}

// Attach parses buf in place as a PE structural view addressed per layout,
// without copying buf. The returned View borrows buf: buf must outlive the
// View, and the View must be released with Detach (directly, or via
// Release) rather than Free.
func Attach(buf []byte, layout Layout, opts Options) (*View, error) {
	opts = opts.withDefaults()
	v, err := parse(buf, layout, opts)
	if err != nil {
		return nil, err
	}
	v.attached = true
	return v, nil
}

// parse performs the shared decode used by both Attach (borrowed buf) and
// the conversion engine (owned buf): DOS header, DOS stub span, NT headers
// via e_lfanew, optional-header width dispatch, and the section table.
func parse(buf []byte, layout Layout, opts Options) (*View, error) {
	helper := log.NewHelper(opts.Logger)

	if len(buf) < dosHeaderSize {
		return nil, peErr("Attach", errOutsideBoundary)
	}

	var dos DOSHeader
	if err := structUnpack(buf[:dosHeaderSize], &dos); err != nil {
		return nil, peErr("Attach", err)
	}
	if dos.Magic != dosSignature && opts.Strictness == Strict {
		return nil, peErr("Attach", errDOSMagicNotFound)
	}

	lfanew := int(dos.AddressOfNewEXEHeader)
	if lfanew < dosHeaderSize || lfanew+4 > len(buf) {
		if opts.Strictness == Strict {
			return nil, peErr("Attach", errInvalidElfanew)
		}
		lfanew = dosHeaderSize
	}

	sig := uint32(0)
	if lfanew+4 <= len(buf) {
		sig = binary.LittleEndian.Uint32(buf[lfanew : lfanew+4])
	}
	if sig != ntSignature && opts.Strictness == Strict {
		return nil, peErr("Attach", errNTSignatureNotFound)
	}

	fileHeaderOffset := lfanew + 4
	if fileHeaderOffset+20 > len(buf) {
		return nil, peErr("Attach", errOutsideBoundary)
	}
	var fh FileHeader
	if err := structUnpack(buf[fileHeaderOffset:fileHeaderOffset+20], &fh); err != nil {
		return nil, peErr("Attach", err)
	}

	optOffset := fileHeaderOffset + 20
	if optOffset+2 > len(buf) {
		return nil, peErr("Attach", errOutsideBoundary)
	}
	magic := binary.LittleEndian.Uint16(buf[optOffset : optOffset+2])

	var width Width
	switch magic {
	case optMagic32:
		width = Width32
	case optMagic64:
		width = Width64
	default:
		if opts.Strictness == Strict {
			return nil, peErr("Attach", errOptionalMagicNotFound)
		}
		width = Width32
	}

	optSize := int(optionalHeaderSize(width))
	if optOffset+optSize > len(buf) {
		return nil, peErr("Attach", errOutsideBoundary)
	}

	var optHeader interface{}
	switch width {
	case Width64:
		var oh OptionalHeader64
		if err := structUnpack(buf[optOffset:optOffset+optSize], &oh); err != nil {
			return nil, peErr("Attach", err)
		}
		optHeader = oh
	default:
		var oh OptionalHeader32
		if err := structUnpack(buf[optOffset:optOffset+optSize], &oh); err != nil {
			return nil, peErr("Attach", err)
		}
		optHeader = oh
	}

	nt := NTHeaders{
		Signature:      sig,
		FileHeader:     fh,
		OptionalHeader: optHeader,
		Width:          width,
	}

	sectionTableOffset := optOffset + int(fh.SizeOfOptionalHeader)
	if sectionTableOffset > len(buf) {
		sectionTableOffset = optOffset + optSize
	}

	if opts.MaxSections > maxSectionCeiling {
		return nil, allocErr("Attach", errSectionCeilingExceeded)
	}

	numSections := int(fh.NumberOfSections)
	maxSections := opts.MaxSections
	if numSections > maxSections {
		helper.Warnf("section table truncated: declared=%d max=%d", numSections, maxSections)
		numSections = maxSections
	}

	sections := make([]SectionHeader, 0, numSections)
	for i := 0; i < numSections; i++ {
		off := sectionTableOffset + i*sectionHeaderSize
		if off+sectionHeaderSize > len(buf) {
			helper.Warnf("section table bounds exceeded, stopping short at index %d", i)
			break
		}
		var sh SectionHeader
		if err := structUnpack(buf[off:off+sectionHeaderSize], &sh); err != nil {
			return nil, peErr("Attach", err)
		}
		sections = append(sections, sh)
	}

	var secSlice []SectionHeader
	if len(sections) > 0 {
		secSlice = sections
	}

	return &View{
		buf:                buf,
		layout:             layout,
		width:              width,
		opts:               opts,
		dos:                dos,
		ntHeaderOffset:     lfanew,
		nt:                 nt,
		sectionTableOffset: sectionTableOffset,
		sections:           secSlice,
	}, nil
}

// Detach releases an Attached view's bookkeeping without touching the
// borrowed buffer. It is an error to Detach an Owned view; use Free (or
// Release, which dispatches correctly).
func (v *View) Detach() error {
	if v.released {
		return peErr("Detach", errZeroedView)
	}
	if !v.attached {
		return peErr("Detach", errNotAttached)
	}
	v.sections = nil
	v.buf = nil
	v.released = true
	return nil
}
