// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package pecore

const sentinelMaxExtent = 1 << 31 // a sane ceiling past which an extent is rejected outright

// MaxRVA returns the highest relative virtual address reached by v's
// headers or sections: max(SizeOfHeaders, max over sections of
// VirtualAddress+VirtualSize).
func MaxRVA(v *View) (uint32, error) {
	max := v.nt.sizeOfHeaders()
	for i := range v.sections {
		s := &v.sections[i]
		end := uint64(s.VirtualAddress) + uint64(s.VirtualSize)
		if end > sentinelMaxExtent {
			return 0, peErr("MaxRVA", errExtentOverflow)
		}
		if uint32(end) > max {
			max = uint32(end)
		}
	}
	return max, nil
}

// MaxPA returns the highest raw file offset reached by v's headers or
// sections: max(SizeOfHeaders, max over sections of
// PointerToRawData+SizeOfRawData). Per this module's resolution of the
// extent-function ambiguity, MaxPA backs every file-layout destination,
// CopyFile included.
func MaxPA(v *View) (uint32, error) {
	max := v.nt.sizeOfHeaders()
	for i := range v.sections {
		s := &v.sections[i]
		end := uint64(s.PointerToRawData) + uint64(s.SizeOfRawData)
		if end > sentinelMaxExtent {
			return 0, peErr("MaxPA", errExtentOverflow)
		}
		if uint32(end) > max {
			max = uint32(end)
		}
	}
	return max, nil
}

func extentFor(v *View, dstLayout Layout) (uint32, error) {
	if dstLayout == LayoutImage {
		return MaxRVA(v)
	}
	return MaxPA(v)
}

// dosStubLength is the span between the fixed DOS header and e_lfanew: the
// rich/legacy DOS stub program, copied verbatim byte for byte.
func dosStubLength(v *View) int {
	n := int(v.dos.AddressOfNewEXEHeader) - dosHeaderSize
	if n < 0 {
		return 0
	}
	return n
}

func ntHeadersLength(v *View) int {
	return 4 + 20 + int(optionalHeaderSize(v.width))
}

// convert is the shared skeleton behind every directed layout conversion:
// compute the destination extent, zero-fill dst, copy DOS header, DOS stub
// and NT headers verbatim, then walk sections copying the header row
// unchanged and the data sized per the destination layout's asymmetry
// (VirtualSize into an image destination, SizeOfRawData into a file
// destination).
func convert(op string, src *View, dstLayout Layout, dst []byte) (*View, error) {
	extent, err := extentFor(src, dstLayout)
	if err != nil {
		return nil, err
	}
	if extent > sentinelMaxExtent {
		return nil, peErr(op, errExtentTooLarge)
	}
	if len(dst) < int(extent) {
		return nil, peErr(op, errBufferTooSmall)
	}

	for i := range dst[:extent] {
		dst[i] = 0
	}

	copy(dst[:dosHeaderSize], src.buf[:dosHeaderSize])

	stubLen := dosStubLength(src)
	if stubLen > 0 {
		copy(dst[dosHeaderSize:dosHeaderSize+stubLen], src.buf[dosHeaderSize:dosHeaderSize+stubLen])
	}

	ntLen := ntHeadersLength(src)
	copy(dst[src.ntHeaderOffset:src.ntHeaderOffset+ntLen], src.buf[src.ntHeaderOffset:src.ntHeaderOffset+ntLen])

	for i := range src.sections {
		s := &src.sections[i]
		headerOff := src.sectionTableOffset + i*sectionHeaderSize
		copy(dst[headerOff:headerOff+sectionHeaderSize], src.buf[headerOff:headerOff+sectionHeaderSize])

		srcOff, srcLen := sectionSpan(s, src.layout)
		dstOff, dstLen := sectionSpan(s, dstLayout)

		n := srcLen
		if dstLen < n {
			n = dstLen
		}
		if n <= 0 {
			continue
		}
		if srcOff+n > len(src.buf) {
			n = len(src.buf) - srcOff
		}
		if n <= 0 || dstOff+n > len(dst) {
			continue
		}
		copy(dst[dstOff:dstOff+n], src.buf[srcOff:srcOff+n])
	}

	return parse(dst, dstLayout, src.opts)
}

// sectionSpan returns the (offset, length) a section's data occupies under
// layout: PointerToRawData/SizeOfRawData for file layout, VirtualAddress/
// VirtualSize for image layout. This asymmetry is what drives the copy size
// chosen on each side of a conversion.
func sectionSpan(s *SectionHeader, layout Layout) (offset, length int) {
	if layout == LayoutImage {
		return int(s.VirtualAddress), int(s.VirtualSize)
	}
	return int(s.PointerToRawData), int(s.SizeOfRawData)
}

// FileToImage allocates and returns an Owned image-layout view converted
// from src, which must be a file-layout view.
func FileToImage(src *View) (*View, error) {
	if src.layout != LayoutFile {
		return nil, peErr("FileToImage", errNotFileLayout)
	}
	extent, err := MaxRVA(src)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, extent)
	v, err := convert("FileToImage", src, LayoutImage, dst)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// FileToImageInto converts src into caller-supplied buffer dst, which must
// be at least MaxRVA(src) bytes. The destination view is never Attached,
// matching the allocating form: dst's provenance is the caller's, but the
// conversion itself always hands back an Owned view, just as the original
// PlFileToImageEx did even in its caller-buffer form.
func FileToImageInto(src *View, dst []byte) (*View, error) {
	if src.layout != LayoutFile {
		return nil, peErr("FileToImage", errNotFileLayout)
	}
	return convert("FileToImage", src, LayoutImage, dst)
}

// ImageToFile allocates and returns an Owned file-layout view converted
// from src, which must be an image-layout view.
func ImageToFile(src *View) (*View, error) {
	if src.layout != LayoutImage {
		return nil, peErr("ImageToFile", errNotImageLayout)
	}
	extent, err := MaxPA(src)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, extent)
	v, err := convert("ImageToFile", src, LayoutFile, dst)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ImageToFileInto converts src into caller-supplied buffer dst, which must
// be at least MaxPA(src) bytes. The destination view is never Attached, the
// same as MrImageToFile32Ex in the original implementation.
func ImageToFileInto(src *View, dst []byte) (*View, error) {
	if src.layout != LayoutImage {
		return nil, peErr("ImageToFile", errNotImageLayout)
	}
	return convert("ImageToFile", src, LayoutFile, dst)
}

// CopyFile allocates and returns an Owned file-layout copy of src (which
// must itself be file-layout). Unlike a plain buffer duplication, it goes
// through the same header/section walk as the cross-layout conversions, so
// the same extent (MaxPA) and data-copy rules apply.
func CopyFile(src *View) (*View, error) {
	if src.layout != LayoutFile {
		return nil, peErr("CopyFile", errNotFileLayout)
	}
	extent, err := MaxPA(src)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, extent)
	v, err := convert("CopyFile", src, LayoutFile, dst)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CopyFileInto copies src into caller-supplied buffer dst, which must be at
// least MaxPA(src) bytes. The destination view is never Attached.
func CopyFileInto(src *View, dst []byte) (*View, error) {
	if src.layout != LayoutFile {
		return nil, peErr("CopyFile", errNotFileLayout)
	}
	return convert("CopyFile", src, LayoutFile, dst)
}

// CopyImage allocates and returns an Owned image-layout copy of src (which
// must itself be image-layout). The returned view is spliced into src's
// sibling list immediately after src when both are wrapped as Modules by
// the caller; CopyImage itself only performs the byte-level copy, the
// splice is exposed through Module.Adopt (see lifecycle.go).
func CopyImage(src *View) (*View, error) {
	if src.layout != LayoutImage {
		return nil, peErr("CopyImage", errNotImageLayout)
	}
	extent, err := MaxRVA(src)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, extent)
	v, err := convert("CopyImage", src, LayoutImage, dst)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CopyImageInto copies src into caller-supplied buffer dst, which must be
// at least MaxRVA(src) bytes. The destination view is never Attached.
func CopyImageInto(src *View, dst []byte) (*View, error) {
	if src.layout != LayoutImage {
		return nil, peErr("CopyImage", errNotImageLayout)
	}
	return convert("CopyImage", src, LayoutImage, dst)
}
