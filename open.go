// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package pecore

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// Open memory-maps path read-only and attaches a file-layout view directly
// over the mapping, avoiding a full read into a heap buffer for large
// binaries. Close unmaps; the returned view must not outlive its file.
func Open(path string, opts Options) (*OpenedView, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, peErr("Open", err)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, peErr("Open", err)
	}

	v, err := Attach([]byte(m), LayoutFile, opts)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}

	return &OpenedView{View: v, mapping: m, file: f}, nil
}

// OpenedView is the result of Open: a file-layout View backed by a memory
// mapping rather than a caller-supplied buffer. Close releases both the
// structural view and the mapping/file handle.
type OpenedView struct {
	*View
	mapping mmap.MMap
	file    *os.File
}

// Close detaches the structural view, unmaps the file, and closes the file
// handle. It is safe to call once; calling it twice returns the Detach
// error from the second call.
func (o *OpenedView) Close() error {
	detachErr := o.View.Detach()
	unmapErr := o.mapping.Unmap()
	closeErr := o.file.Close()
	if detachErr != nil {
		return detachErr
	}
	if unmapErr != nil {
		return peErr("Close", unmapErr)
	}
	if closeErr != nil {
		return peErr("Close", closeErr)
	}
	return nil
}

// AttachBytes is a thin documenting wrapper over Attach: buf must outlive
// the returned View, which borrows it rather than copying it.
func AttachBytes(buf []byte, layout Layout, opts Options) (*View, error) {
	return Attach(buf, layout, opts)
}
