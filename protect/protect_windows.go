// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

//go:build windows

package protect

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// protectionFlags is indexed by the 3-bit (write<<2 | read<<1 | execute)
// pattern, the same table the loader corpus builds over
// IMAGE_SCN_MEM_{EXECUTE,READ,WRITE} characteristics.
var protectionFlags = [8]uint32{
	windows.PAGE_NOACCESS,          // !write !read !exec
	windows.PAGE_EXECUTE,           // !write !read  exec
	windows.PAGE_READONLY,          // !write  read !exec
	windows.PAGE_EXECUTE_READ,      // !write  read  exec
	windows.PAGE_WRITECOPY,         //  write !read !exec
	windows.PAGE_EXECUTE_WRITECOPY, //  write !read  exec
	windows.PAGE_READWRITE,         //  write  read !exec
	windows.PAGE_EXECUTE_READWRITE, //  write  read  exec
}

func toPageFlag(p Protection) uint32 {
	idx := 0
	if p.Write {
		idx |= 0x4
	}
	if p.Read {
		idx |= 0x2
	}
	if p.Execute {
		idx |= 0x1
	}
	flag := protectionFlags[idx]
	if p.NoCache {
		flag |= windows.PAGE_NOCACHE
	}
	if p.WriteCombine {
		flag |= windows.PAGE_WRITECOMBINE
	}
	return flag
}

func fromPageFlag(flag uint32) Protection {
	base := flag &^ (windows.PAGE_NOCACHE | windows.PAGE_WRITECOMBINE)
	for idx, f := range protectionFlags {
		if f != base {
			continue
		}
		return Protection{
			Write:        idx&0x4 != 0,
			Read:         idx&0x2 != 0,
			Execute:      idx&0x1 != 0,
			NoCache:      flag&windows.PAGE_NOCACHE != 0,
			WriteCombine: flag&windows.PAGE_WRITECOMBINE != 0,
		}
	}
	return Protection{}
}

// WindowsPrimitive is the real page-protection primitive, backed by
// VirtualProtect.
type WindowsPrimitive struct{}

// SetProtection implements Primitive.
func (WindowsPrimitive) SetProtection(base uintptr, length uint32, desired Protection) (Protection, error) {
	var previous uint32
	if err := windows.VirtualProtect(base, uintptr(length), toPageFlag(desired), &previous); err != nil {
		return Protection{}, fmt.Errorf("VirtualProtect: %w", err)
	}
	return fromPageFlag(previous), nil
}

// New returns the platform primitive: WindowsPrimitive on this build.
func New() Primitive {
	return WindowsPrimitive{}
}
