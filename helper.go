// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package pecore

import (
	"golang.org/x/text/encoding/unicode"
)

// DecodeUTF16ModuleName decodes a UTF-16LE byte slice (as found in a
// UNICODE_STRING-shaped module name) into a Go string, the same decode the
// teacher's helper.go performs for Unicode-encoded PE strings.
func DecodeUTF16ModuleName(b []byte) (string, error) {
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := decoder.Bytes(b)
	if err != nil {
		return "", peErr("DecodeUTF16ModuleName", err)
	}
	return string(out), nil
}

// isBitSet reports whether bit n of v is set, the same small predicate the
// teacher's helper.go uses for characteristics flag checks.
func isBitSet(v uint32, n uint) bool {
	return v&(1<<n) != 0
}

// isPrintable reports whether every byte of s is printable ASCII. Nothing
// in this package calls it.
func isPrintable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
