// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package pecore

// Fuzz is the legacy go-fuzz entry point, exercising Attach and a
// FileToImage conversion on arbitrary input. It never runs in-process
// via `go test`; a corpus-generation tool drives it out of process.
func Fuzz(data []byte) int {
	v, err := Attach(data, LayoutFile, Options{})
	if err != nil {
		return 0
	}
	defer v.Release()

	img, err := FileToImage(v)
	if err != nil {
		return 0
	}
	defer img.Release()

	return 1
}
