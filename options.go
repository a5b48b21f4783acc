// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package pecore

import (
	"os"

	"github.com/corecave/peimage/internal/log"
)

// maxSectionCeiling is the sane upper bound on Options.MaxSections itself.
// fh.NumberOfSections is a uint16 and so is already bounded, but a caller
// raising MaxSections past this ceiling is asking the descriptor-slice
// allocation in parse to size itself off an untrusted, effectively
// unbounded knob; that request is rejected as an allocation failure before
// any make() call rather than honored.
const maxSectionCeiling = 1 << 20

// Options configures Attach and the convenience constructors built on it.
// The zero value is valid: it defaults to Strict, MaxSections, and a
// stderr logger, mirroring how the teacher's own Options defaults
// MaxCOFFSymbolsCount and MaxRelocEntriesCount when left at zero.
type Options struct {
	// Strictness governs signature/magic validation. Zero value is Strict.
	Strictness Strictness

	// MaxSections caps the number of section headers Attach will walk
	// before truncating with a diagnostic. Zero means MaxSections (96).
	MaxSections int

	// Logger receives non-failure diagnostics (section-count truncation and
	// section-table bounds notices from Attach). It is never consulted on
	// the error-return path; a nil Logger is replaced by a stderr logger.
	Logger log.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxSections <= 0 {
		o.MaxSections = MaxSections
	}
	if o.Logger == nil {
		o.Logger = log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(log.LevelWarn))
	}
	return o
}
