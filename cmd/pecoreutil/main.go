// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

// Command pecoreutil inspects and converts PE binaries using the pecore
// library: attach a file in either layout, convert between file and image
// layout, and print the Certificate directory.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "pecoreutil",
		Short: "Inspect and convert PE binaries",
	}

	root.AddCommand(newInfoCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newCertCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
