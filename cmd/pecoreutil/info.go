// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/corecave/peimage"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	var lenient bool

	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Print header and section summary for a PE file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pecore.Options{}
			if lenient {
				opts.Strictness = pecore.Lenient
			}

			v, err := pecore.Open(args[0], opts)
			if err != nil {
				return err
			}
			defer v.Close()

			nt := v.NTHeaders()
			fmt.Printf("width: %s\n", v.Width())
			fmt.Printf("layout: %s\n", v.Layout())
			fmt.Printf("machine: 0x%04x\n", nt.FileHeader.Machine)
			fmt.Printf("sections: %d\n", len(v.Sections()))
			for _, s := range v.Sections() {
				fmt.Printf("  %-8s rva=0x%08x vsize=0x%08x praw=0x%08x sraw=0x%08x chars=0x%08x\n",
					s.NameString(), s.VirtualAddress, s.VirtualSize, s.PointerToRawData, s.SizeOfRawData, s.Characteristics)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "accept malformed signatures instead of rejecting them")
	return cmd
}
