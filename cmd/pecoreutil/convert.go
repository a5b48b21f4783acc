// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/corecave/peimage"
	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	var toImage, toFile bool

	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a PE between file and image layout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if toImage == toFile {
				return fmt.Errorf("exactly one of --to-image or --to-file must be set")
			}

			buf, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			srcLayout := pecore.LayoutFile
			if toFile {
				srcLayout = pecore.LayoutImage
			}

			v, err := pecore.Attach(buf, srcLayout, pecore.Options{})
			if err != nil {
				return err
			}
			defer v.Release()

			var dst *pecore.View
			if toImage {
				dst, err = pecore.FileToImage(v)
			} else {
				dst, err = pecore.ImageToFile(v)
			}
			if err != nil {
				return err
			}
			defer dst.Release()

			return os.WriteFile(args[1], dst.Bytes(), 0o644)
		},
	}

	cmd.Flags().BoolVar(&toImage, "to-image", false, "convert file layout to image layout")
	cmd.Flags().BoolVar(&toFile, "to-file", false, "convert image layout to file layout")
	return cmd
}
