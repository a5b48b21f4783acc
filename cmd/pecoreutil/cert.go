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

func newCertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cert <file>",
		Short: "Print the signer certificates found in the Certificate directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			v, err := pecore.Attach(buf, pecore.LayoutFile, pecore.Options{})
			if err != nil {
				return err
			}
			defer v.Release()

			certs, err := pecore.CertificateDirectory(v)
			if err != nil {
				return err
			}
			if len(certs) == 0 {
				fmt.Println("no certificate directory entries")
				return nil
			}
			for i, c := range certs {
				fmt.Printf("entry %d: type=0x%04x revision=0x%04x length=%d signers=%d\n",
					i, c.Header.CertificateType, c.Header.Revision, c.Header.Length, len(c.Signers))
			}
			return nil
		},
	}
}
