// Copyright 2024 The peimage Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package pecore

import (
	"crypto/x509"
	"encoding/binary"

	"go.mozilla.org/pkcs7"
)

// WIN_CERTIFICATE revision and type constants, per the PE/COFF Appendix on
// attribute certificates.
const (
	winCertRevision1_0 = 0x0100
	winCertRevision2_0 = 0x0200

	winCertTypeX509           = 0x0001
	winCertTypePKCS7SignedData = 0x0002
	winCertTypeReserved1       = 0x0003
	winCertTypeTSStackSigned   = 0x0004
)

// WinCertificate is the fixed 8-byte header every attribute-certificate
// table entry begins with.
type WinCertificate struct {
	Length          uint32
	Revision        uint16
	CertificateType uint16
}

// Certificate is one parsed entry of the Certificate data directory: its
// WIN_CERTIFICATE header plus, for PKCS#7 signed-data entries, the signer
// certificates extracted from the embedded blob. Chain validation is not
// performed; this only surfaces what Authenticode claims.
type Certificate struct {
	Header  WinCertificate
	Signers []*x509.Certificate
	Raw     []byte
}

// CertificateDirectory walks the IMAGE_DIRECTORY_ENTRY_CERTIFICATE chain of
// v, which must be a file-layout view (the Certificate Table is one of the
// few directories addressed by raw file offset even in an image-layout PE,
// but this library only walks it from a file-layout attach, matching the
// teacher's own boundary). Each entry is 8-byte aligned; entries past the
// directory's declared Size are not visited.
func CertificateDirectory(v *View) ([]Certificate, error) {
	nt := v.NTHeaders()
	dir := nt.dataDirectory(DirectoryCertificate)
	if dir.VirtualAddress == 0 || dir.Size == 0 {
		return nil, nil
	}

	buf := v.Bytes()
	start := int(dir.VirtualAddress)
	end := start + int(dir.Size)
	if start < 0 || end > len(buf) || end < start {
		return nil, peErr("CertificateDirectory", errOutsideBoundary)
	}

	var out []Certificate
	off := start
	for off+8 <= end {
		var hdr WinCertificate
		hdr.Length = binary.LittleEndian.Uint32(buf[off : off+4])
		hdr.Revision = binary.LittleEndian.Uint16(buf[off+4 : off+6])
		hdr.CertificateType = binary.LittleEndian.Uint16(buf[off+6 : off+8])

		if hdr.Length < 8 || off+int(hdr.Length) > end {
			return nil, peErr("CertificateDirectory", errOutsideBoundary)
		}

		content := buf[off+8 : off+int(hdr.Length)]
		cert := Certificate{Header: hdr, Raw: content}

		if hdr.CertificateType == winCertTypePKCS7SignedData {
			signed, err := pkcs7.Parse(content)
			if err == nil {
				cert.Signers = signed.Certificates
			}
		}
		out = append(out, cert)

		// Entries are 8-byte aligned.
		adv := int(hdr.Length)
		if rem := adv % 8; rem != 0 {
			adv += 8 - rem
		}
		off += adv
	}

	return out, nil
}
