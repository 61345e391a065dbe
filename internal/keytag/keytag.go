// Package keytag computes DNSKEY key tags as defined in RFC 4034 Appendix B.
package keytag

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// Compute returns the key tag of a DNSKEY with the given rdata fields and
// raw public key bytes. The RSA/MD5 special case of Appendix B.1 is not
// applied; algorithm 1 keys are obsolete.
func Compute(flags uint16, protocol, algorithm uint8, key []byte) uint16 {
	rdata := make([]byte, 4, 4+len(key))
	binary.BigEndian.PutUint16(rdata, flags)
	rdata[2] = protocol
	rdata[3] = algorithm
	rdata = append(rdata, key...)

	var acc uint32
	for i, b := range rdata {
		if i&1 == 0 {
			acc += uint32(b) << 8
		} else {
			acc += uint32(b)
		}
	}
	acc += acc >> 16
	return uint16(acc & 0xFFFF)
}

// FromBase64 decodes a presentation-format public key and computes its tag.
func FromBase64(flags uint16, protocol, algorithm uint8, publicKey string) (uint16, error) {
	key, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(publicKey), ""))
	if err != nil {
		return 0, fmt.Errorf("decode public key: %w", err)
	}
	return Compute(flags, protocol, algorithm, key), nil
}
