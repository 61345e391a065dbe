package keytag

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

const (
	rfc4034Key = "AQOeiiR0GOMYkDshWoSKz9XzfwJr1AYtsmx3TGkJaNXVbfi/2pHm822aJ5iI9BMzNXxeYCmZDRD99WYwYqUSdjMmmAphXdvxegXd/M5+X7OrzKBaMbCVdFLUUh6DhweJBjEVv5f2wwjM9XzcnOf+EPbtG9DMBmADjFDc2w/rljwvFw=="
	rootKSK    = "AwEAAaz/tAm8yTn4Mfeh5eyI96WSVexTBAvkMgJzkKTOiW1vkIbzxeF3+/4RgWOq7HrxRixHlFlExOLAJr5emLvN7SWXgnLh4+B5xQlNVz8Og8kvArMtNROxVQuCaSnIDdD5LKyWbRd2n9WGe2R8PzgCmr3EgVLrjyBxWezF0jLHwVN8efS3rCj/EWgvIWgb9tarpVUDK/b58Da+sqqls3eNbuv7pr+eoZG+SrDK6nWeL3c6H5Apxz7LjVc1uTIdsIXxuOLYA4/ilBmSVIzuDWfdRUfhHdY6+cn8HFRm+2hM8AnXGXws9555KrUB5qihylGa8subX2Nn6UwNR1AkUTV74bU="
)

func TestPublishedKeyTags(t *testing.T) {
	cases := []struct {
		name      string
		flags     uint16
		protocol  uint8
		algorithm uint8
		key       string
		want      uint16
	}{
		{name: "rfc4034 dskey.example.com", flags: 256, protocol: 3, algorithm: 5, key: rfc4034Key, want: 60485},
		{name: "root KSK-2017", flags: 257, protocol: 3, algorithm: 8, key: rootKSK, want: 20326},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromBase64(tc.flags, tc.protocol, tc.algorithm, tc.key)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMatchesMiekgKeyTag(t *testing.T) {
	for _, flags := range []uint16{256, 257} {
		for _, algorithm := range []uint8{dns.RSASHA1, dns.RSASHA256, dns.RSASHA512, dns.ECDSAP256SHA256, dns.ED25519} {
			for _, key := range []string{rfc4034Key, rootKSK, "AAEC", "/w=="} {
				rr := &dns.DNSKEY{
					Hdr:       dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeDNSKEY, Class: dns.ClassINET, Ttl: 3600},
					Flags:     flags,
					Protocol:  3,
					Algorithm: algorithm,
					PublicKey: key,
				}
				got, err := FromBase64(flags, 3, algorithm, key)
				require.NoError(t, err)
				require.Equal(t, rr.KeyTag(), got, "flags=%d alg=%d key=%s", flags, algorithm, key)
			}
		}
	}
}

func TestFromBase64RejectsGarbage(t *testing.T) {
	_, err := FromBase64(256, 3, 8, "not base64!")
	require.Error(t, err)
}

func TestFromBase64IgnoresWhitespace(t *testing.T) {
	split := rfc4034Key[:20] + " \n" + rfc4034Key[20:]
	got, err := FromBase64(256, 3, 5, split)
	require.NoError(t, err)
	require.Equal(t, uint16(60485), got)
}
