package classify

import (
	"strings"
	"time"

	"github.com/jaxxstorm/rollovermon/internal/keytag"
	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/miekg/dns"
)

const (
	flagsZSK = 256
	flagsKSK = 257
)

// Key is the category and key tag a record counts towards.
type Key struct {
	Category model.Category
	Tag      uint16
}

// Visibility is one classified answer record as seen by one vantage point.
type Visibility struct {
	VantagePoint string
	Timestamp    time.Time
	Target       string
	Key          Key
}

// Record classifies a single answer record. Records of other types, DNSKEYs
// with unexpected flags and owners outside zone are skipped.
func Record(rr dns.RR, zone string) (Key, bool) {
	if rr == nil || !InZone(rr.Header().Name, zone) {
		return Key{}, false
	}
	switch record := rr.(type) {
	case *dns.DNSKEY:
		var category model.Category
		switch record.Flags {
		case flagsZSK:
			category = model.CategoryZSK
		case flagsKSK:
			category = model.CategoryKSK
		default:
			return Key{}, false
		}
		tag, err := keytag.FromBase64(record.Flags, record.Protocol, record.Algorithm, record.PublicKey)
		if err != nil {
			return Key{}, false
		}
		return Key{Category: category, Tag: tag}, true
	case *dns.RRSIG:
		if record.TypeCovered != dns.TypeDNSKEY {
			return Key{}, false
		}
		return Key{Category: model.CategoryZSK, Tag: record.KeyTag}, true
	case *dns.DS:
		return Key{Category: model.CategoryDS, Tag: record.KeyTag}, true
	default:
		return Key{}, false
	}
}

// Observation classifies every answer of obs. A response with no matching
// records yields nothing and does not count towards any denominator.
func Observation(obs model.Observation, zone string) []Visibility {
	out := []Visibility{}
	for _, rr := range obs.Answers {
		key, ok := Record(rr, zone)
		if !ok {
			continue
		}
		out = append(out, Visibility{
			VantagePoint: obs.VantagePoint(),
			Timestamp:    obs.Timestamp,
			Target:       obs.Target,
			Key:          key,
		})
	}
	return out
}

// InZone reports whether name is the apex of zone, ignoring case.
func InZone(name, zone string) bool {
	return strings.EqualFold(dns.Fqdn(name), dns.Fqdn(zone))
}
