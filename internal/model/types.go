package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

type Goal string

const (
	GoalPublicationDelay Goal = "pubdelay"
	GoalPropagationDelay Goal = "propdelay"
	GoalTrustChain       Goal = "trustchain"
)

func ParseGoal(value string) (Goal, error) {
	switch g := Goal(strings.ToLower(value)); g {
	case GoalPublicationDelay, GoalPropagationDelay, GoalTrustChain:
		return g, nil
	default:
		return "", fmt.Errorf("monitoring goal must be one of pubdelay, propdelay, trustchain: %q", value)
	}
}

// Label tells which of the two trust-chain names a query asked for.
type Label string

const (
	LabelValid Label = "valid"
	LabelBogus Label = "bogus"
)

type Family int

const (
	FamilyIPv4 Family = 4
	FamilyIPv6 Family = 6
)

func (f Family) String() string {
	return fmt.Sprintf("ipv%d", int(f))
}

func ParseFamily(value string) (Family, error) {
	switch strings.TrimPrefix(strings.ToLower(value), "ipv") {
	case "4":
		return FamilyIPv4, nil
	case "6":
		return FamilyIPv6, nil
	default:
		return 0, fmt.Errorf("unsupported address family: %q", value)
	}
}

type Category string

const (
	CategoryZSK Category = "ZSK"
	CategoryKSK Category = "KSK"
	CategoryDS  Category = "DS"
)

type State string

const (
	StateSecure   State = "secure"
	StateInsecure State = "insecure"
	StateBogus    State = "bogus"
	StateUnknown  State = "unknown"
)

// States lists the trust-chain states in report order.
var States = []State{StateSecure, StateInsecure, StateBogus, StateUnknown}

// Outcome is the rcode name of a response. The empty outcome means the
// response was missing.
type Outcome string

const (
	OutcomeMissing  Outcome = ""
	OutcomeNoError  Outcome = "NOERROR"
	OutcomeServfail Outcome = "SERVFAIL"
)

func OutcomeFromRcode(rcode int) Outcome {
	name, ok := dns.RcodeToString[rcode]
	if !ok {
		return Outcome(fmt.Sprintf("RCODE%d", rcode))
	}
	return Outcome(name)
}

type Observation struct {
	MeasurementID int
	ProbeID       int
	Address       string
	Timestamp     time.Time
	Family        Family
	Goal          Goal
	// QueryType is the record type queried for visibility goals. For
	// GoalTrustChain it holds the resolver label, valid or bogus.
	QueryType     string
	Target        string
	Outcome       Outcome
	Answers       []dns.RR
}

// VantagePoint identifies the probe together with the address it resolved
// through.
func (o Observation) VantagePoint() string {
	return VantagePointID(o.ProbeID, o.Address)
}

func VantagePointID(probeID int, address string) string {
	return fmt.Sprintf("%d_%s", probeID, address)
}
