package model

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestVantagePointIncludesAddress(t *testing.T) {
	a := Observation{ProbeID: 42, Address: "192.0.2.1"}
	b := Observation{ProbeID: 42, Address: "2001:db8::1"}
	require.Equal(t, "42_192.0.2.1", a.VantagePoint())
	require.NotEqual(t, a.VantagePoint(), b.VantagePoint())
}

func TestParseFamily(t *testing.T) {
	for input, want := range map[string]Family{"4": FamilyIPv4, "ipv6": FamilyIPv6, "IPv4": FamilyIPv4} {
		got, err := ParseFamily(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseFamily("5")
	require.Error(t, err)
}

func TestParseGoal(t *testing.T) {
	g, err := ParseGoal("TrustChain")
	require.NoError(t, err)
	require.Equal(t, GoalTrustChain, g)
	_, err = ParseGoal("rollover")
	require.Error(t, err)
}

func TestOutcomeFromRcode(t *testing.T) {
	require.Equal(t, OutcomeNoError, OutcomeFromRcode(dns.RcodeSuccess))
	require.Equal(t, OutcomeServfail, OutcomeFromRcode(dns.RcodeServerFailure))
	require.Equal(t, Outcome("NXDOMAIN"), OutcomeFromRcode(dns.RcodeNameError))
}
