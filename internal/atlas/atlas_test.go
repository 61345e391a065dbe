package atlas

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func abuf(t *testing.T, rcode int, answers ...string) string {
	t.Helper()
	msg := new(dns.Msg)
	msg.SetQuestion("example.com.", dns.TypeDNSKEY)
	msg.Response = true
	msg.Rcode = rcode
	for _, a := range answers {
		rr, err := dns.NewRR(a)
		require.NoError(t, err)
		msg.Answer = append(msg.Answer, rr)
	}
	raw, err := msg.Pack()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

const zsk = "example.com. 3600 IN DNSKEY 256 3 8 AwEAAcW0F3oIXv9OZ3gQWrYAlk9UpXPSC7dJZ6Yy0VYg5x8DZ2JdJx8="

func TestDecodeArray(t *testing.T) {
	ok := abuf(t, dns.RcodeSuccess, zsk)
	fail := abuf(t, dns.RcodeServerFailure)
	input := fmt.Sprintf(`[
  {"msm_id": 100, "prb_id": 1, "timestamp": 1700000000, "af": 4, "dst_addr": "192.0.2.1", "result": {"abuf": %q}},
  {"msm_id": 100, "prb_id": 2, "timestamp": 1700000001, "af": 4, "error": {"timeout": 5000}},
  {"msm_id": 100, "prb_id": 3, "timestamp": 1700000002, "af": 6, "resultset": [
    {"af": 6, "dst_addr": "2001:db8::1", "result": {"abuf": %q}},
    {"af": 6, "dst_addr": "2001:db8::2"},
    {"af": 6, "dst_addr": "2001:db8::3", "result": {"abuf": "not base64!"}}
  ]}
]`, ok, fail)

	obs, stats, err := Decode(strings.NewReader(input), Options{Goal: model.GoalPropagationDelay, QueryType: "dnskey", Target: "4"})
	require.NoError(t, err)
	require.Equal(t, Stats{Results: 3, Skipped: 3, Accepted: 2}, stats)
	require.Len(t, obs, 2)

	require.Equal(t, "1_192.0.2.1", obs[0].VantagePoint())
	require.Equal(t, 100, obs[0].MeasurementID)
	require.Equal(t, model.FamilyIPv4, obs[0].Family)
	require.Equal(t, model.OutcomeNoError, obs[0].Outcome)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), obs[0].Timestamp)
	require.Equal(t, model.GoalPropagationDelay, obs[0].Goal)
	require.Len(t, obs[0].Answers, 1)
	require.Equal(t, dns.TypeDNSKEY, obs[0].Answers[0].Header().Rrtype)

	require.Equal(t, "3_2001:db8::1", obs[1].VantagePoint())
	require.Equal(t, model.FamilyIPv6, obs[1].Family)
	require.Equal(t, model.OutcomeServfail, obs[1].Outcome)
	require.Empty(t, obs[1].Answers)
}

func TestDecodeLines(t *testing.T) {
	ok := abuf(t, dns.RcodeSuccess)
	input := fmt.Sprintf("{\"prb_id\": 5, \"timestamp\": 10, \"dst_addr\": \"10.0.0.1\", \"result\": {\"abuf\": %q}}\n{\"prb_id\": 6, \"timestamp\": 11, \"dst_addr\": \"10.0.0.2\", \"result\": {\"abuf\": %q}}\n", ok, ok)

	obs, stats, err := Decode(strings.NewReader(input), Options{Goal: model.GoalTrustChain, QueryType: "valid", Family: model.FamilyIPv4, MeasurementID: 9})
	require.NoError(t, err)
	require.Equal(t, 2, stats.Accepted)
	require.Len(t, obs, 2)
	require.Equal(t, model.FamilyIPv4, obs[1].Family)
	require.Equal(t, 9, obs[1].MeasurementID)
	require.Equal(t, "valid", obs[1].QueryType)
}

func TestDecodeUnknownFamilyIsSkipped(t *testing.T) {
	input := fmt.Sprintf(`[{"prb_id": 5, "timestamp": 10, "dst_addr": "10.0.0.1", "result": {"abuf": %q}}]`, abuf(t, dns.RcodeSuccess))
	obs, stats, err := Decode(strings.NewReader(input), Options{Goal: model.GoalTrustChain})
	require.NoError(t, err)
	require.Empty(t, obs)
	require.Equal(t, 1, stats.Skipped)
}

func TestDecodeEmptyAndMalformed(t *testing.T) {
	obs, stats, err := Decode(strings.NewReader("  \n"), Options{})
	require.NoError(t, err)
	require.Empty(t, obs)
	require.Zero(t, stats.Results)

	_, _, err = Decode(strings.NewReader(`[{"prb_id": "x"}]`), Options{})
	require.Error(t, err)

	_, _, err = Decode(strings.NewReader(`{"prb_id": 1} {"prb_id": `), Options{})
	require.Error(t, err)
}
