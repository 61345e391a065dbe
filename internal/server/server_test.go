package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jaxxstorm/rollovermon/internal/aggregate"
	"github.com/jaxxstorm/rollovermon/internal/metrics"
	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/jaxxstorm/rollovermon/internal/monitor"
	"github.com/jaxxstorm/rollovermon/internal/report"
	"github.com/jaxxstorm/rollovermon/internal/trustchain"
	"github.com/stretchr/testify/require"
)

var t0 = time.Unix(1700000000, 0).UTC()

type fakeAnalyzer struct {
	last     monitor.Request
	err      error
	denylist []string
}

func (f *fakeAnalyzer) analysis(req monitor.Request) (monitor.Analysis, error) {
	f.last = req
	if f.err != nil {
		return monitor.Analysis{}, f.err
	}
	table := aggregate.Table{Width: time.Hour, Windows: []aggregate.Window{{
		Start: t0,
		Groups: []aggregate.GroupCount{{
			Group:  aggregate.Group{Dimension: "ipv4", Category: "state"},
			Total:  2,
			Counts: []aggregate.KeyCount{{Key: "secure", Probes: 1}, {Key: "bogus", Probes: 1}},
		}},
	}}}
	return monitor.Analysis{From: t0, To: t0.Add(time.Hour), Report: report.Build(table, nil)}, nil
}

func (f *fakeAnalyzer) Visibility(req monitor.Request) (monitor.Analysis, error) {
	return f.analysis(req)
}

func (f *fakeAnalyzer) TrustChain(req monitor.Request) (monitor.Analysis, error) {
	return f.analysis(req)
}

func (f *fakeAnalyzer) Denylist() ([]string, error) {
	return f.denylist, f.err
}

func get(t *testing.T, s *Server, target string) (*http.Response, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	res := rec.Result()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestTrustChainJSON(t *testing.T) {
	fake := &fakeAnalyzer{}
	s := New(fake, nil, nil)

	res, body := get(t, s, PathTrustChain+"?start=2023-11-14%2022:00&stop=2023-11-14T23:00:00Z&mode=pair")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, jsonContentType, res.Header.Get(contentTypeHeader))
	require.JSONEq(t, `{"1700000000":{"ipv4":{"state":{"secure":{"probes":1,"share":50},"bogus":{"probes":1,"share":50}}}}}`, body)

	require.Equal(t, model.GoalTrustChain, fake.last.Goal)
	require.Equal(t, trustchain.ModePair, fake.last.Mode)
	require.True(t, fake.last.Details)
	require.Equal(t, time.Date(2023, 11, 14, 22, 0, 0, 0, time.UTC), fake.last.From)
	require.Equal(t, time.Date(2023, 11, 14, 23, 0, 0, 0, time.UTC), fake.last.To)
}

func TestTrustChainDefaultModeIsLeftToMonitor(t *testing.T) {
	fake := &fakeAnalyzer{}
	s := New(fake, nil, nil)

	res, _ := get(t, s, PathTrustChain+"?details=false")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, trustchain.Mode(""), fake.last.Mode)
	require.False(t, fake.last.Details)
}

func TestTrustChainFormats(t *testing.T) {
	s := New(&fakeAnalyzer{}, nil, nil)

	res, body := get(t, s, PathTrustChain+"?format=csv")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, csvContentType, res.Header.Get(contentTypeHeader))
	require.True(t, strings.HasPrefix(body, "timestamp,dimension,category,key,probes,total,share\n"))
	require.Contains(t, body, "1700000000,ipv4,state,secure,1,2,50.00")

	res, body = get(t, s, PathTrustChain+"?format=series")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"y_max": 105`)

	res, _ = get(t, s, PathTrustChain+"?format=xml")
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{"insufficient data", PathTrustChain, &model.InsufficientDataError{Present: []string{"valid"}}, http.StatusUnprocessableEntity},
		{"configuration", PathTrustChain, &model.ConfigurationError{Field: "ttls.dnskey", Reason: "must be positive"}, http.StatusBadRequest},
		{"internal", PathTrustChain, errors.New("disk on fire"), http.StatusInternalServerError},
		{"bad start", PathTrustChain + "?start=yesterday", nil, http.StatusBadRequest},
		{"reversed range", PathTrustChain + "?start=2023-11-14%2023:00&stop=2023-11-14%2022:00", nil, http.StatusBadRequest},
		{"bad details", PathTrustChain + "?details=maybe", nil, http.StatusBadRequest},
		{"bad mode", PathTrustChain + "?mode=sideways", nil, http.StatusBadRequest},
		{"missing goal", PathVisibility + "?record=dnskey", nil, http.StatusBadRequest},
		{"trust chain goal", PathVisibility + "?goal=trustchain&record=dnskey", nil, http.StatusBadRequest},
		{"bad record", PathVisibility + "?goal=pubdelay&record=soa", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(&fakeAnalyzer{err: tc.err}, nil, nil)
			res, body := get(t, s, tc.target)
			require.Equal(t, tc.status, res.StatusCode)
			require.Contains(t, body, `"error"`)
		})
	}
}

func TestVisibility(t *testing.T) {
	fake := &fakeAnalyzer{}
	s := New(fake, nil, nil)

	res, _ := get(t, s, PathVisibility+"?goal=propdelay&record=DNSKEY")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, model.GoalPropagationDelay, fake.last.Goal)
	require.Equal(t, "dnskey", fake.last.QueryType)
	require.True(t, fake.last.From.IsZero())
}

func TestDenylist(t *testing.T) {
	s := New(&fakeAnalyzer{denylist: []string{"3_192.0.2.3"}}, nil, nil)
	res, body := get(t, s, PathDenylist)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `["3_192.0.2.3"]`, body)

	s = New(&fakeAnalyzer{}, nil, nil)
	_, body = get(t, s, PathDenylist)
	require.JSONEq(t, `[]`, body)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.DenylistSize(3)
	s := New(&fakeAnalyzer{}, m, nil)

	res, body := get(t, s, PathMetrics)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "rollovermon_denylist_size 3")
}

func TestServeStopsWithContext(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(&fakeAnalyzer{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, l) }()

	url := "http://" + l.Addr().String() + PathDenylist
	require.Eventually(t, func() bool {
		res, err := http.Get(url)
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
