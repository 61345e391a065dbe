// Package atlas decodes RIPE Atlas DNS measurement results into
// observations.
package atlas

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// Result is one probe's result as published by the results API, either in a
// JSON array or one object per line.
type Result struct {
	MeasurementID int             `json:"msm_id"`
	ProbeID       int             `json:"prb_id"`
	Timestamp     int64           `json:"timestamp"`
	AF            int             `json:"af"`
	DstAddr       string          `json:"dst_addr"`
	Error         json.RawMessage `json:"error,omitempty"`
	Result        *Response       `json:"result,omitempty"`
	ResultSet     []SetEntry      `json:"resultset,omitempty"`
}

type Response struct {
	Abuf string `json:"abuf"`
}

// SetEntry is one resolver's answer when the probe queried several.
type SetEntry struct {
	AF      int             `json:"af"`
	DstAddr string          `json:"dst_addr"`
	Error   json.RawMessage `json:"error,omitempty"`
	Result  *Response       `json:"result,omitempty"`
}

// Options describes the measurement the results belong to.
type Options struct {
	Goal          model.Goal
	QueryType     string
	Target        string
	Family        model.Family
	MeasurementID int
	Logger        *zap.Logger
}

type Stats struct {
	Results  int
	Skipped  int
	Accepted int
}

// Decode reads results from r. Results carrying an error and responses
// without a usable abuf are skipped and counted.
func Decode(r io.Reader, opts Options) ([]model.Observation, Stats, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	results, err := readResults(r)
	if err != nil {
		return nil, Stats{}, err
	}

	var (
		out   []model.Observation
		stats Stats
	)
	for _, res := range results {
		stats.Results++
		if hasError(res.Error) {
			opts.Logger.Debug("skipping failed result", zap.Int("prb_id", res.ProbeID), zap.ByteString("error", res.Error))
			stats.Skipped++
			continue
		}
		for _, entry := range entries(res) {
			obs, err := observation(res, entry, opts)
			if err != nil {
				opts.Logger.Debug("skipping response", zap.Int("prb_id", res.ProbeID), zap.String("dst_addr", entry.DstAddr), zap.Error(err))
				stats.Skipped++
				continue
			}
			out = append(out, obs)
			stats.Accepted++
		}
	}
	return out, stats, nil
}

func readResults(r io.Reader) ([]Result, error) {
	br := bufio.NewReader(r)
	first, err := firstByte(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var results []Result
		if err := dec.Decode(&results); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
		return results, nil
	}

	var results []Result
	for {
		var res Result
		err := dec.Decode(&res)
		if errors.Is(err, io.EOF) {
			return results, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode result %d: %w", len(results)+1, err)
		}
		results = append(results, res)
	}
}

func firstByte(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func entries(res Result) []SetEntry {
	if len(res.ResultSet) > 0 {
		return res.ResultSet
	}
	return []SetEntry{{AF: res.AF, DstAddr: res.DstAddr, Result: res.Result}}
}

func observation(res Result, entry SetEntry, opts Options) (model.Observation, error) {
	if hasError(entry.Error) {
		return model.Observation{}, fmt.Errorf("resolver error %s", entry.Error)
	}
	if entry.Result == nil || entry.Result.Abuf == "" {
		return model.Observation{}, errors.New("no abuf")
	}

	raw, err := base64.StdEncoding.DecodeString(entry.Result.Abuf)
	if err != nil {
		return model.Observation{}, fmt.Errorf("decode abuf: %w", err)
	}
	msg := new(dns.Msg)
	if err := msg.Unpack(raw); err != nil {
		return model.Observation{}, fmt.Errorf("unpack abuf: %w", err)
	}

	family, err := familyOf(entry.AF, res.AF, opts.Family)
	if err != nil {
		return model.Observation{}, err
	}
	address := entry.DstAddr
	if address == "" {
		address = res.DstAddr
	}
	msmID := res.MeasurementID
	if opts.MeasurementID != 0 {
		msmID = opts.MeasurementID
	}

	return model.Observation{
		MeasurementID: msmID,
		ProbeID:       res.ProbeID,
		Address:       address,
		Timestamp:     time.Unix(res.Timestamp, 0).UTC(),
		Family:        family,
		Goal:          opts.Goal,
		QueryType:     opts.QueryType,
		Target:        opts.Target,
		Outcome:       model.OutcomeFromRcode(msg.Rcode),
		Answers:       msg.Answer,
	}, nil
}

func familyOf(entryAF, resultAF int, fallback model.Family) (model.Family, error) {
	for _, af := range []int{entryAF, resultAF, int(fallback)} {
		if af == int(model.FamilyIPv4) || af == int(model.FamilyIPv6) {
			return model.Family(af), nil
		}
	}
	return 0, errors.New("unknown address family")
}

func hasError(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
