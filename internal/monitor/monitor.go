// Package monitor ties the stored observations to the analyses: it selects
// the observations of a time range, runs the classifiers and aggregators and
// returns reports.
package monitor

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jaxxstorm/rollovermon/internal/aggregate"
	"github.com/jaxxstorm/rollovermon/internal/atlas"
	"github.com/jaxxstorm/rollovermon/internal/classify"
	"github.com/jaxxstorm/rollovermon/internal/config"
	"github.com/jaxxstorm/rollovermon/internal/metrics"
	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/jaxxstorm/rollovermon/internal/report"
	"github.com/jaxxstorm/rollovermon/internal/store"
	"github.com/jaxxstorm/rollovermon/internal/trustchain"
	"go.uber.org/zap"
)

// DefaultLookback is the range analysed when no start is given.
const DefaultLookback = 60 * time.Minute

const groundTruthReason = "bogus or inconsistent trust chain"

// Store is the persistence the monitor reads from and writes to.
type Store interface {
	SaveObservations(observations []model.Observation) error
	Observations(q store.Query) ([]model.Observation, error)
	Deny(entries []store.DenyEntry) error
	Denylist() ([]string, error)
}

type Options struct {
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

type Service struct {
	cfg     *config.Config
	store   Store
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func New(cfg *config.Config, st Store, opts Options) *Service {
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		cfg:     cfg,
		store:   st,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// Request selects what to analyse. Zero times select the last
// DefaultLookback. Details keeps every window instead of a single summary.
type Request struct {
	Goal      model.Goal
	QueryType string
	From      time.Time
	To        time.Time
	Mode      trustchain.Mode
	Details   bool
}

// Analysis is a report together with the range it covers.
type Analysis struct {
	From   time.Time
	To     time.Time
	Report report.Report
}

func (s *Service) Visibility(req Request) (Analysis, error) {
	if req.Goal != model.GoalPublicationDelay && req.Goal != model.GoalPropagationDelay {
		return Analysis{}, fmt.Errorf("no visibility analysis for monitoring goal %q", req.Goal)
	}
	queryType := strings.ToLower(req.QueryType)
	width, err := s.cfg.VisibilityWidth(req.Goal, queryType)
	if err != nil {
		return Analysis{}, err
	}
	from, to, err := s.Range(req.From, req.To)
	if err != nil {
		return Analysis{}, err
	}

	observations, err := s.store.Observations(store.Query{Goal: req.Goal, QueryType: queryType, From: from, To: to})
	if err != nil {
		return Analysis{}, err
	}

	var entries []classify.Visibility
	for _, obs := range observations {
		seen := classify.Observation(obs, s.cfg.Zone)
		if len(seen) == 0 {
			s.metrics.Skipped()
			continue
		}
		for _, v := range seen {
			s.metrics.Classified(v.Key.Category)
		}
		entries = append(entries, seen...)
	}
	s.logger.Debug("classified observations",
		zap.String("goal", string(req.Goal)),
		zap.String("query_type", queryType),
		zap.Int("observations", len(observations)),
		zap.Int("records", len(entries)),
	)

	table, err := aggregate.Visibility(entries, aggregate.Range{From: from, To: to, Width: width}, s.seeds(req.Goal, queryType)...)
	if err != nil {
		return Analysis{}, err
	}
	return s.analysis(from, to, table, req.Details), nil
}

// seeds lists the groups every visibility report shows, observed or not.
func (s *Service) seeds(goal model.Goal, queryType string) []aggregate.Group {
	var categories []model.Category
	switch queryType {
	case "dnskey":
		categories = []model.Category{model.CategoryKSK, model.CategoryZSK}
	case "rrsig":
		categories = []model.Category{model.CategoryZSK}
	case "ds":
		categories = []model.Category{model.CategoryDS}
	}

	var targets []string
	switch {
	case goal == model.GoalPropagationDelay:
		targets = []string{"4", "6"}
	case queryType == "ds":
		targets = s.cfg.Nameservers.Parent
	default:
		targets = s.cfg.Nameservers.Child
	}

	var groups []aggregate.Group
	for _, target := range targets {
		for _, c := range categories {
			groups = append(groups, aggregate.Group{Dimension: target, Category: string(c)})
		}
	}
	return groups
}

// TrustChain classifies the trust chain of every vantage point per window.
// It fails with *model.InsufficientDataError when the range lacks valid or
// bogus samples.
func (s *Service) TrustChain(req Request) (Analysis, error) {
	mode := req.Mode
	if mode == "" {
		mode = s.cfg.TrustChain.Mode
	}
	mode, err := trustchain.ParseMode(string(mode))
	if err != nil {
		return Analysis{}, err
	}
	from, to, err := s.Range(req.From, req.To)
	if err != nil {
		return Analysis{}, err
	}

	samples, err := s.samples(from, to)
	if err != nil {
		return Analysis{}, err
	}
	if err := trustchain.CheckSufficient(samples); err != nil {
		return Analysis{}, err
	}

	width := s.cfg.TrustChainWidth()
	results, err := trustchain.Classify(samples, trustchain.Options{
		Width:       width,
		Combination: s.cfg.CombinationWindow(),
		Mode:        mode,
		Anchor:      from,
	})
	if err != nil {
		return Analysis{}, err
	}
	for _, r := range results {
		s.metrics.State(r.Family, r.State)
	}
	s.logger.Debug("classified trust chain",
		zap.String("mode", string(mode)),
		zap.Int("samples", len(samples)),
		zap.Int("results", len(results)),
	)

	table, err := aggregate.TrustChain(results, aggregate.Range{From: from, To: to, Width: width})
	if err != nil {
		return Analysis{}, err
	}
	return s.analysis(from, to, table, req.Details), nil
}

// GroundTruth denylists every vantage point whose trust chain was bogus or
// inconsistent in the range and returns the full denylist.
func (s *Service) GroundTruth(from, to time.Time) ([]string, error) {
	from, to, err := s.Range(from, to)
	if err != nil {
		return nil, err
	}
	samples, err := s.samples(from, to)
	if err != nil {
		return nil, err
	}
	current, err := s.store.Denylist()
	if err != nil {
		return nil, err
	}
	merged, err := trustchain.GroundTruth(samples, trustchain.Options{Width: s.cfg.TrustChainWidth(), Anchor: from}, current)
	if err != nil {
		return nil, err
	}

	known := map[string]struct{}{}
	for _, vp := range current {
		known[vp] = struct{}{}
	}
	var added []store.DenyEntry
	for _, vp := range merged {
		if _, ok := known[vp]; !ok {
			added = append(added, store.DenyEntry{VantagePoint: vp, Reason: groundTruthReason})
		}
	}
	if err := s.store.Deny(added); err != nil {
		return nil, err
	}
	s.metrics.DenylistSize(len(merged))
	s.logger.Info("ground truth updated", zap.Int("added", len(added)), zap.Int("denylisted", len(merged)))
	return merged, nil
}

func (s *Service) Denylist() ([]string, error) {
	list, err := s.store.Denylist()
	if err != nil {
		return nil, err
	}
	s.metrics.DenylistSize(len(list))
	return list, nil
}

// Import stores the observations decoded from a results file.
func (s *Service) Import(r io.Reader, opts atlas.Options) (atlas.Stats, error) {
	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	observations, stats, err := atlas.Decode(r, opts)
	if err != nil {
		return stats, err
	}
	s.metrics.ImportSkipped(stats.Skipped)
	if err := s.Record(observations); err != nil {
		return stats, err
	}
	s.logger.Info("results imported",
		zap.Int("results", stats.Results),
		zap.Int("accepted", stats.Accepted),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

// Record stores observations collected elsewhere, such as by the local probe.
func (s *Service) Record(observations []model.Observation) error {
	return s.store.SaveObservations(observations)
}

// Range fills in the default range and checks that from precedes to.
func (s *Service) Range(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-DefaultLookback)
	}
	from, to = from.UTC(), to.UTC()
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("start %s is not before stop %s", from.Format(TimeLayout), to.Format(TimeLayout))
	}
	return from, to, nil
}

func (s *Service) samples(from, to time.Time) ([]trustchain.Sample, error) {
	observations, err := s.store.Observations(store.Query{Goal: model.GoalTrustChain, From: from, To: to})
	if err != nil {
		return nil, err
	}
	return trustchain.SamplesFromObservations(observations), nil
}

func (s *Service) analysis(from, to time.Time, table aggregate.Table, details bool) Analysis {
	labels := s.cfg.Labels()
	if details {
		return Analysis{From: from, To: to, Report: report.Build(table, labels)}
	}
	return Analysis{From: from, To: to, Report: report.Summarize(table, labels)}
}
