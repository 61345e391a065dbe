// Package probe collects observations from the local host, which acts as one
// additional vantage point.
package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/jaxxstorm/rollovermon/internal/dnsclient"
	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// LocalProbeID identifies the local host among vantage points.
const LocalProbeID = 0

var visibilityTypes = []struct {
	name  string
	qtype uint16
}{
	{"dnskey", dns.TypeDNSKEY},
	{"rrsig", dns.TypeRRSIG},
	{"ds", dns.TypeDS},
}

type Config struct {
	Zone      string
	ValidName string
	BogusName string
	// Resolvers are the recursive resolvers to observe through. Empty means
	// the system resolvers.
	Resolvers []string
	// ChildNameservers and ParentNameservers are queried directly for the
	// publication delay.
	ChildNameservers  []string
	ParentNameservers []string
	Logger            *zap.Logger
	Now               func() time.Time
}

type Collector struct {
	client *dnsclient.Client
	cfg    Config
}

func New(client *dnsclient.Client, cfg Config) *Collector {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Collector{client: client, cfg: cfg}
}

// Round queries every resolver and nameserver once. Unanswered queries are
// recorded with a missing outcome.
func (c *Collector) Round(ctx context.Context) ([]model.Observation, error) {
	if c.cfg.Zone == "" {
		return nil, fmt.Errorf("no zone configured")
	}
	resolvers := c.cfg.Resolvers
	if len(resolvers) == 0 {
		system, err := SystemResolvers()
		if err != nil {
			return nil, fmt.Errorf("load system resolvers: %w", err)
		}
		resolvers = system
	}
	if len(resolvers) == 0 && len(c.cfg.ChildNameservers) == 0 && len(c.cfg.ParentNameservers) == 0 {
		return nil, fmt.Errorf("no resolvers configured")
	}

	var out []model.Observation
	for _, resolver := range resolvers {
		family, ok := familyOf(resolver)
		if !ok {
			c.cfg.Logger.Warn("skipping resolver without IP address", zap.String("resolver", resolver))
			continue
		}
		target := fmt.Sprint(int(family))

		for _, label := range []struct {
			label model.Label
			name  string
		}{
			{model.LabelValid, c.cfg.ValidName},
			{model.LabelBogus, c.cfg.BogusName},
		} {
			if label.name == "" {
				continue
			}
			qtype := dns.TypeA
			if family == model.FamilyIPv6 {
				qtype = dns.TypeAAAA
			}
			out = append(out, c.observe(ctx, resolver, family, model.GoalTrustChain, string(label.label), target, label.name, qtype, true))
		}

		for _, vt := range visibilityTypes {
			out = append(out, c.observe(ctx, resolver, family, model.GoalPropagationDelay, vt.name, target, c.cfg.Zone, vt.qtype, false))
		}
	}

	for _, ns := range c.cfg.ChildNameservers {
		for _, vt := range visibilityTypes[:2] {
			out = append(out, c.direct(ctx, ns, vt.name, vt.qtype))
		}
	}
	for _, ns := range c.cfg.ParentNameservers {
		out = append(out, c.direct(ctx, ns, visibilityTypes[2].name, visibilityTypes[2].qtype))
	}

	c.cfg.Logger.Info("probe round complete", zap.Int("observations", len(out)))
	return out, nil
}

func (c *Collector) direct(ctx context.Context, ns, queryType string, qtype uint16) model.Observation {
	family, ok := familyOf(ns)
	if !ok {
		family = model.FamilyIPv4
	}
	return c.observe(ctx, ns, family, model.GoalPublicationDelay, queryType, addressHost(ns), c.cfg.Zone, qtype, false)
}

func (c *Collector) observe(ctx context.Context, server string, family model.Family, goal model.Goal, queryType, target, name string, qtype uint16, dnssec bool) model.Observation {
	obs := model.Observation{
		ProbeID:   LocalProbeID,
		Address:   addressHost(server),
		Timestamp: c.cfg.Now().UTC(),
		Family:    family,
		Goal:      goal,
		QueryType: queryType,
		Target:    target,
		Outcome:   model.OutcomeMissing,
	}

	resp, err := c.client.Exchange(ctx, server, c.client.Query(name, qtype, dnssec))
	if err != nil {
		c.cfg.Logger.Debug("query failed",
			zap.String("server", server),
			zap.String("name", name),
			zap.String("type", dns.TypeToString[qtype]),
			zap.Error(err),
		)
		return obs
	}
	obs.Outcome = model.OutcomeFromRcode(resp.Msg.Rcode)
	obs.Answers = resp.Msg.Answer
	return obs
}

// Run performs rounds rounds, interval apart, and hands every batch to sink.
// A non-positive rounds runs until ctx is done.
func (c *Collector) Run(ctx context.Context, rounds int, interval time.Duration, sink func([]model.Observation) error) error {
	if interval <= 0 {
		return fmt.Errorf("probe interval must be positive: %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; rounds <= 0 || i < rounds; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		batch, err := c.Round(ctx)
		if err != nil {
			return err
		}
		if err := sink(batch); err != nil {
			return err
		}
	}
	return nil
}

func familyOf(address string) (model.Family, bool) {
	ip := net.ParseIP(addressHost(address))
	if ip == nil {
		return 0, false
	}
	if ip.To4() != nil {
		return model.FamilyIPv4, true
	}
	return model.FamilyIPv6, true
}
