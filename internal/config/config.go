package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/hashicorp/go-multierror"
	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/jaxxstorm/rollovermon/internal/trustchain"
	"github.com/miekg/dns"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Zone                     string           `yaml:"zone"`
	TTLs                     TTLConfig        `yaml:"ttls"`
	PublicationCheckInterval time.Duration    `yaml:"publication_check_interval" default:"5m"`
	Nameservers              NameserverConfig `yaml:"nameservers"`
	TrustChain               TrustChainConfig `yaml:"trust_chain"`
	Database                 DatabaseConfig   `yaml:"database"`
	Probe                    ProbeConfig      `yaml:"probe"`
	Server                   ServerConfig     `yaml:"server"`
}

// TTLConfig holds the TTLs the zone publishes its records with.
type TTLConfig struct {
	DNSKEY time.Duration `yaml:"dnskey" default:"1h"`
	DS     time.Duration `yaml:"ds" default:"24h"`
	RRSIG  time.Duration `yaml:"rrsig" default:"1h"`
}

type NameserverConfig struct {
	Child  []string          `yaml:"child"`
	Parent []string          `yaml:"parent"`
	Labels map[string]string `yaml:"labels"`
}

type TrustChainConfig struct {
	Mode      trustchain.Mode `yaml:"mode" default:"window"`
	ValidName string          `yaml:"valid_name"`
	BogusName string          `yaml:"bogus_name"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" default:"rollovermon.db"`
}

type ProbeConfig struct {
	Resolvers []string      `yaml:"resolvers"`
	Timeout   time.Duration `yaml:"timeout" default:"2s"`
	Transport string        `yaml:"transport" default:"auto"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" default:":9153"`
}

// Default returns a configuration with every default applied and no zone.
func Default() (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Zone != "" {
		c.Zone = dns.Fqdn(strings.ToLower(c.Zone))
	}
	if c.TrustChain.ValidName != "" {
		c.TrustChain.ValidName = dns.Fqdn(c.TrustChain.ValidName)
	}
	if c.TrustChain.BogusName != "" {
		c.TrustChain.BogusName = dns.Fqdn(c.TrustChain.BogusName)
	}
	c.Probe.Transport = strings.ToLower(c.Probe.Transport)
}

// Validate reports every invalid setting at once. Each wrapped error is a
// *model.ConfigurationError.
func (c *Config) Validate() error {
	var result *multierror.Error
	invalid := func(field, reason string) {
		result = multierror.Append(result, &model.ConfigurationError{Field: field, Reason: reason})
	}

	if c.Zone == "" {
		invalid("zone", "required")
	} else if _, ok := dns.IsDomainName(c.Zone); !ok {
		invalid("zone", "not a domain name")
	}
	for _, d := range []struct {
		field string
		value time.Duration
	}{
		{"ttls.dnskey", c.TTLs.DNSKEY},
		{"ttls.ds", c.TTLs.DS},
		{"ttls.rrsig", c.TTLs.RRSIG},
		{"publication_check_interval", c.PublicationCheckInterval},
		{"probe.timeout", c.Probe.Timeout},
	} {
		if d.value <= 0 {
			invalid(d.field, "must be positive")
		}
	}
	if _, err := trustchain.ParseMode(string(c.TrustChain.Mode)); err != nil {
		invalid("trust_chain.mode", err.Error())
	}
	switch c.Probe.Transport {
	case "auto", "udp", "tcp":
	default:
		invalid("probe.transport", fmt.Sprintf("unsupported transport %q", c.Probe.Transport))
	}
	if c.Database.Path == "" {
		invalid("database.path", "required")
	}

	return result.ErrorOrNil()
}

// VisibilityWidth is the window width of a key visibility analysis: the
// publication check interval for pubdelay and the TTL of the observed record
// type for propdelay.
func (c *Config) VisibilityWidth(goal model.Goal, queryType string) (time.Duration, error) {
	switch goal {
	case model.GoalPublicationDelay:
		return c.PublicationCheckInterval, nil
	case model.GoalPropagationDelay:
		return c.TTL(queryType)
	default:
		return 0, fmt.Errorf("no visibility analysis for monitoring goal %q", goal)
	}
}

func (c *Config) TTL(queryType string) (time.Duration, error) {
	switch strings.ToLower(queryType) {
	case "dnskey":
		return c.TTLs.DNSKEY, nil
	case "rrsig":
		return c.TTLs.RRSIG, nil
	case "ds":
		return c.TTLs.DS, nil
	default:
		return 0, fmt.Errorf("record type must be one of dnskey, rrsig, ds: %q", queryType)
	}
}

func (c *Config) TrustChainWidth() time.Duration {
	return 2 * c.TTLs.DNSKEY
}

// CombinationWindow bounds how far apart a valid and a bogus sample may be
// to be paired.
func (c *Config) CombinationWindow() time.Duration {
	return 2 * c.TTLs.DNSKEY
}

// Labels maps nameserver addresses to display names.
func (c *Config) Labels() map[string]string {
	return c.Nameservers.Labels
}
