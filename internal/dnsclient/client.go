package dnsclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

type Mode string

const (
	ModeUDP  Mode = "udp"
	ModeTCP  Mode = "tcp"
	ModeAuto Mode = "auto"
)

func ParseMode(value string) (Mode, error) {
	switch m := Mode(strings.ToLower(value)); m {
	case "":
		return ModeAuto, nil
	case ModeUDP, ModeTCP, ModeAuto:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported transport mode: %q", value)
	}
}

type Options struct {
	Mode      Mode
	Timeout   time.Duration
	Retries   int
	EDNS0Size uint16
	Logger    *zap.Logger
}

// Client sends recursive, DNSSEC-aware queries to resolvers.
type Client struct {
	opts Options
	udp  Transport
	tcp  Transport
}

// Response is a resolver answer together with how it was obtained.
type Response struct {
	Msg       *dns.Msg
	RTT       time.Duration
	Transport Mode
}

func New(opts Options) *Client {
	return NewWithTransports(opts, &netTransport{network: "udp"}, &netTransport{network: "tcp"})
}

func NewWithTransports(opts Options, udp Transport, tcp Transport) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.Retries == 0 {
		opts.Retries = 1
	}
	if opts.EDNS0Size == 0 {
		opts.EDNS0Size = 1232
	}
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{opts: opts, udp: udp, tcp: tcp}
}

// Query builds a recursive query. With dnssec the DO bit is set and the
// resolver returns signatures alongside the answer.
func (c *Client) Query(name string, qtype uint16, dnssec bool) *dns.Msg {
	msg := &dns.Msg{}
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true
	msg.AuthenticatedData = dnssec
	msg.SetEdns0(c.opts.EDNS0Size, dnssec)
	return msg
}

// Exchange sends msg to server. In auto mode a truncated UDP answer is
// retried over TCP. Every attempt is bounded by the client timeout.
func (c *Client) Exchange(ctx context.Context, server string, msg *dns.Msg) (Response, error) {
	server = ServerAddr(server)
	switch c.opts.Mode {
	case ModeTCP:
		return c.exchangeWithRetries(ctx, c.tcp, ModeTCP, server, msg)
	case ModeUDP:
		return c.exchangeWithRetries(ctx, c.udp, ModeUDP, server, msg)
	case ModeAuto:
		resp, err := c.exchangeWithRetries(ctx, c.udp, ModeUDP, server, msg)
		if err == nil && resp.Msg.Truncated {
			c.opts.Logger.Debug("udp truncated, retrying with tcp", zap.String("server", server))
			return c.exchangeWithRetries(ctx, c.tcp, ModeTCP, server, msg)
		}
		return resp, err
	default:
		return Response{}, fmt.Errorf("unsupported transport mode: %s", c.opts.Mode)
	}
}

func (c *Client) exchangeWithRetries(ctx context.Context, transport Transport, mode Mode, server string, msg *dns.Msg) (Response, error) {
	var lastErr error
	for i := 0; i < c.opts.Retries; i++ {
		if err := ctx.Err(); err != nil {
			return Response{Transport: mode}, err
		}
		attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		resp, rtt, err := transport.Exchange(attemptCtx, server, msg.Copy())
		cancel()
		if err == nil && resp == nil {
			err = errors.New("empty response")
		}
		if err == nil {
			c.logExchange(mode, server, msg, resp)
			return Response{Msg: resp, RTT: rtt, Transport: mode}, nil
		}
		c.opts.Logger.Debug("dns exchange failed",
			zap.String("transport", string(mode)),
			zap.String("server", server),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)
		lastErr = err
	}
	return Response{Transport: mode}, fmt.Errorf("query %s over %s: %w", server, mode, lastErr)
}

func (c *Client) logExchange(mode Mode, server string, req, resp *dns.Msg) {
	if !c.opts.Logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	c.opts.Logger.Debug("dns exchange",
		zap.String("transport", string(mode)),
		zap.String("server", server),
		zap.String("question", req.Question[0].String()),
		zap.String("rcode", dns.RcodeToString[resp.Rcode]),
		zap.Int("answers", len(resp.Answer)),
	)
}

// ServerAddr adds the default port to a bare resolver address.
func ServerAddr(server string) string {
	if server == "" {
		return server
	}
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), "53")
}
