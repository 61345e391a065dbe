package dnsclient

import (
	"context"
	"time"

	"github.com/miekg/dns"
)

type Transport interface {
	Exchange(ctx context.Context, server string, msg *dns.Msg) (*dns.Msg, time.Duration, error)
}

type netTransport struct {
	network string
}

func (t *netTransport) Exchange(ctx context.Context, server string, msg *dns.Msg) (*dns.Msg, time.Duration, error) {
	client := &dns.Client{Net: t.network}
	return client.ExchangeContext(ctx, msg, server)
}
