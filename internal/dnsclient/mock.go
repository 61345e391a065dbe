package dnsclient

import (
	"context"
	"time"

	"github.com/miekg/dns"
)

// MockTransport answers queries through Responder. A nil Responder never
// answers.
type MockTransport struct {
	Responder func(server string, msg *dns.Msg) (*dns.Msg, time.Duration, error)
	Calls     int
}

func (m *MockTransport) Exchange(ctx context.Context, server string, msg *dns.Msg) (*dns.Msg, time.Duration, error) {
	m.Calls++
	if m.Responder == nil {
		return nil, 0, context.DeadlineExceeded
	}
	return m.Responder(server, msg)
}
