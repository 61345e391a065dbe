package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaxxstorm/rollovermon/internal/server"
)

type ServeCmd struct {
	Addr string `help:"Listen address. Defaults to server.addr from the configuration."`
}

func (c *ServeCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	addr := c.Addr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(a.service, a.metrics, a.logger).ListenAndServe(ctx, addr)
}
