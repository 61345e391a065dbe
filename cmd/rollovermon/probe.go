package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaxxstorm/rollovermon/internal/dnsclient"
	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/jaxxstorm/rollovermon/internal/probe"
	"go.uber.org/zap"
)

type ProbeCmd struct {
	Rounds   int           `default:"1" help:"Number of rounds; 0 runs until interrupted."`
	Interval time.Duration `default:"5m" help:"Time between rounds."`
}

func (c *ProbeCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	mode, err := dnsclient.ParseMode(a.cfg.Probe.Transport)
	if err != nil {
		return err
	}
	client := dnsclient.New(dnsclient.Options{
		Mode:    mode,
		Timeout: a.cfg.Probe.Timeout,
		Retries: 1,
		Logger:  a.logger,
	})
	collector := probe.New(client, probe.Config{
		Zone:              a.cfg.Zone,
		ValidName:         a.cfg.TrustChain.ValidName,
		BogusName:         a.cfg.TrustChain.BogusName,
		Resolvers:         a.cfg.Probe.Resolvers,
		ChildNameservers:  a.cfg.Nameservers.Child,
		ParentNameservers: a.cfg.Nameservers.Parent,
		Logger:            a.logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	total := 0
	err = collector.Run(ctx, c.Rounds, c.Interval, func(batch []model.Observation) error {
		total += len(batch)
		a.logger.Info("storing probe round", zap.Int("observations", len(batch)))
		return a.service.Record(batch)
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Printf("recorded %d observations\n", total)
	return nil
}
