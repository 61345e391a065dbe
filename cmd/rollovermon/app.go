package main

import (
	"github.com/jaxxstorm/rollovermon/internal/config"
	"github.com/jaxxstorm/rollovermon/internal/metrics"
	"github.com/jaxxstorm/rollovermon/internal/monitor"
	"github.com/jaxxstorm/rollovermon/internal/store"
	"go.uber.org/zap"
)

// app is what every command needs: configuration, logger and the database.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	metrics *metrics.Metrics
	service *monitor.Service
}

func (g *Globals) open() (*app, error) {
	logger, err := newLogger(g.Verbose, g.Debug)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		return nil, err
	}
	m := metrics.New()
	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		metrics: m,
		service: monitor.New(cfg, st, monitor.Options{Metrics: m, Logger: logger}),
	}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
	_ = a.logger.Sync()
}
