package main

import (
	"fmt"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
)

var Version = "dev"

type CLI struct {
	Globals

	Status       StatusCmd       `cmd:"" help:"Show key visibility or trust chain state for a time range."`
	Import       ImportCmd       `cmd:"" help:"Import a downloaded RIPE Atlas result file."`
	Probe        ProbeCmd        `cmd:"" help:"Observe the zone from this host."`
	Groundtruth  GroundtruthCmd  `cmd:"" help:"Denylist vantage points with bogus or inconsistent trust chains."`
	Measurements MeasurementsCmd `cmd:"" help:"Manage the measurements the monitor tracks."`
	Serve        ServeCmd        `cmd:"" help:"Serve the HTTP API and metrics."`
	Version      VersionCmd      `cmd:"" help:"Print version."`
}

type Globals struct {
	Config  string `short:"c" type:"path" default:"rollovermon.yaml" help:"Configuration file."`
	Verbose bool   `help:"Enable verbose logging."`
	Debug   bool   `help:"Enable debug logging."`
}

type VersionCmd struct{}

func (VersionCmd) Run() error {
	fmt.Println(Version)
	return nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("rollovermon"),
		kong.Description("Monitor the propagation of a DNSSEC key rollover."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}

func newLogger(verbose bool, debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}
