package main

import (
	"fmt"
	"os"

	"github.com/jaxxstorm/rollovermon/internal/atlas"
	"github.com/jaxxstorm/rollovermon/internal/model"
)

type ImportCmd struct {
	File      string `arg:"" type:"existingfile" help:"Result file (JSON array or one result per line)."`
	Goal      string `required:"" enum:"pubdelay,propdelay,trustchain" help:"Monitoring goal of the measurement."`
	QueryType string `required:"" help:"dnskey, rrsig or ds for visibility; valid or bogus for the trust chain."`
	Target    string `help:"Nameserver address (pubdelay) or address family (propdelay, trustchain)."`
	Family    string `help:"Address family used when a result carries none (4 or 6)."`
	Msm       int    `help:"Measurement id to record instead of the one in the file."`
}

func (c *ImportCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	goal, err := model.ParseGoal(c.Goal)
	if err != nil {
		return err
	}
	opts := atlas.Options{Goal: goal, QueryType: c.QueryType, Target: c.Target, MeasurementID: c.Msm}
	if c.Family != "" {
		if opts.Family, err = model.ParseFamily(c.Family); err != nil {
			return err
		}
	}

	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	stats, err := a.service.Import(f, opts)
	if err != nil {
		return fmt.Errorf("import %s: %w", c.File, err)
	}
	fmt.Printf("imported %d observations from %d results (%d skipped)\n", stats.Accepted, stats.Results, stats.Skipped)
	return nil
}
