package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/jaxxstorm/rollovermon/internal/monitor"
	"github.com/jaxxstorm/rollovermon/internal/store"
)

type MeasurementsCmd struct {
	Add  MeasurementsAddCmd  `cmd:"" help:"Track a measurement."`
	Stop MeasurementsStopCmd `cmd:"" help:"Mark a measurement as stopped."`
	List MeasurementsListCmd `cmd:"" default:"1" help:"List tracked measurements."`
}

type MeasurementsAddCmd struct {
	ID        int    `arg:"" help:"Measurement id."`
	Goal      string `required:"" enum:"pubdelay,propdelay,trustchain" help:"Monitoring goal."`
	QueryType string `required:"" help:"dnskey, rrsig, ds, valid or bogus."`
	Target    string `help:"Nameserver address or address family."`
}

func (c *MeasurementsAddCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	goal, err := model.ParseGoal(c.Goal)
	if err != nil {
		return err
	}
	return a.store.AddMeasurement(store.Measurement{ID: c.ID, Goal: goal, QueryType: c.QueryType, Target: c.Target})
}

type MeasurementsStopCmd struct {
	ID int `arg:"" help:"Measurement id."`
}

func (c *MeasurementsStopCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()
	return a.store.StopMeasurement(c.ID)
}

type MeasurementsListCmd struct {
	Goal      string `help:"Only this monitoring goal."`
	QueryType string `help:"Only this query type."`
	Running   bool   `help:"Only running measurements."`
}

func (c *MeasurementsListCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	var goal model.Goal
	if c.Goal != "" {
		if goal, err = model.ParseGoal(c.Goal); err != nil {
			return err
		}
	}
	list, err := a.store.Measurements(goal, c.QueryType, c.Running)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGOAL\tQUERY\tTARGET\tCREATED\tRUNNING")
	for _, m := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n", m.ID, m.Goal, m.QueryType, m.Target, m.Created.UTC().Format(monitor.TimeLayout), m.Running)
	}
	return w.Flush()
}
