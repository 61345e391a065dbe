package main

import (
	"fmt"

	"github.com/jaxxstorm/rollovermon/internal/monitor"
	"github.com/jaxxstorm/rollovermon/internal/output"
)

type GroundtruthCmd struct {
	StartDate string `help:"Start of the range (YYYY-MM-DD HH:MM or RFC 3339)."`
	StopDate  string `help:"End of the range (YYYY-MM-DD HH:MM or RFC 3339)."`
}

func (c *GroundtruthCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	from, err := monitor.ParseTime(c.StartDate)
	if err != nil {
		return err
	}
	to, err := monitor.ParseTime(c.StopDate)
	if err != nil {
		return err
	}

	list, err := a.service.GroundTruth(from, to)
	if err != nil {
		return err
	}
	rendered, err := output.RenderList(list)
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}
