package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/jaxxstorm/rollovermon/internal/monitor"
	"github.com/jaxxstorm/rollovermon/internal/output"
	"github.com/jaxxstorm/rollovermon/internal/trustchain"
)

type StatusCmd struct {
	Goal      string `arg:"" enum:"pubdelay,propdelay,trustchain" help:"Monitoring goal."`
	Record    string `help:"Record type for pubdelay and propdelay (dnskey, rrsig, ds)."`
	StartDate string `help:"Start of the range (YYYY-MM-DD HH:MM or RFC 3339). Defaults to 60 minutes before the stop."`
	StopDate  string `help:"End of the range (YYYY-MM-DD HH:MM or RFC 3339). Defaults to now."`
	Details   bool   `help:"Show every window instead of a summary of the range."`
	Mode      string `help:"Trust chain classification (window or pair). Defaults to the configured mode."`
	Output    string `enum:"pretty,json,csv,series" default:"pretty" help:"Output format."`
}

func (c *StatusCmd) Run(g *Globals) error {
	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	req, err := c.request()
	if err != nil {
		return err
	}

	var analysis monitor.Analysis
	if req.Goal == model.GoalTrustChain {
		analysis, err = a.service.TrustChain(req)
	} else {
		analysis, err = a.service.Visibility(req)
	}
	var insufficient *model.InsufficientDataError
	if errors.As(err, &insufficient) {
		fmt.Println(insufficient.Error())
		return nil
	}
	if err != nil {
		return err
	}

	rendered, err := c.render(req, analysis)
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}

func (c *StatusCmd) request() (monitor.Request, error) {
	goal, err := model.ParseGoal(c.Goal)
	if err != nil {
		return monitor.Request{}, err
	}
	from, err := monitor.ParseTime(c.StartDate)
	if err != nil {
		return monitor.Request{}, err
	}
	to, err := monitor.ParseTime(c.StopDate)
	if err != nil {
		return monitor.Request{}, err
	}
	req := monitor.Request{Goal: goal, QueryType: strings.ToLower(c.Record), From: from, To: to, Details: c.Details}

	if goal == model.GoalTrustChain {
		if c.Mode != "" {
			if req.Mode, err = trustchain.ParseMode(c.Mode); err != nil {
				return monitor.Request{}, err
			}
		}
		return req, nil
	}
	if req.QueryType == "" {
		return monitor.Request{}, fmt.Errorf("--record is required for %s", goal)
	}
	return req, nil
}

func (c *StatusCmd) render(req monitor.Request, analysis monitor.Analysis) (string, error) {
	switch c.Output {
	case "json":
		return output.RenderJSON(analysis.Report)
	case "csv":
		return output.RenderCSV(analysis.Report)
	case "series":
		return output.RenderSeriesJSON(analysis.Report)
	default:
		title := fmt.Sprintf("Monitoring %s", strings.ToUpper(string(req.Goal)))
		if req.QueryType != "" {
			title = fmt.Sprintf("Monitoring %s of %s", strings.ToUpper(string(req.Goal)), strings.ToUpper(req.QueryType))
		}
		return output.RenderPretty(output.Heading{Title: title, From: analysis.From, To: analysis.To}, analysis.Report), nil
	}
}
