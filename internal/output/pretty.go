package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hako/durafmt"
	"github.com/jaxxstorm/rollovermon/internal/report"
)

const timeLayout = "2006-01-02 15:04"

// Heading describes what a report covers.
type Heading struct {
	Title string
	From  time.Time
	To    time.Time
}

func RenderPretty(h Heading, r report.Report) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Render(h.Title)
	windowStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	rowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	lines := []string{
		title,
		mutedStyle.Render(fmt.Sprintf("%s - %s, windows of %s",
			h.From.UTC().Format(timeLayout), h.To.UTC().Format(timeLayout), durafmt.Parse(r.Width).String())),
		"",
	}
	if len(r.Windows) == 0 {
		lines = append(lines, mutedStyle.Render("no windows in range"))
		return strings.Join(lines, "\n")
	}

	for _, w := range r.Windows {
		lines = append(lines, windowStyle.Render(w.Start.UTC().Format(timeLayout)))
		if len(w.Dimensions) == 0 {
			lines = append(lines, mutedStyle.Render("  no observations"))
		}
		for _, d := range w.Dimensions {
			for _, c := range d.Categories {
				lines = append(lines, rowStyle.Render(fmt.Sprintf("  %s %s (%d vantage points)", d.Name, c.Name, c.Total)))
				for _, e := range c.Entries {
					lines = append(lines, rowStyle.Render(fmt.Sprintf("    %-10s %6d  %s", e.Key, e.Probes, formatShare(e.Share))))
				}
			}
		}
	}
	return strings.Join(lines, "\n")
}

func formatShare(share *float64) string {
	if share == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *share)
}
