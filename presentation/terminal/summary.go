package terminal

import (
	"fmt"
	"io"
	"time"

	"monaco_verification/domain/entities"

	"github.com/fatih/color"
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
	softColor = color.New(color.FgYellow)
	skipColor = color.New(color.FgHiBlack)
	headColor = color.New(color.FgCyan, color.Bold)
)

// printReport - renders a human readable report table
func printReport(w io.Writer, report *entities.Report) {
	if report == nil {
		return
	}
	headColor.Fprintf(w, "\n%s", report.Scenario)
	fmt.Fprintf(w, "  %s via %s  (run %s)\n", report.Target, report.Backend, report.RunID)

	for _, p := range report.Probes {
		mark, c := probeMark(p)
		c.Fprintf(w, "  %s ", mark)
		fmt.Fprintf(w, "%-28s %8s", p.Name, p.Duration.Round(time.Millisecond))
		if p.Artifact != "" {
			fmt.Fprintf(w, "  -> %s", p.Artifact)
		}
		fmt.Fprintln(w)
		if p.Detail != "" && p.Outcome != entities.OutcomePassed {
			c.Fprintf(w, "      %s\n", p.Detail)
		}
	}

	if report.Error != "" {
		failColor.Fprintf(w, "  error: %s\n", report.Error)
	}

	passed := report.Count(entities.OutcomePassed)
	failed := report.Count(entities.OutcomeFailed)
	skipped := report.Count(entities.OutcomeSkipped)
	status, c := "PASSED", passColor
	if !report.Passed {
		status, c = "FAILED", failColor
	}
	c.Fprintf(w, "  %s", status)
	fmt.Fprintf(w, "  %d passed, %d failed, %d skipped, %d console events\n",
		passed, failed, skipped, len(report.Console))
}

func probeMark(p entities.ProbeResult) (string, *color.Color) {
	switch p.Outcome {
	case entities.OutcomePassed:
		return "✓", passColor
	case entities.OutcomeSkipped:
		return "-", skipColor
	default:
		if p.Required {
			return "✗", failColor
		}
		return "!", softColor
	}
}
