package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/temirov/workspace/internal/workspaces"
)

const (
	outcomeLineTemplateConstant = "  %s: %s\n"
)

// outputPalette colours report lines; every colour is disabled when colorize is false.
type outputPalette struct {
	success *color.Color
	warning *color.Color
	failure *color.Color
	muted   *color.Color
}

func newOutputPalette(colorize bool) outputPalette {
	palette := outputPalette{
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed),
		muted:   color.New(color.Faint),
	}
	for _, paletteColor := range []*color.Color{palette.success, palette.warning, palette.failure, palette.muted} {
		if colorize {
			paletteColor.EnableColor()
		} else {
			paletteColor.DisableColor()
		}
	}
	return palette
}

func (palette outputPalette) forOutcome(kind workspaces.OutcomeKind) *color.Color {
	switch kind {
	case workspaces.OutcomeLinked, workspaces.OutcomeUpdated:
		return palette.success
	case workspaces.OutcomeSkipped:
		return palette.warning
	case workspaces.OutcomeFailed:
		return palette.failure
	default:
		return palette.muted
	}
}

// printOutcomes writes one line per repository in report order.
func printOutcomes(writer io.Writer, palette outputPalette, report workspaces.BatchReport) {
	for _, outcome := range report.Outcomes {
		message := outcome.Message
		if outcome.Kind == workspaces.OutcomeFailed && outcome.Err != nil {
			message = outcome.Err.Error()
		}
		fmt.Fprintf(writer, outcomeLineTemplateConstant, outcome.Repository, palette.forOutcome(outcome.Kind).Sprint(message))
	}
}

func newTable(writer io.Writer, header ...any) table.Writer {
	tableWriter := table.NewWriter()
	tableWriter.SetOutputMirror(writer)
	tableWriter.SetStyle(table.StyleLight)
	tableWriter.AppendHeader(table.Row(header))
	return tableWriter
}
