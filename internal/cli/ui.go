package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/brainviz/execsummary/pkg/errors"
	"github.com/brainviz/execsummary/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached  = lipgloss.NewStyle().Foreground(colorGreen)
	styleFailed  = lipgloss.NewStyle().Foreground(colorRed)
	styleSkipped = lipgloss.NewStyle().Foreground(colorYellow)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}

// =============================================================================
// Run Summary
// =============================================================================

// stageTable renders per-stage counts of a finished run.
func stageTable(res *pipeline.Result) string {
	rows := make([][]string, 0, len(res.Stages))
	for _, s := range res.Stages {
		cached := 0
		for _, a := range res.Stage(s.Stage) {
			if a.Status == pipeline.StatusCached {
				cached++
			}
		}
		status := iconSuccess
		if s.Skipped {
			status = "skipped"
		} else if s.Failed > 0 {
			status = iconError
		}
		rows = append(rows, []string{
			s.Stage,
			strconv.Itoa(s.Produced),
			strconv.Itoa(cached),
			strconv.Itoa(s.Failed),
			s.Duration.Round(time.Millisecond).String(),
			status,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Stage", "Produced", "Cached", "Failed", "Time", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < 0 || row >= len(rows) {
				return base
			}
			switch {
			case col == 2 && rows[row][2] != "0":
				return base.Inherit(styleCached)
			case col == 3 && rows[row][3] != "0":
				return base.Inherit(styleFailed)
			case col == 5 && rows[row][5] == "skipped":
				return base.Inherit(styleSkipped)
			case col == 5 && rows[row][5] == iconError:
				return base.Inherit(styleFailed)
			case col == 5:
				return base.Inherit(styleIconSuccess)
			}
			return base
		})
	return t.Render()
}

// printRunSummary prints the stage table and lists failed and skipped
// artifacts.
func printRunSummary(w io.Writer, res *pipeline.Result) {
	fmt.Fprintln(w, stageTable(res))

	for _, a := range res.Failed() {
		msg := ""
		if a.Err != nil {
			msg = errors.UserMessage(a.Err)
		}
		fmt.Fprintln(w, styleIconError.Render(iconError)+" "+a.File+" "+StyleDim.Render(msg))
	}
	for _, a := range res.Skipped() {
		if a.Missing == "" {
			continue
		}
		fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleDim.Render(a.File+" skipped, missing "+a.Missing))
	}
}
