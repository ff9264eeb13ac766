package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ferry-trace/verifier/internal/models"
)

// Format selects a report encoding.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatXLSX    Format = "xlsx"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatMsgpack, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json, msgpack or xlsx)", s)
	}
}

var (
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC66")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// Encode writes the report to w in the given format.
func Encode(w io.Writer, report *models.Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatMsgpack:
		data, err := msgpack.Marshal(report)
		if err != nil {
			return fmt.Errorf("encoding msgpack report: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatXLSX:
		return encodeXLSX(w, report)
	default:
		_, err := io.WriteString(w, RenderText(report))
		return err
	}
}

// RenderText renders a human-readable report, one line per check with
// its diagnostics indented below.
func RenderText(report *models.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Trace " + report.Source))
	b.WriteByte('\n')
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  run %s, %d events, %d rejected lines, %d ms",
		report.RunID, report.EventCount, len(report.RejectedLines), report.DurationMs)))
	b.WriteString("\n\n")

	for _, res := range report.Results {
		if res.Passed {
			b.WriteString(passStyle.Render("✅ " + res.Name))
		} else {
			b.WriteString(failStyle.Render("❌ " + res.Name))
		}
		b.WriteByte('\n')
		for _, d := range res.Diagnostics {
			b.WriteString("    ")
			b.WriteString(d)
			b.WriteByte('\n')
		}
	}

	b.WriteByte('\n')
	if report.Passed {
		b.WriteString(passStyle.Render("PASS"))
	} else {
		b.WriteString(failStyle.Render(fmt.Sprintf("FAIL (%s)", strings.Join(report.Failed(), ", "))))
	}
	b.WriteByte('\n')
	return b.String()
}
