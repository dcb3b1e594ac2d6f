package labeler

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Reporter receives each triaged issue.
type Reporter interface {
	Emit(ctx context.Context, entry Triage) error
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ctx context.Context, entry Triage) error

// Emit implements Reporter.
func (f ReporterFunc) Emit(ctx context.Context, entry Triage) error {
	return f(ctx, entry)
}

// MultiReporter fans each entry out to all reporters in order, stopping at the
// first error.
type MultiReporter []Reporter

// Emit implements Reporter.
func (m MultiReporter) Emit(ctx context.Context, entry Triage) error {
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Emit(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// ReportStyles controls console rendering.
type ReportStyles struct {
	Header      lipgloss.Style
	Label       lipgloss.Style
	Recommended lipgloss.Style
	Rejected    lipgloss.Style
}

// DefaultReportStyles returns the styles used by NewConsoleReporter.
func DefaultReportStyles() ReportStyles {
	return ReportStyles{
		Header:      lipgloss.NewStyle().Bold(true),
		Label:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")),
		Recommended: lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff9f")),
		Rejected:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")),
	}
}

// ConsoleReporter writes a human readable block per issue.
type ConsoleReporter struct {
	mu     sync.Mutex
	w      io.Writer
	styles ReportStyles
}

// NewConsoleReporter writes to w using the default styles.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w, styles: DefaultReportStyles()}
}

// Emit implements Reporter.
func (c *ConsoleReporter) Emit(_ context.Context, entry Triage) error {
	var b strings.Builder
	b.WriteString(c.styles.Header.Render(fmt.Sprintf("==== Issue %s: %s ====", entry.Issue.ID, entry.Issue.Title)))
	b.WriteString("\n")
	b.WriteString(FormatPredictions(entry.Predictions, c.styles.Label))
	if entry.Recommended {
		b.WriteString(c.styles.Recommended.Render("recommended"))
	} else {
		b.WriteString(c.styles.Rejected.Render("not recommended"))
	}
	b.WriteString("\n")
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.w, b.String())
	return err
}

// FormatPredictions renders one "1st Label: x with score: y" line per prediction.
func FormatPredictions(preds []Prediction, labelStyle lipgloss.Style) string {
	var b strings.Builder
	for i, p := range preds {
		fmt.Fprintf(&b, "%s Label: %s with score: %.3f\n", Ordinal(i+1), labelStyle.Render(p.Label), p.Score)
	}
	return b.String()
}

// Ordinal formats n as 1st, 2nd, 3rd, 4th, ...
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// CSVReporter writes one row per issue with k label/score column pairs.
type CSVReporter struct {
	mu          sync.Mutex
	w           *csv.Writer
	k           int
	wroteHeader bool
}

// NewCSVReporter writes rows to w with k ranked label columns.
func NewCSVReporter(w io.Writer, k int) *CSVReporter {
	if k <= 0 {
		k = DefaultTopK
	}
	return &CSVReporter{w: csv.NewWriter(w), k: k}
}

// Emit implements Reporter.
func (c *CSVReporter) Emit(_ context.Context, entry Triage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.wroteHeader {
		header := []string{"id", "title"}
		for i := 1; i <= c.k; i++ {
			header = append(header, fmt.Sprintf("label%d", i), fmt.Sprintf("score%d", i))
		}
		header = append(header, "recommended")
		if err := c.w.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		c.wroteHeader = true
	}
	row := []string{entry.Issue.ID, entry.Issue.Title}
	for i := 0; i < c.k; i++ {
		if i < len(entry.Predictions) {
			p := entry.Predictions[i]
			row = append(row, p.Label, fmt.Sprintf("%.3f", p.Score))
		} else {
			row = append(row, "", "")
		}
	}
	row = append(row, strconv.FormatBool(entry.Recommended))
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("write row %s: %w", entry.Issue.ID, err)
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flush result: %w", err)
	}
	return nil
}
