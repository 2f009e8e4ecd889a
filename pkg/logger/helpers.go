package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Icons used by the console helpers
const (
	IconSuccess = "✅"
	IconError   = "❌"
	IconWarning = "⚠️"
	IconInfo    = "ℹ️"
	IconRoute   = "🧭"
	IconTarget  = "🎯"
	IconThreat  = "🛰️"
	IconRefresh = "🔄"
	IconDot     = "•"
	IconArrow   = "→"
)

var (
	colorSection    = color.New(color.FgCyan, color.Bold)
	colorSubSection = color.New(color.FgHiBlack)
	colorKey        = color.New(color.FgCyan)
)

// Success logs a success message with a green checkmark
func Success(args ...interface{}) {
	defaultLogger.Info(IconSuccess + " " + fmt.Sprint(args...))
}

// Successf logs a formatted success message
func Successf(format string, args ...interface{}) {
	Success(fmt.Sprintf(format, args...))
}

// Progress logs a progress message with a refresh icon
func Progress(args ...interface{}) {
	defaultLogger.Info(IconRefresh + " " + fmt.Sprint(args...))
}

// Progressf logs a formatted progress message
func Progressf(format string, args ...interface{}) {
	Progress(fmt.Sprintf(format, args...))
}

// Routef logs a navigation message.
func Routef(format string, args ...interface{}) {
	defaultLogger.Info(IconRoute + " " + fmt.Sprintf(format, args...))
}

// printLine writes a raw line to the default logger's writer.
func printLine(c *color.Color, s string) {
	out := defaultLogger.out
	out.mu.Lock()
	defer out.mu.Unlock()
	if c != nil && !out.noColor {
		s = c.Sprint(s)
	}
	_, _ = fmt.Fprintln(out.writer, s)
}

// LogSection creates a visual section separator
func LogSection(title string) {
	line := strings.Repeat("=", 50)
	printLine(colorSection, line)
	printLine(colorSection, title)
	printLine(colorSection, line)
}

// LogSubSection creates a visual subsection separator
func LogSubSection(title string) {
	line := strings.Repeat("-", 40)
	printLine(colorSubSection, line)
	printLine(colorSubSection, title)
	printLine(colorSubSection, line)
}

// LogList logs a list of items with bullets
func LogList(title string, items []string) {
	Info(title)
	for _, item := range items {
		printLine(nil, fmt.Sprintf("  %s %s", IconDot, item))
	}
}

// LogKeyValue logs a key-value pair with nice formatting
func LogKeyValue(key string, value interface{}) {
	out := defaultLogger.out
	out.mu.Lock()
	defer out.mu.Unlock()
	if out.noColor {
		_, _ = fmt.Fprintf(out.writer, "%s: %v\n", key, value)
		return
	}
	_, _ = fmt.Fprintf(out.writer, "%s %v\n", colorKey.Sprint(key+":"), value)
}

// Table represents a simple table for logging
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a new table
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    [][]string{},
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(values ...string) {
	t.rows = append(t.rows, values)
}

// String renders the table with padded columns.
func (t *Table) String() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(fmt.Sprintf("%-*s  ", widths[i], cell))
		}
		sb.WriteString("\n")
	}

	writeRow(t.headers)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range t.rows {
		writeRow(row)
	}
	return sb.String()
}

// Print prints the table
func (t *Table) Print() {
	if s := t.String(); s != "" {
		printLine(nil, strings.TrimRight(s, "\n"))
	}
}
