package clifmt

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

const (
	defaultTableWidth    = 100
	defaultMinLastColumn = 24
)

// TableOptions describes a plain text table. Every column but the last is
// padded to its widest cell; the last column wraps to the remaining width.
type TableOptions struct {
	Title     string
	Columns   []string
	Rows      [][]string
	EmptyText string
	// Width overrides the terminal width when out is not a terminal.
	Width int
}

func PrintTable(out io.Writer, opts TableOptions) {
	if out == nil {
		out = os.Stdout
	}
	if title := strings.TrimSpace(opts.Title); title != "" {
		fmt.Fprintln(out, Headerf("%s (%d)", title, len(opts.Rows)))
	}
	if len(opts.Rows) == 0 {
		emptyText := strings.TrimSpace(opts.EmptyText)
		if emptyText == "" {
			emptyText = "No entries."
		}
		fmt.Fprintln(out, Warn(emptyText))
		return
	}
	if len(opts.Columns) == 0 {
		return
	}

	last := len(opts.Columns) - 1
	widths := make([]int, len(opts.Columns))
	for i, col := range opts.Columns {
		widths[i] = utf8.RuneCountInString(col)
	}
	for _, row := range opts.Rows {
		for i := 0; i < last && i < len(row); i++ {
			widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
		}
	}
	used := 0
	for i := 0; i < last; i++ {
		used += widths[i] + 2
	}
	widths[last] = max(tableWidth(out, opts.Width)-used, defaultMinLastColumn)

	header := make([]string, len(opts.Columns))
	rule := make([]string, len(opts.Columns))
	for i, col := range opts.Columns {
		header[i] = Key(padRightRunes(col, widths[i]))
		rule[i] = Dim(strings.Repeat("-", widths[i]))
	}
	fmt.Fprintln(out, strings.TrimRight(strings.Join(header, "  "), " "))
	fmt.Fprintln(out, strings.Join(rule, "  "))

	for _, row := range opts.Rows {
		cells := make([]string, len(opts.Columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = strings.TrimSpace(row[i])
			}
		}
		lines := wrapTextRunes(cells[last], widths[last])
		prefix := make([]string, 0, last)
		for i := 0; i < last; i++ {
			cell := padRightRunes(cells[i], widths[i])
			if i == 0 {
				cell = Success(cell)
			}
			prefix = append(prefix, cell)
		}
		lead := strings.Join(prefix, "  ")
		indent := strings.Repeat(" ", used)
		if last == 0 {
			lead = ""
		} else {
			lead += "  "
		}
		fmt.Fprintln(out, strings.TrimRight(lead+lines[0], " "))
		for _, line := range lines[1:] {
			fmt.Fprintln(out, indent+line)
		}
	}
}

func tableWidth(out io.Writer, fallback int) int {
	if file, ok := out.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		if w, _, err := term.GetSize(int(file.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if fallback > 0 {
		return fallback
	}
	return defaultTableWidth
}

func padRightRunes(s string, width int) string {
	missing := width - utf8.RuneCountInString(s)
	if missing <= 0 {
		return s
	}
	return s + strings.Repeat(" ", missing)
}

func wrapTextRunes(text string, width int) []string {
	text = strings.TrimSpace(text)
	if text == "" || width <= 0 {
		return []string{text}
	}

	var (
		lines   []string
		current string
	)
	flush := func() {
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
	}
	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > width {
			flush()
			runes := []rune(word)
			lines = append(lines, string(runes[:width]))
			word = string(runes[width:])
		}
		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			flush()
			current = word
		}
	}
	flush()
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
