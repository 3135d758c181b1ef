package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// ansiRe matches ANSI escape sequences for stripping when calculating visual width.
var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// visualLen returns the display width of s, excluding ANSI escape codes
// and counting Unicode runes (not bytes) for correct multi-byte character width.
func visualLen(s string) int {
	return utf8.RuneCountInString(ansiRe.ReplaceAllString(s, ""))
}

// terminalWidth returns the terminal column count for stdout.
// COLUMNS environment variable overrides the detected width.
// Returns 0 if stdout is not a terminal and COLUMNS is unset,
// which signals that no width constraint should be applied.
func terminalWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 0 {
			return n
		}
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 0 // not a terminal — no constraint
	}
	return w
}

// colGap is the gap between adjacent columns.
const colGap = 2

// Table produces column-aligned output with ANSI-aware width calculation.
// Headers and a dash divider are written lazily on Flush(), so an empty
// audit listing produces no output.
//
// When stdout is a terminal (or COLUMNS is set), overlong cells in the
// widest column are truncated with an ellipsis rather than pushing the row
// past the terminal edge; a free-text detail cell never breaks alignment
// for the id and timestamp columns around it.
type Table struct {
	headers []string
	rows    [][]string
	out     io.Writer
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, out: os.Stdout}
}

// Row appends a row to the table.
func (t *Table) Row(values ...string) {
	t.rows = append(t.rows, values)
}

// Flush writes all buffered output. If no rows were added, nothing is printed.
func (t *Table) Flush() {
	if len(t.rows) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visualLen(h)
	}
	for _, row := range t.rows {
		for i, v := range row {
			if i < len(widths) {
				if vl := visualLen(v); vl > widths[i] {
					widths[i] = vl
				}
			}
		}
	}

	if tw := terminalWidth(); tw > 0 {
		widths = capWidths(widths, t.headers, tw)
	}

	t.printRow(t.headers, widths)

	dividers := make([]string, len(t.headers))
	for i := range t.headers {
		dividers[i] = strings.Repeat("-", widths[i])
	}
	t.printRow(dividers, widths)

	for _, row := range t.rows {
		t.printRow(row, widths)
	}
}

// capWidths shrinks the widest columns until the total line width fits in
// termWidth. A column is never shrunk below its header width, so an
// impossibly narrow terminal still gets readable headers even if rows
// overflow.
func capWidths(widths []int, headers []string, termWidth int) []int {
	result := make([]int, len(widths))
	copy(result, widths)

	minWidths := make([]int, len(headers))
	for i, h := range headers {
		minWidths[i] = visualLen(h)
	}

	for {
		lineWidth := 0
		for _, w := range result {
			lineWidth += w
		}
		if len(result) > 1 {
			lineWidth += colGap * (len(result) - 1)
		}
		if lineWidth <= termWidth {
			break
		}

		maxW, maxI := -1, -1
		for i, w := range result {
			if w > minWidths[i] && w > maxW {
				maxW = w
				maxI = i
			}
		}
		if maxI < 0 {
			break // every column is at its minimum
		}

		excess := lineWidth - termWidth
		if available := result[maxI] - minWidths[maxI]; excess > available {
			excess = available
		}
		result[maxI] -= excess
	}

	return result
}

// truncate caps s at width visual characters, replacing the overflow with
// an ellipsis. ANSI codes are stripped before truncating so a half-emitted
// color sequence can never leak into the rest of the line.
func truncate(s string, width int) string {
	if width <= 0 || visualLen(s) <= width {
		return s
	}
	plain := []rune(ansiRe.ReplaceAllString(s, ""))
	if width <= 3 {
		return string(plain[:width])
	}
	return string(plain[:width-3]) + "..."
}

// printRow prints one physical output line, padding each cell to its
// column width and truncating cells that exceed it.
func (t *Table) printRow(row []string, widths []int) {
	parts := make([]string, len(widths))
	for i := range widths {
		val := ""
		if i < len(row) {
			val = truncate(row[i], widths[i])
		}
		pad := widths[i] - visualLen(val)
		if pad < 0 {
			pad = 0
		}
		parts[i] = val + strings.Repeat(" ", pad)
	}
	fmt.Fprintln(t.out, strings.TrimRight(strings.Join(parts, strings.Repeat(" ", colGap)), " "))
}
