package cli

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestCapWidths_NoConstraint(t *testing.T) {
	widths := []int{5, 20, 10}
	headers := []string{"COL1", "COL2", "COL3"}
	// Total: 5+20+10 + 2*2 = 39; fits in an 80-col terminal.
	got := capWidths(widths, headers, 80)
	if !reflect.DeepEqual(got, widths) {
		t.Errorf("expected no change: got %v, want %v", got, widths)
	}
}

func TestCapWidths_ReducesWidest(t *testing.T) {
	// 5 + 60 + 10 + 2*2 = 79, just over 78.
	widths := []int{5, 60, 10}
	headers := []string{"ACTOR", "DETAIL", "STATUS"}
	got := capWidths(widths, headers, 78)
	total := colGap * (len(got) - 1)
	for _, w := range got {
		total += w
	}
	if total > 78 {
		t.Errorf("total %d still exceeds 78; widths=%v", total, got)
	}
	// Widest column (index 1) should have been reduced; others unchanged.
	if got[0] != widths[0] {
		t.Errorf("column 0 should be unchanged: got %d, want %d", got[0], widths[0])
	}
	if got[2] != widths[2] {
		t.Errorf("column 2 should be unchanged: got %d, want %d", got[2], widths[2])
	}
}

func TestCapWidths_RespectsHeaderMinimum(t *testing.T) {
	widths := []int{4, 60}
	headers := []string{"ID", "A-VERY-LONG-HEADER-NAME"}
	got := capWidths(widths, headers, 30)
	if got[1] < visualLen("A-VERY-LONG-HEADER-NAME") {
		t.Errorf("column 1 reduced below header minimum: got %d", got[1])
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a-much-too-long-detail-cell", 10, "a-much-..."},
		{"abcdef", 2, "ab"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestTruncate_StripsANSIWhenCutting(t *testing.T) {
	colored := Green("a-long-colored-status-value")
	got := truncate(colored, 10)
	if strings.Contains(got, "\x1b[") {
		t.Errorf("truncated cell must not carry a partial ANSI sequence: %q", got)
	}
	if visualLen(got) > 10 {
		t.Errorf("truncated cell exceeds width: %q", got)
	}
}

func TestVisualLen_IgnoresANSICodes(t *testing.T) {
	if got := visualLen(Red("failed")); got != len("failed") {
		t.Errorf("visualLen = %d, want %d", got, len("failed"))
	}
}

func TestFlush_EmptyTablePrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("OPERATION", "STATUS")
	tbl.out = &buf
	tbl.Flush()
	if buf.Len() != 0 {
		t.Errorf("empty table produced output: %q", buf.String())
	}
}

func TestFlush_AlignsColumnsWithColoredCells(t *testing.T) {
	t.Setenv("COLUMNS", "80")

	var buf bytes.Buffer
	tbl := NewTable("OPERATION", "STATUS", "DETAIL")
	tbl.out = &buf
	tbl.Row("project_create", Green("ok"), "campus-a")
	tbl.Row("push", Red("failed"), "device unreachable")
	tbl.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + divider + 2 rows, got %d lines: %q", len(lines), lines)
	}
	// The colored STATUS cell must not shift the DETAIL column: every
	// line's DETAIL field starts at the same visual offset.
	wantOffset := visualLen("project_create") + colGap + visualLen("failed") + colGap
	if idx := strings.Index(lines[3], "device unreachable"); visualLen(lines[3][:idx]) != wantOffset {
		t.Errorf("DETAIL column misaligned: offset %d, want %d", visualLen(lines[3][:idx]), wantOffset)
	}
}
