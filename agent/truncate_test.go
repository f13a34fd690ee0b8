package agent

import (
	"strings"
	"testing"
)

func TestTruncateToolOutputUnderLimit(t *testing.T) {
	out := truncateToolOutput("short output", "read_file")
	if out != "short output" {
		t.Errorf("short output was modified: %q", out)
	}
}

func TestTruncateToolOutputHeadTail(t *testing.T) {
	long := strings.Repeat("a", 30000) + "MIDDLE" + strings.Repeat("b", 30000)
	out := truncateToolOutput(long, "read_file")

	if len(out) >= len(long) {
		t.Fatal("output not truncated")
	}
	if !strings.HasPrefix(out, "a") || !strings.HasSuffix(out, "b") {
		t.Error("head/tail truncation should keep both ends")
	}
	if !strings.Contains(out, "truncated") {
		t.Error("no truncation marker in output")
	}
	if strings.Contains(out, "MIDDLE") {
		t.Error("middle content survived head/tail truncation")
	}
}

func TestTruncateToolOutputTailKeepsRecent(t *testing.T) {
	long := strings.Repeat("old\n", 20000) + "the final error line"
	out := truncateToolOutput(long, "get_logs")

	if !strings.HasSuffix(out, "the final error line") {
		t.Error("tail truncation lost the most recent content")
	}
}

func TestTruncateLines(t *testing.T) {
	input := strings.TrimSuffix(strings.Repeat("line\n", 100), "\n")
	out := truncateLines(input, 10)

	if got := strings.Count(out, "\n"); got > 12 {
		t.Errorf("too many lines after truncation: %d", got)
	}
	if !strings.Contains(out, "omitted") {
		t.Error("no omission marker")
	}

	if truncateLines("a\nb", 10) != "a\nb" {
		t.Error("short input modified")
	}
}

func TestTruncateWriteFileHasTightLimit(t *testing.T) {
	long := strings.Repeat("x", 5000)
	out := truncateToolOutput(long, "write_file")
	if len(out) >= 5000 {
		t.Errorf("write_file output not capped: %d chars", len(out))
	}
}
