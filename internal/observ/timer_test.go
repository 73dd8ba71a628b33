package observ

import (
	"bytes"
	"strings"
	"testing"
)

func TestTimerSummary(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("run")
	tm.End(a, "4 threads")
	b := tm.Begin("flush")
	tm.End(b, "")
	tm.End(99, "ignored")

	if len(tm.Phases()) != 2 {
		t.Fatalf("got %d phases", len(tm.Phases()))
	}
	if tm.Total() < tm.Phases()[0].Dur {
		t.Fatalf("total smaller than a phase")
	}
	var buf bytes.Buffer
	tm.WriteSummary(&buf)
	out := buf.String()
	for _, want := range []string{"timings:", "run", "// 4 threads", "flush", "total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}
