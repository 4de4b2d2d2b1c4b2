package observ

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerAccumulates(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("load")
	tm.End(idx, "3 values")
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Add("dispatch", time.Millisecond, 10)
		}()
	}
	wg.Wait()

	rep := tm.Report()
	if len(rep.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(rep.Phases))
	}
	d := rep.Phases[1]
	if d.Count != 80 || d.DurationMS != 8 || d.NsPerOp != 100000 {
		t.Fatalf("unexpected dispatch phase %+v", d)
	}
	if rep.Phases[0].Note != "3 values" {
		t.Fatalf("note lost: %+v", rep.Phases[0])
	}
	tm.End(42, "ignored")
}

func TestSummaryAlignsWideNames(t *testing.T) {
	tm := NewTimer()
	tm.Add("短い", time.Millisecond, 0)
	tm.Add("longer-name", time.Millisecond, 0)
	lines := strings.Split(strings.TrimSpace(tm.Summary()), "\n")
	if len(lines) != 4 {
		t.Fatalf("summary lines = %d:\n%s", len(lines), tm.Summary())
	}
	// Both names occupy the same display width, so the durations line up.
	a := strings.Index(lines[1], "ms")
	b := strings.Index(lines[2], "ms")
	if a-len("短い")+4 != b-len("longer-name")+11 {
		t.Fatalf("columns misaligned:\n%s", tm.Summary())
	}
}
