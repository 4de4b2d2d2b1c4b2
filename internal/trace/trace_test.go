package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDispatch, false},
		{LevelError, ScopeDispatch, false},
		{LevelPhase, ScopeResolve, true},
		{LevelPhase, ScopeCache, false},
		{LevelDetail, ScopeCache, true},
		{LevelDetail, ScopeLookup, false},
		{LevelDebug, ScopeLookup, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Fatalf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	span := Begin(tr, ScopeResolve, "resolve", 0)
	span.WithExtra("code", "7").End("retain")
	Point(tr, ScopeLookup, "hit", "")
	Point(tr, ScopeCache, "cache.miss", "(if)")
	out := buf.String()
	for _, want := range []string{"→ resolve", "← resolve (retain) {code=7}", "• cache.miss ((if))"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "hit") {
		t.Fatalf("lookup scope must be filtered at detail level")
	}
}

func TestStreamTracerChrome(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatChrome)
	Begin(tr, ScopeDispatch, "replay", 0).End("")
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("chrome output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 2 {
		t.Fatalf("expected 2 events, got %d", len(doc.TraceEvents))
	}
}

func TestRingTracerWraps(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(r, ScopeLookup, name, "")
	}
	snap := r.Snapshot()
	if len(snap) != 3 || snap[0].Name != "b" || snap[2].Name != "d" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatNDJSON); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("expected 3 NDJSON lines, got %q", buf.String())
	}
}

func TestRingDumpChrome(t *testing.T) {
	r := NewRingTracer(2, LevelDetail)
	Point(r, ScopeCache, "cache.miss", "(i)")
	Point(r, ScopeLookup, "cache.hit", "7")
	span := Begin(r, ScopeResolve, "resolve", 0)
	span.End("(i)")
	if r.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", r.Dropped())
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatChrome); err != nil {
		t.Fatalf("dump: %v", err)
	}
	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("dump is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 2 {
		t.Fatalf("expected 2 events, got %d", len(doc.TraceEvents))
	}
	if RingOf(NewStreamTracer(&buf, LevelDebug, FormatText)) != nil {
		t.Fatalf("stream tracer has no recorder")
	}
}

func TestNewAndContext(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("off level must yield a disabled tracer")
	}
	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := tr.(*MultiTracer); !ok || RingOf(tr) == nil {
		t.Fatalf("both mode must produce a multi tracer with a ring")
	}
	ctx := WithTracer(context.Background(), tr)
	if FromContext(ctx) != tr {
		t.Fatalf("tracer not propagated through context")
	}
	if FromContext(context.Background()) != Nop {
		t.Fatalf("missing tracer must resolve to Nop")
	}
}

func TestHeartbeatCarriesStatus(t *testing.T) {
	r := NewRingTracer(16, LevelPhase)
	h := StartHeartbeat(r, time.Millisecond, func() string { return "hits=3" })
	deadline := time.Now().Add(2 * time.Second)
	for len(r.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	snap := r.Snapshot()
	if len(snap) == 0 {
		t.Fatalf("no heartbeat recorded")
	}
	if snap[0].Kind != KindHeartbeat || snap[0].Detail != "#1 hits=3" {
		t.Fatalf("unexpected heartbeat %+v", snap[0])
	}
	if StartHeartbeat(Nop, time.Millisecond, nil) != nil {
		t.Fatalf("disabled tracer must not start a heartbeat")
	}
	var none *Heartbeat
	none.Stop()
}
