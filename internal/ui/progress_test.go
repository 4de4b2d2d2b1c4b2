package ui

import (
	"strings"
	"testing"
)

func TestProgressModelAppliesEvents(t *testing.T) {
	events := make(chan Event)
	m := NewProgressModel("replay", []Item{{Name: "pair", Total: 4}, {Name: "text", Total: 2}}, events).(*progressModel)

	m.Update(eventMsg{Index: 0, Done: 2, Code: 7})
	if m.items[0].status != "dispatching" || m.items[0].code != 7 {
		t.Fatalf("item 0 = %+v", m.items[0])
	}
	m.Update(eventMsg{Index: 0, Done: 2, Code: 7})
	m.Update(eventMsg{Index: 1, Done: 2, Err: "cannot determine type"})
	m.Update(eventMsg{Index: 9, Done: 100})
	if m.items[0].status != "done" || m.items[1].status != "error" {
		t.Fatalf("statuses = %q, %q", m.items[0].status, m.items[1].status)
	}
	if m.done != 6 || m.total != 6 {
		t.Fatalf("done/total = %d/%d", m.done, m.total)
	}

	_, cmd := m.Update(doneMsg{})
	if cmd == nil || !m.closed {
		t.Fatalf("done message must quit")
	}
	view := m.View()
	for _, want := range []string{"done: replay (6/6)", "pair", "text"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("短い名前", 20); got != "短い名前" {
		t.Fatalf("short names must pass through, got %q", got)
	}
}
