package trace

import (
	"io"
	"sync"
)

// RingTracer is a flight recorder: it keeps the most recent events in a
// fixed window and writes them out on demand, typically when a run ends or
// fails.
type RingTracer struct {
	mu     sync.Mutex
	window []Event
	total  uint64 // events ever recorded
	level  Level
}

// NewRingTracer creates a recorder holding up to size events.
func NewRingTracer(size int, level Level) *RingTracer {
	if size <= 0 {
		size = 4096
	}
	return &RingTracer{window: make([]Event, size), level: level}
}

// Emit records ev, overwriting the oldest event once the window is full.
func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	slot := &t.window[t.total%uint64(len(t.window))]
	*slot = *ev
	if slot.Seq == 0 {
		slot.Seq = NextSeq()
	}
	t.total++
}

// Snapshot returns the retained events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := uint64(len(t.window))
	first := t.total - min(t.total, size)
	out := make([]Event, 0, t.total-first)
	for i := first; i < t.total; i++ {
		out = append(out, t.window[i%size])
	}
	return out
}

// Dropped reports how many events fell out of the window.
func (t *RingTracer) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total - min(t.total, uint64(len(t.window)))
}

// Dump writes the retained events to w as one document in format. Chrome
// output gets its enclosing array.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	sink := &stickyWriter{w: w}
	st := NewStreamTracer(sink, LevelDebug, format)
	events := t.Snapshot()
	for i := range events {
		st.Emit(&events[i])
	}
	if err := st.Close(); err != nil {
		return err
	}
	return sink.err
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }

// RingOf returns the recorder behind t: t itself, or the first ring of a
// MultiTracer. It is nil when t records nothing in memory.
func RingOf(t Tracer) *RingTracer {
	switch x := t.(type) {
	case *RingTracer:
		return x
	case *MultiTracer:
		for _, inner := range x.tracers {
			if r := RingOf(inner); r != nil {
				return r
			}
		}
	}
	return nil
}

// stickyWriter remembers the first write error and drops later writes.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	s.err = err
	return n, err
}
