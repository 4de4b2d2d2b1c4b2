package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits a periodic event carrying a status line, such as cache
// counters. A heartbeat whose counters stop moving while a resolve span is
// open points at a stuck resolver.
type Heartbeat struct {
	tracer Tracer
	status func() string
	stop   chan struct{}
	done   sync.WaitGroup
	once   sync.Once
}

// StartHeartbeat starts emitting every interval. status may be nil. It
// returns nil when t is disabled or interval is not positive.
func StartHeartbeat(t Tracer, interval time.Duration, status func() string) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{tracer: t, status: status, stop: make(chan struct{})}
	h.done.Add(1)
	go h.loop(interval)
	return h
}

func (h *Heartbeat) loop(interval time.Duration) {
	defer h.done.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for beat := 1; ; beat++ {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.beat(beat)
		}
	}
}

func (h *Heartbeat) beat(n int) {
	ev := &Event{
		Time:   time.Now(),
		Seq:    NextSeq(),
		Kind:   KindHeartbeat,
		Scope:  ScopeDispatch,
		GID:    getGoroutineID(),
		Name:   "heartbeat",
		Detail: "#" + strconv.Itoa(n),
	}
	if h.status != nil {
		ev.Detail += " " + h.status()
	}
	h.tracer.Emit(ev)
}

// Stop ends the heartbeat and waits for its goroutine. Safe on nil.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	h.done.Wait()
}
