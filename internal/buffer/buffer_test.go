package buffer

import (
	"errors"
	"testing"
)

func TestMemoryAcquireRelease(t *testing.T) {
	m := NewMemory("<d", 8, false, 2, 3)
	v, err := m.Acquire(Request | FlagWritable)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if m.Outstanding() != 1 {
		t.Fatalf("outstanding = %d, want 1", m.Outstanding())
	}
	if v.Rank() != 2 || v.Strides[0] != 24 || v.Format != "<d" {
		t.Fatalf("unexpected view %+v", v)
	}
	v.Release()
	v.Release()
	if m.Outstanding() != 0 {
		t.Fatalf("outstanding after release = %d", m.Outstanding())
	}
}

func TestMemoryReadOnlyRejectsWritable(t *testing.T) {
	m := NewMemory("B", 1, true, 16)
	if _, err := m.Acquire(Request | FlagWritable); !errors.Is(err, ErrNotWritable) {
		t.Fatalf("expected ErrNotWritable, got %v", err)
	}
	v, err := m.Acquire(Request)
	if err != nil {
		t.Fatalf("read-only acquire: %v", err)
	}
	defer v.Release()
	if !v.ReadOnly {
		t.Fatalf("view must be read-only")
	}
}

func TestTyped(t *testing.T) {
	if _, err := NewTyped('z', 3); err == nil {
		t.Fatalf("expected error for bad code")
	}
	ta, err := NewTyped('d', 3)
	if err != nil {
		t.Fatalf("NewTyped: %v", err)
	}
	v, err := ta.Acquire(Request)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if v.Format != "d" || v.ItemSize != 8 {
		t.Fatalf("unexpected view %+v", v)
	}
	v.Release()
	ta.Close()
	if _, err := ta.Acquire(Request); !errors.Is(err, ErrReleased) {
		t.Fatalf("expected ErrReleased, got %v", err)
	}
}
