// Package hostval describes host values declaratively so they can be loaded
// from workload files and payloads and then built into real values.
package hostval

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"shapekey/internal/buffer"
	"shapekey/internal/dtype"
	"shapekey/internal/ndarray"
	"shapekey/internal/value"
)

// ErrBadSpec reports a value description that cannot be built.
var ErrBadSpec = errors.New("invalid value spec")

// Spec describes one host value.
type Spec struct {
	Kind     string `toml:"kind" msgpack:"kind"`
	Elems    []Spec `toml:"elems" msgpack:"elems,omitempty"`
	DType    string `toml:"dtype" msgpack:"dtype,omitempty"`
	Shape    []int  `toml:"shape" msgpack:"shape,omitempty"`
	Order    string `toml:"order" msgpack:"order,omitempty"`
	Step     []int  `toml:"step" msgpack:"step,omitempty"` // [axis, step]
	ReadOnly bool   `toml:"readonly" msgpack:"readonly,omitempty"`
	Format   string `toml:"format" msgpack:"format,omitempty"`
	ItemSize int    `toml:"itemsize" msgpack:"itemsize,omitempty"`
	Code     string `toml:"code" msgpack:"code,omitempty"`
	Len      int    `toml:"len" msgpack:"len,omitempty"`
}

// Field describes one record member.
type Field struct {
	Name  string `toml:"name" msgpack:"name"`
	DType string `toml:"dtype" msgpack:"dtype"`
}

// Record declares a named record dtype.
type Record struct {
	Name   string  `toml:"name" msgpack:"name"`
	Fields []Field `toml:"fields" msgpack:"fields"`
}

// Builder turns specs into host values. Records are created once per name,
// so every value naming the same record shares one descriptor identity.
type Builder struct {
	mu      sync.Mutex
	records map[string]*dtype.DType
}

// NewBuilder creates a builder with no records declared.
func NewBuilder() *Builder {
	return &Builder{records: make(map[string]*dtype.DType)}
}

// recordKey is the lookup key for a record name. Names are compared in NFC
// so composed and decomposed spellings refer to the same record.
func recordKey(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Declare registers record r. Redeclaring a name is an error.
func (b *Builder) Declare(r Record) (*dtype.DType, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r.Name = recordKey(r.Name)
	if r.Name == "" {
		return nil, fmt.Errorf("%w: record without name", ErrBadSpec)
	}
	if _, ok := b.records[r.Name]; ok {
		return nil, fmt.Errorf("%w: record %q declared twice", ErrBadSpec, r.Name)
	}
	fields := make([]dtype.Field, len(r.Fields))
	for i, f := range r.Fields {
		dt, err := b.dtypeLocked(f.DType)
		if err != nil {
			return nil, fmt.Errorf("record %q field %q: %w", r.Name, f.Name, err)
		}
		fields[i] = dtype.Field{Name: f.Name, Type: dt}
	}
	dt := dtype.NewRecord(r.Name, fields...)
	b.records[r.Name] = dt
	return dt, nil
}

// DType resolves a dtype name; "record:<name>" refers to a declared record.
func (b *Builder) DType(name string) (*dtype.DType, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dtypeLocked(name)
}

func (b *Builder) dtypeLocked(name string) (*dtype.DType, error) {
	if rec, ok := strings.CutPrefix(name, "record:"); ok {
		rec = recordKey(rec)
		dt, ok := b.records[rec]
		if !ok {
			return nil, fmt.Errorf("%w: undeclared record %q", ErrBadSpec, rec)
		}
		return dt, nil
	}
	dt, err := dtype.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSpec, err)
	}
	return dt, nil
}

// Build creates the value s describes.
func (b *Builder) Build(s Spec) (any, error) {
	switch strings.ToLower(s.Kind) {
	case "none":
		return value.None, nil
	case "bool":
		return true, nil
	case "int":
		return 0, nil
	case "float":
		return 0.0, nil
	case "complex":
		return complex(0, 0), nil
	case "str", "string":
		return "", nil
	case "bytes":
		return value.Bytes(""), nil
	case "bytearray":
		return value.ByteArray{}, nil
	case "tuple":
		t := make(value.Tuple, len(s.Elems))
		for i, e := range s.Elems {
			v, err := b.Build(e)
			if err != nil {
				return nil, fmt.Errorf("tuple element %d: %w", i, err)
			}
			t[i] = v
		}
		return t, nil
	case "scalar":
		dt, err := b.DType(s.DType)
		if err != nil {
			return nil, err
		}
		return ndarray.NewScalar(dt, nil), nil
	case "array":
		return b.array(s)
	case "memory", "memoryview":
		if s.Format == "" || s.ItemSize <= 0 {
			return nil, fmt.Errorf("%w: memory needs format and itemsize", ErrBadSpec)
		}
		return buffer.NewMemory(s.Format, s.ItemSize, s.ReadOnly, s.Shape...), nil
	case "typed":
		if len(s.Code) != 1 {
			return nil, fmt.Errorf("%w: typed array code %q", ErrBadSpec, s.Code)
		}
		t, err := buffer.NewTyped(s.Code[0], s.Len)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadSpec, err)
		}
		return t, nil
	case "dtype":
		return b.DType(s.DType)
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrBadSpec, s.Kind)
}

func (b *Builder) array(s Spec) (*ndarray.Array, error) {
	dt, err := b.DType(s.DType)
	if err != nil {
		return nil, err
	}
	order := byte('C')
	switch strings.ToUpper(s.Order) {
	case "", "C":
	case "F":
		order = 'F'
	default:
		return nil, fmt.Errorf("%w: array order %q", ErrBadSpec, s.Order)
	}
	a, err := ndarray.New(dt, order, s.Shape...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSpec, err)
	}
	if len(s.Step) > 0 {
		if len(s.Step) != 2 {
			return nil, fmt.Errorf("%w: step wants [axis, step], got %v", ErrBadSpec, s.Step)
		}
		if a, err = a.Step(s.Step[0], s.Step[1]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadSpec, err)
		}
	}
	if s.ReadOnly {
		a = a.ReadOnly()
	}
	return a, nil
}
