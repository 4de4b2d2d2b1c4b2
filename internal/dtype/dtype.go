// Package dtype models the array library's element-type descriptors.
//
// Primitive descriptors are shared singletons returned by Of. Record
// descriptors get a fresh identity handle when constructed; two records with
// the same fields built separately are distinct descriptors.
package dtype

import (
	"fmt"
	"strings"

	"shapekey/internal/ident"
)

// Field is one named member of a record descriptor.
type Field struct {
	Name   string
	Type   *DType
	Offset int
}

// DType describes the element type of an array or array scalar.
type DType struct {
	kind     Kind
	itemSize int
	unit     Unit
	mult     int32
	name     string
	fields   []Field
	handle   ident.Handle
}

var builtins [KindHalf + 1]*DType

func init() {
	sizes := map[Kind]int{
		KindBool: 1, KindInt8: 1, KindUint8: 1,
		KindInt16: 2, KindUint16: 2,
		KindInt32: 4, KindUint32: 4,
		KindInt64: 8, KindUint64: 8, KindLongLong: 8, KindULongLong: 8,
		KindFloat32: 4, KindFloat64: 8, KindLongDouble: 16,
		KindComplex64: 8, KindComplex128: 16, KindCLongDouble: 32,
		KindObject: 8, KindHalf: 2,
	}
	for k, size := range sizes {
		builtins[k] = &DType{kind: k, itemSize: size}
	}
}

// Of returns the shared descriptor for a fixed-size kind. It returns nil for
// kinds that need parameters (record, datetime, timedelta, string, unicode).
func Of(k Kind) *DType {
	if int(k) >= len(builtins) {
		return nil
	}
	return builtins[k]
}

// NewRecord builds a structured descriptor with a fresh identity.
func NewRecord(name string, fields ...Field) *DType {
	d := &DType{
		kind:   KindRecord,
		name:   name,
		fields: append([]Field(nil), fields...),
		handle: ident.Default.Fresh(),
	}
	off := 0
	for i := range d.fields {
		if d.fields[i].Offset == 0 && i > 0 {
			d.fields[i].Offset = off
		}
		if d.fields[i].Type != nil {
			off = d.fields[i].Offset + d.fields[i].Type.itemSize
		}
	}
	d.itemSize = off
	return d
}

// NewDatetime builds a datetime64 descriptor.
func NewDatetime(unit Unit, mult int32) *DType {
	return &DType{kind: KindDatetime, itemSize: 8, unit: unit, mult: mult}
}

// NewTimedelta builds a timedelta64 descriptor.
func NewTimedelta(unit Unit, mult int32) *DType {
	return &DType{kind: KindTimedelta, itemSize: 8, unit: unit, mult: mult}
}

// NewString builds a fixed-width bytes or unicode descriptor.
func NewString(k Kind, width int) (*DType, error) {
	switch k {
	case KindString:
		return &DType{kind: k, itemSize: width}, nil
	case KindUnicode:
		return &DType{kind: k, itemSize: 4 * width}, nil
	default:
		return nil, fmt.Errorf("dtype: %s is not a string kind", k)
	}
}

// Kind returns the numeric kind tag.
func (d *DType) Kind() Kind { return d.kind }

// ItemSize returns the element size in bytes.
func (d *DType) ItemSize() int { return d.itemSize }

// Unit returns the datetime unit. It is meaningful only for datetime kinds.
func (d *DType) Unit() Unit { return d.unit }

// Multiplier returns the datetime unit multiplier.
func (d *DType) Multiplier() int32 { return d.mult }

// Handle returns the record identity; zero for other kinds.
func (d *DType) Handle() ident.Handle { return d.handle }

// Name returns the record name; empty for other kinds.
func (d *DType) Name() string { return d.name }

// Fields returns a copy of the record members.
func (d *DType) Fields() []Field {
	return append([]Field(nil), d.fields...)
}

func (d *DType) String() string {
	if d == nil {
		return "<nil dtype>"
	}
	switch {
	case d.kind.IsDatetime():
		if d.mult == 1 {
			return fmt.Sprintf("%s[%s]", d.kind, d.unit)
		}
		return fmt.Sprintf("%s[%d%s]", d.kind, d.mult, d.unit)
	case d.kind == KindRecord:
		parts := make([]string, len(d.fields))
		for i, f := range d.fields {
			parts[i] = f.Name + ":" + f.Type.String()
		}
		label := "record"
		if d.name != "" {
			label = d.name
		}
		return label + "{" + strings.Join(parts, ", ") + "}"
	case d.kind == KindString || d.kind == KindUnicode:
		return fmt.Sprintf("%s%d", d.kind, d.itemSize)
	default:
		return d.kind.String()
	}
}
