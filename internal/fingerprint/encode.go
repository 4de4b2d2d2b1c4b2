// Package fingerprint computes canonical byte encodings of a value's
// type-relevant shape.
//
// A fingerprint is produced by a depth-first, order-preserving walk. Each
// token starts with an Opcode; tuples are framed by start and end markers so
// the encoding of nested and flat sequences never coincide. Only the kind of
// scalars is recorded, never their width or data.
package fingerprint

import (
	"errors"
	"fmt"
	"reflect"

	"fortio.org/safecast"

	"shapekey/internal/buffer"
	"shapekey/internal/dtype"
	"shapekey/internal/ident"
	"shapekey/internal/ndarray"
	"shapekey/internal/value"
)

// Fingerprint is an immutable canonical encoding. It is a string so it can
// be compared and copied cheaply; its contents are binary.
type Fingerprint string

// Bytes returns the raw encoding.
func (f Fingerprint) Bytes() []byte { return []byte(f) }

// Encoder walks values and writes their fingerprints.
type Encoder struct {
	// Types issues identity handles for the runtime types of buffer exporters.
	Types *ident.Registry
	// Limit caps the encoded size in bytes; zero means unlimited.
	Limit int
}

// Default is the encoder used by Encode.
var Default = &Encoder{Types: ident.Default}

// Encode computes v's fingerprint with the default encoder.
func Encode(v any) (Fingerprint, error) {
	return Default.Encode(v)
}

// Encode computes v's fingerprint.
func (e *Encoder) Encode(v any) (Fingerprint, error) {
	var w Writer
	w.Reset(e.Limit)
	if err := e.Write(&w, v); err != nil {
		return "", err
	}
	return w.Fingerprint(), nil
}

// Write appends v's fingerprint to w. On error w holds a partial encoding
// that must be discarded.
func (e *Encoder) Write(w *Writer, v any) error {
	if value.IsNone(v) {
		return w.PutByte(byte(OpNone))
	}
	switch x := v.(type) {
	case bool:
		return w.PutByte(byte(OpBool))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr:
		return w.PutByte(byte(OpInt))
	case float32, float64:
		return w.PutByte(byte(OpFloat))
	case complex64, complex128:
		return w.PutByte(byte(OpComplex))
	case value.Tuple:
		if err := w.PutByte(byte(OpStartTuple)); err != nil {
			return err
		}
		for _, elem := range x {
			if err := e.Write(w, elem); err != nil {
				return err
			}
		}
		return w.PutByte(byte(OpEndTuple))
	case value.Bytes:
		return w.PutByte(byte(OpBytes))
	case value.ByteArray, []byte:
		return w.PutByte(byte(OpByteArray))
	case *ndarray.Scalar:
		if x == nil || x.DType == nil {
			break
		}
		if err := w.PutByte(byte(OpScalar)); err != nil {
			return err
		}
		return e.writeDType(w, x.DType)
	case *ndarray.Array:
		if x == nil || x.DType == nil {
			break
		}
		return e.writeArray(w, x)
	case buffer.Exporter:
		if isNilPointer(x) {
			break
		}
		return e.writeBuffer(w, x)
	case *dtype.DType:
		if x == nil {
			break
		}
		if err := w.PutByte(byte(OpDType)); err != nil {
			return err
		}
		return e.writeDType(w, x)
	}
	return unsupported(v)
}

func (e *Encoder) writeArray(w *Writer, a *ndarray.Array) error {
	rank, err := safecast.Conv[int32](a.Rank())
	if err != nil {
		return fmt.Errorf("array rank: %w", err)
	}
	if err := w.PutByte(byte(OpArray)); err != nil {
		return err
	}
	if err := w.PutInt32(rank); err != nil {
		return err
	}
	if err := w.PutByte(a.Layout().Code()); err != nil {
		return err
	}
	if err := w.PutByte(mutability(a.Writable)); err != nil {
		return err
	}
	return e.writeDType(w, a.DType)
}

func (e *Encoder) writeBuffer(w *Writer, x buffer.Exporter) error {
	view, err := x.Acquire(buffer.Request | buffer.FlagWritable)
	if err != nil {
		view, err = x.Acquire(buffer.Request)
		if err != nil {
			return fmt.Errorf("%w: %T: %w", ErrUnsupported, x, err)
		}
	}
	defer view.Release()

	rank, err := safecast.Conv[int32](view.Rank())
	if err != nil {
		return fmt.Errorf("buffer rank: %w", err)
	}
	layout := ndarray.Classify(view.Shape, view.Strides, view.ItemSize)
	if err := w.PutByte(byte(OpBuffer)); err != nil {
		return err
	}
	if err := w.PutInt32(rank); err != nil {
		return err
	}
	if err := w.PutByte(layout.Code()); err != nil {
		return err
	}
	if err := w.PutByte(mutability(!view.ReadOnly)); err != nil {
		return err
	}
	if err := w.PutString(view.Format); err != nil {
		if errors.Is(err, ErrUnsupported) {
			return unsupported(x)
		}
		return err
	}
	// Distinct exporter types may share a buffer layout yet need distinct
	// specialisations, so the runtime type is part of the key.
	return w.PutHandle(e.typeHandle(x))
}

func (e *Encoder) writeDType(w *Writer, d *dtype.DType) error {
	k := d.Kind()
	switch {
	case k.IsPrimitive():
		return w.PutByte(byte(k))
	case k == dtype.KindRecord:
		// Identity, not structure: a rebuilt but equal record only costs a
		// cache miss.
		if err := w.PutByte(byte(k)); err != nil {
			return err
		}
		return w.PutHandle(d.Handle())
	case k.IsDatetime():
		if err := w.PutByte(byte(k)); err != nil {
			return err
		}
		if err := w.PutByte(byte(d.Unit())); err != nil {
			return err
		}
		return w.PutInt32(d.Multiplier())
	}
	return unsupported(d)
}

func (e *Encoder) typeHandle(v any) ident.Handle {
	reg := e.Types
	if reg == nil {
		reg = ident.Default
	}
	return reg.Intern(reflect.TypeOf(v))
}

func unsupported(v any) error {
	if d, ok := v.(*dtype.DType); ok && d != nil {
		return fmt.Errorf("%w: dtype %s", ErrUnsupported, d)
	}
	return fmt.Errorf("%w: %T", ErrUnsupported, v)
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
