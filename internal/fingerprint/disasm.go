package fingerprint

import (
	"encoding/binary"
	"fmt"
	"strings"

	"shapekey/internal/dtype"
)

// Disassemble renders a fingerprint in readable form and checks that it is
// exactly one well-formed token tree.
func Disassemble(b []byte) (string, error) {
	d := disasm{src: b}
	var sb strings.Builder
	if err := d.value(&sb); err != nil {
		return "", err
	}
	if d.pos != len(b) {
		return "", fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(b)-d.pos)
	}
	return sb.String(), nil
}

// String renders f, falling back to hex for malformed input.
func (f Fingerprint) String() string {
	s, err := Disassemble([]byte(f))
	if err != nil {
		return fmt.Sprintf("%x", string(f))
	}
	return s
}

type disasm struct {
	src []byte
	pos int
}

func (d *disasm) fail(what string) error {
	return fmt.Errorf("%w: %s at offset %d", ErrMalformed, what, d.pos)
}

func (d *disasm) readByte() (byte, error) {
	if d.pos >= len(d.src) {
		return 0, d.fail("unexpected end")
	}
	c := d.src[d.pos]
	d.pos++
	return c, nil
}

func (d *disasm) readInt32() (int32, error) {
	if d.pos+4 > len(d.src) {
		return 0, d.fail("truncated int32")
	}
	v := binary.LittleEndian.Uint32(d.src[d.pos:])
	d.pos += 4
	return int32(v), nil
}

func (d *disasm) readHandle() (uint64, error) {
	if d.pos+8 > len(d.src) {
		return 0, d.fail("truncated handle")
	}
	v := binary.LittleEndian.Uint64(d.src[d.pos:])
	d.pos += 8
	return v, nil
}

func (d *disasm) readCString() (string, error) {
	for i := d.pos; i < len(d.src); i++ {
		if d.src[i] == 0 {
			s := string(d.src[d.pos:i])
			d.pos = i + 1
			return s, nil
		}
	}
	return "", d.fail("unterminated string")
}

func (d *disasm) value(sb *strings.Builder) error {
	op, err := d.readByte()
	if err != nil {
		return err
	}
	switch Opcode(op) {
	case OpNone:
		sb.WriteString("none")
	case OpBool:
		sb.WriteString("bool")
	case OpInt:
		sb.WriteString("int")
	case OpFloat:
		sb.WriteString("float")
	case OpComplex:
		sb.WriteString("complex")
	case OpBytes:
		sb.WriteString("bytes")
	case OpByteArray:
		sb.WriteString("bytearray")
	case OpStartTuple:
		sb.WriteByte('(')
		for n := 0; ; n++ {
			if d.pos >= len(d.src) {
				return d.fail("unclosed tuple")
			}
			if Opcode(d.src[d.pos]) == OpEndTuple {
				d.pos++
				break
			}
			if n > 0 {
				sb.WriteString(", ")
			}
			if err := d.value(sb); err != nil {
				return err
			}
		}
		sb.WriteByte(')')
	case OpScalar:
		sb.WriteString("scalar(")
		if err := d.elemType(sb); err != nil {
			return err
		}
		sb.WriteByte(')')
	case OpDType:
		sb.WriteString("dtype(")
		if err := d.elemType(sb); err != nil {
			return err
		}
		sb.WriteByte(')')
	case OpArray:
		sb.WriteString("array(")
		if err := d.shapeHeader(sb); err != nil {
			return err
		}
		sb.WriteString(", ")
		if err := d.elemType(sb); err != nil {
			return err
		}
		sb.WriteByte(')')
	case OpBuffer:
		sb.WriteString("buffer(")
		if err := d.shapeHeader(sb); err != nil {
			return err
		}
		format, err := d.readCString()
		if err != nil {
			return err
		}
		h, err := d.readHandle()
		if err != nil {
			return err
		}
		fmt.Fprintf(sb, ", %q, type#%d)", format, h)
	default:
		d.pos--
		return d.fail(fmt.Sprintf("unknown opcode %q", op))
	}
	return nil
}

func (d *disasm) shapeHeader(sb *strings.Builder) error {
	rank, err := d.readInt32()
	if err != nil {
		return err
	}
	layout, err := d.readByte()
	if err != nil {
		return err
	}
	if layout != 'C' && layout != 'F' && layout != 'A' {
		d.pos--
		return d.fail(fmt.Sprintf("bad layout %q", layout))
	}
	mut, err := d.readByte()
	if err != nil {
		return err
	}
	var access string
	switch mut {
	case tagWritable:
		access = "mutable"
	case tagReadOnly:
		access = "readonly"
	default:
		d.pos--
		return d.fail(fmt.Sprintf("bad mutability %q", mut))
	}
	fmt.Fprintf(sb, "%dd, %c, %s", rank, layout, access)
	return nil
}

func (d *disasm) elemType(sb *strings.Builder) error {
	c, err := d.readByte()
	if err != nil {
		return err
	}
	k := dtype.Kind(c)
	switch {
	case k.IsPrimitive():
		sb.WriteString(k.String())
	case k == dtype.KindRecord:
		h, err := d.readHandle()
		if err != nil {
			return err
		}
		fmt.Fprintf(sb, "record#%d", h)
	case k.IsDatetime():
		unit, err := d.readByte()
		if err != nil {
			return err
		}
		mult, err := d.readInt32()
		if err != nil {
			return err
		}
		fmt.Fprintf(sb, "%s[%d%s]", k, mult, dtype.Unit(unit))
	default:
		d.pos--
		return d.fail(fmt.Sprintf("bad dtype tag %d", c))
	}
	return nil
}
