package fingerprint

// Opcode is the tag byte that starts every fingerprint token.
type Opcode byte

const (
	OpStartTuple Opcode = '('
	OpEndTuple   Opcode = ')'
	OpInt        Opcode = 'i'
	OpFloat      Opcode = 'f'
	OpComplex    Opcode = 'c'
	OpBool       Opcode = '?'
	OpByteArray  Opcode = 'a'
	OpBytes      Opcode = 'b'
	OpNone       Opcode = 'n'

	OpBuffer Opcode = 'B'
	OpScalar Opcode = 'S'
	OpArray  Opcode = 'A'
	OpDType  Opcode = 'D'
)

// Mutability tags written after the layout byte of arrays and buffers.
const (
	tagWritable byte = 'W'
	tagReadOnly byte = 'R'
)

func mutability(writable bool) byte {
	if writable {
		return tagWritable
	}
	return tagReadOnly
}
