package dtype

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Parse reads a descriptor written the way String prints it: "float64",
// "datetime64[5ns]", "timedelta64", "bytes8", "str3". Records cannot be
// parsed; they only exist by construction.
func Parse(s string) (*DType, error) {
	s = strings.TrimSpace(s)
	for _, k := range []Kind{KindDatetime, KindTimedelta} {
		name := k.String()
		if !strings.HasPrefix(s, name) {
			continue
		}
		rest := s[len(name):]
		if rest == "" {
			return &DType{kind: k, itemSize: 8, unit: UnitGeneric, mult: 1}, nil
		}
		if len(rest) < 3 || rest[0] != '[' || rest[len(rest)-1] != ']' {
			return nil, fmt.Errorf("dtype: malformed %s unit in %q", name, s)
		}
		unit, mult, err := parseUnitSpec(rest[1 : len(rest)-1])
		if err != nil {
			return nil, fmt.Errorf("dtype: %q: %w", s, err)
		}
		return &DType{kind: k, itemSize: 8, unit: unit, mult: mult}, nil
	}
	for _, p := range []struct {
		prefix string
		kind   Kind
	}{{"bytes", KindString}, {"str", KindUnicode}, {"S", KindString}, {"U", KindUnicode}} {
		rest, ok := strings.CutPrefix(s, p.prefix)
		if !ok || rest == "" {
			continue
		}
		width, err := strconv.Atoi(rest)
		if err != nil || width < 0 {
			continue
		}
		if p.kind == KindUnicode && p.prefix == "str" {
			// String prints unicode widths in bytes.
			width /= 4
		}
		return NewString(p.kind, width)
	}
	k, ok := ParseKind(s)
	if !ok {
		return nil, fmt.Errorf("dtype: unknown type %q", s)
	}
	d := Of(k)
	if d == nil {
		return nil, fmt.Errorf("dtype: %s needs parameters", k)
	}
	return d, nil
}

func parseUnitSpec(s string) (Unit, int32, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	mult := int32(1)
	if i > 0 {
		n, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0, 0, err
		}
		if mult, err = safecast.Conv[int32](n); err != nil {
			return 0, 0, err
		}
	}
	unit, err := ParseUnit(s[i:])
	if err != nil {
		return 0, 0, err
	}
	return unit, mult, nil
}
