package dtype

import "testing"

func TestPrimitiveIndexMatchesTable(t *testing.T) {
	for i, k := range Primitives {
		if got := PrimitiveIndex(k); got != i {
			t.Fatalf("PrimitiveIndex(%s) = %d, want %d", k, got, i)
		}
		if !k.IsPrimitive() {
			t.Fatalf("%s must be primitive", k)
		}
	}
	for _, k := range []Kind{KindBool, KindLongDouble, KindRecord, KindDatetime, KindObject} {
		if PrimitiveIndex(k) != -1 {
			t.Fatalf("%s must not be in the dense table", k)
		}
	}
}

func TestOfReturnsSingletons(t *testing.T) {
	if Of(KindFloat64) != Of(KindFloat64) {
		t.Fatalf("primitive descriptors must be shared")
	}
	if Of(KindRecord) != nil || Of(KindDatetime) != nil {
		t.Fatalf("parametrised kinds have no singleton")
	}
	if Of(KindComplex128).ItemSize() != 16 {
		t.Fatalf("complex128 itemsize = %d", Of(KindComplex128).ItemSize())
	}
}

func TestRecordIdentity(t *testing.T) {
	f := []Field{{Name: "x", Type: Of(KindFloat64)}, {Name: "y", Type: Of(KindFloat64)}}
	a := NewRecord("point", f...)
	b := NewRecord("point", f...)
	if a.Handle() == b.Handle() {
		t.Fatalf("separately built records must have distinct identities")
	}
	if a.ItemSize() != 16 {
		t.Fatalf("record itemsize = %d, want 16", a.ItemSize())
	}
	if got := a.Fields()[1].Offset; got != 8 {
		t.Fatalf("second field offset = %d, want 8", got)
	}
}

func TestParseHelpers(t *testing.T) {
	if k, ok := ParseKind("f8"); !ok || k != KindFloat64 {
		t.Fatalf("ParseKind(f8) = %v %v", k, ok)
	}
	if k, ok := ParseKind("uint16"); !ok || k != KindUint16 {
		t.Fatalf("ParseKind(uint16) = %v %v", k, ok)
	}
	if _, ok := ParseKind("quaternion"); ok {
		t.Fatalf("unknown kind accepted")
	}
	u, err := ParseUnit("ns")
	if err != nil || u != UnitNanosecond {
		t.Fatalf("ParseUnit(ns) = %v %v", u, err)
	}
	if _, err := ParseUnit("fortnight"); err == nil {
		t.Fatalf("expected error for unknown unit")
	}
	if s := NewDatetime(UnitSecond, 5).String(); s != "datetime64[5s]" {
		t.Fatalf("datetime string = %q", s)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"float64", "float64"},
		{"f4", "float32"},
		{"datetime64[5ns]", "datetime64[5ns]"},
		{"timedelta64[D]", "timedelta64[D]"},
		{"timedelta64", "timedelta64[generic]"},
		{"S5", "bytes5"},
		{"U3", "str12"},
		{"str12", "str12"},
	}
	for _, tt := range tests {
		d, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got := d.String(); got != tt.want {
			t.Fatalf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if Of(KindFloat64) != mustParse(t, "float64") {
		t.Fatalf("builtin kinds must parse to the shared descriptor")
	}
	for _, bad := range []string{"quaternion", "record", "datetime64[", "datetime64[3fortnight]", ""} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("Parse(%q) accepted", bad)
		}
	}
}

func mustParse(t *testing.T, s string) *DType {
	t.Helper()
	d, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return d
}

func TestAccessors(t *testing.T) {
	f8 := Of(KindFloat64)
	if f8.Kind() != KindFloat64 || f8.ItemSize() != 8 || f8.Handle() != 0 || f8.Name() != "" {
		t.Fatalf("float64 accessors: kind %s size %d handle %d name %q", f8.Kind(), f8.ItemSize(), f8.Handle(), f8.Name())
	}
	dt := NewTimedelta(UnitNanosecond, 5)
	if dt.Unit() != UnitNanosecond || dt.Multiplier() != 5 || dt.ItemSize() != 8 {
		t.Fatalf("timedelta accessors: unit %s mult %d", dt.Unit(), dt.Multiplier())
	}
	rec := NewRecord("pt", Field{Name: "x", Type: f8}, Field{Name: "y", Type: f8})
	if rec.Name() != "pt" || rec.Handle() == 0 || rec.ItemSize() != 16 {
		t.Fatalf("record accessors: name %q handle %d size %d", rec.Name(), rec.Handle(), rec.ItemSize())
	}
}
