package value

import "testing"

func TestIsNone(t *testing.T) {
	cases := []struct {
		v    any
		want bool
	}{
		{nil, true},
		{None, true},
		{&NoneType{}, true},
		{0, false},
		{T(), false},
		{Bytes(""), false},
	}
	for i, tc := range cases {
		if got := IsNone(tc.v); got != tc.want {
			t.Fatalf("case %d: IsNone(%#v) = %v, want %v", i, tc.v, got, tc.want)
		}
	}
}
