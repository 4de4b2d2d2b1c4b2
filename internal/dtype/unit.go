package dtype

import "fmt"

// Unit is the time unit of a datetime or timedelta dtype.
type Unit uint8

const (
	UnitYear Unit = iota
	UnitMonth
	UnitWeek
	_ // unused slot kept so tags match the array library
	UnitDay
	UnitHour
	UnitMinute
	UnitSecond
	UnitMillisecond
	UnitMicrosecond
	UnitNanosecond
	UnitPicosecond
	UnitFemtosecond
	UnitAttosecond
	UnitGeneric
)

var unitNames = map[Unit]string{
	UnitYear:        "Y",
	UnitMonth:       "M",
	UnitWeek:        "W",
	UnitDay:         "D",
	UnitHour:        "h",
	UnitMinute:      "m",
	UnitSecond:      "s",
	UnitMillisecond: "ms",
	UnitMicrosecond: "us",
	UnitNanosecond:  "ns",
	UnitPicosecond:  "ps",
	UnitFemtosecond: "fs",
	UnitAttosecond:  "as",
	UnitGeneric:     "generic",
}

func (u Unit) String() string {
	if s, ok := unitNames[u]; ok {
		return s
	}
	return fmt.Sprintf("Unit(%d)", u)
}

// ParseUnit converts a unit code such as "ns" or "D".
func ParseUnit(s string) (Unit, error) {
	for u, name := range unitNames {
		if name == s {
			return u, nil
		}
	}
	return 0, fmt.Errorf("invalid datetime unit: %q", s)
}
