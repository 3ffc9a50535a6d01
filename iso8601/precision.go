package iso8601

import "fmt"

// Precision is the finest field a date-time was given with. Fields below the
// precision are zero.
type Precision uint8

const (
	Millennia Precision = iota
	Centuries
	Decades
	Years
	Months
	Weeks
	Days
	Hours
	Minutes
	Seconds
	Milliseconds
	Microseconds
	Nanoseconds
)

var precisionNames = [...]string{
	Millennia:    "millennia",
	Centuries:    "centuries",
	Decades:      "decades",
	Years:        "years",
	Months:       "months",
	Weeks:        "weeks",
	Days:         "days",
	Hours:        "hours",
	Minutes:      "minutes",
	Seconds:      "seconds",
	Milliseconds: "milliseconds",
	Microseconds: "microseconds",
	Nanoseconds:  "nanoseconds",
}

func (p Precision) String() string {
	if int(p) < len(precisionNames) {
		return precisionNames[p]
	}
	return fmt.Sprintf("Precision(%d)", uint8(p))
}

// ParsePrecision returns the precision named s, as printed by String.
func ParsePrecision(s string) (Precision, error) {
	for p, name := range precisionNames {
		if name == s {
			return Precision(p), nil
		}
	}
	return 0, fmt.Errorf("iso8601: unknown precision %q", s)
}

// subsecondDigits returns the number of fraction digits printed for p.
func (p Precision) subsecondDigits() int {
	switch p {
	case Milliseconds:
		return 3
	case Microseconds:
		return 6
	case Nanoseconds:
		return 9
	}
	return 0
}

// precisionOf returns the precision of a scale with the given number of
// ticks per second.
func precisionOf(ticksPerSecond int64) Precision {
	switch {
	case ticksPerSecond <= 1:
		return Seconds
	case ticksPerSecond <= 1_000:
		return Milliseconds
	case ticksPerSecond <= 1_000_000:
		return Microseconds
	default:
		return Nanoseconds
	}
}
