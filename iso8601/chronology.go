package iso8601

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ngrash/leaptime/internal/intmath"
	"github.com/ngrash/leaptime/leapsec"
)

var (
	// ErrInvalidDateTime is returned for fields that do not form a valid
	// date-time, such as February 30, 24:00 or a leap second in a minute
	// without one.
	ErrInvalidDateTime = errors.New("iso8601: invalid date-time")
	// ErrDateTimeOutOfBounds is returned for date-times outside
	// 0000-01-01 to 9999-12-31.
	ErrDateTimeOutOfBounds = errors.New("iso8601: date-time out of bounds")
	// ErrArithmeticOverflow is returned when an intermediate value does
	// not fit into 64 bits.
	ErrArithmeticOverflow = errors.New("iso8601: arithmetic overflow")
	// ErrCarryNotApplied is returned when unwrapping a result that still
	// has a carry.
	ErrCarryNotApplied = errors.New("iso8601: carry not applied")
	// ErrBeyondLeapTable is returned under PolicyStrict for days the
	// leap-second table does not cover.
	ErrBeyondLeapTable = errors.New("iso8601: beyond the leap-second table")
	// ErrSmearingUnsupported is returned by NewChronology when leap-second
	// smearing is requested.
	ErrSmearingUnsupported = errors.New("iso8601: leap-second smearing is not supported")
)

// Policy decides how days after the leap-second table are handled.
type Policy int

const (
	// PolicyAssumeNoLeapSeconds treats every day after the table as
	// 86400 seconds long.
	PolicyAssumeNoLeapSeconds Policy = iota
	// PolicyStrict fails with ErrBeyondLeapTable when converting between
	// date-times and instants on or after the day the table expires. A
	// table without expiry ends with its last segment.
	PolicyStrict
)

func (p Policy) String() string {
	switch p {
	case PolicyAssumeNoLeapSeconds:
		return "assume-none"
	case PolicyStrict:
		return "strict"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Chronology binds date-times to a leap-second table. It is immutable and
// may be shared between goroutines.
type Chronology struct {
	table    *leapsec.Table
	policy   Policy
	smearing bool
}

// Option configures a Chronology.
type Option func(*Chronology)

// WithPolicy sets the policy for days after the leap-second table.
func WithPolicy(p Policy) Option {
	return func(c *Chronology) { c.policy = p }
}

// WithSmearing requests leap-second smearing. It is reserved: NewChronology
// rejects true with ErrSmearingUnsupported.
func WithSmearing(smearing bool) Option {
	return func(c *Chronology) { c.smearing = smearing }
}

// NewChronology returns a chronology for the table. A nil table has no leap
// seconds.
func NewChronology(table *leapsec.Table, opts ...Option) (*Chronology, error) {
	if table == nil {
		table = &leapsec.Table{}
	}
	c := &Chronology{table: table}
	for _, opt := range opts {
		opt(c)
	}
	if c.smearing {
		return nil, ErrSmearingUnsupported
	}
	if c.policy != PolicyAssumeNoLeapSeconds && c.policy != PolicyStrict {
		return nil, fmt.Errorf("iso8601: unknown policy %v", c.policy)
	}
	return c, nil
}

// Table returns the leap-second table of c.
func (c *Chronology) Table() *leapsec.Table { return c.table }

// Policy returns the policy for days after the leap-second table.
func (c *Chronology) Policy() Policy { return c.policy }

// Smearing reports whether leap seconds are smeared. It is always false.
func (c *Chronology) Smearing() bool { return c.smearing }

var defaultChronology atomic.Pointer[Chronology]

// Default returns the process-wide chronology used by builders without an
// explicit one. Unless replaced by SetDefault it uses leapsec.Embedded.
func Default() *Chronology {
	if c := defaultChronology.Load(); c != nil {
		return c
	}
	defaultChronology.CompareAndSwap(nil, &Chronology{table: leapsec.Embedded()})
	return defaultChronology.Load()
}

// SetDefault replaces the default chronology. Date-times built before keep
// the chronology they were built with.
func SetDefault(c *Chronology) {
	if c == nil {
		panic("iso8601: SetDefault(nil)")
	}
	defaultChronology.Store(c)
}

// dayLength returns the number of seconds of the fixed day.
func (c *Chronology) dayLength(day int64) int64 {
	if l := c.table.ByDay(day); l.Position == leapsec.In {
		return l.Segment.DayLength(day)
	}
	return secondsPerDay
}

// spill clamps a second of day that does not exist on the day to the last
// second of the day. The seconds cut off are returned as carry.
func (c *Chronology) spill(day, sod int64) (int64, int64) {
	if last := c.dayLength(day) - 1; sod > last {
		return last, sod - last
	}
	return sod, 0
}

// checkCovered enforces PolicyStrict for the fixed day.
func (c *Chronology) checkCovered(day int64) error {
	if c.policy != PolicyStrict {
		return nil
	}
	limit, ok := c.table.Expires()
	if !ok {
		limit = 0
		if n := c.table.Len(); n > 0 {
			limit = c.table.Segments()[n-1].EndDay()
		}
	}
	if day >= limit {
		return fmt.Errorf("%w: day %d", ErrBeyondLeapTable, day)
	}
	return nil
}

// secondInstant returns the elapsed seconds since the epoch at the second
// of day of the fixed day. Days outside the table have 86400 seconds.
func (c *Chronology) secondInstant(day, sod int64) int64 {
	l := c.table.ByDay(day)
	s := l.Segment
	switch l.Position {
	case leapsec.BeforeFirst:
		return s.StartInstant - (s.StartDay-day)*secondsPerDay + sod
	case leapsec.In:
		return s.StartInstant + (day-s.StartDay)*secondsPerDay + sod
	default:
		return s.EndInstant() + (day-s.EndDay())*secondsPerDay + sod
	}
}

// daySecond is the inverse of secondInstant. A leap second is reported as
// second 86400 (or 86401) of the last day of its segment.
func (c *Chronology) daySecond(instant int64) (day, sod int64) {
	l := c.table.BySecond(instant)
	s := l.Segment
	switch l.Position {
	case leapsec.BeforeFirst:
		days, sod := intmath.DivRemCeil(s.StartInstant-instant, secondsPerDay)
		return s.StartDay - days, sod
	case leapsec.In:
		days, sod := intmath.DivModFloor(instant-s.StartInstant, secondsPerDay)
		if days == s.DurationDays {
			days--
			sod += secondsPerDay
		}
		return s.StartDay + days, sod
	default:
		days, sod := intmath.DivModFloor(instant-s.EndInstant(), secondsPerDay)
		return s.EndDay() + days, sod
	}
}
