// Package timescale provides instants and durations counted in integer ticks
// of a statically chosen scale.
//
// The scale is a type parameter, so an Instant[Seconds] cannot be mixed up
// with an Instant[Nanoseconds] by accident. All arithmetic is checked and
// reports ErrOverflow instead of wrapping around.
package timescale

import (
	"cmp"
	"errors"

	"github.com/ngrash/leaptime/internal/intmath"
)

// ErrOverflow is returned when an operation does not fit into 64 bits.
var ErrOverflow = errors.New("timescale: integer overflow")

// Scale determines the length of a tick.
type Scale interface {
	TicksPerSecond() int64
}

type (
	Seconds      struct{}
	Milliseconds struct{}
	Microseconds struct{}
	Nanoseconds  struct{}
)

func (Seconds) TicksPerSecond() int64      { return 1 }
func (Milliseconds) TicksPerSecond() int64 { return 1_000 }
func (Microseconds) TicksPerSecond() int64 { return 1_000_000 }
func (Nanoseconds) TicksPerSecond() int64  { return 1_000_000_000 }

// TicksPerSecond returns the number of ticks in one second of scale S.
func TicksPerSecond[S Scale]() int64 {
	var s S
	return s.TicksPerSecond()
}

// Instant is a point in time, counted in ticks since the Unix epoch.
// Whether the count includes leap seconds is up to the producer.
type Instant[S Scale] struct {
	ticks int64
}

// FromTicks returns the instant ticks ticks after the epoch.
func FromTicks[S Scale](ticks int64) Instant[S] {
	return Instant[S]{ticks: ticks}
}

// Ticks returns the number of ticks since the epoch.
func (i Instant[S]) Ticks() int64 { return i.ticks }

// Add returns i+d.
func (i Instant[S]) Add(d Duration[S]) (Instant[S], error) {
	t, ok := intmath.CheckedAdd(i.ticks, d.ticks)
	if !ok {
		return Instant[S]{}, ErrOverflow
	}
	return Instant[S]{t}, nil
}

// Sub returns the duration i-j.
func (i Instant[S]) Sub(j Instant[S]) (Duration[S], error) {
	t, ok := intmath.CheckedSub(i.ticks, j.ticks)
	if !ok {
		return Duration[S]{}, ErrOverflow
	}
	return Duration[S]{t}, nil
}

// Compare returns -1, 0 or +1 depending on whether i is before, equal to or after j.
func (i Instant[S]) Compare(j Instant[S]) int {
	return cmp.Compare(i.ticks, j.ticks)
}

// Split returns the whole seconds since the epoch, rounded down, and the
// remaining ticks in [0, TicksPerSecond).
func (i Instant[S]) Split() (seconds, ticks int64) {
	return intmath.DivModFloor(i.ticks, TicksPerSecond[S]())
}

// FloorSeconds returns the whole seconds since the epoch, rounded down.
func (i Instant[S]) FloorSeconds() int64 {
	s, _ := i.Split()
	return s
}

// Duration is a signed span of ticks.
type Duration[S Scale] struct {
	ticks int64
}

// DurationOf returns a duration of the given number of ticks.
func DurationOf[S Scale](ticks int64) Duration[S] {
	return Duration[S]{ticks: ticks}
}

func (d Duration[S]) Ticks() int64 { return d.ticks }

func (d Duration[S]) Add(e Duration[S]) (Duration[S], error) {
	t, ok := intmath.CheckedAdd(d.ticks, e.ticks)
	if !ok {
		return Duration[S]{}, ErrOverflow
	}
	return Duration[S]{t}, nil
}

func (d Duration[S]) Sub(e Duration[S]) (Duration[S], error) {
	t, ok := intmath.CheckedSub(d.ticks, e.ticks)
	if !ok {
		return Duration[S]{}, ErrOverflow
	}
	return Duration[S]{t}, nil
}

// Mul returns d scaled by n.
func (d Duration[S]) Mul(n int64) (Duration[S], error) {
	t, ok := intmath.CheckedMul(d.ticks, n)
	if !ok {
		return Duration[S]{}, ErrOverflow
	}
	return Duration[S]{t}, nil
}

// Neg returns -d.
func (d Duration[S]) Neg() (Duration[S], error) {
	return d.Mul(-1)
}

// Split returns the whole seconds of d, rounded down, and the remaining
// ticks in [0, TicksPerSecond).
func (d Duration[S]) Split() (seconds, ticks int64) {
	return intmath.DivModFloor(d.ticks, TicksPerSecond[S]())
}

// Convert rescales an instant to scale To. Converting to a coarser scale
// rounds down, converting to a finer scale fails with ErrOverflow if the
// result does not fit.
func Convert[To, From Scale](i Instant[From]) (Instant[To], error) {
	t, err := rescale(i.ticks, TicksPerSecond[From](), TicksPerSecond[To]())
	return Instant[To]{t}, err
}

// ConvertDuration is Convert for durations.
func ConvertDuration[To, From Scale](d Duration[From]) (Duration[To], error) {
	t, err := rescale(d.ticks, TicksPerSecond[From](), TicksPerSecond[To]())
	return Duration[To]{t}, err
}

func rescale(ticks, from, to int64) (int64, error) {
	switch {
	case from == to:
		return ticks, nil
	case from < to && to%from == 0:
		t, ok := intmath.CheckedMul(ticks, to/from)
		if !ok {
			return 0, ErrOverflow
		}
		return t, nil
	case from > to && from%to == 0:
		q, _ := intmath.DivModFloor(ticks, from/to)
		return q, nil
	}
	// Scales that are not multiples of each other go through whole seconds.
	s, rem := intmath.DivModFloor(ticks, from)
	whole, ok := intmath.CheckedMul(s, to)
	if !ok {
		return 0, ErrOverflow
	}
	frac, _ := intmath.DivModFloor(rem*to, from)
	t, ok := intmath.CheckedAdd(whole, frac)
	if !ok {
		return 0, ErrOverflow
	}
	return t, nil
}
