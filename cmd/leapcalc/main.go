// Command leapcalc adds years, months, days, hours, minutes and seconds to
// a date-time, leap seconds included.
//
//	leapcalc 1998-12-31T23:59:59Z +1 second
//	leapcalc -carry drop 2000-01-31 +1 month
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ngrash/leaptime/internal/config"
	"github.com/ngrash/leaptime/iso8601"
)

var (
	configFlag = flag.String("config", "", "YAML configuration file")
	carryFlag  = flag.String("carry", "apply", "What to do with a carry: apply, drop or fail")
	sinceFlag  = flag.String("since", "", "Also print the elapsed time since this date-time")
)

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()
	args := flag.Args()
	if len(args)%2 != 1 {
		return fmt.Errorf("Usage: leapcalc [-config file] [-carry apply|drop|fail] [-since date-time] <date-time> [<n> <unit>]...\n")
	}

	cfg := config.Default()
	if *configFlag != "" {
		var err error
		if cfg, err = config.Load(*configFlag); err != nil {
			return err
		}
	}
	r, err := cfg.Refresher()
	if err != nil {
		return err
	}
	chron, err := r.Refresh(context.Background())
	if err != nil {
		return err
	}

	d, err := parseDateTime(chron, args[0])
	if err != nil {
		return err
	}
	for i := 1; i < len(args); i += 2 {
		n, err := strconv.ParseInt(args[i], 10, 64)
		if err != nil {
			return fmt.Errorf("amount %q: %w", args[i], err)
		}
		if d, err = add(d, n, args[i+1], *carryFlag); err != nil {
			return err
		}
	}

	fmt.Println(d)
	inst, err := d.Instant()
	if err != nil {
		return err
	}
	fmt.Println("  instant =", inst.Ticks())
	if *sinceFlag != "" {
		since, err := parseDateTime(chron, *sinceFlag)
		if err != nil {
			return err
		}
		elapsed, err := d.Sub(since)
		if err != nil {
			return err
		}
		fmt.Printf("  since %v = %dns\n", since, elapsed.Ticks())
	}
	return nil
}

// add adds n units to d and handles the carry as requested.
func add(d iso8601.DateTime, n int64, unit, carry string) (iso8601.DateTime, error) {
	var (
		w   iso8601.WithCarry
		err error
	)
	switch strings.TrimSuffix(unit, "s") {
	case "year":
		w, err = d.CheckedAddYears(n)
	case "month":
		w, err = d.CheckedAddMonths(n)
	case "day":
		w, err = d.CheckedAddDays(n)
	case "hour":
		w, err = d.CheckedAddHours(n)
	case "minute":
		w, err = d.CheckedAddMinutes(n)
	case "second":
		return d.CheckedAddSeconds(n)
	default:
		return iso8601.DateTime{}, fmt.Errorf("unknown unit %q", unit)
	}
	if err != nil {
		return iso8601.DateTime{}, err
	}
	switch carry {
	case "apply":
		return w.CheckedApplyCarry()
	case "drop":
		return w.DropCarry(), nil
	case "fail":
		return w.CheckedUnwrap()
	}
	return iso8601.DateTime{}, fmt.Errorf("unknown carry mode %q", carry)
}

// parseDateTime parses the extended ISO 8601 forms YYYY, YYYY-MM,
// YYYY-MM-DD and YYYY-MM-DDThh[:mm[:ss[.fffffffff]]], optionally followed
// by Z. Offsets other than Z are not supported.
func parseDateTime(c *iso8601.Chronology, s string) (iso8601.DateTime, error) {
	b := iso8601.NewBuilder().Chronology(c)
	date, clock, hasClock := strings.Cut(strings.TrimSuffix(s, "Z"), "T")

	fields := strings.Split(date, "-")
	if len(fields) > 3 || (hasClock && len(fields) != 3) {
		return iso8601.DateTime{}, fmt.Errorf("date-time %q: malformed date", s)
	}
	var clockFields []string
	frac, hasFrac := "", false
	if hasClock {
		clock, frac, hasFrac = strings.Cut(clock, ".")
		clockFields = strings.Split(clock, ":")
		if len(clockFields) > 3 || (hasFrac && len(clockFields) != 3) {
			return iso8601.DateTime{}, fmt.Errorf("date-time %q: malformed time", s)
		}
	}

	setters := []func(int) *iso8601.Builder{
		b.Year,
		func(m int) *iso8601.Builder { return b.Month(time.Month(m)) },
		b.Day,
		b.Hour,
		b.Minute,
		b.Second,
	}
	for i, f := range append(fields, clockFields...) {
		v, err := strconv.Atoi(f)
		if err != nil || len(f) < 2 || !allDigits(f) {
			return iso8601.DateTime{}, fmt.Errorf("date-time %q: malformed field %q", s, f)
		}
		setters[i](v)
	}

	if hasFrac {
		if len(frac) == 0 || len(frac) > 9 || !allDigits(frac) {
			return iso8601.DateTime{}, fmt.Errorf("date-time %q: malformed fraction", s)
		}
		digits := len(frac)
		frac += strings.Repeat("0", 9-digits)
		ns, err := strconv.Atoi(frac)
		if err != nil {
			return iso8601.DateTime{}, fmt.Errorf("date-time %q: malformed fraction", s)
		}
		b.Millisecond(ns / 1_000_000)
		if digits > 3 {
			b.Microsecond(ns / 1_000 % 1_000)
		}
		if digits > 6 {
			b.Nanosecond(ns % 1_000)
		}
	}
	return b.Build()
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
