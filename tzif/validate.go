package tzif

import (
	"errors"
	"fmt"
)

// minLeapGap is 28 days' worth of seconds minus a potential negative leap second.
const minLeapGap = 28*86400 - 1

// Validate checks d against the constraints of RFC 8536 and tzfile(5).
// All violations are reported together.
func Validate(d Data) error {
	var errs []error
	if d.Version != d.V1Header.Version || (d.Version > V1 && d.V1Header.Version != d.V2Header.Version) {
		errs = append(errs, fmt.Errorf("inconsistent version: file = %v, v1 header = %v, v2 header = %v", d.Version, d.V1Header.Version, d.V2Header.Version))
	}
	errs = append(errs, validateBlock("v1", d.Version, d.V1Header, d.V1Data)...)
	if d.Version > V1 {
		errs = append(errs, validateBlock("v2", d.Version, d.V2Header, d.V2Data)...)
	}
	return errors.Join(errs...)
}

func validateBlock(name string, v Version, h Header, b DataBlock) []error {
	var errs []error
	count := func(field string, header uint32, data int) {
		if int(header) != data {
			errs = append(errs, fmt.Errorf("invalid %s %s: header = %d, data = %d", name, field, header, data))
		}
	}

	if h.Isutcnt != 0 && h.Isutcnt != h.Typecnt {
		errs = append(errs, fmt.Errorf("invalid %s isutcnt (%d): must be 0 or equal to typecnt (%d)", name, h.Isutcnt, h.Typecnt))
	}
	count("isutcnt", h.Isutcnt, len(b.UTLocal))

	if h.Isstdcnt != 0 && h.Isstdcnt != h.Typecnt {
		errs = append(errs, fmt.Errorf("invalid %s isstdcnt (%d): must be 0 or equal to typecnt (%d)", name, h.Isstdcnt, h.Typecnt))
	}
	count("isstdcnt", h.Isstdcnt, len(b.StandardWall))

	count("leapcnt", h.Leapcnt, len(b.LeapSeconds))
	count("timecnt", h.Timecnt, len(b.TransitionTimes))
	if times, types := len(b.TransitionTimes), len(b.TransitionTypes); times != types {
		errs = append(errs, fmt.Errorf("inconsistent %s transitions: transition times = %d, transition types = %d", name, times, types))
	}

	if h.Typecnt == 0 {
		errs = append(errs, fmt.Errorf("invalid %s typecnt: must not be zero", name))
	}
	count("typecnt", h.Typecnt, len(b.LocalTimeTypes))

	if h.Charcnt == 0 {
		errs = append(errs, fmt.Errorf("invalid %s charcnt: must not be zero", name))
	}
	count("charcnt", h.Charcnt, len(b.Designations))
	if n := len(b.Designations); n > 0 && b.Designations[n-1] != 0 {
		errs = append(errs, fmt.Errorf("invalid %s time zone designations: missing null terminator", name))
	}

	return append(errs, validateLeapSeconds(name, v, b.LeapSeconds)...)
}

func validateLeapSeconds(name string, v Version, leaps []LeapSecondRecord) []error {
	var errs []error
	if len(leaps) == 0 {
		return nil
	}
	if leaps[0].Occur < 0 {
		errs = append(errs, fmt.Errorf("invalid %s leap second 0: occurrence %d is negative", name, leaps[0].Occur))
	}
	// Version 4 files may start with a truncated correction.
	if v < V4 && leaps[0].Corr != 1 && leaps[0].Corr != -1 {
		errs = append(errs, fmt.Errorf("invalid %s leap second 0: correction %d is neither 1 nor -1", name, leaps[0].Corr))
	}
	for i := 1; i < len(leaps); i++ {
		prev, cur := leaps[i-1], leaps[i]
		if cur.Occur-prev.Occur < minLeapGap {
			errs = append(errs, fmt.Errorf("invalid %s leap second %d: occurrence %d is less than 28 days after %d", name, i, cur.Occur, prev.Occur))
		}
		diff := cur.Corr - prev.Corr
		expiry := v >= V4 && i == len(leaps)-1 && diff == 0
		if diff != 1 && diff != -1 && !expiry {
			errs = append(errs, fmt.Errorf("invalid %s leap second %d: correction changes by %d", name, i, diff))
		}
	}
	return errs
}
