// Package tzdata provides a parser for the leapseconds file distributed by IANA
// at https://www.iana.org/time-zones.
//
// The file lists one Leap line per leap second and optionally an Expires line:
//
//	Leap	2016	Dec	31	23:59:60	+	S
//	Expires	2025	Jun	28	00:00:00
package tzdata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ngrash/leaptime/internal/unixtime"
)

// File represents the result of parsing a leapseconds file.
// Lines are kept in the order they appear in the file.
type File struct {
	LeapLines    []LeapLine
	ExpiresLines []ExpiresLine
}

// parseError is an error that occurred during parsing.
// It contains the line number and the line where the error occurred.
type parseError struct {
	lineNumber int
	line       string
	err        error
}

// Error returns a string representation of the parse error, implementing the error interface.
func (e *parseError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.lineNumber, e.line, e.err)
}

func (e *parseError) Unwrap() error { return e.err }

// leapParseError returns a parse error for a leap line.
func leapParseError(lineNumber int, line string, err error) error {
	return &parseError{lineNumber, line, fmt.Errorf("parse leap: %w", err)}
}

// expiresParseError returns a parse error for an expires line.
func expiresParseError(lineNumber int, line string, err error) error {
	return &parseError{lineNumber, line, fmt.Errorf("parse expires: %w", err)}
}

// Parse parses the content of a leapseconds file.
func Parse(r io.Reader) (File, error) {
	var result File
	scanner := bufio.NewScanner(r)

	var lineNumber int
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		fields := splitLine(line)
		if fields == nil {
			continue // skip comment or empty line
		}
		switch fields[0] {
		case "Leap":
			leap, err := parseLeapLine(fields)
			if err != nil {
				return result, leapParseError(lineNumber, line, err)
			}
			result.LeapLines = append(result.LeapLines, leap)
		case "Expires":
			expires, err := parseExpiresLine(fields)
			if err != nil {
				return result, expiresParseError(lineNumber, line, err)
			}
			result.ExpiresLines = append(result.ExpiresLines, expires)
		default:
			return result, &parseError{lineNumber, line, fmt.Errorf("unexpected line")}
		}
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("scanner: %w", err)
	}
	return result, nil
}

// LeapCorr represents the correction direction of a leap second.
type LeapCorr string

const (
	// LeapAdded means a second was added.
	LeapAdded LeapCorr = "+"
	// LeapSkipped means a second was skipped.
	LeapSkipped LeapCorr = "-"
)

// Sign returns +1 for an added and -1 for a skipped second.
func (c LeapCorr) Sign() int {
	if c == LeapSkipped {
		return -1
	}
	return 1
}

// LeapLine represents a leap line.
type LeapLine struct {
	Year  int          // YEAR column
	Month time.Month   // MONTH column
	Day   int          // DAY column
	Time  HMS          // HH:MM:SS column
	Corr  LeapCorr     // CORR column
	Mode  LeapTimeMode // R/S column
}

// Unix returns the Unix time at which the correction takes effect, that is the
// first second after the inserted or skipped one. For an added leap second
// at 23:59:60 and a skipped one at 23:59:59 this is midnight of the next day.
func (l LeapLine) Unix() (int64, error) {
	t, err := unixtime.FromDateTime(l.Year, l.Month, l.Day, l.Time.Hours, l.Time.Minutes, l.Time.Seconds)
	if err != nil {
		return 0, err
	}
	if l.Corr == LeapSkipped {
		t++
	}
	return t, nil
}

// LeapTimeMode represents the mode of a leap second.
type LeapTimeMode int

const (
	// StationaryLeapTime means the leap second time given
	// by the other fields should be interpreted as UTC.
	StationaryLeapTime LeapTimeMode = iota

	// RollingLeapTime means the leap second time given by the
	// other fields should be interpreted as local (wall clock) time.
	// It is not used in practice.
	RollingLeapTime
)

// HMS represents the time that is shown on a watch.
type HMS struct {
	Hours   int
	Minutes int
	Seconds int
}

func parseLeapLine(fields []string) (LeapLine, error) {
	if len(fields) != 7 {
		return LeapLine{}, fmt.Errorf("expected 7 fields, got %d", len(fields))
	}
	var (
		leap LeapLine
		errs error
		err  error
	)
	if leap.Year, err = strconv.Atoi(fields[1]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("YEAR %q: %w", fields[1], err))
	}
	if leap.Month, err = parseMonth(fields[2]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("MONTH %q: %w", fields[2], err))
	}
	if leap.Day, err = strconv.Atoi(fields[3]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("DAY %q: %w", fields[3], err))
	}
	if leap.Time, err = parseHMS(fields[4]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("HH:MM:SS %q: %w", fields[4], err))
	}
	if leap.Corr, err = parseLeapCORR(fields[5]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("CORR %q: %w", fields[5], err))
	}
	if leap.Mode, err = parseLeapRS(fields[6]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("R/S %q: %w", fields[6], err))
	}
	return leap, errs
}

func parseLeapCORR(s string) (LeapCorr, error) {
	switch s {
	case "+":
		return LeapAdded, nil
	case "-":
		return LeapSkipped, nil
	default:
		return "", fmt.Errorf("invalid leap correction: %q", s)
	}
}

func parseLeapRS(s string) (LeapTimeMode, error) {
	l := strings.ToLower(s)
	if isAbbrev(l, "rolling", "r") {
		return RollingLeapTime, nil
	}
	if isAbbrev(l, "stationary", "s") {
		return StationaryLeapTime, nil
	}
	return 0, fmt.Errorf("invalid leap mode: %q", s)
}

// parseHMS parses a time in HH:MM:SS format.
func parseHMS(s string) (HMS, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return HMS{}, fmt.Errorf("expected 3 parts, got %d", len(parts))
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return HMS{}, fmt.Errorf("hours: %v", err)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return HMS{}, fmt.Errorf("minutes: %v", err)
	}
	ss, err := strconv.Atoi(parts[2])
	if err != nil {
		return HMS{}, fmt.Errorf("seconds: %v", err)
	}
	return HMS{Hours: hh, Minutes: mm, Seconds: ss}, nil
}

// ExpiresLine represents an expires line.
type ExpiresLine struct {
	Year  int
	Month time.Month
	Day   int
	Time  HMS
}

// Unix returns the Unix time at which the leap-second table expires.
func (e ExpiresLine) Unix() (int64, error) {
	return unixtime.FromDateTime(e.Year, e.Month, e.Day, e.Time.Hours, e.Time.Minutes, e.Time.Seconds)
}

// parseExpiresLine parses an expires line.
func parseExpiresLine(fields []string) (ExpiresLine, error) {
	if len(fields) != 5 {
		return ExpiresLine{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}
	var (
		expires ExpiresLine
		errs    error
		err     error
	)
	if expires.Year, err = strconv.Atoi(fields[1]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("YEAR %q: %w", fields[1], err))
	}
	if expires.Month, err = parseMonth(fields[2]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("MONTH %q: %w", fields[2], err))
	}
	if expires.Day, err = strconv.Atoi(fields[3]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("DAY %q: %w", fields[3], err))
	}
	if expires.Time, err = parseHMS(fields[4]); err != nil {
		errs = errors.Join(errs, fmt.Errorf("HH:MM:SS %q: %w", fields[4], err))
	}
	return expires, errs
}

// splitLine splits a line into white-space separated fields.
// It returns nil if the line is a comment or empty.
//
// An unquoted sharp character (#) introduces a comment which extends to the
// end of the line. Fields of the leapseconds file are never quoted.
func splitLine(line string) []string {
	if i := strings.Index(line, "#"); i != -1 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

var months = [...]struct{ long, min string }{
	{"january", "jan"},
	{"february", "feb"},
	{"march", "mar"},
	{"april", "apr"},
	{"may", "may"},
	{"june", "jun"},
	{"july", "jul"},
	{"august", "aug"},
	{"september", "sep"},
	{"october", "oct"},
	{"november", "nov"},
	{"december", "dec"},
}

// parseMonth parses a month name. Names may be abbreviated to three letters.
func parseMonth(s string) (time.Month, error) {
	if len(s) < 3 {
		return 0, fmt.Errorf("month %q: too short", s)
	}
	l := strings.ToLower(s)
	for i, m := range months {
		if isAbbrev(l, m.long, m.min) {
			return time.Month(i + 1), nil
		}
	}
	return 0, fmt.Errorf("month %q: invalid", s)
}

func isAbbrev(s string, long string, min string) bool {
	return strings.HasPrefix(s, min) && strings.HasPrefix(long, s)
}
