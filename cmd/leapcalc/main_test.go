package main

import (
	"errors"
	"testing"

	"github.com/ngrash/leaptime/iso8601"
	"github.com/ngrash/leaptime/leapsec"
)

func chronology(t *testing.T) *iso8601.Chronology {
	t.Helper()
	c, err := iso8601.NewChronology(leapsec.Embedded())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestParseDateTime(t *testing.T) {
	c := chronology(t)
	tests := []struct {
		in   string
		want string
	}{
		{"2016", "2016"},
		{"2016-12", "2016-12"},
		{"2016-12-31", "2016-12-31"},
		{"2016-12-31T23", "2016-12-31T23Z"},
		{"2016-12-31T23:59Z", "2016-12-31T23:59Z"},
		{"2016-12-31T23:59:60Z", "2016-12-31T23:59:60Z"},
		{"2016-12-31T23:59:60.5", "2016-12-31T23:59:60.500Z"},
		{"2016-12-31T23:59:60.0001", "2016-12-31T23:59:60.000100Z"},
		{"2016-12-31T23:59:60.123456789Z", "2016-12-31T23:59:60.123456789Z"},
	}
	for _, tc := range tests {
		got, err := parseDateTime(c, tc.in)
		if err != nil {
			t.Errorf("parseDateTime(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got.String() != tc.want {
			t.Errorf("parseDateTime(%q) = %v, want %s", tc.in, got, tc.want)
		}
	}

	for _, in := range []string{
		"",
		"2016-12-31-01",
		"2016-12T10",
		"2016-12-31T10:00:00:00",
		"2016-12-31T10:00.5",
		"2016-12-31T10:00:00.",
		"2016-12-31T10:00:00.1234567890",
		"2016-1x",
		"2016-12-31T23:59:61",
		"2016-12-31T12:00:00.+5",
		"2016-12-31T12:00:00.-5",
		"2016-+1-31",
		"2016-12-31T+1:00",
	} {
		if _, err := parseDateTime(c, in); err == nil {
			t.Errorf("parseDateTime(%q) did not fail", in)
		}
	}
}

func TestAdd(t *testing.T) {
	c := chronology(t)
	start, err := parseDateTime(c, "2000-01-31T00:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		n     int64
		unit  string
		carry string
		want  string
	}{
		{1, "month", "apply", "2000-03-02T00:00:00Z"},
		{1, "months", "drop", "2000-02-29T00:00:00Z"},
		{1, "years", "fail", "2001-01-31T00:00:00Z"},
		{-1, "day", "fail", "2000-01-30T00:00:00Z"},
		{25, "hours", "fail", "2000-02-01T01:00:00Z"},
		{-1, "minute", "fail", "2000-01-30T23:59:00Z"},
		{86400, "seconds", "fail", "2000-02-01T00:00:00Z"},
	}
	for _, tc := range tests {
		got, err := add(start, tc.n, tc.unit, tc.carry)
		if err != nil {
			t.Errorf("add(%d, %q, %q): unexpected error: %v", tc.n, tc.unit, tc.carry, err)
			continue
		}
		if got.String() != tc.want {
			t.Errorf("add(%d, %q, %q) = %v, want %s", tc.n, tc.unit, tc.carry, got, tc.want)
		}
	}

	if _, err := add(start, 1, "month", "fail"); !errors.Is(err, iso8601.ErrCarryNotApplied) {
		t.Errorf("add(1, month, fail) err = %v, want %v", err, iso8601.ErrCarryNotApplied)
	}
	if _, err := add(start, 1, "fortnight", "apply"); err == nil {
		t.Errorf("add(fortnight) did not fail")
	}
	if _, err := add(start, 1, "day", "ignore"); err == nil {
		t.Errorf("add(carry ignore) did not fail")
	}
}
