package tzdata

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParse_Leap(t *testing.T) {
	var input = strings.TrimSpace(`
# Allowance for leap seconds added to each time zone.
#updated 1467815400 (2016-07-06 14:30:00 UTC)

Leap	1972	Jun	30	23:59:60	+	S
Leap  2016  Dec    31   23:59:60  +     S
Leap	2030	December	31	23:59:59	-	Stationary # hypothetical
Expires  2020  Dec    28   00:00:00
`)
	got, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	want := File{
		LeapLines: []LeapLine{
			{Year: 1972, Month: time.June, Day: 30, Time: HMS{23, 59, 60}, Corr: LeapAdded, Mode: StationaryLeapTime},
			{Year: 2016, Month: time.December, Day: 31, Time: HMS{23, 59, 60}, Corr: LeapAdded, Mode: StationaryLeapTime},
			{Year: 2030, Month: time.December, Day: 31, Time: HMS{23, 59, 59}, Corr: LeapSkipped, Mode: StationaryLeapTime},
		},
		ExpiresLines: []ExpiresLine{
			{Year: 2020, Month: time.December, Day: 28, Time: HMS{0, 0, 0}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		input string
		want  []string
	}{
		{"Zone Europe/Zurich 0:34:08 - LMT", []string{"line 1", "unexpected line"}},
		{"Leap 2016 Dec 31 23:59:60 +", []string{"parse leap", "expected 7 fields, got 6"}},
		{"Leap 2016 Dx 31 23:59 * S", []string{"MONTH \"Dx\"", "HH:MM:SS \"23:59\"", "CORR \"*\""}},
		{"\nExpires 2020 Dec 28", []string{"line 2", "parse expires", "expected 5 fields, got 4"}},
		{"Leap 2016 Dec 31 23:59:60 + X", []string{"invalid leap mode"}},
	}
	for _, c := range cases {
		_, err := Parse(strings.NewReader(c.input))
		if err == nil {
			t.Errorf("Parse(%q) did not fail", c.input)
			continue
		}
		for _, w := range c.want {
			if !strings.Contains(err.Error(), w) {
				t.Errorf("Parse(%q) = %v, want it to contain %q", c.input, err, w)
			}
		}
	}
}

func TestParseMonth(t *testing.T) {
	cases := []struct {
		input string
		want  time.Month
	}{
		{"Jan", time.January},
		{"jan", time.January},
		{"Janu", time.January},
		{"January", time.January},
		{"May", time.May},
		{"Sept", time.September},
		{"Dec", time.December},
	}
	for _, c := range cases {
		got, err := parseMonth(c.input)
		if err != nil {
			t.Errorf("parseMonth(%q) failed: %v", c.input, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseMonth(%q) = %v, want %v", c.input, got, c.want)
		}
	}
	for _, input := range []string{"Ja", "Januaryx", "Foo"} {
		if _, err := parseMonth(input); err == nil {
			t.Errorf("parseMonth(%q) did not fail", input)
		}
	}
}

func TestLeapLine_Unix(t *testing.T) {
	cases := []struct {
		leap LeapLine
		want int64
	}{
		{LeapLine{Year: 1972, Month: time.June, Day: 30, Time: HMS{23, 59, 60}, Corr: LeapAdded}, 78796800},
		{LeapLine{Year: 2016, Month: time.December, Day: 31, Time: HMS{23, 59, 60}, Corr: LeapAdded}, 1483228800},
		{LeapLine{Year: 2016, Month: time.December, Day: 31, Time: HMS{23, 59, 59}, Corr: LeapSkipped}, 1483228800},
	}
	for _, c := range cases {
		got, err := c.leap.Unix()
		if err != nil {
			t.Errorf("%+v.Unix() failed: %v", c.leap, err)
			continue
		}
		if got != c.want {
			t.Errorf("%+v.Unix() = %d, want %d", c.leap, got, c.want)
		}
	}

	exp := ExpiresLine{Year: 2025, Month: time.June, Day: 28}
	if got, err := exp.Unix(); err != nil || got != 1751068800 {
		t.Errorf("%+v.Unix() = %d, %v, want %d", exp, got, err, 1751068800)
	}
	if got := LeapSkipped.Sign(); got != -1 {
		t.Errorf("LeapSkipped.Sign() = %d, want -1", got)
	}
}
