package leapsec

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ngrash/leaptime/timescale"
	"github.com/ngrash/leaptime/tzdb/ianadist"
	"github.com/ngrash/leaptime/tzif"
)

const (
	day1972Jul01 = 912
	day1973Jan01 = 1096
	day2015Jul01 = 16617
	day2017Jan01 = 17167
	day2025Jun28 = 20267
)

func TestEmbedded(t *testing.T) {
	tab := Embedded()
	if got := tab.Len(); got != 27 {
		t.Fatalf("Len() = %d, want 27", got)
	}
	if day, ok := tab.Expires(); !ok || day != day2025Jun28 {
		t.Errorf("Expires() = %d, %v, want %d, true", day, ok, day2025Jun28)
	}

	segs := tab.Segments()
	wantFirst := []Segment{
		{StartInstant: 0, StartDay: 0, DurationDays: day1972Jul01, LeapSeconds: 1, AccumulatedLeapSeconds: 0},
		{StartInstant: day1972Jul01*86400 + 1, StartDay: day1972Jul01, DurationDays: day1973Jan01 - day1972Jul01, LeapSeconds: 1, AccumulatedLeapSeconds: 1},
	}
	if diff := cmp.Diff(wantFirst, segs[:2]); diff != "" {
		t.Errorf("Segments() mismatch (-want +got):\n%s", diff)
	}
	wantLast := Segment{
		StartInstant:           day2015Jul01*86400 + 26,
		StartDay:               day2015Jul01,
		DurationDays:           day2017Jan01 - day2015Jul01,
		LeapSeconds:            1,
		AccumulatedLeapSeconds: 26,
	}
	if diff := cmp.Diff(wantLast, segs[26]); diff != "" {
		t.Errorf("Segments()[26] mismatch (-want +got):\n%s", diff)
	}

	for i := 1; i < len(segs); i++ {
		prev, s := segs[i-1], segs[i]
		if prev.EndDay() != s.StartDay || prev.EndInstant() != s.StartInstant {
			t.Errorf("segment %d does not continue segment %d: %+v, %+v", i, i-1, s, prev)
		}
		if s.AccumulatedLeapSeconds != prev.AccumulatedLeapSeconds+int32(prev.LeapSeconds) {
			t.Errorf("segment %d accumulated = %d, want %d", i, s.AccumulatedLeapSeconds, prev.AccumulatedLeapSeconds+int32(prev.LeapSeconds))
		}
	}

	if got, want := tab.Records()[0], (Record{Unix: 78796800, Count: 1}); got != want {
		t.Errorf("Records()[0] = %+v, want %+v", got, want)
	}
}

func TestSegment_DayLength(t *testing.T) {
	s := Embedded().Segments()[0]
	if got := s.LastDay(); got != day1972Jul01-1 {
		t.Errorf("LastDay() = %d, want %d", got, day1972Jul01-1)
	}
	if got := s.DayLength(s.LastDay()); got != 86401 {
		t.Errorf("DayLength(last day) = %d, want 86401", got)
	}
	if got := s.DayLength(0); got != 86400 {
		t.Errorf("DayLength(0) = %d, want 86400", got)
	}
}

func TestTable_ByDay(t *testing.T) {
	tab := Embedded()
	cases := []struct {
		day       int64
		wantPos   Position
		wantIndex int
	}{
		{-1, BeforeFirst, 0},
		{-100000, BeforeFirst, 0},
		{0, In, 0},
		{day1972Jul01 - 1, In, 0},
		{day1972Jul01, In, 1},
		{day2017Jan01 - 1, In, 26},
		{day2017Jan01, AfterLast, 26},
		{day2025Jun28, AfterLast, 26},
	}
	for _, c := range cases {
		got := tab.ByDay(c.day)
		if got.Position != c.wantPos || got.Index != c.wantIndex {
			t.Errorf("ByDay(%d) = %v at %d, want %v at %d", c.day, got.Position, got.Index, c.wantPos, c.wantIndex)
		}
		if got.Segment != tab.segments[c.wantIndex] {
			t.Errorf("ByDay(%d).Segment = %+v, want %+v", c.day, got.Segment, tab.segments[c.wantIndex])
		}
	}
}

func TestTable_BySecond(t *testing.T) {
	tab := Embedded()
	cases := []struct {
		instant   int64
		wantPos   Position
		wantIndex int
	}{
		{-1, BeforeFirst, 0},
		{0, In, 0},
		{day1972Jul01*86400 - 1, In, 0},
		{day1972Jul01 * 86400, In, 0}, // 1972-06-30 23:59:60
		{day1972Jul01*86400 + 1, In, 1},
		{day2017Jan01*86400 + 26, In, 26}, // 2016-12-31 23:59:60
		{day2017Jan01*86400 + 27, AfterLast, 26},
	}
	for _, c := range cases {
		got := tab.BySecond(c.instant)
		if got.Position != c.wantPos || got.Index != c.wantIndex {
			t.Errorf("BySecond(%d) = %v at %d, want %v at %d", c.instant, got.Position, got.Index, c.wantPos, c.wantIndex)
		}
	}

	nanos := timescale.FromTicks[timescale.Nanoseconds](day1972Jul01*86400*1_000_000_000 + 999_999_999)
	if got := LookupInstant(tab, nanos); got.Position != In || got.Index != 0 {
		t.Errorf("LookupInstant(%d ns) = %v at %d, want In at 0", nanos.Ticks(), got.Position, got.Index)
	}
	millis := timescale.FromTicks[timescale.Milliseconds](-1)
	if got := LookupInstant(tab, millis); got.Position != BeforeFirst {
		t.Errorf("LookupInstant(-1 ms) = %v, want BeforeFirst", got.Position)
	}
}

func TestTable_Empty(t *testing.T) {
	tab, err := FromRecords(nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, tab := range []*Table{tab, {}} {
		got := tab.ByDay(5)
		want := Lookup{Position: AfterLast, Index: -1}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ByDay() mismatch (-want +got):\n%s", diff)
		}
		if got := tab.BySecond(-5); got.Position != AfterLast {
			t.Errorf("BySecond(-5) = %v, want AfterLast", got.Position)
		}
		if got := tab.AccumulatedAt(100); got != 0 {
			t.Errorf("AccumulatedAt(100) = %d, want 0", got)
		}
		if got := tab.LeapSecondsBetween(-100, 100); got != 0 {
			t.Errorf("LeapSecondsBetween() = %d, want 0", got)
		}
		c := tab.Cursor(got)
		if !c.AtEnd() || c.Len() != 0 {
			t.Errorf("Cursor() of empty table not at end")
		}
	}
}

func TestTable_Cursor(t *testing.T) {
	tab := Embedded()

	c := tab.Cursor(tab.ByDay(-1))
	if !c.AtStart() {
		t.Errorf("Cursor(BeforeFirst) not at start")
	}
	if s, ok := c.Next(); !ok || s != tab.segments[0] {
		t.Errorf("Next() = %+v, %v, want first segment", s, ok)
	}

	c = tab.Cursor(tab.ByDay(day1972Jul01))
	if s, ok := c.Current(); !ok || s != tab.segments[1] {
		t.Errorf("Current() = %+v, %v, want segment 1", s, ok)
	}
	if s, ok := c.PeekPrev(); !ok || s != tab.segments[0] {
		t.Errorf("PeekPrev() = %+v, %v, want segment 0", s, ok)
	}

	c = tab.Cursor(tab.ByDay(day2017Jan01))
	if !c.AtEnd() {
		t.Errorf("Cursor(AfterLast) not at end")
	}
	if s, ok := c.Prev(); !ok || s != tab.segments[26] {
		t.Errorf("Prev() = %+v, %v, want last segment", s, ok)
	}
}

func TestTable_AccumulatedAt(t *testing.T) {
	tab := Embedded()
	cases := []struct {
		day  int64
		want int32
	}{
		{-5, 0},
		{0, 0},
		{day1972Jul01 - 1, 0},
		{day1972Jul01, 1},
		{day2017Jan01 - 1, 26},
		{day2017Jan01, 27},
		{day2025Jun28, 27},
	}
	for _, c := range cases {
		if got := tab.AccumulatedAt(c.day); got != c.want {
			t.Errorf("AccumulatedAt(%d) = %d, want %d", c.day, got, c.want)
		}
	}
}

func TestTable_LeapSecondsBetween(t *testing.T) {
	tab := Embedded()
	cases := []struct {
		from, to int64
		want     int64
	}{
		{0, day1972Jul01 - 1, 0},
		{0, day1972Jul01, 1},
		{day1972Jul01 - 1, day1972Jul01, 1},
		{day1972Jul01, day1973Jan01, 1},
		{-100, 30000, 27},
		{day2017Jan01, day2025Jun28, 0},
		{30000, 0, 0},
	}
	for _, c := range cases {
		if got := tab.LeapSecondsBetween(c.from, c.to); got != c.want {
			t.Errorf("LeapSecondsBetween(%d, %d) = %d, want %d", c.from, c.to, got, c.want)
		}
	}
}

func TestFromRecords_Errors(t *testing.T) {
	cases := []struct {
		name    string
		records []Record
		want    error
	}{
		{"descending", []Record{{2 * 86400, 1}, {86400, 2}}, ErrUnsorted},
		{"same day", []Record{{86400, 1}, {86400 + 5, 2}}, ErrUnsorted},
		{"before epoch", []Record{{-86400, 1}}, ErrUnsorted},
		{"correction", []Record{{86400, 200}}, ErrCorrection},
		{"two at once", []Record{{86400, 2}}, ErrCorrection},
		{"two removed at once", []Record{{86400, 1}, {2 * 86400, -1}}, ErrCorrection},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := FromRecords(c.records); !errors.Is(err, c.want) {
				t.Errorf("FromRecords() err = %v, want %v", err, c.want)
			}
		})
	}
}

func TestFromRecords_NegativeLeapSecond(t *testing.T) {
	tab, err := FromRecords([]Record{{10 * 86400, -1}})
	if err != nil {
		t.Fatal(err)
	}
	s := tab.Segments()[0]
	if got := s.EndInstant(); got != 10*86400-1 {
		t.Errorf("EndInstant() = %d, want %d", got, 10*86400-1)
	}
	if got := s.DayLength(9); got != 86399 {
		t.Errorf("DayLength(9) = %d, want 86399", got)
	}
	if got := tab.BySecond(10*86400 - 1); got.Position != AfterLast {
		t.Errorf("BySecond(end) = %v, want AfterLast", got.Position)
	}
}

// tzifLeaps converts the records of tab to TZif occurrences, which include
// the leap seconds inserted before them.
func tzifLeaps(tab *Table) []tzif.LeapSecondRecord {
	var (
		leaps []tzif.LeapSecondRecord
		prev  int32
	)
	for _, r := range tab.Records() {
		leaps = append(leaps, tzif.LeapSecondRecord{Occur: r.Unix + int64(prev), Corr: r.Count})
		prev = r.Count
	}
	return leaps
}

func encodeTZif(t *testing.T, d tzif.Data) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadTZif(t *testing.T) {
	embedded := Embedded()
	leaps := tzifLeaps(embedded)
	expiry := tzif.LeapSecondRecord{Occur: day2025Jun28*86400 + 27, Corr: 27}

	got, err := ReadTZif(bytes.NewReader(encodeTZif(t, tzif.UTC(tzif.V4, append(leaps, expiry)))))
	if err != nil {
		t.Fatalf("ReadTZif() failed: %v", err)
	}
	if !got.Equal(embedded) {
		t.Errorf("ReadTZif() = %+v, want the embedded table", got.Segments())
	}
	if diff := cmp.Diff(embedded.Records(), got.Records()); diff != "" {
		t.Errorf("Records() mismatch (-want +got):\n%s", diff)
	}

	got, err = FromTZif(tzif.UTC(tzif.V2, leaps))
	if err != nil {
		t.Fatalf("FromTZif() failed: %v", err)
	}
	if _, ok := got.Expires(); ok {
		t.Errorf("FromTZif() of a V2 file has an expiry")
	}
	if diff := cmp.Diff(embedded.Segments(), got.Segments()); diff != "" {
		t.Errorf("Segments() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromTZif_Truncated(t *testing.T) {
	leaps := []tzif.LeapSecondRecord{
		{Occur: day2017Jan01*86400 + 26, Corr: 27},
		{Occur: day2025Jun28*86400 + 27, Corr: 27},
	}
	d := tzif.UTC(tzif.V4, leaps)
	if err := tzif.Validate(d); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if _, err := FromTZif(d); !errors.Is(err, ErrCorrection) {
		t.Errorf("FromTZif() err = %v, want %v", err, ErrCorrection)
	}
}

func TestRead(t *testing.T) {
	tzifBytes := encodeTZif(t, tzif.UTC(tzif.V2, tzifLeaps(Embedded())))
	for name, b := range map[string][]byte{"leapseconds": embeddedLeapSeconds, "tzif": tzifBytes} {
		tab, err := Read(b)
		if err != nil {
			t.Errorf("Read(%s) failed: %v", name, err)
			continue
		}
		if diff := cmp.Diff(Embedded().Segments(), tab.Segments()); diff != "" {
			t.Errorf("Read(%s) mismatch (-want +got):\n%s", name, diff)
		}
	}
	if _, err := Read([]byte("not a leap-second table\n")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Read(garbage) err = %v, want %v", err, ErrUnknownFormat)
	}
}

func TestReadLeapFile_Rolling(t *testing.T) {
	_, err := ReadLeapFile(strings.NewReader("Leap 2016 Dec 31 23:59:60 + R\n"))
	if err == nil || !strings.Contains(err.Error(), "rolling") {
		t.Errorf("ReadLeapFile() err = %v, want rolling leap seconds error", err)
	}
}

func TestSources(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	leapFile := filepath.Join(dir, "leapseconds")
	if err := os.WriteFile(leapFile, embeddedLeapSeconds, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "right"), 0o755); err != nil {
		t.Fatal(err)
	}
	tzifFile := filepath.Join(dir, "right", "UTC")
	if err := os.WriteFile(tzifFile, encodeTZif(t, tzif.UTC(tzif.V2, tzifLeaps(Embedded()))), 0o644); err != nil {
		t.Fatal(err)
	}

	sources := map[string]Source{
		"embedded":      EmbeddedSource{},
		"file auto":     FileSource{Path: leapFile},
		"file leapfile": FileSource{Path: leapFile, Format: FormatLeapFile},
		"file tzif":     FileSource{Path: tzifFile, Format: FormatTZif},
		"system":        SystemSource{TZDir: dir},
	}
	for name, src := range sources {
		tab, err := src.Load(ctx)
		if err != nil {
			t.Errorf("%s: Load() failed: %v", name, err)
			continue
		}
		if diff := cmp.Diff(Embedded().Segments(), tab.Segments()); diff != "" {
			t.Errorf("%s: Load() mismatch (-want +got):\n%s", name, diff)
		}
	}

	if _, err := (FileSource{Path: leapFile, Format: FormatTZif}).Load(ctx); err == nil {
		t.Errorf("FileSource with the wrong format did not fail")
	}
	if _, err := (SystemSource{TZDir: filepath.Join(dir, "missing")}).Load(ctx); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("SystemSource of a missing directory err = %v, want %v", err, os.ErrNotExist)
	}
}

func writeArchive(t *testing.T, w io.Writer, files map[string][]byte) {
	t.Helper()
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (fn roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}

func TestIANASource(t *testing.T) {
	const etag = "v1"
	var archive bytes.Buffer
	writeArchive(t, &archive, map[string][]byte{
		"version":     []byte("2024b"),
		"leapseconds": embeddedLeapSeconds,
	})

	var requests []string
	client := &ianadist.Client{HTTPClient: &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		requests = append(requests, req.Header.Get("If-None-Match"))
		if req.Header.Get("If-None-Match") == etag {
			return &http.Response{StatusCode: http.StatusNotModified, Body: http.NoBody}, nil
		}
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(archive.Bytes())),
			Header:     make(http.Header),
		}
		resp.Header.Set("etag", etag)
		return resp, nil
	})}}

	src := NewIANASource(client)
	first, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !first.Equal(Embedded()) {
		t.Errorf("Load() = %+v, want the embedded table", first.Segments())
	}
	second, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("second Load() failed: %v", err)
	}
	if second != first {
		t.Errorf("second Load() did not reuse the unmodified table")
	}
	if diff := cmp.Diff([]string{"", etag}, requests); diff != "" {
		t.Errorf("If-None-Match headers mismatch (-want +got):\n%s", diff)
	}
	if got := src.ETag(); got != etag {
		t.Errorf("ETag() = %q, want %q", got, etag)
	}
}

// countingSource returns a new table on every load and fails while err is set.
type countingSource struct {
	mu    sync.Mutex
	loads int
	err   error
}

func (s *countingSource) Load(context.Context) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return FromRecords([]Record{{int64(s.loads) * 86400, 1}})
}

func TestLoader(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	l := NewLoader(src)

	var wg sync.WaitGroup
	tables := make([]*Table, 8)
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tab, err := l.Table(ctx)
			if err != nil {
				t.Errorf("Table() failed: %v", err)
			}
			tables[i] = tab
		}(i)
	}
	wg.Wait()
	first, _ := l.Table(ctx)
	for i, tab := range tables {
		if tab == nil || tab.Len() != 1 {
			t.Errorf("Table() in goroutine %d = %v", i, tab)
		}
	}

	refreshed, err := l.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if refreshed == first {
		t.Errorf("Refresh() returned the cached table")
	}
	if got, _ := l.Table(ctx); got != refreshed {
		t.Errorf("Table() after Refresh() did not return the refreshed table")
	}
	if first.Segments()[0].DurationDays == refreshed.Segments()[0].DurationDays {
		t.Errorf("Refresh() changed the previously returned table")
	}

	src.mu.Lock()
	src.err = errors.New("unavailable")
	src.mu.Unlock()
	if _, err := l.Refresh(ctx); err == nil {
		t.Errorf("Refresh() with failing source did not fail")
	}
	if got, _ := l.Table(ctx); got != refreshed {
		t.Errorf("Table() after failed Refresh() did not keep the cached table")
	}
}
