package leapsec

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ngrash/leaptime/internal/unixtime"
	"github.com/ngrash/leaptime/tzdata"
	"github.com/ngrash/leaptime/tzdb/ianadist"
	"github.com/ngrash/leaptime/tzif"
)

// DefaultTZDir is the zoneinfo directory used when neither an explicit
// directory nor the TZDIR environment variable is given.
const DefaultTZDir = "/usr/share/zoneinfo"

// FromTZif builds a table from the leap-second records of a TZif file.
// TZif occurrences count the leap seconds inserted before them and are
// converted to Unix time. A version 4 expiry record sets the expiry of the
// table instead of ending a segment.
//
// Version 4 files truncated at the start (zic -r) lack the leap seconds
// before the truncation point and are rejected with ErrCorrection.
func FromTZif(d tzif.Data) (*Table, error) {
	leaps := d.LeapSeconds()
	exp, hasExp := d.Expiry()
	if hasExp {
		leaps = leaps[:len(leaps)-1]
	}
	if len(leaps) > 0 && leaps[0].Corr != 1 && leaps[0].Corr != -1 {
		return nil, fmt.Errorf("%w: first correction is %d, table is truncated", ErrCorrection, leaps[0].Corr)
	}
	records := make([]Record, len(leaps))
	var prev int32
	for i, l := range leaps {
		records[i] = Record{Unix: l.Occur - int64(prev), Count: l.Corr}
		prev = l.Corr
	}
	t, err := FromRecords(records)
	if err != nil {
		return nil, err
	}
	if hasExp {
		day, _ := unixtime.Day(exp-int64(prev))
		t = t.WithExpiry(day)
	}
	return t, nil
}

// ReadTZif decodes a TZif file and builds a table from its leap seconds.
func ReadTZif(r io.Reader) (*Table, error) {
	d, err := tzif.DecodeData(r)
	if err != nil {
		return nil, fmt.Errorf("decode tzif: %w", err)
	}
	return FromTZif(d)
}

// FromLeapFile builds a table from a parsed leapseconds file. The last
// Expires line, if any, sets the expiry of the table.
func FromLeapFile(f tzdata.File) (*Table, error) {
	records := make([]Record, len(f.LeapLines))
	var count int32
	for i, l := range f.LeapLines {
		if l.Mode != tzdata.StationaryLeapTime {
			return nil, fmt.Errorf("leap line %d: rolling leap seconds are not supported", i)
		}
		unix, err := l.Unix()
		if err != nil {
			return nil, fmt.Errorf("leap line %d: %w", i, err)
		}
		count += int32(l.Corr.Sign())
		records[i] = Record{Unix: unix, Count: count}
	}
	t, err := FromRecords(records)
	if err != nil {
		return nil, err
	}
	if n := len(f.ExpiresLines); n > 0 {
		unix, err := f.ExpiresLines[n-1].Unix()
		if err != nil {
			return nil, fmt.Errorf("expires line: %w", err)
		}
		day, _ := unixtime.Day(unix)
		t = t.WithExpiry(day)
	}
	return t, nil
}

// ReadLeapFile parses a leapseconds file and builds a table from it.
func ReadLeapFile(r io.Reader) (*Table, error) {
	f, err := tzdata.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse leapseconds: %w", err)
	}
	return FromLeapFile(f)
}

// Read detects whether b is a TZif or a leapseconds file and builds a
// table from it.
func Read(b []byte) (*Table, error) {
	if bytes.HasPrefix(b, tzif.Magic[:]) {
		return ReadTZif(bytes.NewReader(b))
	}
	t, err := ReadLeapFile(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Join(ErrUnknownFormat, err)
	}
	return t, nil
}

// LoadSystem reads right/UTC from the zoneinfo directory tzdir. An empty
// tzdir means $TZDIR, or DefaultTZDir if that is not set either.
func LoadSystem(tzdir string) (*Table, error) {
	if tzdir == "" {
		tzdir = os.Getenv("TZDIR")
	}
	if tzdir == "" {
		tzdir = DefaultTZDir
	}
	f, err := os.Open(filepath.Join(tzdir, "right", "UTC"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTZif(f)
}

//go:embed leapseconds
var embeddedLeapSeconds []byte

var embedded = sync.OnceValues(func() (*Table, error) {
	return ReadLeapFile(bytes.NewReader(embeddedLeapSeconds))
})

// Embedded returns the table of the leapseconds file compiled into the
// package. It lists the 27 leap seconds inserted between 1972 and 2016.
func Embedded() *Table {
	t, err := embedded()
	if err != nil {
		panic(fmt.Sprintf("leapsec: embedded leapseconds: %v", err))
	}
	return t
}

// Source provides leap-second tables.
type Source interface {
	Load(ctx context.Context) (*Table, error)
}

// EmbeddedSource provides the table returned by Embedded.
type EmbeddedSource struct{}

func (EmbeddedSource) Load(context.Context) (*Table, error) { return Embedded(), nil }

// Format selects how FileSource interprets a file.
type Format int

const (
	// FormatAuto detects the format from the file contents.
	FormatAuto Format = iota
	FormatTZif
	FormatLeapFile
)

// FileSource reads a table from a file.
type FileSource struct {
	Path   string
	Format Format
}

func (s FileSource) Load(context.Context) (*Table, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	var t *Table
	switch s.Format {
	case FormatTZif:
		t, err = ReadTZif(bytes.NewReader(b))
	case FormatLeapFile:
		t, err = ReadLeapFile(bytes.NewReader(b))
	default:
		t, err = Read(b)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return t, nil
}

// SystemSource reads right/UTC of a zoneinfo directory, see LoadSystem.
type SystemSource struct {
	TZDir string
}

func (s SystemSource) Load(context.Context) (*Table, error) { return LoadSystem(s.TZDir) }

// IANASource downloads the leapseconds file of the latest tzdb release.
// It remembers the ETag of the last download and reuses the table while
// the server reports it as not modified.
type IANASource struct {
	// Client is used for downloads. If nil, ianadist.DefaultClient is used.
	Client *ianadist.Client

	mu    sync.Mutex
	etag  string
	table *Table
}

// NewIANASource returns a source downloading with client.
func NewIANASource(client *ianadist.Client) *IANASource {
	return &IANASource{Client: client}
}

// ETag returns the ETag of the last successful download.
func (s *IANASource) ETag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.etag
}

func (s *IANASource) Load(ctx context.Context) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client := s.Client
	if client == nil {
		client = ianadist.DefaultClient
	}
	etag := s.etag
	if s.table == nil {
		etag = ""
	}
	b, newEtag, err := client.LatestLeapSeconds(ctx, etag)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return s.table, nil // not modified
	}
	t, err := ReadLeapFile(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("iana leapseconds: %w", err)
	}
	s.etag, s.table = newEtag, t
	return t, nil
}
