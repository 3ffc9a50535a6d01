package tzif

import (
	"fmt"
	"io"
)

// Data represents a TZif file.
// For version 1 files only the V1 fields are used.
type Data struct {
	Version Version

	V1Header Header
	V1Data   DataBlock

	V2Header Header
	V2Data   DataBlock
	V2Footer Footer
}

// Encode writes d to w. Headers are written as stored in d.
func (d Data) Encode(w io.Writer) error {
	if err := d.V1Header.Write(w); err != nil {
		return fmt.Errorf("write v1 header: %w", err)
	}
	if err := d.V1Data.Write(w, TimeSize32); err != nil {
		return fmt.Errorf("write v1 data: %w", err)
	}
	if d.Version == V1 {
		return nil
	}
	if err := d.V2Header.Write(w); err != nil {
		return fmt.Errorf("write v2 header: %w", err)
	}
	if err := d.V2Data.Write(w, TimeSize64); err != nil {
		return fmt.Errorf("write v2 data: %w", err)
	}
	if err := d.V2Footer.Write(w); err != nil {
		return fmt.Errorf("write v2 footer: %w", err)
	}
	return nil
}

// DecodeData reads a TZif file from r.
func DecodeData(r io.Reader) (Data, error) {
	var (
		d   Data
		err error
	)
	if d.V1Header, err = ReadHeader(r); err != nil {
		return d, fmt.Errorf("read v1 header: %w", err)
	}
	d.Version = d.V1Header.Version
	if d.V1Data, err = ReadDataBlock(r, d.V1Header, TimeSize32); err != nil {
		return d, fmt.Errorf("read v1 data block: %w", err)
	}
	if d.Version == V1 {
		return d, nil
	}
	if d.V2Header, err = ReadHeader(r); err != nil {
		return d, fmt.Errorf("read v2 header: %w", err)
	}
	if d.V2Data, err = ReadDataBlock(r, d.V2Header, TimeSize64); err != nil {
		return d, fmt.Errorf("read v2 data block: %w", err)
	}
	if d.V2Footer, err = ReadFooter(r); err != nil {
		return d, fmt.Errorf("read footer: %w", err)
	}
	return d, nil
}

// LeapSeconds returns the leap-second records of the most precise data block.
func (d Data) LeapSeconds() []LeapSecondRecord {
	if d.Version == V1 {
		return d.V1Data.LeapSeconds
	}
	return d.V2Data.LeapSeconds
}

// Expiry returns the expiration time of the leap-second table of a version 4
// file. A V4 table expires if its last record repeats the previous correction.
func (d Data) Expiry() (int64, bool) {
	leaps := d.LeapSeconds()
	if d.Version < V4 || len(leaps) < 2 {
		return 0, false
	}
	last, prev := leaps[len(leaps)-1], leaps[len(leaps)-2]
	if last.Corr != prev.Corr {
		return 0, false
	}
	return last.Occur, true
}

// UTC returns a file describing UTC with the given leap seconds, like the
// right/UTC file of a zoneinfo installation. Leap seconds that do not fit
// into 32 bits are left out of the version 1 block.
func UTC(v Version, leaps []LeapSecondRecord) Data {
	block := func(fits func(int64) bool) DataBlock {
		b := DataBlock{
			LocalTimeTypes: []LocalTimeType{{Utoff: 0, Dst: false, Idx: 0}},
			Designations:   []byte("UTC\x00"),
			StandardWall:   []bool{false},
			UTLocal:        []bool{false},
		}
		for _, l := range leaps {
			if fits(l.Occur) {
				b.LeapSeconds = append(b.LeapSeconds, l)
			}
		}
		return b
	}
	d := Data{Version: v}
	d.V1Data = block(func(t int64) bool { return t == int64(int32(t)) })
	d.V1Header = HeaderFor(v, d.V1Data)
	if v != V1 {
		d.V2Data = block(func(int64) bool { return true })
		d.V2Header = HeaderFor(v, d.V2Data)
		d.V2Footer = Footer{TZString: []byte("UTC0")}
	}
	return d
}
