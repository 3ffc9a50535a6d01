// Package tzif reads and writes the TZif file format according to RFC 8536.
// https://datatracker.ietf.org/doc/html/rfc8536
//
// The package is used to obtain leap-second tables, such as the one stored in
// right/UTC of a zoneinfo installation. Both data blocks of a file are
// represented by the same DataBlock type with 64-bit times. Values of the
// version 1 block are widened on read and narrowed on write.
package tzif

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// All multi-octet integers are big-endian two's complement.
var order = binary.BigEndian

// Version is the version octet of a TZif header.
type Version byte

const (
	// V1 files contain only the 32-bit header and data block.
	V1 Version = 0x00
	// V2 files add a 64-bit header, data block and a footer with a POSIX TZ string.
	V2 Version = 0x32
	// V3 files may use the TZ string extensions of RFC 8536 section 3.3.1.
	V3 Version = 0x33
	// V4 files may truncate the leap-second table at the start and may mark
	// the expiration of the table with a final record whose correction
	// equals the previous one (see tzfile(5)).
	V4 Version = 0x34
)

func (v Version) String() string {
	switch v {
	case V1:
		return "V1 (0x00)"
	case V2:
		return "V2 (0x32)"
	case V3:
		return "V3 (0x33)"
	case V4:
		return "V4 (0x34)"
	default:
		return fmt.Sprintf("<undefined version (%d)>", v)
	}
}

// TimeSize is the width in octets of time values in a data block.
type TimeSize int

const (
	TimeSize32 TimeSize = 4
	TimeSize64 TimeSize = 8
)

// Magic identifies a TZif file.
var Magic = [4]byte{'T', 'Z', 'i', 'f'}

// Header precedes each data block.
//
//	+---------------+---+
//	|  magic    (4) |ver|
//	+---------------+---+---------------------------------------+
//	|           [unused - reserved for future use] (15)         |
//	+---------------+---------------+---------------+-----------+
//	|  isutcnt  (4) |  isstdcnt (4) |  leapcnt  (4) |
//	+---------------+---------------+---------------+
//	|  timecnt  (4) |  typecnt  (4) |  charcnt  (4) |
//	+---------------+---------------+---------------+
type Header struct {
	Version  Version
	Reserved [15]byte
	Isutcnt  uint32 // UT/local indicators, zero or typecnt
	Isstdcnt uint32 // standard/wall indicators, zero or typecnt
	Leapcnt  uint32 // leap-second records
	Timecnt  uint32 // transition times
	Typecnt  uint32 // local time type records, never zero
	Charcnt  uint32 // octets of time zone designations, never zero
}

// HeaderFor returns the header describing b.
func HeaderFor(v Version, b DataBlock) Header {
	return Header{
		Version:  v,
		Isutcnt:  uint32(len(b.UTLocal)),
		Isstdcnt: uint32(len(b.StandardWall)),
		Leapcnt:  uint32(len(b.LeapSeconds)),
		Timecnt:  uint32(len(b.TransitionTimes)),
		Typecnt:  uint32(len(b.LocalTimeTypes)),
		Charcnt:  uint32(len(b.Designations)),
	}
}

// Write writes the magic followed by h to w.
func (h Header) Write(w io.Writer) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	return binary.Write(w, order, h)
}

// ReadHeader reads a header including its magic.
func ReadHeader(r io.Reader) (Header, error) {
	var (
		h     Header
		magic [4]byte
	)
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return h, fmt.Errorf("reading magic: %w", err)
	}
	if !bytes.Equal(magic[:], Magic[:]) {
		return h, fmt.Errorf("invalid magic: %v", magic)
	}
	if err := binary.Read(r, order, &h); err != nil {
		return h, fmt.Errorf("reading header fields: %w", err)
	}
	return h, nil
}

// LeapSecondRecord gives the value of LEAPCORR from Occur on.
//
//	+---------------+---------------+
//	|  occur (TIME_SIZE)  |  corr (4) |
//	+---------------+---------------+
type LeapSecondRecord struct {
	// Occur is the UNIX leap time of the correction. The first value must
	// be nonnegative and each later value at least 2419199 greater than
	// the previous one.
	Occur int64
	// Corr is the total correction from Occur on.
	Corr int32
}

// LocalTimeType is a six-octet local time type record.
//
//	+---------------+---+---+
//	|  utoff (4)    |dst|idx|
//	+---------------+---+---+
type LocalTimeType struct {
	Utoff int32
	Dst   bool
	Idx   uint8
}

// DataBlock holds the contents of a version 1 or version 2+ data block.
//
//	+---------------------------------------------------------+
//	|  transition times          (timecnt x TIME_SIZE)        |
//	|  transition types          (timecnt)                    |
//	|  local time type records   (typecnt x 6)                |
//	|  time zone designations    (charcnt)                    |
//	|  leap-second records       (leapcnt x (TIME_SIZE + 4))  |
//	|  standard/wall indicators  (isstdcnt)                   |
//	|  UT/local indicators       (isutcnt)                    |
//	+---------------------------------------------------------+
type DataBlock struct {
	TransitionTimes []int64
	TransitionTypes []uint8
	LocalTimeTypes  []LocalTimeType
	Designations    []byte
	LeapSeconds     []LeapSecondRecord
	StandardWall    []bool
	UTLocal         []bool
}

// ReadDataBlock reads the data block described by h with time values of the given size.
func ReadDataBlock(r io.Reader, h Header, size TimeSize) (DataBlock, error) {
	var b DataBlock
	if size != TimeSize32 && size != TimeSize64 {
		return b, fmt.Errorf("invalid time size %d", size)
	}
	var err error
	if b.TransitionTimes, err = readTimes(r, int(h.Timecnt), size); err != nil {
		return b, fmt.Errorf("reading transition times: %w", err)
	}
	if b.TransitionTypes, err = readN[uint8](r, h.Timecnt); err != nil {
		return b, fmt.Errorf("reading transition types: %w", err)
	}
	if b.LocalTimeTypes, err = readN[LocalTimeType](r, h.Typecnt); err != nil {
		return b, fmt.Errorf("reading local time type records: %w", err)
	}
	if b.Designations, err = readN[byte](r, h.Charcnt); err != nil {
		return b, fmt.Errorf("reading time zone designations: %w", err)
	}
	if h.Leapcnt > 0 {
		b.LeapSeconds = make([]LeapSecondRecord, h.Leapcnt)
		for i := range b.LeapSeconds {
			times, err := readTimes(r, 1, size)
			if err != nil {
				return b, fmt.Errorf("reading leap second record %d: %w", i, err)
			}
			b.LeapSeconds[i].Occur = times[0]
			if err := binary.Read(r, order, &b.LeapSeconds[i].Corr); err != nil {
				return b, fmt.Errorf("reading leap second record %d: %w", i, err)
			}
		}
	}
	if b.StandardWall, err = readN[bool](r, h.Isstdcnt); err != nil {
		return b, fmt.Errorf("reading standard/wall indicators: %w", err)
	}
	if b.UTLocal, err = readN[bool](r, h.Isutcnt); err != nil {
		return b, fmt.Errorf("reading UT/local indicators: %w", err)
	}
	return b, nil
}

// readN reads n fixed-size values. It returns nil for n == 0.
func readN[T any](r io.Reader, n uint32) ([]T, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]T, n)
	if err := binary.Read(r, order, s); err != nil {
		return nil, err
	}
	return s, nil
}

func readTimes(r io.Reader, n int, size TimeSize) ([]int64, error) {
	if n == 0 {
		return nil, nil
	}
	if size == TimeSize64 {
		return readN[int64](r, uint32(n))
	}
	narrow, err := readN[int32](r, uint32(n))
	if err != nil {
		return nil, err
	}
	times := make([]int64, n)
	for i, t := range narrow {
		times[i] = int64(t)
	}
	return times, nil
}

// Write writes b with time values of the given size. Writing a time that
// does not fit into 32 bits to a version 1 block is an error.
func (b DataBlock) Write(w io.Writer, size TimeSize) error {
	if err := writeTimes(w, b.TransitionTimes, size); err != nil {
		return fmt.Errorf("writing transition times: %w", err)
	}
	if err := binary.Write(w, order, b.TransitionTypes); err != nil {
		return err
	}
	if err := binary.Write(w, order, b.LocalTimeTypes); err != nil {
		return err
	}
	if _, err := w.Write(b.Designations); err != nil {
		return err
	}
	for i, l := range b.LeapSeconds {
		if err := writeTimes(w, []int64{l.Occur}, size); err != nil {
			return fmt.Errorf("writing leap second record %d: %w", i, err)
		}
		if err := binary.Write(w, order, l.Corr); err != nil {
			return err
		}
	}
	if err := binary.Write(w, order, b.StandardWall); err != nil {
		return err
	}
	return binary.Write(w, order, b.UTLocal)
}

func writeTimes(w io.Writer, times []int64, size TimeSize) error {
	switch size {
	case TimeSize64:
		return binary.Write(w, order, times)
	case TimeSize32:
		narrow := make([]int32, len(times))
		for i, t := range times {
			if t < math.MinInt32 || t > math.MaxInt32 {
				return fmt.Errorf("time %d does not fit into 32 bits", t)
			}
			narrow[i] = int32(t)
		}
		return binary.Write(w, order, narrow)
	default:
		return fmt.Errorf("invalid time size %d", size)
	}
}

// Footer follows the version 2+ data block.
//
//	+---+--------------------+---+
//	| NL|  TZ string (0...)  |NL |
//	+---+--------------------+---+
type Footer struct {
	// TZString is a POSIX TZ string for times after the last transition.
	// It may be empty.
	TZString []byte
}

const newline = '\n'

func (f Footer) Write(w io.Writer) error {
	buf := make([]byte, 0, len(f.TZString)+2)
	buf = append(buf, newline)
	buf = append(buf, f.TZString...)
	buf = append(buf, newline)
	_, err := w.Write(buf)
	return err
}

// ReadFooter reads a footer. It does not read past the closing newline.
func ReadFooter(r io.Reader) (Footer, error) {
	var (
		f   Footer
		buf [1]byte
	)
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return f, fmt.Errorf("reading newline: %w", err)
	}
	if buf[0] != newline {
		return f, fmt.Errorf("expected newline: %v", buf[0])
	}
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return f, fmt.Errorf("reading TZ string: %w", err)
		}
		if buf[0] == newline {
			break
		}
		f.TZString = append(f.TZString, buf[0])
	}
	return f, nil
}
