// Package tzc compiles leap-second tables into TZif files describing UTC
// with leap seconds, the right/UTC file of a zoneinfo installation.
package tzc

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ngrash/leaptime/leapsec"
	"github.com/ngrash/leaptime/tzif"
)

const secondsPerDay = 86400

// ErrExpiryWithoutLeaps is returned for tables that expire but contain no
// leap second. TZif can only express the expiry relative to a preceding
// leap-second record.
var ErrExpiryWithoutLeaps = errors.New("tzc: expiry without leap seconds")

// CompileBytes compiles an IANA leapseconds file into an encoded TZif file.
func CompileBytes(leapFile []byte) ([]byte, error) {
	t, err := leapsec.ReadLeapFile(bytes.NewReader(leapFile))
	if err != nil {
		return nil, err
	}
	data, err := Compile(t)
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	if err := data.Encode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Compile returns the TZif data of t. Tables with an expiry are written as
// version 4 with a trailing expiry record, all others as version 2.
func Compile(t *leapsec.Table) (tzif.Data, error) {
	records := t.Records()
	leaps := make([]tzif.LeapSecondRecord, 0, len(records)+1)
	var prev int32
	for _, r := range records {
		// TZif counts occurrences including the corrections before them.
		leaps = append(leaps, tzif.LeapSecondRecord{Occur: r.Unix + int64(prev), Corr: r.Count})
		prev = r.Count
	}

	v := tzif.V2
	if day, ok := t.Expires(); ok {
		if len(leaps) == 0 {
			return tzif.Data{}, ErrExpiryWithoutLeaps
		}
		v = tzif.V4
		leaps = append(leaps, tzif.LeapSecondRecord{Occur: day*secondsPerDay + int64(prev), Corr: prev})
	}

	data := tzif.UTC(v, leaps)
	if err := tzif.Validate(data); err != nil {
		return tzif.Data{}, fmt.Errorf("compiling leap seconds: invalid tzif: %w", err)
	}
	return data, nil
}
