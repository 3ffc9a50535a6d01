// Command leapinfo prints the leap-second segments of a TZif or leapseconds
// file. Without a file it prints the table of the configured source. With
// -o the table is also compiled into a right/UTC TZif file.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ngrash/leaptime/gregorian"
	"github.com/ngrash/leaptime/internal/config"
	"github.com/ngrash/leaptime/leapsec"
	"github.com/ngrash/leaptime/tzc"
	"github.com/ngrash/leaptime/tzif"
)

var (
	configFlag = flag.String("config", "", "YAML configuration file")
	tzifFlag   = flag.Bool("tzif", false, "Also print the TZif headers and leap-second records")
	outFlag    = flag.String("o", "", "Write the table as a TZif file to this path")
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
	if len(args) > 1 {
		return fmt.Errorf("Usage: leapinfo [-config file] [-tzif] [-o tzif file] [tzif or leapseconds file]\n")
	}

	var table *leapsec.Table
	if len(args) == 1 {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if *tzifFlag && bytes.HasPrefix(b, tzif.Magic[:]) {
			if err := printTZif(b); err != nil {
				return err
			}
		}
		if table, err = leapsec.Read(b); err != nil {
			return err
		}
	} else {
		cfg := config.Default()
		if *configFlag != "" {
			var err error
			if cfg, err = config.Load(*configFlag); err != nil {
				return err
			}
		}
		src, err := cfg.Source()
		if err != nil {
			return err
		}
		if table, err = src.Load(context.Background()); err != nil {
			return err
		}
	}

	printTable(table)

	if *outFlag != "" {
		data, err := tzc.Compile(table)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := data.Encode(&buf); err != nil {
			return err
		}
		if err := os.WriteFile(*outFlag, buf.Bytes(), 0o644); err != nil {
			return err
		}
		fmt.Println("Wrote", data.Version, "file", *outFlag)
	}
	return nil
}

func printTZif(b []byte) error {
	data, err := tzif.DecodeData(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}
	printHeader(data.V1Header)
	if data.Version > tzif.V1 {
		printHeader(data.V2Header)
	}
	leaps := data.LeapSeconds()
	fmt.Printf("LeapSecondRecords (%d)\n", len(leaps))
	for _, r := range leaps {
		fmt.Printf("  occur = %d corr = %d\n", r.Occur, r.Corr)
	}
	if exp, ok := data.Expiry(); ok {
		fmt.Println("  expiry =", exp)
	}
	if err := tzif.Validate(data); err != nil {
		fmt.Println("Validation errors:")
		fmt.Println(err)
	}
	fmt.Println()
	return nil
}

func printHeader(h tzif.Header) {
	fmt.Println("Header")
	fmt.Println("  version =", h.Version)
	fmt.Println("  leapcnt =", h.Leapcnt)
	fmt.Println("  timecnt =", h.Timecnt)
	fmt.Println("  typecnt =", h.Typecnt)
	fmt.Println()
}

func printTable(t *leapsec.Table) {
	fmt.Printf("Segments (%d)\n", t.Len())
	for i, s := range t.Segments() {
		fmt.Printf("  %2d  %v .. %v  days = %-5d  leap = %+d  accumulated = %-2d  start = %d\n",
			i, day(s.StartDay), day(s.LastDay()), s.DurationDays, s.LeapSeconds, s.AccumulatedLeapSeconds, s.StartInstant)
	}
	if exp, ok := t.Expires(); ok {
		fmt.Println("Expires", day(exp))
	} else {
		fmt.Println("Expires never")
	}
}

func day(fixed int64) gregorian.NormalizedDate {
	return gregorian.MustFromDay(fixed)
}
