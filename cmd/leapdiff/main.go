// Command leapdiff compares the leap-second tables of two TZif or
// leapseconds files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/ngrash/leaptime/leapsec"
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
	if len(args) != 2 {
		return fmt.Errorf("Usage: leapdiff <leap file A> <leap file B>\n")
	}

	a, err := read(args[0])
	if err != nil {
		return err
	}
	b, err := read(args[1])
	if err != nil {
		return err
	}

	if diff := cmp.Diff(a.Segments(), b.Segments()); diff != "" {
		fmt.Println("segments are different: -A +B")
		fmt.Println(diff)
	} else {
		fmt.Println("segments are identical")
	}

	aexp, aok := a.Expires()
	bexp, bok := b.Expires()
	if aexp != bexp || aok != bok {
		fmt.Printf("expiry differs: A %d (%v), B %d (%v)\n", aexp, aok, bexp, bok)
	}
	return nil
}

func read(path string) (*leapsec.Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := leapsec.Read(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
