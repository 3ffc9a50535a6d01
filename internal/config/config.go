// Package config loads the YAML configuration shared by the leaptime
// commands.
//
// A complete configuration file looks like this:
//
//	leap_seconds:
//	  source: file       # embedded, file, system or iana
//	  path: ./leapseconds # file path for file, zoneinfo directory for system
//	  format: auto       # auto, tzif or leapfile
//	  timeout: 30s       # download timeout for iana
//	policy: assume-none  # assume-none or strict
//	smearing: false
//
// Missing keys keep the values of Default.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ngrash/leaptime/iso8601"
	"github.com/ngrash/leaptime/leapsec"
	"github.com/ngrash/leaptime/tzdb/ianadist"
	"gopkg.in/yaml.v3"
)

// Leap-second sources.
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceSystem   = "system"
	SourceIANA     = "iana"
)

// File formats of SourceFile.
const (
	FormatAuto     = "auto"
	FormatTZif     = "tzif"
	FormatLeapFile = "leapfile"
)

type LeapSeconds struct {
	Source  string        `yaml:"source"`
	Path    string        `yaml:"path"`
	Format  string        `yaml:"format"`
	Timeout time.Duration `yaml:"timeout"`
}

type Config struct {
	LeapSeconds LeapSeconds `yaml:"leap_seconds"`
	Policy      string      `yaml:"policy"`
	Smearing    bool        `yaml:"smearing"`
}

// Default returns the configuration used when no file is given: the
// embedded table without leap seconds after it.
func Default() Config {
	return Config{
		LeapSeconds: LeapSeconds{
			Source:  SourceEmbedded,
			Format:  FormatAuto,
			Timeout: 30 * time.Second,
		},
		Policy: iso8601.PolicyAssumeNoLeapSeconds.String(),
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	c, err := Parse(b)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a configuration. Unknown keys are an error.
func Parse(b []byte) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports all problems of c at once.
func (c Config) Validate() error {
	var errs []error
	ls := c.LeapSeconds
	switch ls.Source {
	case SourceEmbedded, SourceSystem, SourceIANA:
	case SourceFile:
		if ls.Path == "" {
			errs = append(errs, errors.New("leap_seconds.path is required for source file"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown leap_seconds.source %q", ls.Source))
	}
	switch ls.Format {
	case FormatAuto, FormatTZif, FormatLeapFile:
	default:
		errs = append(errs, fmt.Errorf("unknown leap_seconds.format %q", ls.Format))
	}
	if ls.Timeout < 0 {
		errs = append(errs, fmt.Errorf("negative leap_seconds.timeout %v", ls.Timeout))
	}
	if _, err := c.policy(); err != nil {
		errs = append(errs, err)
	}
	if c.Smearing {
		errs = append(errs, iso8601.ErrSmearingUnsupported)
	}
	return errors.Join(errs...)
}

func (c Config) policy() (iso8601.Policy, error) {
	for _, p := range []iso8601.Policy{iso8601.PolicyAssumeNoLeapSeconds, iso8601.PolicyStrict} {
		if p.String() == c.Policy {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown policy %q", c.Policy)
}

// Source returns the leap-second source c describes.
func (c Config) Source() (leapsec.Source, error) {
	ls := c.LeapSeconds
	switch ls.Source {
	case SourceEmbedded:
		return leapsec.EmbeddedSource{}, nil
	case SourceFile:
		format := leapsec.FormatAuto
		switch ls.Format {
		case FormatTZif:
			format = leapsec.FormatTZif
		case FormatLeapFile:
			format = leapsec.FormatLeapFile
		}
		return leapsec.FileSource{Path: ls.Path, Format: format}, nil
	case SourceSystem:
		return leapsec.SystemSource{TZDir: ls.Path}, nil
	case SourceIANA:
		client := &ianadist.Client{HTTPClient: &http.Client{Timeout: ls.Timeout}}
		return leapsec.NewIANASource(client), nil
	}
	return nil, fmt.Errorf("unknown leap_seconds.source %q", ls.Source)
}

// ChronologyOptions returns the options for iso8601.NewChronology.
func (c Config) ChronologyOptions() ([]iso8601.Option, error) {
	p, err := c.policy()
	if err != nil {
		return nil, err
	}
	return []iso8601.Option{iso8601.WithPolicy(p), iso8601.WithSmearing(c.Smearing)}, nil
}

// Chronology loads the leap-second table and returns a chronology for it.
func (c Config) Chronology(ctx context.Context) (*iso8601.Chronology, error) {
	src, err := c.Source()
	if err != nil {
		return nil, err
	}
	table, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load leap seconds: %w", err)
	}
	opts, err := c.ChronologyOptions()
	if err != nil {
		return nil, err
	}
	return iso8601.NewChronology(table, opts...)
}

// Refresher keeps the default chronology of iso8601 in step with the
// configured leap-second source.
type Refresher struct {
	loader *leapsec.Loader
	opts   []iso8601.Option
}

// Refresher returns a refresher for c. Nothing is loaded until the first
// call to Refresh.
func (c Config) Refresher() (*Refresher, error) {
	src, err := c.Source()
	if err != nil {
		return nil, err
	}
	opts, err := c.ChronologyOptions()
	if err != nil {
		return nil, err
	}
	return &Refresher{loader: leapsec.NewLoader(src), opts: opts}, nil
}

// Refresh reloads the leap-second table and installs a chronology for it as
// the default. Concurrent calls share one load. On error the default is left
// unchanged.
func (r *Refresher) Refresh(ctx context.Context) (*iso8601.Chronology, error) {
	table, err := r.loader.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("load leap seconds: %w", err)
	}
	chron, err := iso8601.NewChronology(table, r.opts...)
	if err != nil {
		return nil, err
	}
	iso8601.SetDefault(chron)
	return chron, nil
}
