package leapsec

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Loader caches the table of a Source. Readers get the current table without
// locking; Refresh loads a new table and swaps it in, leaving tables already
// handed out untouched. Concurrent loads share a single call to the source.
type Loader struct {
	source  Source
	group   singleflight.Group
	current atomic.Pointer[Table]
}

// NewLoader returns a loader for src. Nothing is loaded until the first call
// to Table or Refresh.
func NewLoader(src Source) *Loader {
	return &Loader{source: src}
}

// Table returns the cached table, loading it first if necessary.
func (l *Loader) Table(ctx context.Context) (*Table, error) {
	if t := l.current.Load(); t != nil {
		return t, nil
	}
	return l.load(ctx)
}

// Refresh loads the table from the source and replaces the cached one.
// On error the cached table is kept.
func (l *Loader) Refresh(ctx context.Context) (*Table, error) {
	return l.load(ctx)
}

func (l *Loader) load(ctx context.Context) (*Table, error) {
	v, err, _ := l.group.Do("load", func() (any, error) {
		t, err := l.source.Load(ctx)
		if err != nil {
			return nil, err
		}
		l.current.Store(t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}
