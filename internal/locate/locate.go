// Package locate models the device location watch as a cancellable
// subscription: a Source hands out a channel of fixes bound to a context,
// and cancelling the context is the only way to stop it. No watcher may
// outlive its context — stacked watchers across view remounts are a known
// bug class and the tests check for it.
package locate

import (
	"context"
	"errors"

	"github.com/questmap/geoquest/internal/geo"
)

// ErrPermissionDenied means the user refused location access. Fatal to live
// tracking: callers fall back to a static default location and must not
// retry in a tight loop.
var ErrPermissionDenied = errors.New("location permission denied")

// Options tune a watch request. Lower accuracy is the degraded retry mode
// after a high-accuracy request times out.
type Options struct {
	HighAccuracy bool
}

// Source is a stream of device fixes. Watch returns a channel that delivers
// fixes until the context is cancelled or the source itself ends, at which
// point the channel is closed.
type Source interface {
	Watch(ctx context.Context, opts Options) (<-chan geo.Position, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, opts Options) (<-chan geo.Position, error)

func (f SourceFunc) Watch(ctx context.Context, opts Options) (<-chan geo.Position, error) {
	return f(ctx, opts)
}
