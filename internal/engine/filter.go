package engine

import (
	"github.com/questmap/geoquest/internal/geo"
)

const (
	// maxAccuracyMeters is the accuracy gate: once a fix exists, noisier
	// samples no longer move the reported position.
	maxAccuracyMeters = 60.0

	// minRedrawMeters is the movement gate: smaller moves update the
	// position but are not worth a marker redraw.
	minRedrawMeters = 3.0
)

// SampleVerdict says what an incoming raw sample is allowed to do.
// Proximity evaluation is not gated here at all: it runs on every raw
// sample, whatever the verdict, so a brief accurate pass through a small
// radius is never missed.
type SampleVerdict struct {
	UpdatePosition bool
	Redraw         bool
}

// FilterSample applies the noise gates to a raw sample given the previous
// accepted position. The first-ever sample is always accepted regardless of
// accuracy.
func FilterSample(prev *geo.Position, raw geo.Position) SampleVerdict {
	if prev == nil {
		return SampleVerdict{UpdatePosition: true, Redraw: true}
	}

	if raw.Accuracy > maxAccuracyMeters {
		return SampleVerdict{}
	}

	if geo.Between(*prev, raw) < minRedrawMeters {
		return SampleVerdict{UpdatePosition: true}
	}

	return SampleVerdict{UpdatePosition: true, Redraw: true}
}
