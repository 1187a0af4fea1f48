package locate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/questmap/geoquest/internal/geo"
)

// TraceFix is one recorded fix in a trace file. OffsetMs is relative to the
// start of the recording.
type TraceFix struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy"`
	OffsetMs int64   `json:"offsetMs"`
}

// TraceSource replays a recorded fix sequence, honoring the recorded
// intervals scaled by Speed (2 = twice as fast). Speed <= 0 replays with no
// delay at all, which is what the unit tests want.
type TraceSource struct {
	Fixes []TraceFix
	Speed float64
}

// LoadTrace reads a JSON trace file: an array of {lat, lng, accuracy,
// offsetMs} objects.
func LoadTrace(path string, speed float64) (*TraceSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	var fixes []TraceFix
	if err := json.Unmarshal(data, &fixes); err != nil {
		return nil, fmt.Errorf("parsing trace: %w", err)
	}
	if len(fixes) == 0 {
		return nil, fmt.Errorf("trace %s contains no fixes", path)
	}
	return &TraceSource{Fixes: fixes, Speed: speed}, nil
}

func (t *TraceSource) Watch(ctx context.Context, _ Options) (<-chan geo.Position, error) {
	out := make(chan geo.Position)

	go func() {
		defer close(out)

		var prevOffset int64
		for _, fix := range t.Fixes {
			if wait := t.delay(fix.OffsetMs - prevOffset); wait > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(wait):
				}
			}
			prevOffset = fix.OffsetMs

			pos := geo.Position{
				Lat:       fix.Lat,
				Lng:       fix.Lng,
				Accuracy:  fix.Accuracy,
				Timestamp: time.Now(),
			}
			select {
			case <-ctx.Done():
				return
			case out <- pos:
			}
		}
	}()

	return out, nil
}

func (t *TraceSource) delay(deltaMs int64) time.Duration {
	if t.Speed <= 0 || deltaMs <= 0 {
		return 0
	}
	return time.Duration(float64(deltaMs)/t.Speed) * time.Millisecond
}
