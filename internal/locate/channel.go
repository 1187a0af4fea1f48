package locate

import (
	"context"

	"github.com/questmap/geoquest/internal/geo"
)

// ChannelSource is a push-fed Source: whatever transports the device fixes
// (the websocket tracking bridge, a test) pushes them in, and the watch side
// receives them with ordinary Source semantics.
type ChannelSource struct {
	in chan geo.Position
}

func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{in: make(chan geo.Position, buffer)}
}

// Push feeds a fix to the watcher. It reports false once the given context
// is done, so a producer can stop cleanly when the session goes away.
func (c *ChannelSource) Push(ctx context.Context, pos geo.Position) bool {
	select {
	case <-ctx.Done():
		return false
	case c.in <- pos:
		return true
	}
}

// Close ends the stream; the watch channel closes after draining.
func (c *ChannelSource) Close() {
	close(c.in)
}

func (c *ChannelSource) Watch(ctx context.Context, _ Options) (<-chan geo.Position, error) {
	out := make(chan geo.Position)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case pos, ok := <-c.in:
				if !ok {
					return
				}
				select {
				case <-ctx.Done():
					return
				case out <- pos:
				}
			}
		}
	}()

	return out, nil
}
