package server

import (
	"encoding/json"
	"sync"

	"github.com/questmap/geoquest/internal/engine"
)

// TrackEvent is the payload pushed to tracking subscribers.
type TrackEvent struct {
	Type     string  `json:"type"`
	TaskID   string  `json:"taskId,omitempty"`
	Distance float64 `json:"distance,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
}

func arrivalEvent(ev engine.ArrivalEvent) TrackEvent {
	return TrackEvent{Type: "arrival", TaskID: ev.TaskID, Distance: ev.Distance}
}

// Broker is an in-process pub/sub for tracking events, keyed by username.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded tracking events
// for the given user.
func (b *Broker) Subscribe(username string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[username] == nil {
		b.subs[username] = make(map[chan []byte]struct{})
	}
	b.subs[username][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the user's subscribers.
func (b *Broker) Unsubscribe(username string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[username], ch)
	if len(b.subs[username]) == 0 {
		delete(b.subs, username)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given user.
func (b *Broker) Publish(username string, event TrackEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[username] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
