package api

import "github.com/r3labs/sse/v2"

const stream = "events"

// NewEvents creates the server-sent event stream behind /events.
func NewEvents() *sse.Server {
	events := sse.New()
	events.AutoReplay = false
	events.CreateStream(stream)

	return events
}

// EventPublisher mirrors every bus publish onto the event stream so
// browser clients can watch hub traffic live.
type EventPublisher struct {
	Bus    Publisher
	Events *sse.Server
}

func (p *EventPublisher) Publish(topic string, payload []byte) error {
	if p.Events != nil {
		p.Events.Publish(stream, &sse.Event{Event: []byte(topic), Data: payload})
	}

	return p.Bus.Publish(topic, payload)
}
