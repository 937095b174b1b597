package bridge

import (
	"context"
	"encoding/json"

	"homehub/device"
	"homehub/executor"

	"github.com/sirupsen/logrus"
)

// Publisher is the outbound half of the bus connection.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Bridge interprets hub messages from the input topic and publishes every
// action's result envelope to the output topic. Messages go through a
// single queue so they are processed one at a time, in arrival order.
type Bridge struct {
	registry *device.Registry
	exec     *executor.Executor
	bus      Publisher
	output   string
	queue    chan []byte
	log      *logrus.Entry

	// OnDevice runs after every successful registration, outside the
	// registry lock. Used to hook up state subscriptions for new devices.
	OnDevice func(d device.Device)
}

func New(registry *device.Registry, exec *executor.Executor, bus Publisher, output string, log *logrus.Entry) *Bridge {
	return &Bridge{
		registry: registry,
		exec:     exec,
		bus:      bus,
		output:   output,
		queue:    make(chan []byte, 16),
		log:      log,
	}
}

// Handle enqueues a raw bus message. Bind this to the input topic
// subscription.
func (b *Bridge) Handle(_ string, payload []byte) {
	b.queue <- payload
}

// Run drains the queue until ctx is done.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-b.queue:
			b.process(payload)
		}
	}
}

type message struct {
	AddDevice    map[string]device.Definition `json:"addDevice"`
	RemoveDevice string                       `json:"removeDevice"`
	Action       *action                      `json:"action"`
}

type action struct {
	DeviceID  string      `json:"device_id"`
	CommandID string      `json:"command_id"`
	Payload   interface{} `json:"payload,omitempty"`
}

func (b *Bridge) process(payload []byte) {
	var msg message
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.log.Warnf("Discarding malformed message: %v", err)
		return
	}

	switch {
	case msg.AddDevice != nil:
		b.register(msg.AddDevice)
	case msg.RemoveDevice != "":
		b.registry.Remove(msg.RemoveDevice)
	case msg.Action != nil:
		b.handleAction(msg.Action)
	default:
		b.log.Warnf("Discarding unknown message: %s", payload)
	}
}

// register upserts every entry of an addDevice message. A bad entry is
// skipped, the rest still go through.
func (b *Bridge) register(defs map[string]device.Definition) {
	for id, def := range defs {
		if err := b.registry.Upsert(id, def); err != nil {
			b.log.Warnf("Skipping device %s: %v", id, err)
			continue
		}

		if b.OnDevice != nil {
			if d, ok := b.registry.Get(id); ok {
				b.OnDevice(d)
			}
		}
	}
}

func (b *Bridge) handleAction(a *action) {
	act, err := b.registry.Resolve(a.DeviceID, a.CommandID, a.Payload)
	if err != nil {
		b.log.Warnf("Action %s/%s: %v", a.DeviceID, a.CommandID, err)
		b.publish(executor.Result{Error: err.Error()})
		return
	}

	b.publish(b.exec.Send(act))
}

func (b *Bridge) publish(result executor.Result) {
	payload, err := json.Marshal(result)
	if err != nil {
		b.log.Errorf("Failed to serialize result: %v", err)
		return
	}

	if err := b.bus.Publish(b.output, payload); err != nil {
		b.log.Errorf("Failed to publish result: %v", err)
	}
}
