package bridge

import (
	"encoding/json"

	"homehub/device"
	"homehub/presence"

	"github.com/sirupsen/logrus"
)

// StateHandler returns a bus handler for one device's state topic. It
// merges each state event into the registry entry and marks the device as
// seen.
func StateHandler(registry *device.Registry, tracker *presence.Tracker, id string) func(topic string, payload []byte) {
	log := logrus.WithField("component", "state")

	return func(_ string, payload []byte) {
		var attrs map[string]interface{}
		if err := json.Unmarshal(payload, &attrs); err != nil {
			log.Warnf("Discarding state update for %s: %v", id, err)
			return
		}

		if err := registry.SetState(id, attrs); err != nil {
			log.Warnf("State update for %s: %v", id, err)
			return
		}

		tracker.Seen(id)
	}
}
