package api

import (
	"encoding/json"
	"net/http"

	"homehub/device"
	"homehub/presence"

	"github.com/sirupsen/logrus"
)

// Publisher is the outbound half of the bus connection.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Handler serves the inbound HTTP surface: a wildcard endpoint that
// forwards matched requests onto the bus, plus a read-only device
// overview.
type Handler struct {
	registry *device.Registry
	bus      Publisher
	tracker  *presence.Tracker
	topic    string
	log      *logrus.Entry
}

func NewHandler(registry *device.Registry, bus Publisher, tracker *presence.Tracker, topic string, log *logrus.Entry) *Handler {
	return &Handler{
		registry: registry,
		bus:      bus,
		tracker:  tracker,
		topic:    topic,
		log:      log,
	}
}

// Forward matches any GET or POST against the registry. On a hit the
// request body is annotated with its origin and republished; the caller
// gets the command's ack, or 204 if it has none. On a miss the caller
// gets a plain 404.
func (h *Handler) Forward(w http.ResponseWriter, r *http.Request) {
	match, ok := h.registry.Match(r.URL.Path, r.Method)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	h.log.Debugf("Matched %s %s to %s/%s", r.Method, r.URL.Path, match.DeviceID, match.CommandID)

	// A missing or undecodable body is forwarded as an empty object.
	body := make(map[string]interface{})
	var decoded map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&decoded); err == nil && decoded != nil {
		body = decoded
	}

	body["location"] = map[string]string{
		"device_id":  match.DeviceID,
		"command_id": match.CommandID,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		h.log.Errorf("Failed to serialize forwarded request: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	// Publish failures are logged but still acked; delivery retries are
	// the bus client's business.
	if err := h.bus.Publish(h.topic, payload); err != nil {
		h.log.Errorf("Failed to forward %s %s: %v", r.Method, r.URL.Path, err)
	}

	if match.Ack != nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(match.Ack)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Status is one row of the device overview.
type Status struct {
	ID       string          `json:"device_id"`
	Name     string          `json:"device_name"`
	Protocol device.Protocol `json:"protocol"`
	Online   bool            `json:"online"`
}

func (h *Handler) Devices(w http.ResponseWriter, _ *http.Request) {
	devices := h.registry.List()

	statuses := make([]Status, 0, len(devices))
	for _, d := range devices {
		statuses = append(statuses, Status{
			ID:       d.ID,
			Name:     d.Name,
			Protocol: d.Protocol,
			Online:   h.tracker.Online(d.ID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statuses)
}
