package executor

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"homehub/device"

	"github.com/sirupsen/logrus"
)

// Publisher is the outbound half of the bus connection.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Executor performs the single outbound call described by an action.
// Failures never escape as errors; they come back as error-shaped
// results. No retries happen here, that is the bus client's business.
type Executor struct {
	client *http.Client
	bus    Publisher
	log    *logrus.Entry
}

// A stalled device must not block the bridge loop forever.
const requestTimeout = 10 * time.Second

func New(bus Publisher, log *logrus.Entry) *Executor {
	return &Executor{
		client: &http.Client{Timeout: requestTimeout},
		bus:    bus,
		log:    log,
	}
}

func (e *Executor) Send(action device.Action) Result {
	switch {
	case action.HTTP != nil:
		return e.sendHTTP(action.HTTP)
	case action.Bus != nil:
		return e.sendBus(action.Bus)
	}

	return Errorf("Nothing to send")
}

func (e *Executor) sendHTTP(a *device.HTTPAction) Result {
	method := strings.ToUpper(a.Method)
	if method != http.MethodGet && method != http.MethodPost {
		return Errorf("Unsupported method: %s", a.Method)
	}

	var body io.Reader
	if method == http.MethodPost && a.Body != nil {
		b, err := json.Marshal(a.Body)
		if err != nil {
			return Errorf("Transport error: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, a.URL, body)
	if err != nil {
		return Errorf("Transport error: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Command headers override any defaults
	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Warnf("%s %s failed: %v", method, a.URL, err)
		return Errorf("Transport error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{Error: "Request failed", Status: resp.StatusCode}
	}

	var decoded interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{Error: "No structured body", Status: resp.StatusCode}
	}

	return Result{Body: decoded, Status: resp.StatusCode}
}

// sendBus publishes the payload and returns immediately; bus-native
// devices have no response channel to wait on.
func (e *Executor) sendBus(a *device.BusAction) Result {
	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return Errorf("Transport error: %v", err)
	}

	if err := e.bus.Publish(a.Topic, payload); err != nil {
		return Errorf("Transport error: %v", err)
	}

	return Result{Body: map[string]interface{}{"result": "sent"}}
}
