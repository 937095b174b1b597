package executor

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"homehub/device"

	"github.com/sirupsen/logrus"
)

func testLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logrus.NewEntry(logger)
}

type fakeBus struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakeBus) Publish(topic string, payload []byte) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)

	return f.err
}

func TestSendHTTPSuccess(t *testing.T) {
	var gotMethod, gotContentType, gotToken string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotToken = r.Header.Get("X-Token")
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"result": "Light turned on"}`)
	}))
	defer srv.Close()

	e := New(&fakeBus{}, testLog())
	result := e.Send(device.Action{
		Protocol: device.REST,
		HTTP: &device.HTTPAction{
			Method:  "POST",
			URL:     srv.URL,
			Headers: map[string]string{"X-Token": "abc"},
			Body:    map[string]interface{}{"state": "on"},
		},
	})

	if !result.OK() {
		t.Fatalf("unexpected error result: %+v", result)
	}
	if gotMethod != "POST" || gotContentType != "application/json" || gotToken != "abc" {
		t.Errorf("request not built from the action: %s %s %s", gotMethod, gotContentType, gotToken)
	}
	if strings.TrimSpace(string(gotBody)) != `{"state":"on"}` {
		t.Errorf("unexpected body: %s", gotBody)
	}

	want := map[string]interface{}{"result": "Light turned on"}
	if !reflect.DeepEqual(result.Body, want) {
		t.Errorf("expected the decoded body verbatim, got %v", result.Body)
	}
}

func TestSendHTTPRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := New(&fakeBus{}, testLog())
	result := e.Send(device.Action{HTTP: &device.HTTPAction{Method: "GET", URL: srv.URL}})

	if result.Error != "Request failed" || result.Status != http.StatusInternalServerError {
		t.Errorf("expected a request-failed result with status 500, got %+v", result)
	}
}

func TestSendHTTPNoStructuredBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "OK")
	}))
	defer srv.Close()

	e := New(&fakeBus{}, testLog())
	result := e.Send(device.Action{HTTP: &device.HTTPAction{Method: "GET", URL: srv.URL}})

	if result.Error != "No structured body" || result.Status != http.StatusOK {
		t.Errorf("expected a no-structured-body result carrying 200, got %+v", result)
	}
}

func TestSendHTTPUnsupportedMethod(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	e := New(&fakeBus{}, testLog())
	result := e.Send(device.Action{HTTP: &device.HTTPAction{Method: "DELETE", URL: srv.URL}})

	if !strings.HasPrefix(result.Error, "Unsupported method") {
		t.Errorf("expected an unsupported-method result, got %+v", result)
	}
	if called {
		t.Error("no call may go out for an unsupported method")
	}
}

func TestSendHTTPTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	e := New(&fakeBus{}, testLog())
	result := e.Send(device.Action{HTTP: &device.HTTPAction{Method: "GET", URL: srv.URL}})

	if !strings.HasPrefix(result.Error, "Transport error") {
		t.Errorf("expected a transport-error result, got %+v", result)
	}
}

func TestSendBus(t *testing.T) {
	bus := &fakeBus{}
	e := New(bus, testLog())

	cmd := device.Command{Payload: map[string]interface{}{"state": "ON"}}
	result := e.Send(device.Action{
		Protocol: device.MQTT,
		Bus:      &device.BusAction{Topic: "home/lights/1/set", Payload: cmd},
	})

	if !result.OK() {
		t.Fatalf("unexpected error result: %+v", result)
	}
	if len(bus.topics) != 1 || bus.topics[0] != "home/lights/1/set" {
		t.Fatalf("expected one publish to the device topic, got %v", bus.topics)
	}

	var published map[string]interface{}
	if err := json.Unmarshal(bus.payloads[0], &published); err != nil {
		t.Fatal(err)
	}
	payload, ok := published["payload"].(map[string]interface{})
	if !ok || payload["state"] != "ON" {
		t.Errorf("expected the command definition on the wire, got %s", bus.payloads[0])
	}
}

func TestSendBusPublishError(t *testing.T) {
	bus := &fakeBus{err: io.ErrClosedPipe}
	e := New(bus, testLog())

	result := e.Send(device.Action{Bus: &device.BusAction{Topic: "t", Payload: "x"}})
	if !strings.HasPrefix(result.Error, "Transport error") {
		t.Errorf("expected a transport-error result, got %+v", result)
	}
}

func TestResultMarshal(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{
			name:   "success is the body verbatim",
			result: Result{Body: map[string]interface{}{"result": "Light turned on"}, Status: 200},
			want:   `{"result":"Light turned on"}`,
		},
		{
			name:   "error without status",
			result: Result{Error: "Command not found"},
			want:   `{"error":"Command not found"}`,
		},
		{
			name:   "error with status",
			result: Result{Error: "Request failed", Status: 503},
			want:   `{"error":"Request failed","status":503}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.result)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
