package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"homehub/api"
	"homehub/bridge"
	"homehub/config"
	"homehub/device"
	"homehub/executor"
	"homehub/integration/mqtt"
	"homehub/integration/ntfy"
	"homehub/presence"

	"github.com/joho/godotenv"
	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
)

// availability fans device online/offline transitions out to the bus and
// to ntfy.
type availability struct {
	bus    api.Publisher
	topic  string
	notify *ntfy.Notify
}

func (a *availability) DeviceOnline(id string) {
	a.publish(id, true)
}

func (a *availability) DeviceOffline(id string) {
	a.publish(id, false)
	a.notify.DeviceOffline(id)
}

func (a *availability) publish(id string, online bool) {
	payload, _ := json.Marshal(map[string]interface{}{"device_id": id, "online": online})
	if err := a.bus.Publish(a.topic, payload); err != nil {
		logrus.Errorln("Failed to publish availability:", err)
	}
}

func setupLogging(cfg config.Logging) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

func main() {
	_ = godotenv.Load()

	cfg := config.Get()
	setupLogging(cfg.Logging)

	// MQTT
	m := mqtt.Connect(cfg.MQTT)
	defer m.Disconnect()

	// Registry
	registry := device.NewRegistry(cfg.Devices, logrus.WithField("component", "registry"))
	if err := registry.Load(); err != nil {
		logrus.Fatalln("Failed to load devices:", err)
	}
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		pretty.Logln(registry.List())
	}

	// Everything published to the bus is mirrored on /events
	events := api.NewEvents()
	bus := &api.EventPublisher{Bus: m, Events: events}

	// Liveness
	n := ntfy.New(cfg.NTFY)
	tracker := presence.New(
		&availability{bus: bus, topic: cfg.Topics.Output, notify: n},
		logrus.WithField("component", "presence"),
	)
	defer tracker.Stop()

	// Bridge loop
	exec := executor.New(bus, logrus.WithField("component", "executor"))
	b := bridge.New(registry, exec, bus, cfg.Topics.Output, logrus.WithField("component", "bridge"))

	// Event-based bus devices report state on their own topic
	subscribeState := func(d device.Device) {
		if !d.EventBased || d.StateTopic == "" {
			return
		}
		m.AddHandler(d.StateTopic, bridge.StateHandler(registry, tracker, d.ID))
	}
	for _, d := range registry.List() {
		subscribeState(d)
	}
	b.OnDevice = subscribeState

	m.AddHandler(cfg.Topics.Input, b.Handle)
	go b.Run(context.Background())

	srv := http.Server{
		Addr: cfg.Server.Address,
		Handler: api.NewRouter(
			api.NewHandler(registry, bus, tracker, cfg.Topics.Output, logrus.WithField("component", "api")),
			events,
		),
	}

	logrus.Infof("Starting server on %s (PID: %d)", cfg.Server.Address, os.Getpid())
	if err := srv.ListenAndServe(); err != nil {
		logrus.Fatalln(err)
	}
}
