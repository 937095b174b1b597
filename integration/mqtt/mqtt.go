package mqtt

import (
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MQTT wraps the paho client so the rest of the hub never deals with
// tokens or paho message types directly.
type MQTT struct {
	client paho.Client
	log    *logrus.Entry
}

// This is the default message handler, it just logs the topic and message
var defaultHandler paho.MessageHandler = func(client paho.Client, msg paho.Message) {
	logrus.WithField("component", "mqtt").Debugf("Unhandled message on %s: %s", msg.Topic(), msg.Payload())
}

func Connect(config Config) *MQTT {
	log := logrus.WithField("component", "mqtt")

	clientID := config.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("homehub-%s", uuid.NewString()[:8])
	}

	opts := paho.NewClientOptions().AddBroker(fmt.Sprintf("%s:%s", config.Host, config.Port))
	opts.SetClientID(clientID)
	opts.SetDefaultPublishHandler(defaultHandler)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetAutoReconnect(true)

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln("Failed to connect to broker:", token.Error())
	}

	log.Infof("Connected to %s:%s as %s", config.Host, config.Port, clientID)

	return &MQTT{client: client, log: log}
}

// AddHandler subscribes to a topic; the handler only sees the expanded
// topic and the raw payload.
func (m *MQTT) AddHandler(topic string, handler func(topic string, payload []byte)) {
	token := m.client.Subscribe(topic, 1, func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		m.log.Errorf("Failed to subscribe to %s: %v", topic, token.Error())
	}
}

func (m *MQTT) Publish(topic string, payload []byte) error {
	token := m.client.Publish(topic, 1, false, payload)
	token.Wait()
	return token.Error()
}

func (m *MQTT) Disconnect() {
	m.client.Disconnect(250)
}
