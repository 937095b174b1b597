package ntfy

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Topic string `yaml:"topic" envconfig:"NTFY_TOPIC"`
}

type Notify struct {
	topic string
	log   *logrus.Entry
}

func New(config Config) *Notify {
	return &Notify{topic: config.Topic, log: logrus.WithField("component", "ntfy")}
}

// DeviceOffline pushes a notification that a device stopped reporting.
// A Notify without a topic drops everything silently.
func (n *Notify) DeviceOffline(id string) {
	n.push("Device offline", "warning", "4", fmt.Sprintf("%s stopped reporting", id))
}

func (n *Notify) DeviceOnline(id string) {
	n.push("Device online", "house", "1", fmt.Sprintf("%s is reporting again", id))
}

func (n *Notify) push(title, tags, priority, description string) {
	if n.topic == "" {
		return
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("https://ntfy.sh/%s", n.topic), strings.NewReader(description))
	if err != nil {
		n.log.Errorln(err)
		return
	}

	req.Header.Set("Title", title)
	req.Header.Set("Tags", tags)
	req.Header.Set("Priority", priority)

	if _, err := http.DefaultClient.Do(req); err != nil {
		n.log.Errorf("Failed to push notification: %v", err)
	}
}
