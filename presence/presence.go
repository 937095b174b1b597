package presence

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"
)

// Notifier receives availability transitions.
type Notifier interface {
	DeviceOnline(id string)
	DeviceOffline(id string)
}

// Tracker keeps a last-seen entry per device. A device that stays silent
// for the TTL is reported offline; the next sighting reports it online
// again.
type Tracker struct {
	cache    *ttlcache.Cache[string, time.Time]
	notifier Notifier
	log      *logrus.Entry
}

const ttl = 5 * time.Minute

func New(notifier Notifier, log *logrus.Entry) *Tracker {
	t := &Tracker{notifier: notifier, log: log}

	t.cache = ttlcache.New(
		ttlcache.WithTTL[string, time.Time](ttl),
		ttlcache.WithDisableTouchOnHit[string, time.Time](),
	)

	t.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, time.Time]) {
		if reason != ttlcache.EvictionReasonExpired {
			return
		}

		t.log.Infof("Device %s went offline", item.Key())
		if t.notifier != nil {
			t.notifier.DeviceOffline(item.Key())
		}
	})

	go t.cache.Start()

	return t
}

// Seen records activity from a device. The first sighting after an
// absence reports the device online.
func (t *Tracker) Seen(id string) {
	if t.cache.Get(id) == nil {
		t.log.Infof("Device %s is online", id)
		if t.notifier != nil {
			t.notifier.DeviceOnline(id)
		}
	}

	t.cache.Set(id, time.Now(), ttlcache.DefaultTTL)
}

// Online reports whether the device has been seen within the TTL.
func (t *Tracker) Online(id string) bool {
	return t.cache.Get(id) != nil
}

func (t *Tracker) Stop() {
	t.cache.Stop()
}
