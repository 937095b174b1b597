package device

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Registry owns the set of known devices. All access goes through a
// single lock; mutations rewrite the devices file before the lock is
// released so the file never lags behind memory.
type Registry struct {
	mu      sync.RWMutex
	devices []*Device // insertion order, drives inbound matching
	index   map[string]*Device
	path    string
	log     *logrus.Entry
}

func NewRegistry(path string, log *logrus.Entry) *Registry {
	return &Registry{
		index: make(map[string]*Device),
		path:  path,
		log:   log,
	}
}

// Load replaces the registry contents with the devices file. Entries with
// an unknown protocol are skipped, not fatal. A missing file just leaves
// the registry empty. Entries are added in lexical id order so startup is
// deterministic.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		r.log.Warnf("Devices file %s does not exist, starting empty", r.path)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "reading devices file")
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return errors.Wrap(err, "parsing devices file")
	}

	ids := make([]string, 0, len(file.Devices))
	for id := range file.Devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices = nil
	r.index = make(map[string]*Device, len(ids))

	for _, id := range ids {
		d, err := newDevice(id, file.Devices[id])
		if err != nil {
			r.log.Warnf("Unknown protocol '%s' for device %s, skipping...", file.Devices[id].Protocol, id)
			continue
		}

		r.devices = append(r.devices, d)
		r.index[id] = d
	}

	r.log.Infof("Loaded %d devices from %s", len(r.devices), r.path)

	return nil
}

// Upsert merges def's commands into an existing device, or adds a new
// device of the matching protocol variant. Merging never touches the
// addressing fields of an existing device and never deletes commands.
func (r *Registry) Upsert(id string, def Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.index[id]; ok {
		for name, cmd := range def.Commands {
			existing.Commands[name] = cmd
		}
		r.log.Debugf("Merged %d commands into %s", len(def.Commands), id)
	} else {
		d, err := newDevice(id, def)
		if err != nil {
			return err
		}

		r.warnShadowed(d)
		r.devices = append(r.devices, d)
		r.index[id] = d
		r.log.Infof("Added %s device '%s' (%s)", d.Protocol, d.Name, id)
	}

	r.persist()

	return nil
}

// Remove deletes a device. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[id]; !ok {
		return
	}

	delete(r.index, id)
	for i, d := range r.devices {
		if d.ID == id {
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			break
		}
	}

	r.log.Infof("Removed device %s", id)
	r.persist()
}

// Get returns a copy of the device, so callers can read it without
// holding the registry lock.
func (r *Registry) Get(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.index[id]
	if !ok {
		return Device{}, false
	}

	return d.clone(), true
}

// List returns copies of all devices in insertion order.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d.clone())
	}

	return devices
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.devices)
}

// SetState merges attribute values from a state event into the device.
// State is in-memory only, so nothing is persisted.
func (r *Registry) SetState(id string, attrs map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.index[id]
	if !ok {
		return ErrDeviceNotFound
	}

	for k, v := range attrs {
		d.State[k] = v
	}

	return nil
}

// persist rewrites the whole devices file. Failures are logged and do not
// roll back the in-memory change; memory stays authoritative until the
// next successful write. Callers must hold the write lock.
func (r *Registry) persist() {
	file := File{Devices: make(map[string]Definition, len(r.devices))}
	for _, d := range r.devices {
		file.Devices[d.ID] = d.definition()
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		r.log.Errorf("Failed to serialize devices: %v", err)
		return
	}

	if err := os.WriteFile(r.path, data, 0644); err != nil {
		r.log.Errorf("Failed to write %s: %v", r.path, err)
	}
}

// warnShadowed flags listening commands whose endpoint and method collide
// with an already registered device. The first registered device wins at
// match time, so a collision is almost certainly a configuration mistake.
func (r *Registry) warnShadowed(d *Device) {
	for name, cmd := range d.Commands {
		if !cmd.Listening() || cmd.Endpoint == "" {
			continue
		}

		endpoint := strings.TrimPrefix(cmd.Endpoint, "/")
		method := strings.ToUpper(cmd.Method)

		for _, other := range r.devices {
			for otherName, otherCmd := range other.Commands {
				if !otherCmd.Listening() {
					continue
				}
				if strings.TrimPrefix(otherCmd.Endpoint, "/") == endpoint && strings.ToUpper(otherCmd.Method) == method {
					r.log.Warnf("Command %s/%s shadows %s/%s (%s %s)", other.ID, otherName, d.ID, name, method, endpoint)
				}
			}
		}
	}
}
