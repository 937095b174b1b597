package device

// Protocol tags how a device is reached. It is fixed for the lifetime of
// a device; changing protocol means replacing the device.
type Protocol string

const (
	MQTT   Protocol = "MQTT"
	REST   Protocol = "REST"
	BLE    Protocol = "BLE"
	Zigbee Protocol = "Zigbee"
	RTSP   Protocol = "RTSP"
)

// Command is one named action a device supports. REST commands use
// Method/Endpoint/Headers/Payload/Ack/Listen; bus-native commands carry
// whatever the device expects in Payload.
type Command struct {
	Method   string            `json:"method,omitempty"`
	Endpoint string            `json:"endpoint,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Payload  interface{}       `json:"payload,omitempty"`
	Ack      interface{}       `json:"ack,omitempty"`
	Listen   *bool             `json:"listen,omitempty"`
}

// Listening reports whether the command accepts forwarded inbound
// requests. Absent means yes.
func (c Command) Listening() bool {
	return c.Listen == nil || *c.Listen
}

// Device is one registry entry. Exactly one addressing field is populated,
// matching Protocol.
type Device struct {
	ID         string
	Name       string
	Protocol   Protocol
	EventBased bool

	Address    string // MQTT
	StateTopic string // MQTT, Zigbee
	BaseURL    string // REST
	BLEAddress string // BLE
	ZigbeeID   string // Zigbee
	StreamURL  string // RTSP

	Commands map[string]Command

	// Last known attribute values, updated from state events. Not
	// persisted and not involved in command routing.
	State map[string]interface{}
}

// Definition is the wire shape of one device entry, used both in the
// devices file and in addDevice registration messages.
type Definition struct {
	Name       string             `json:"device_name"`
	Protocol   Protocol           `json:"protocol"`
	EventBased bool               `json:"event_based"`
	Address    string             `json:"address,omitempty"`
	StateTopic string             `json:"state_topic,omitempty"`
	BaseURL    string             `json:"base_url,omitempty"`
	BLEAddress string             `json:"ble_address,omitempty"`
	ZigbeeID   string             `json:"zigbee_id,omitempty"`
	StreamURL  string             `json:"stream_url,omitempty"`
	Commands   map[string]Command `json:"commands,omitempty"`
}

// File is the on-disk shape of the devices file.
type File struct {
	Devices map[string]Definition `json:"devices"`
}

func newDevice(id string, def Definition) (*Device, error) {
	d := &Device{
		ID:         id,
		Name:       def.Name,
		Protocol:   def.Protocol,
		EventBased: def.EventBased,
		Commands:   make(map[string]Command, len(def.Commands)),
		State:      make(map[string]interface{}),
	}

	for name, cmd := range def.Commands {
		d.Commands[name] = cmd
	}

	switch def.Protocol {
	case MQTT:
		d.Address = def.Address
		d.StateTopic = def.StateTopic
	case REST:
		d.BaseURL = def.BaseURL
	case BLE:
		d.BLEAddress = def.BLEAddress
	case Zigbee:
		d.ZigbeeID = def.ZigbeeID
		d.StateTopic = def.StateTopic
	case RTSP:
		d.StreamURL = def.StreamURL
	default:
		return nil, ErrUnknownProtocol
	}

	return d, nil
}

// definition reverses newDevice, emitting only the fields that belong to
// the device's protocol variant.
func (d *Device) definition() Definition {
	def := Definition{
		Name:       d.Name,
		Protocol:   d.Protocol,
		EventBased: d.EventBased,
		Commands:   d.Commands,
	}

	switch d.Protocol {
	case MQTT:
		def.Address = d.Address
		def.StateTopic = d.StateTopic
	case REST:
		def.BaseURL = d.BaseURL
	case BLE:
		def.BLEAddress = d.BLEAddress
	case Zigbee:
		def.ZigbeeID = d.ZigbeeID
		def.StateTopic = d.StateTopic
	case RTSP:
		def.StreamURL = d.StreamURL
	}

	return def
}

// busTopic is the publish address for bus-native protocols.
func (d *Device) busTopic() string {
	switch d.Protocol {
	case MQTT:
		return d.Address
	case BLE:
		return d.BLEAddress
	case Zigbee:
		return d.ZigbeeID
	case RTSP:
		return d.StreamURL
	}

	return ""
}

// clone returns an independent copy that is safe to hand out of the
// registry lock.
func (d *Device) clone() Device {
	cpy := *d

	cpy.Commands = make(map[string]Command, len(d.Commands))
	for name, cmd := range d.Commands {
		cpy.Commands[name] = cmd
	}

	cpy.State = make(map[string]interface{}, len(d.State))
	for k, v := range d.State {
		cpy.State[k] = v
	}

	return cpy
}
