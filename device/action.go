package device

// Action is the protocol-level description of one outbound operation,
// produced by resolving a (device, command) pair. Exactly one of HTTP and
// Bus is set.
type Action struct {
	Protocol Protocol
	HTTP     *HTTPAction
	Bus      *BusAction
}

// HTTPAction is an outbound call to a REST device.
type HTTPAction struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    interface{}
}

// BusAction is a publish to a bus-native device.
type BusAction struct {
	Topic   string
	Payload interface{}
}

// Resolve turns (device, command) into an action descriptor. A non-nil
// payload overrides the command's configured payload. No I/O happens
// here.
func (r *Registry) Resolve(deviceID, commandID string, payload interface{}) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.index[deviceID]
	if !ok {
		return Action{}, ErrDeviceNotFound
	}

	return d.convertCommand(commandID, payload)
}

// convertCommand dispatches on the protocol tag. All bus-native variants
// publish the command definition itself to the device's address.
func (d *Device) convertCommand(name string, payload interface{}) (Action, error) {
	cmd, ok := d.Commands[name]
	if !ok {
		return Action{}, ErrCommandNotFound
	}

	if d.Protocol == REST {
		body := cmd.Payload
		if payload != nil {
			body = payload
		}

		headers := make(map[string]string, len(cmd.Headers))
		for k, v := range cmd.Headers {
			headers[k] = v
		}

		return Action{
			Protocol: REST,
			HTTP: &HTTPAction{
				Method:  cmd.Method,
				URL:     d.BaseURL,
				Headers: headers,
				Body:    body,
			},
		}, nil
	}

	return Action{
		Protocol: d.Protocol,
		Bus: &BusAction{
			Topic:   d.busTopic(),
			Payload: cmd,
		},
	}, nil
}
