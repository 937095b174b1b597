package device

import "strings"

// Match identifies the command that owns an inbound request.
type Match struct {
	DeviceID  string
	CommandID string
	Ack       interface{}
}

// Match scans devices in insertion order and returns the first listening
// command whose endpoint and method equal the request. Paths compare with
// the leading slash stripped, methods case-insensitively.
func (r *Registry) Match(path, method string) (Match, bool) {
	path = strings.TrimPrefix(path, "/")
	method = strings.ToUpper(method)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices {
		for name, cmd := range d.Commands {
			if !cmd.Listening() {
				continue
			}
			if strings.TrimPrefix(cmd.Endpoint, "/") != path {
				continue
			}
			if strings.ToUpper(cmd.Method) != method {
				continue
			}

			return Match{DeviceID: d.ID, CommandID: name, Ack: cmd.Ack}, true
		}
	}

	return Match{}, false
}
