package device

import "errors"

// These are reported back to bus consumers verbatim, so the wording is
// part of the wire contract.
var (
	ErrDeviceNotFound  = errors.New("Device not found")
	ErrCommandNotFound = errors.New("Command not found")
	ErrUnknownProtocol = errors.New("Unknown protocol")
)
