package client

import "errors"

var (
	// ErrDeviceUnreachable is returned when the device service cannot be reached
	ErrDeviceUnreachable = errors.New("device service unreachable")

	// ErrNotFound is returned when 404 is returned from the device service
	ErrNotFound = errors.New("404 not found")
)
