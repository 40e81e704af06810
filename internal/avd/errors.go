// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoDevices is returned when adb lists no usable device.
var ErrNoDevices = errors.New("there are no connected and authorized devices or emulators")

// NoMatchError is returned when devices are connected but none matches the
// requested filter.
type NoMatchError struct {
	Filter string
}

func (e *NoMatchError) Error() string {
	return "no connected devices matched your criteria: " + e.Filter
}

// ConfigurationError reports a missing or invalid option. It is raised
// before any process is started.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Option, e.Reason)
}

// ToolError wraps a non-zero exit of an SDK binary.
type ToolError struct {
	Bin    string
	Args   []string
	Err    error
	Output string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s %s failed: %v", e.Bin, strings.Join(e.Args, " "), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }
