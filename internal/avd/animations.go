// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

var animationSettings = []string{
	"window_animation_scale",
	"transition_animation_scale",
	"animator_duration_scale",
}

// AnimationOptions configures DisableAnimations.
type AnimationOptions struct {
	// Device is a serial or any substring of the `adb devices -l` line
	// (model, product, transport) used to pick the target.
	Device string
}

// Devices returns the raw `adb devices -l` lines.
func Devices(env Env) ([]string, error) {
	ctx, span := startSpan(env, "avd.Devices")
	defer span.End()
	out, err := env.runner().Run(ctx, command(env.ADB, "devices", "-l"))
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return SplitLines(out), nil
}

// SelectSerial lists devices and picks one with SelectDevice.
func SelectSerial(env Env, filter string) (string, error) {
	if strings.TrimSpace(env.SDKRoot) == "" {
		return "", &ConfigurationError{Option: "sdk_dir", Reason: "no ANDROID_SDK_DIR given, pass it using --sdk-dir"}
	}
	lines, err := Devices(env)
	if err != nil {
		return "", err
	}
	return SelectDevice(env.ui(), lines, filter)
}

// DisableAnimations sets all animation scales to zero on the selected
// device and returns its serial.
func DisableAnimations(env Env, opts AnimationOptions) (string, error) {
	ctx, span := startSpan(env, "avd.DisableAnimations", attribute.String("device", opts.Device))
	defer span.End()
	env.Context = ctx

	env.ui().Message("Disabling Android animations")
	serial, err := SelectSerial(env, opts.Device)
	if err != nil {
		recordSpanError(span, err)
		return "", err
	}
	span.SetAttributes(attribute.String("serial", serial))

	for _, setting := range animationSettings {
		cmd := command(env.ADB, "-s", serial, "shell", "settings", "put", "global", setting, "0.0")
		if _, err := env.runner().Run(ctx, cmd); err != nil {
			recordSpanError(span, err)
			return "", fmt.Errorf("disable %s: %w", setting, err)
		}
	}
	logEvent(env, "animations disabled", "serial", serial)
	return serial, nil
}
