// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// defaultPollInterval applies when a caller passes a non-positive interval.
const defaultPollInterval = 5 * time.Second

// BootSignal selects the device property that reports boot completion.
// Older images only flip dev.bootcomplete reliably; others are better
// served by waiting for the boot animation service to stop.
type BootSignal string

const (
	BootComplete  BootSignal = "bootcomplete"
	BootAnimation BootSignal = "bootanim"
)

func ParseBootSignal(s string) (BootSignal, error) {
	switch BootSignal(strings.ToLower(strings.TrimSpace(s))) {
	case "", BootComplete:
		return BootComplete, nil
	case BootAnimation:
		return BootAnimation, nil
	}
	return "", &ConfigurationError{
		Option: "boot_signal",
		Reason: fmt.Sprintf("unknown value %q (want %s or %s)", s, BootComplete, BootAnimation),
	}
}

// Property is the getprop key polled for this signal.
func (s BootSignal) Property() string {
	if s == BootAnimation {
		return "init.svc.bootanim"
	}
	return "dev.bootcomplete"
}

// Ready reports whether a getprop value means the device finished booting.
func (s BootSignal) Ready(value string) bool {
	if s == BootAnimation {
		return strings.Contains(value, "stopped")
	}
	return strings.TrimSpace(value) == "1"
}

// Poll calls query every interval until ready accepts its output or timeout
// elapses. Query errors are retried; the last one is reported on timeout.
// The deadline of ctx, if earlier, still applies.
func Poll(
	ctx context.Context,
	interval, timeout time.Duration,
	query func(context.Context) (string, error),
	ready func(string) bool,
) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		out, err := query(ctx)
		if err == nil && ready(out) {
			return nil
		}
		if err != nil {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("not ready after %s: %w\nlast error: %v", timeout, ctx.Err(), lastErr)
			}
			return fmt.Errorf("not ready after %s: %w", timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
