// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"strings"

	"github.com/samber/lo"
)

// adb devices output that never names a usable device
var noiseMarkers = []string{
	"server is out of date",     // adb server must be restarted
	"unauthorized",              // device has not accepted adb control yet
	"offline",                   // device is offline
	"* daemon",                  // daemon startup banner
	"List of devices attached",  // table header
	"doesn't match this client", // adb client/server version mismatch
}

// SelectDevice picks the target serial from raw `adb devices` lines. With a
// non-empty filter only lines containing it are considered. When several
// devices remain the first one in listing order is chosen and ui is warned.
//
// Lines look like:
//
//	00c22d4d84aec525       device usb:2148663295X product:bullhead model:Nexus_5X
//	192.168.1.100:5555     device product:vbox86p model:Galaxy_S9 device:genymotion
//	emulator-5554          device product:sdk_gphone_x86 model:sdk_gphone_x86
func SelectDevice(ui UI, lines []string, filter string) (string, error) {
	devices := lo.Reject(lines, func(line string, _ int) bool {
		if strings.TrimSpace(line) == "" {
			return true
		}
		return lo.ContainsBy(noiseMarkers, func(marker string) bool {
			return strings.Contains(line, marker)
		})
	})
	if len(devices) == 0 {
		return "", ErrNoDevices
	}

	if filter != "" {
		devices = lo.Filter(devices, func(line string, _ int) bool {
			return strings.Contains(line, filter)
		})
		if len(devices) == 0 {
			return "", &NoMatchError{Filter: filter}
		}
	}

	if len(devices) > 1 && ui != nil {
		ui.Important("Multiple connected devices, selecting the first one")
		ui.Important("To specify which connected device to use, use the device option")
	}
	return strings.Fields(devices[0])[0], nil
}

// SplitLines splits command output into lines, dropping the trailing
// carriage returns adb emits on some hosts.
func SplitLines(out string) []string {
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}
