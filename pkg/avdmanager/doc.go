// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

/*
Package avdmanager provides a Go library for preparing Android Virtual Devices
(AVDs) for automated UI test and screenshot pipelines.

# Overview

The library drives the Android SDK tools (avdmanager, emulator, adb) to bring
an emulator into a known state: the AVD is created or reused, its config.ini
gets rendering overrides, the emulator is booted and optionally placed at a
fixed location with the system UI demo mode clock. A second operation turns
off all animations on a connected device.

# Quick Start

	import "github.com/forkbombeu/avdlane/pkg/avdmanager"

	func main() {
		mgr := avdmanager.NewWithEnv(avdmanager.Environment{
			SDKRoot: "/opt/android-sdk",
		})

		opts := avdmanager.DefaultEmulatorOptions()
		opts.Package = "system-images;android-24;google_apis;x86_64"
		opts.Location = "9.1808 48.7771"

		emu, err := mgr.Prepare(opts)
		if err != nil {
			log.Fatal(err)
		}

		// run screenshot tooling against emu.Serial
		mgr.DisableAnimations(emu.Serial)
	}

# AVD reuse

An existing AVD is reused when its image.sysdir.1 already points at the
requested system image, RetainPrevious is set and ColdBoot is not. Otherwise
it is recreated with avdmanager, after sdkmanager installs the system image
if the SDK lacks it, and its config.ini is reconciled: existing
keys keep their position, overrides replace values in place and new keys are
appended. An sdcard.size override also creates sdcard.img with mksdcard.
Start from DefaultEmulatorOptions, since the zero value of
EmulatorOptions disables reuse and demo mode.

# Device selection

DisableAnimations and SelectDevice read `adb devices -l`, drop banners,
headers and unauthorized or offline devices, and apply the optional filter
as a substring match over the whole line. When several devices remain the
first one is used and a warning is printed.

# Boot detection

SDK generations disagree on the most reliable boot signal. BootComplete
waits for dev.bootcomplete to be 1; BootAnimation waits for the
init.svc.bootanim service to report stopped.

# Environment Configuration

By default, the manager auto-detects paths from environment variables:

  - ANDROID_SDK_DIR, ANDROID_HOME, ANDROID_SDK_ROOT, ANDROID_SDK
  - ANDROID_AVD_HOME
  - AVDMANAGER, SDKMANAGER

Use NewWithEnv() to override with custom paths.

# Thread Safety

Manager instances hold no mutable state, but two Prepare calls on the same
port or AVD name race on the emulator and its config.ini.

# License

AGPL-3.0-only

Copyright (C) 2025 Forkbomb B.V.
*/
package avdmanager
