// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
)

type Env struct {
	SDKRoot  string // ANDROID_SDK_DIR, ANDROID_HOME, ANDROID_SDK_ROOT or ANDROID_SDK
	AVDHome  string // ANDROID_AVD_HOME (default ~/.android/avd)
	Emulator string // <sdk>/emulator/emulator
	ADB      string // <sdk>/platform-tools/adb
	AvdMgr   string // AVDMANAGER, or resolved under <sdk>
	SdkMgr   string // SDKMANAGER, or resolved under <sdk>
	Mksdcard string // <sdk>/emulator/mksdcard
	Kextstat string // kextstat (macOS only)
	// CorrelationID is used to tie logs to a specific pipeline run.
	CorrelationID string
	// Context is used to parent OpenTelemetry spans and bound subprocesses.
	Context context.Context

	// Runner, Files and UI default to the process, disk and console
	// implementations when nil.
	Runner Runner
	Files  FileStore
	UI     UI
}

func Detect() Env {
	usr, _ := user.Current()
	home := ""
	if usr != nil {
		home = usr.HomeDir
	} else if h := os.Getenv("HOME"); h != "" {
		home = h
	}

	sdk := firstEnv("ANDROID_SDK_DIR", "ANDROID_HOME", "ANDROID_SDK_ROOT", "ANDROID_SDK")
	env := Env{
		AVDHome:       getenv("ANDROID_AVD_HOME", filepath.Join(home, ".android", "avd")),
		Kextstat:      "kextstat",
		CorrelationID: getenv("AVDLANE_CORRELATION_ID", ""),
		Context:       context.Background(),
	}
	env = env.WithSDKRoot(sdk)
	if mgr := os.Getenv("AVDMANAGER"); mgr != "" {
		env.AvdMgr = mgr
	}
	if mgr := os.Getenv("SDKMANAGER"); mgr != "" {
		env.SdkMgr = mgr
	}
	return env
}

// WithSDKRoot returns a copy of env with the SDK tool paths derived from sdk.
// An empty sdk falls back to bare binary names looked up in PATH.
func (e Env) WithSDKRoot(sdk string) Env {
	e.SDKRoot = sdk
	if sdk == "" {
		e.Emulator = "emulator"
		e.ADB = "adb"
		e.AvdMgr = "avdmanager"
		e.SdkMgr = "sdkmanager"
		e.Mksdcard = "mksdcard"
		return e
	}
	e.Emulator = filepath.Join(sdk, "emulator", "emulator")
	e.ADB = filepath.Join(sdk, "platform-tools", "adb")
	e.AvdMgr = resolveCmdlineTool(sdk, "avdmanager")
	e.SdkMgr = resolveCmdlineTool(sdk, "sdkmanager")
	e.Mksdcard = filepath.Join(sdk, "emulator", "mksdcard")
	return e
}

// avdmanager and sdkmanager moved from tools/bin to cmdline-tools/latest/bin
// between SDK generations; whichever is installed wins.
func resolveCmdlineTool(sdk, name string) string {
	candidates := []string{
		filepath.Join(sdk, "cmdline-tools", "latest", "bin", name),
		filepath.Join(sdk, "tools", "bin", name),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return candidates[0]
}

func (e Env) runner() Runner {
	if e.Runner != nil {
		return e.Runner
	}
	return NewExecRunner(e)
}

func (e Env) files() FileStore {
	if e.Files != nil {
		return e.Files
	}
	return OSFiles{}
}

func (e Env) ui() UI {
	if e.UI != nil {
		return e.UI
	}
	return NewConsoleUI(e, os.Stderr)
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
