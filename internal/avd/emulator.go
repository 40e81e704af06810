// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
)

// hostOS gates the macOS only HAXM probe.
var hostOS = runtime.GOOS

// EmulatorOptions configures Prepare.
type EmulatorOptions struct {
	Package  SystemImageID // system image to boot (required)
	Name     string        // AVD name
	Device   string        // hardware profile passed to avdmanager -d
	Port     int           // even console port; the serial is emulator-<port>
	Location string        // "<longitude> <latitude>"
	DemoMode bool

	// ColdBoot recreates the AVD on every run. RetainPrevious allows reusing
	// an AVD whose config already points at Package.
	ColdBoot       bool
	RetainPrevious bool

	AdditionalOptions []string // extra config.ini "key=value" overrides
	EmulatorArgs      []string // extra emulator command line flags

	BootSignal   BootSignal
	BootTimeout  time.Duration
	PollInterval time.Duration
	SettleDelay  time.Duration // pause after stopping a previous emulator
}

func DefaultEmulatorOptions() EmulatorOptions {
	return EmulatorOptions{
		Name:           "fastlane",
		Device:         "Nexus 5",
		Port:           5554,
		DemoMode:       true,
		RetainPrevious: true,
		BootSignal:     BootComplete,
		BootTimeout:    5 * time.Minute,
		PollInterval:   defaultPollInterval,
		SettleDelay:    3 * time.Second,
	}
}

func (o EmulatorOptions) withDefaults() EmulatorOptions {
	def := DefaultEmulatorOptions()
	if o.BootSignal == "" {
		o.BootSignal = def.BootSignal
	}
	if o.BootTimeout <= 0 {
		o.BootTimeout = def.BootTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = def.PollInterval
	}
	return o
}

// Validate checks the options against env before anything is executed.
func (o EmulatorOptions) Validate(env Env) error {
	if strings.TrimSpace(env.SDKRoot) == "" {
		return &ConfigurationError{Option: "sdk_dir", Reason: "no ANDROID_SDK_DIR given, pass it using --sdk-dir"}
	}
	if strings.TrimSpace(string(o.Package)) == "" {
		return &ConfigurationError{Option: "package", Reason: "no system image given"}
	}
	if strings.TrimSpace(o.Name) == "" {
		return &ConfigurationError{Option: "name", Reason: "empty AVD name"}
	}
	if strings.TrimSpace(o.Device) == "" {
		return &ConfigurationError{Option: "device", Reason: "empty device definition"}
	}
	if o.Port%2 != 0 || o.Port < 5554 || o.Port > 5800 {
		return &ConfigurationError{
			Option: "port",
			Reason: fmt.Sprintf("%d is not an even port in 5554-5800", o.Port),
		}
	}
	if o.Location != "" {
		if _, err := parseLocation(o.Location); err != nil {
			return err
		}
	}
	if _, err := ParseBootSignal(string(o.BootSignal)); err != nil {
		return err
	}
	if _, err := ParseOverrides(o.AdditionalOptions); err != nil {
		return err
	}
	return nil
}

func parseLocation(loc string) ([]string, error) {
	fields := strings.Fields(loc)
	if len(fields) != 2 {
		return nil, &ConfigurationError{Option: "location", Reason: fmt.Sprintf("%q is not '<longitude> <latitude>'", loc)}
	}
	for _, f := range fields {
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			return nil, &ConfigurationError{Option: "location", Reason: fmt.Sprintf("%q is not a number", f)}
		}
	}
	return fields, nil
}

// Result describes a booted emulator.
type Result struct {
	// Serial is the adb serial of the emulator; downstream screenshot tools
	// target it (SCREENGRAB_SPECIFIC_DEVICE).
	Serial    string
	AVD       Descriptor
	Recreated bool
	PID       int
	LogPath   string
}

// Prepare stops any emulator on the configured port, recreates the AVD when
// it does not match the requested image, boots it and applies location and
// demo mode settings.
func Prepare(env Env, opts EmulatorOptions) (Result, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(env); err != nil {
		return Result{}, err
	}
	opts.BootSignal, _ = ParseBootSignal(string(opts.BootSignal))
	overrides, _ := ParseOverrides(opts.AdditionalOptions)

	ctx, span := startSpan(
		env,
		"avd.Prepare",
		attribute.String("name", opts.Name),
		attribute.String("package", string(opts.Package)),
		attribute.Int("port", opts.Port),
	)
	defer span.End()
	env.Context = ctx

	ui := env.ui()
	desc := NewDescriptor(env.AVDHome, opts.Name)
	res := Result{Serial: fmt.Sprintf("emulator-%d", opts.Port), AVD: desc}
	logEvent(env, "prepare emulator", "name", opts.Name, "package", string(opts.Package), "serial", res.Serial)

	ui.Message("Stopping emulator")
	_ = Stop(env, res.Serial)
	sleepCtx(ctx, opts.SettleDelay)

	text, exists, err := env.files().Read(desc.ConfigPath)
	if err != nil {
		recordSpanError(span, err)
		return Result{}, fmt.Errorf("read %s: %w", desc.ConfigPath, err)
	}
	reuse := IsUpToDate(text, exists, opts.Package) && opts.RetainPrevious && !opts.ColdBoot
	span.SetAttributes(attribute.Bool("reuse", reuse))

	if reuse {
		ui.Message(fmt.Sprintf("Reusing emulator %s", opts.Name))
	} else {
		ui.Message("Creating new emulator")
		if err := createAVD(ctx, env, opts); err != nil {
			recordSpanError(span, err)
			return Result{}, err
		}
		ui.Message("Override configuration")
		if err := reconcileConfig(env, desc, append(DefaultOverrides(), overrides...)); err != nil {
			recordSpanError(span, err)
			return Result{}, err
		}
		sdcard, _, found := lo.FindLastIndexOf(overrides, func(e ConfigEntry) bool {
			return e.Key == "sdcard.size"
		})
		if found {
			ui.Message("Creating SD card")
			if err := createSDCard(ctx, env, desc, sdcard.Value); err != nil {
				recordSpanError(span, err)
				return Result{}, err
			}
		}
		res.Recreated = true
	}

	if hostOS == "darwin" {
		checkHAXM(ctx, env, ui)
	}

	ui.Message("Starting emulator")
	res.PID, res.LogPath, err = launch(env, opts)
	if err != nil {
		recordSpanError(span, err)
		return Result{}, err
	}

	if err := WaitForBoot(env, res.Serial, opts.BootSignal, opts.PollInterval, opts.BootTimeout); err != nil {
		recordSpanError(span, err)
		return Result{}, fmt.Errorf("%w\nemulator log: %s", err, res.LogPath)
	}

	if opts.Location != "" {
		ui.Message("Set location")
		fields, _ := parseLocation(opts.Location)
		geo := command(env.ADB, append([]string{"-s", res.Serial, "emu", "geo", "fix"}, fields...)...)
		geo.Env = []string{"LC_NUMERIC=C"}
		if _, err := env.runner().Run(ctx, geo); err != nil {
			recordSpanError(span, err)
			return Result{}, err
		}
	}

	if opts.DemoMode {
		ui.Message("Set in demo mode")
		if err := enableDemoMode(ctx, env, res.Serial); err != nil {
			recordSpanError(span, err)
			return Result{}, err
		}
	}

	span.SetAttributes(attribute.Bool("recreated", res.Recreated), attribute.Int("pid", res.PID))
	logEvent(env, "emulator ready", "name", opts.Name, "serial", res.Serial, "recreated", res.Recreated)
	return res, nil
}

func createAVD(ctx context.Context, env Env, opts EmulatorOptions) error {
	if err := os.MkdirAll(env.AVDHome, 0o755); err != nil {
		return err
	}
	if err := ensureSystemImage(ctx, env, opts.Package); err != nil {
		return fmt.Errorf("failed to ensure system image: %w", err)
	}
	cmd := command(env.AvdMgr, "create", "avd",
		"-n", opts.Name, "-f", "-k", string(opts.Package), "-d", opts.Device)
	// decline the custom hardware profile prompt
	cmd.Stdin = "no\n"
	if _, err := env.runner().Run(ctx, cmd); err != nil {
		return fmt.Errorf("avdmanager create: %w", err)
	}
	return nil
}

// ensureSystemImage installs pkg with sdkmanager unless its directory is
// already present under the SDK root.
func ensureSystemImage(ctx context.Context, env Env, pkg SystemImageID) error {
	dir := filepath.Join(env.SDKRoot, filepath.FromSlash(pkg.SysDir()))
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	logEvent(env, "installing system image", "package", string(pkg))
	licenses := command(env.SdkMgr, "--licenses")
	licenses.Stdin = strings.Repeat("y\n", 32)
	// already accepted licenses make this exit non-zero on some SDK versions
	_, _ = env.runner().Run(ctx, licenses)
	if _, err := env.runner().Run(ctx, command(env.SdkMgr, string(pkg))); err != nil {
		return err
	}
	return nil
}

// mksdcard rejects images smaller than 9M.
const minSDCardMiB = 9

// createSDCard writes sdcard.img next to config.ini, where the emulator
// picks it up.
func createSDCard(ctx context.Context, env Env, desc Descriptor, size string) error {
	n, err := units.RAMInBytes(size)
	if err != nil {
		return &ConfigurationError{Option: "additional_options", Reason: fmt.Sprintf("sdcard.size: %v", err)}
	}
	mib := max(n/units.MiB, minSDCardMiB)
	path := filepath.Join(filepath.Dir(desc.ConfigPath), "sdcard.img")
	if _, err := env.runner().Run(ctx, command(env.Mksdcard, fmt.Sprintf("%dM", mib), path)); err != nil {
		return fmt.Errorf("mksdcard: %w", err)
	}
	logEvent(env, "sdcard created", "path", path, "size_mib", mib)
	return nil
}

func reconcileConfig(env Env, desc Descriptor, overrides []ConfigEntry) error {
	files := env.files()
	text, _, err := files.Read(desc.ConfigPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := files.Write(desc.ConfigPath, Reconcile(text, overrides)); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	logEvent(env, "avd config reconciled", "path", desc.ConfigPath, "overrides", len(overrides))
	return nil
}

func checkHAXM(ctx context.Context, env Env, ui UI) {
	out, err := env.runner().Run(ctx, command(env.Kextstat))
	if err != nil {
		ui.Important(fmt.Sprintf("Could not verify the HAXM extension: %v", err))
		return
	}
	if !strings.Contains(out, "intel") {
		ui.Important("Please install the HAXM-Extension for better performance")
	}
}

func launch(env Env, opts EmulatorOptions) (int, string, error) {
	args := append([]string{"-avd", opts.Name, "-port", strconv.Itoa(opts.Port)}, opts.EmulatorArgs...)
	cmd := command(env.Emulator, args...)
	cmd.Env = []string{"LC_NUMERIC=C"}
	logPath := filepath.Join(os.TempDir(), fmt.Sprintf("emulator-%s-%d.log", opts.Name, opts.Port))
	pid, err := env.runner().Start(cmd, logPath)
	if err != nil {
		logEvent(env, "emulator start failed", "name", opts.Name, "port", opts.Port, "error", err, "log_path", logPath)
		return 0, "", fmt.Errorf("emulator start: %w", err)
	}
	logEvent(env, "emulator started", "name", opts.Name, "port", opts.Port, "pid", pid, "log_path", logPath)
	return pid, logPath, nil
}

// WaitForBoot blocks until adb sees serial and signal reports completion,
// giving up once timeout has elapsed overall.
func WaitForBoot(env Env, serial string, signal BootSignal, interval, timeout time.Duration) error {
	ctx, span := startSpan(
		env,
		"avd.WaitForBoot",
		attribute.String("serial", serial),
		attribute.String("signal", string(signal)),
		attribute.String("timeout", timeout.String()),
	)
	defer span.End()
	runner := env.runner()

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := runner.Run(waitCtx, command(env.ADB, "-s", serial, "wait-for-device")); err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("wait for %s: %w", serial, err)
	}

	query := func(ctx context.Context) (string, error) {
		return runner.Run(ctx, command(env.ADB, "-s", serial, "shell", "getprop", signal.Property()))
	}
	// wait-for-device and the property poll share one boot deadline
	if err := Poll(waitCtx, interval, timeout, query, signal.Ready); err != nil {
		logEvent(env, "wait for boot timeout", "serial", serial, "timeout", timeout.String(), "error", err)
		recordSpanError(span, err)
		return fmt.Errorf("boot timeout for %s (%s): %w\nHint: check that adb can see the emulator: adb devices", serial, signal.Property(), err)
	}
	span.SetAttributes(attribute.Bool("boot_completed", true))
	return nil
}

func enableDemoMode(ctx context.Context, env Env, serial string) error {
	cmds := [][]string{
		{"-s", serial, "shell", "settings", "put", "global", "sysui_demo_allowed", "1"},
		{"-s", serial, "shell", "am", "broadcast", "-a", "com.android.systemui.demo", "-e", "command", "clock", "-e", "hhmm", "0700"},
	}
	for _, args := range cmds {
		if _, err := env.runner().Run(ctx, command(env.ADB, args...)); err != nil {
			return fmt.Errorf("demo mode: %w", err)
		}
	}
	return nil
}
