// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

// Package avdmanager provides a Go library for preparing Android Virtual
// Devices (AVDs) for automated UI test and screenshot pipelines.
package avdmanager

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/forkbombeu/avdlane/internal/avd"
)

// Errors returned by device selection and option validation.
var ErrNoDevices = avd.ErrNoDevices

type (
	NoMatchError       = avd.NoMatchError
	ConfigurationError = avd.ConfigurationError
	ToolError          = avd.ToolError
	BootSignal         = avd.BootSignal
)

const (
	BootComplete  = avd.BootComplete
	BootAnimation = avd.BootAnimation
)

// Manager provides high-level emulator preparation operations.
type Manager struct {
	env avd.Env
}

// New creates a new Manager with auto-detected environment.
func New() *Manager {
	return &Manager{env: avd.Detect()}
}

// NewWithContextAndCorrelationID creates a new Manager with a custom context and correlation ID.
func NewWithContextAndCorrelationID(ctx context.Context, correlationID string) *Manager {
	env := avd.Detect()
	if ctx == nil {
		ctx = context.Background()
	}
	env.Context = ctx
	env.CorrelationID = correlationID
	return &Manager{env: env}
}

// NewWithEnv creates a new Manager with custom environment configuration.
// Empty tool paths are derived from SDKRoot.
func NewWithEnv(env Environment) *Manager {
	ctx := env.Context
	if ctx == nil {
		ctx = context.Background()
	}
	e := avd.Env{}.WithSDKRoot(env.SDKRoot)
	e.AVDHome = env.AVDHome
	if e.AVDHome == "" {
		e.AVDHome = avd.Detect().AVDHome
	}
	if env.EmulatorBin != "" {
		e.Emulator = env.EmulatorBin
	}
	if env.ADBBin != "" {
		e.ADB = env.ADBBin
	}
	if env.AvdManagerBin != "" {
		e.AvdMgr = env.AvdManagerBin
	}
	if env.SdkManagerBin != "" {
		e.SdkMgr = env.SdkManagerBin
	}
	e.Kextstat = "kextstat"
	e.CorrelationID = env.CorrelationID
	e.Context = ctx
	return &Manager{env: e}
}

// Environment holds configuration for SDK tools and paths.
type Environment struct {
	SDKRoot       string          // Android SDK root (required)
	AVDHome       string          // ANDROID_AVD_HOME (default ~/.android/avd)
	EmulatorBin   string          // default: <sdk>/emulator/emulator
	ADBBin        string          // default: <sdk>/platform-tools/adb
	AvdManagerBin string          // default: cmdline-tools or tools avdmanager under <sdk>
	SdkManagerBin string          // default: cmdline-tools or tools sdkmanager under <sdk>
	CorrelationID string          // Correlation ID for log enrichment
	Context       context.Context // Context for tracing
}

// EmulatorOptions contains options for Prepare. Zero values fall back to
// DefaultEmulatorOptions where noted.
type EmulatorOptions struct {
	Package           string        // System image ID (required)
	Name              string        // AVD name (default "fastlane")
	Device            string        // Hardware profile (default "Nexus 5")
	Port              int           // Even console port (default 5554)
	Location          string        // "<longitude> <latitude>" (optional)
	DemoMode          bool          // Enable the system UI demo mode clock
	ColdBoot          bool          // Recreate the AVD on every run
	RetainPrevious    bool          // Allow reusing an up-to-date AVD
	AdditionalOptions []string      // Extra config.ini "key=value" overrides
	EmulatorArgs      []string      // Extra emulator flags
	BootSignal        BootSignal    // Boot completion property (default bootcomplete)
	BootTimeout       time.Duration // Boot timeout (default 5m)
}

// DefaultEmulatorOptions returns the defaults used by the CLI.
func DefaultEmulatorOptions() EmulatorOptions {
	d := avd.DefaultEmulatorOptions()
	return EmulatorOptions{
		Name:           d.Name,
		Device:         d.Device,
		Port:           d.Port,
		DemoMode:       d.DemoMode,
		RetainPrevious: d.RetainPrevious,
		BootSignal:     d.BootSignal,
		BootTimeout:    d.BootTimeout,
	}
}

// Emulator describes a booted emulator.
type Emulator struct {
	Serial     string // adb serial, e.g. emulator-5554
	Name       string // AVD name
	ConfigPath string // AVD config.ini
	Recreated  bool   // Whether the AVD was (re)created by this run
	PID        int    // Emulator process ID
	LogPath    string // Emulator output log
}

// AVDInfo contains information about an AVD.
type AVDInfo struct {
	Name      string // AVD name
	Path      string // Path to .avd directory
	Image     string // image.sysdir.1 from config.ini
	Userdata  string // Path to userdata file
	SizeBytes int64  // Size of userdata in bytes
}

func (m *Manager) startSpan(name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if m.env.CorrelationID != "" {
		attrs = append(attrs, attribute.String("correlation_id", m.env.CorrelationID))
	}
	ctx := m.env.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return otel.Tracer("avdlane/avdmanager").Start(ctx, name, trace.WithAttributes(attrs...))
}

// spanEnv returns the manager environment parented under a new span.
func (m *Manager) spanEnv(name string, attrs ...attribute.KeyValue) (avd.Env, trace.Span) {
	ctx, span := m.startSpan(name, attrs...)
	env := m.env
	env.Context = ctx
	return env, span
}

// Prepare creates or reuses the AVD, boots it and applies location and demo
// mode. The returned serial is what screenshot tools should target.
func (m *Manager) Prepare(opts EmulatorOptions) (Emulator, error) {
	env, span := m.spanEnv("avdmanager.Prepare",
		attribute.String("avd_name", opts.Name),
		attribute.Int("port", opts.Port),
	)
	defer span.End()

	def := avd.DefaultEmulatorOptions()
	o := avd.EmulatorOptions{
		Package:           avd.SystemImageID(opts.Package),
		Name:              opts.Name,
		Device:            opts.Device,
		Port:              opts.Port,
		Location:          opts.Location,
		DemoMode:          opts.DemoMode,
		ColdBoot:          opts.ColdBoot,
		RetainPrevious:    opts.RetainPrevious,
		AdditionalOptions: opts.AdditionalOptions,
		EmulatorArgs:      opts.EmulatorArgs,
		BootSignal:        opts.BootSignal,
		BootTimeout:       opts.BootTimeout,
		PollInterval:      def.PollInterval,
		SettleDelay:       def.SettleDelay,
	}
	if o.Name == "" {
		o.Name = def.Name
	}
	if o.Device == "" {
		o.Device = def.Device
	}
	if o.Port == 0 {
		o.Port = def.Port
	}

	res, err := avd.Prepare(env, o)
	if err != nil {
		span.RecordError(err)
		return Emulator{}, err
	}
	return Emulator{
		Serial:     res.Serial,
		Name:       res.AVD.Name,
		ConfigPath: res.AVD.ConfigPath,
		Recreated:  res.Recreated,
		PID:        res.PID,
		LogPath:    res.LogPath,
	}, nil
}

// DisableAnimations zeroes the animation scales on the device matching
// filter (serial or any substring of its `adb devices -l` line) and returns
// its serial.
func (m *Manager) DisableAnimations(filter string) (string, error) {
	env, span := m.spanEnv("avdmanager.DisableAnimations", attribute.String("device", filter))
	defer span.End()
	serial, err := avd.DisableAnimations(env, avd.AnimationOptions{Device: filter})
	if err != nil {
		span.RecordError(err)
	}
	return serial, err
}

// SelectDevice returns the serial adb commands should target.
func (m *Manager) SelectDevice(filter string) (string, error) {
	env, span := m.spanEnv("avdmanager.SelectDevice", attribute.String("device", filter))
	defer span.End()
	return avd.SelectSerial(env, filter)
}

// List returns all AVDs under AVDHome.
func (m *Manager) List() ([]AVDInfo, error) {
	env, span := m.spanEnv("avdmanager.List")
	defer span.End()
	infos, err := avd.List(env)
	if err != nil {
		return nil, err
	}
	result := make([]AVDInfo, len(infos))
	for i, info := range infos {
		result[i] = AVDInfo{
			Name:      info.Name,
			Path:      info.Path,
			Image:     info.Image,
			Userdata:  info.Userdata,
			SizeBytes: info.SizeBytes,
		}
	}
	return result, nil
}

// Stop stops a running emulator by serial (e.g., "emulator-5554").
func (m *Manager) Stop(serial string) error {
	env, span := m.spanEnv("avdmanager.Stop", attribute.String("serial", serial))
	defer span.End()
	return avd.Stop(env, serial)
}

// Delete removes an AVD (both .avd directory and .ini file).
func (m *Manager) Delete(name string) error {
	env, span := m.spanEnv("avdmanager.Delete", attribute.String("avd_name", name))
	defer span.End()
	return avd.Delete(env, name)
}
