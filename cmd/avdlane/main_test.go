// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	core "github.com/forkbombeu/avdlane/internal/avd"
)

func TestStartRequiresPackage(t *testing.T) {
	t.Setenv("AVD_PACKAGE", "")
	env := core.Env{AVDHome: t.TempDir()}

	root := newRootCmd(env)
	root.SetArgs([]string{"start", "--sdk-dir", t.TempDir()})
	err := root.Execute()

	var cfgErr *core.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Option != "package" {
		t.Fatalf("expected package ConfigurationError, got %v", err)
	}
}

func TestStartRequiresSDK(t *testing.T) {
	env := core.Env{AVDHome: t.TempDir()}

	root := newRootCmd(env)
	root.SetArgs([]string{"start", "--package", "system-images;android-24;google_apis;x86_64"})
	err := root.Execute()

	var cfgErr *core.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Option != "sdk_dir" {
		t.Fatalf("expected sdk_dir ConfigurationError, got %v", err)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("AVD_ADDITIONAL_OPTIONS", " hw.ramSize=2048M, ,hw.keyboard=yes ")
	got := envList("AVD_ADDITIONAL_OPTIONS")
	if len(got) != 2 || got[0] != "hw.ramSize=2048M" || got[1] != "hw.keyboard=yes" {
		t.Fatalf("unexpected list %v", got)
	}

	t.Setenv("AVD_DEMO_MODE", "false")
	if envBool("AVD_DEMO_MODE", true) {
		t.Fatal("expected demo mode disabled")
	}
	t.Setenv("AVD_PORT", "not-a-port")
	if envInt("AVD_PORT", 5554) != 5554 {
		t.Fatal("expected default port for invalid value")
	}
	t.Setenv("AVD_BOOT_TIMEOUT", "90s")
	if envDuration("AVD_BOOT_TIMEOUT", time.Minute) != 90*time.Second {
		t.Fatal("expected parsed boot timeout")
	}
}

type failureUI struct{ failures []string }

func (u *failureUI) Message(string)   {}
func (u *failureUI) Important(string) {}
func (u *failureUI) Error(msg string) { u.failures = append(u.failures, msg) }

func TestReportErrorUsesConsoleUI(t *testing.T) {
	var out bytes.Buffer
	reportError(core.Env{CorrelationID: "corr-1"}, &out, errors.New("invalid package: no system image given"))
	if !strings.Contains(out.String(), "invalid package: no system image given") {
		t.Fatalf("expected error on console, got %q", out.String())
	}

	ui := &failureUI{}
	var unused bytes.Buffer
	reportError(core.Env{UI: ui}, &unused, errors.New("boom"))
	if len(ui.failures) != 1 || ui.failures[0] != "boom" {
		t.Fatalf("expected error routed to env UI, got %v", ui.failures)
	}
	if unused.Len() != 0 {
		t.Fatalf("expected nothing written outside the UI, got %q", unused.String())
	}
}
