// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetect(t *testing.T) {
	t.Setenv("ANDROID_SDK_DIR", "")
	t.Setenv("ANDROID_HOME", "/opt/android")
	t.Setenv("ANDROID_SDK_ROOT", "/opt/other")
	t.Setenv("AVDMANAGER", "")

	env := Detect()
	if env.AVDHome == "" {
		t.Fatal("AVDHome should not be empty")
	}
	if env.SDKRoot != "/opt/android" {
		t.Fatalf("expected ANDROID_HOME to win, got %q", env.SDKRoot)
	}
	if env.ADB != filepath.Join("/opt/android", "platform-tools", "adb") {
		t.Fatalf("unexpected adb path %q", env.ADB)
	}
	if env.Emulator != filepath.Join("/opt/android", "emulator", "emulator") {
		t.Fatalf("unexpected emulator path %q", env.Emulator)
	}
}

func TestAvdManagerResolution(t *testing.T) {
	sdk := t.TempDir()
	latest := filepath.Join(sdk, "cmdline-tools", "latest", "bin", "avdmanager")
	legacy := filepath.Join(sdk, "tools", "bin", "avdmanager")

	if got := (Env{}).WithSDKRoot(sdk).AvdMgr; got != latest {
		t.Fatalf("expected default %q, got %q", latest, got)
	}

	if err := os.MkdirAll(filepath.Dir(legacy), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(legacy, nil, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := (Env{}).WithSDKRoot(sdk).AvdMgr; got != legacy {
		t.Fatalf("expected legacy %q, got %q", legacy, got)
	}

	if err := os.MkdirAll(filepath.Dir(latest), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(latest, nil, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := (Env{}).WithSDKRoot(sdk).AvdMgr; got != latest {
		t.Fatalf("expected cmdline-tools %q, got %q", latest, got)
	}

	t.Setenv("AVDMANAGER", "/custom/avdmanager")
	t.Setenv("ANDROID_SDK_DIR", sdk)
	if got := Detect().AvdMgr; got != "/custom/avdmanager" {
		t.Fatalf("expected explicit avdmanager, got %q", got)
	}
}

func TestOSFilesReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fastlane.avd", "config.ini")
	files := OSFiles{}

	if _, ok, err := files.Read(path); ok || err != nil {
		t.Fatalf("expected missing file, got ok=%v err=%v", ok, err)
	}
	if err := files.Write(path, "a=1\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	text, ok, err := files.Read(path)
	if err != nil || !ok || text != "a=1\n" {
		t.Fatalf("unexpected read %q ok=%v err=%v", text, ok, err)
	}
}

func TestSdkManagerResolution(t *testing.T) {
	sdk := t.TempDir()
	legacy := filepath.Join(sdk, "tools", "bin", "sdkmanager")
	if err := os.MkdirAll(filepath.Dir(legacy), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(legacy, nil, 0o755); err != nil {
		t.Fatal(err)
	}
	env := (Env{}).WithSDKRoot(sdk)
	if env.SdkMgr != legacy {
		t.Fatalf("expected legacy %q, got %q", legacy, env.SdkMgr)
	}
	if env.Mksdcard != filepath.Join(sdk, "emulator", "mksdcard") {
		t.Fatalf("unexpected mksdcard path %q", env.Mksdcard)
	}

	t.Setenv("SDKMANAGER", "/custom/sdkmanager")
	t.Setenv("ANDROID_SDK_DIR", sdk)
	if got := Detect().SdkMgr; got != "/custom/sdkmanager" {
		t.Fatalf("expected explicit sdkmanager, got %q", got)
	}
	if got := (Env{}).WithSDKRoot("").SdkMgr; got != "sdkmanager" {
		t.Fatalf("expected bare sdkmanager, got %q", got)
	}
}
