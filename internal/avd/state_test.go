// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"path/filepath"
	"testing"
)

func TestIsUpToDate(t *testing.T) {
	const image = SystemImageID("system-images;android-24;google_apis;x86_64")
	cases := []struct {
		name   string
		text   string
		exists bool
		want   bool
	}{
		{"missing file", "", false, false},
		{"missing file ignores text", "image.sysdir.1=system-images/android-24/google_apis/x86_64\n", false, false},
		{"matching image", "image.sysdir.1=system-images/android-24/google_apis/x86_64\n", true, true},
		{"matching with trailing slash", "avd.ini.encoding=UTF-8\nimage.sysdir.1=system-images/android-24/google_apis/x86_64/\n", true, true},
		{"other flavor", "image.sysdir.1=system-images/android-24/default/x86_64\n", true, false},
		{"no sysdir line", "hw.gpu.mode=auto\n", true, false},
		{"empty config", "", true, false},
		{"first sysdir line wins", "image.sysdir.1=system-images/android-30/default/x86_64\nimage.sysdir.1=system-images/android-24/google_apis/x86_64\n", true, false},
		{"image elsewhere only", "path=system-images/android-24/google_apis/x86_64\n", true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUpToDate(tc.text, tc.exists, image); got != tc.want {
				t.Fatalf("IsUpToDate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSysDir(t *testing.T) {
	got := SystemImageID("system-images;android-35;google_apis_playstore;x86_64").SysDir()
	if got != "system-images/android-35/google_apis_playstore/x86_64" {
		t.Fatalf("unexpected sysdir %q", got)
	}
}

func TestNewDescriptor(t *testing.T) {
	d := NewDescriptor("/home/ci/.android/avd", "fastlane")
	want := filepath.Join("/home/ci/.android/avd", "fastlane.avd", "config.ini")
	if d.ConfigPath != want || d.Name != "fastlane" {
		t.Fatalf("unexpected descriptor %+v", d)
	}
}
