// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"path/filepath"
	"strings"
)

const sysdirKey = "image.sysdir.1="

// SystemImageID is an sdkmanager package id such as
// "system-images;android-24;google_apis;x86_64".
type SystemImageID string

// SysDir returns the id in the slash-separated form config.ini uses for
// image.sysdir.1.
func (id SystemImageID) SysDir() string {
	return strings.ReplaceAll(string(id), ";", "/")
}

// Descriptor names an AVD and its config.ini.
type Descriptor struct {
	Name       string
	ConfigPath string
}

func NewDescriptor(avdHome, name string) Descriptor {
	return Descriptor{
		Name:       name,
		ConfigPath: filepath.Join(avdHome, name+".avd", "config.ini"),
	}
}

// IsUpToDate reports whether an existing config.ini already boots image.
// A missing config, or one without image.sysdir.1, never matches.
func IsUpToDate(configText string, exists bool, image SystemImageID) bool {
	if !exists {
		return false
	}
	want := image.SysDir()
	for _, line := range strings.Split(configText, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, sysdirKey) {
			continue
		}
		return strings.Contains(strings.TrimPrefix(line, sysdirKey), want)
	}
	return false
}
