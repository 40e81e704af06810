// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

type Info struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Image     string `json:"image,omitempty"`
	Userdata  string `json:"userdata"`
	SizeBytes int64  `json:"size_bytes"`
}

// List returns the AVDs found under AVDHome.
func List(env Env) ([]Info, error) {
	_, span := startSpan(env, "avd.List")
	defer span.End()
	entries, err := os.ReadDir(env.AVDHome)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	var out []Info
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), ".avd") {
			continue
		}
		out = append(out, infoOf(env, strings.TrimSuffix(e.Name(), ".avd")))
	}
	span.SetAttributes(attribute.Int("count", len(out)))
	return out, nil
}

func infoOf(env Env, name string) Info {
	desc := NewDescriptor(env.AVDHome, name)
	dir := filepath.Dir(desc.ConfigPath)
	ud := filepath.Join(dir, "userdata-qemu.img.qcow2")
	if _, err := os.Stat(ud); err != nil {
		alt := filepath.Join(dir, "userdata-qemu.img")
		if _, err2 := os.Stat(alt); err2 == nil {
			ud = alt
		} else {
			ud = filepath.Join(dir, "userdata.img")
		}
	}
	var sz int64
	if st, err := os.Stat(ud); err == nil {
		sz = st.Size()
	}
	info := Info{Name: name, Path: dir, Userdata: ud, SizeBytes: sz}
	if text, ok, err := env.files().Read(desc.ConfigPath); err == nil && ok {
		if image, found := ParseConfig(text).Get("image.sysdir.1"); found {
			info.Image = image
		}
	}
	return info
}

// Delete removes an AVD directory and its .ini. Missing AVDs are not an error.
func Delete(env Env, name string) error {
	if name == "" {
		return errors.New("empty name")
	}
	_, span := startSpan(env, "avd.Delete", attribute.String("name", name))
	defer span.End()
	if err := os.RemoveAll(filepath.Join(env.AVDHome, name+".avd")); err != nil {
		recordSpanError(span, err)
		return err
	}
	if err := os.Remove(filepath.Join(env.AVDHome, name+".ini")); err != nil && !os.IsNotExist(err) {
		recordSpanError(span, err)
		return err
	}
	logEvent(env, "avd deleted", "name", name)
	return nil
}

// Stop asks the emulator behind serial to shut down through its console.
func Stop(env Env, serial string) error {
	ctx, span := startSpan(env, "avd.Stop", attribute.String("serial", serial))
	defer span.End()
	logEvent(env, "emulator stop requested", "serial", serial)
	if _, err := env.runner().Run(ctx, command(env.ADB, "-s", serial, "emu", "kill")); err != nil {
		recordSpanError(span, err)
		return err
	}
	return nil
}
