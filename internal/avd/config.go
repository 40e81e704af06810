// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"fmt"
	"strings"

	"github.com/docker/go-units"
)

// ConfigEntry is one key=value line of an AVD config.ini.
type ConfigEntry struct {
	Key   string
	Value string
}

// Config is an ordered key=value mapping. Keys are unique; Set on an
// existing key keeps its position.
type Config struct {
	entries []ConfigEntry
	index   map[string]int
}

// ParseConfig reads a flat config.ini. Lines without '=' and lines with an
// empty key are skipped. A repeated key keeps its first position and its
// last value.
func ParseConfig(text string) *Config {
	cfg := &Config{index: map[string]int{}}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		cfg.Set(key, strings.TrimSpace(value))
	}
	return cfg
}

func (c *Config) Set(key, value string) {
	if c.index == nil {
		c.index = map[string]int{}
	}
	if i, ok := c.index[key]; ok {
		c.entries[i].Value = value
		return
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, ConfigEntry{Key: key, Value: value})
}

func (c *Config) Get(key string) (string, bool) {
	i, ok := c.index[key]
	if !ok {
		return "", false
	}
	return c.entries[i].Value, true
}

func (c *Config) Len() int { return len(c.entries) }

// Entries returns a copy of the entries in order.
func (c *Config) Entries() []ConfigEntry {
	out := make([]ConfigEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// String renders one trimmed key=value line per entry, each newline-terminated.
func (c *Config) String() string {
	var b strings.Builder
	for _, e := range c.entries {
		b.WriteString(strings.TrimSpace(e.Key))
		b.WriteByte('=')
		b.WriteString(strings.TrimSpace(e.Value))
		b.WriteByte('\n')
	}
	return b.String()
}

// Reconcile merges overrides into an existing config.ini text. Overrides
// replace values in place and unknown keys are appended in override order.
func Reconcile(existing string, overrides []ConfigEntry) string {
	cfg := ParseConfig(existing)
	for _, o := range overrides {
		key := strings.TrimSpace(o.Key)
		if key == "" {
			continue
		}
		cfg.Set(key, strings.TrimSpace(o.Value))
	}
	return cfg.String()
}

// DefaultOverrides are the rendering hints applied to every freshly created
// AVD before user supplied options.
func DefaultOverrides() []ConfigEntry {
	return []ConfigEntry{
		{Key: "hw.gpu.mode", Value: "auto"},
		{Key: "hw.gpu.enabled", Value: "yes"},
		{Key: "skin.dynamic", Value: "yes"},
		{Key: "skin.name", Value: "1080x1920"},
	}
}

// size-valued keys accepted by the emulator with an optional unit suffix
var sizeKeys = map[string]bool{
	"hw.ramSize":              true,
	"disk.dataPartition.size": true,
	"sdcard.size":             true,
	"vm.heapSize":             true,
}

// ParseOverrides turns "key=value" strings into config entries.
func ParseOverrides(opts []string) ([]ConfigEntry, error) {
	out := make([]ConfigEntry, 0, len(opts))
	for _, o := range opts {
		key, value, ok := strings.Cut(o, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &ConfigurationError{
				Option: "additional_options",
				Reason: fmt.Sprintf("%q is not in key=value form", o),
			}
		}
		value = strings.TrimSpace(value)
		if sizeKeys[key] {
			if _, err := units.RAMInBytes(value); err != nil {
				return nil, &ConfigurationError{
					Option: "additional_options",
					Reason: fmt.Sprintf("%s: %v", key, err),
				}
			}
		}
		out = append(out, ConfigEntry{Key: key, Value: value})
	}
	return out, nil
}
