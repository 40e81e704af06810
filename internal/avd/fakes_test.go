// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"context"
	"strings"
	"sync"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   []Command
	started []Command
	respond func(Command) (string, error)
}

func (f *fakeRunner) Run(_ context.Context, c Command) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	respond := f.respond
	f.mu.Unlock()
	if respond != nil {
		return respond(c)
	}
	return "", nil
}

func (f *fakeRunner) Start(c Command, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, c)
	return 4242, nil
}

func (f *fakeRunner) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.String())
	}
	return out
}

func (f *fakeRunner) find(substr string) (Command, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.Contains(c.String(), substr) {
			return c, true
		}
	}
	return Command{}, false
}

type memFiles struct {
	mu     sync.Mutex
	files  map[string]string
	writes int
}

func newMemFiles() *memFiles { return &memFiles{files: map[string]string{}} }

func (m *memFiles) Read(path string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.files[path]
	return text, ok, nil
}

func (m *memFiles) Write(path, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = text
	m.writes++
	return nil
}

type recordingUI struct {
	mu        sync.Mutex
	messages  []string
	important []string
	errors    []string
}

func (u *recordingUI) Message(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.messages = append(u.messages, msg)
}

func (u *recordingUI) Important(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.important = append(u.important, msg)
}

func (u *recordingUI) Error(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.errors = append(u.errors, msg)
}
