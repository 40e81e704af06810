// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPollReturnsWhenReady(t *testing.T) {
	calls := 0
	query := func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "0\n", nil
		}
		return "1\n", nil
	}
	if err := Poll(context.Background(), time.Millisecond, time.Second, query, BootComplete.Ready); err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 queries, got %d", calls)
	}
}

func TestPollTimeoutReportsLastError(t *testing.T) {
	query := func(context.Context) (string, error) {
		return "", errors.New("device offline")
	}
	err := Poll(context.Background(), time.Millisecond, 30*time.Millisecond, query, BootComplete.Ready)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !strings.Contains(err.Error(), "device offline") {
		t.Fatalf("expected last error in message, got %v", err)
	}
}

func TestBootSignals(t *testing.T) {
	if !BootComplete.Ready(" 1\n") || BootComplete.Ready("0") || BootComplete.Ready("") {
		t.Fatal("unexpected bootcomplete predicate result")
	}
	if !BootAnimation.Ready("stopped\n") || BootAnimation.Ready("running") {
		t.Fatal("unexpected bootanim predicate result")
	}
	if BootComplete.Property() != "dev.bootcomplete" || BootAnimation.Property() != "init.svc.bootanim" {
		t.Fatal("unexpected boot properties")
	}

	for in, want := range map[string]BootSignal{"": BootComplete, "bootcomplete": BootComplete, "BootAnim": BootAnimation} {
		got, err := ParseBootSignal(in)
		if err != nil || got != want {
			t.Fatalf("ParseBootSignal(%q) = %q, %v", in, got, err)
		}
	}
	var cfgErr *ConfigurationError
	if _, err := ParseBootSignal("sometimes"); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestPollNonPositiveInterval(t *testing.T) {
	query := func(context.Context) (string, error) { return "1\n", nil }
	for _, interval := range []time.Duration{0, -time.Second} {
		if err := Poll(context.Background(), interval, time.Second, query, BootComplete.Ready); err != nil {
			t.Fatalf("Poll(interval=%s) returned error: %v", interval, err)
		}
	}
}

func TestWaitForBootZeroIntervalBootedDevice(t *testing.T) {
	runner := &fakeRunner{respond: func(c Command) (string, error) {
		if strings.Contains(c.String(), "getprop") {
			return "1\n", nil
		}
		return "", nil
	}}
	env := Env{ADB: "adb", Runner: runner, Context: context.Background()}
	if err := WaitForBoot(env, "emulator-5554", BootComplete, 0, time.Second); err != nil {
		t.Fatalf("WaitForBoot returned error: %v", err)
	}
}

func TestWaitForBootSharesOneDeadline(t *testing.T) {
	const timeout = 300 * time.Millisecond
	runner := &fakeRunner{respond: func(c Command) (string, error) {
		if strings.Contains(c.String(), "getprop") {
			return "0\n", nil
		}
		return "", nil
	}}
	slow := &slowWaitRunner{fakeRunner: runner, delay: 200 * time.Millisecond}
	env := Env{ADB: "adb", Runner: slow, Context: context.Background()}

	start := time.Now()
	err := WaitForBoot(env, "emulator-5554", BootComplete, 10*time.Millisecond, timeout)
	elapsed := time.Since(start)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed >= timeout+150*time.Millisecond {
		t.Fatalf("expected to give up near %s, took %s", timeout, elapsed)
	}
}

// slowWaitRunner delays wait-for-device until delay passes or ctx ends.
type slowWaitRunner struct {
	*fakeRunner
	delay time.Duration
}

func (r *slowWaitRunner) Run(ctx context.Context, c Command) (string, error) {
	if strings.Contains(c.String(), "wait-for-device") {
		sleepCtx(ctx, r.delay)
	}
	return r.fakeRunner.Run(ctx, c)
}
