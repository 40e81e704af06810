// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command is a single SDK tool invocation.
type Command struct {
	Bin   string
	Args  []string
	Env   []string // extra KEY=VALUE pairs on top of the current environment
	Stdin string
}

func command(bin string, args ...string) Command {
	return Command{Bin: bin, Args: args}
}

func (c Command) String() string {
	return strings.TrimSpace(c.Bin + " " + strings.Join(c.Args, " "))
}

// Runner executes SDK tools.
type Runner interface {
	// Run waits for cmd and returns its stdout. A non-zero exit is a *ToolError.
	Run(ctx context.Context, cmd Command) (string, error)
	// Start launches cmd in the background with its output sent to logPath
	// and returns the process id. The process outlives the caller.
	Start(cmd Command, logPath string) (int, error)
}

type execRunner struct {
	env Env
}

// NewExecRunner returns a Runner that shells out, logging stderr lines as
// structured events tagged with env's correlation id.
func NewExecRunner(env Env) Runner {
	return execRunner{env: env}
}

func (r execRunner) Run(ctx context.Context, c Command) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, c.Bin, c.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.MultiWriter(&stderr, newCommandLogWriter(r.env, c.Bin, c.Args))
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}
	if err := cmd.Run(); err != nil {
		return stdout.String(), &ToolError{
			Bin:    c.Bin,
			Args:   c.Args,
			Err:    err,
			Output: stdout.String() + stderr.String(),
		}
	}
	return stdout.String(), nil
}

func (r execRunner) Start(c Command, logPath string) (int, error) {
	logFile, err := os.Create(logPath)
	if err != nil {
		return 0, fmt.Errorf("open log: %w", err)
	}
	// the child holds its own descriptor once started
	defer logFile.Close()

	cmd := exec.Command(c.Bin, c.Args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if err := cmd.Start(); err != nil {
		return 0, &ToolError{Bin: c.Bin, Args: c.Args, Err: err}
	}
	go func() { _ = cmd.Wait() }()
	return cmd.Process.Pid, nil
}
