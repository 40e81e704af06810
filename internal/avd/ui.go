// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	otellog "go.opentelemetry.io/otel/log"
)

// UI receives human facing progress messages.
type UI interface {
	Message(msg string)
	Important(msg string)
	Error(msg string)
}

var (
	messageStyle   = lipgloss.NewStyle()
	importantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// ConsoleUI prints styled messages and mirrors each one as a log event.
type ConsoleUI struct {
	env Env
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleUI(env Env, out io.Writer) *ConsoleUI {
	return &ConsoleUI{env: env, out: out}
}

func (u *ConsoleUI) Message(msg string) {
	u.print(messageStyle, otellog.SeverityInfo, "info", msg)
}

func (u *ConsoleUI) Important(msg string) {
	u.print(importantStyle, otellog.SeverityWarn, "warn", msg)
}

func (u *ConsoleUI) Error(msg string) {
	u.print(errorStyle, otellog.SeverityError, "error", msg)
}

func (u *ConsoleUI) print(style lipgloss.Style, sev otellog.Severity, level, msg string) {
	u.mu.Lock()
	fmt.Fprintln(u.out, style.Render(msg))
	u.mu.Unlock()
	logEvent(u.env, msg, "ui_level", level)
	emitRecord(u.env, sev, level, msg)
}
