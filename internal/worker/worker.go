// Package worker binds host commands to the handler service.
package worker

import (
	"log/slog"
	"time"

	"github.com/GormazAR/overlay/internal/handlers"
	"github.com/GormazAR/overlay/internal/parser"
)

// DefaultRequestTimeout bounds each backend call made by a command.
const DefaultRequestTimeout = 10 * time.Second

// Host command names.
const (
	CmdTrackingChanged = ":TRACKING:CHANGED:"
	CmdPinToggle       = ":PIN:TOGGLE:"
	CmdPinAvailable    = ":PIN:AVAILABLE:"
	CmdStatus          = ":STATUS:"
	CmdScanIncrement   = ":SCAN:INCREMENT:"
	CmdSessionEnd      = ":SESSION:END:"
)

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Service *handlers.Service
	Parser  *parser.Parser
	Logger  *slog.Logger
	// RequestTimeout defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// Manager owns the command table.
type Manager struct {
	deps Dependencies
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) *Manager {
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = DefaultRequestTimeout
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Manager{deps: deps}
}
