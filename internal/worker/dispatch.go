package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/GormazAR/overlay/internal/dispatcher"
	"github.com/GormazAR/overlay/internal/scans"
)

// RegisterHandlers registers all command handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Tracking and pin - sync, the host waits for the scene to settle
	d.Register(CmdTrackingChanged, m.handleTrackingChanged, dispatcher.Logged())
	d.Register(CmdPinToggle, m.handlePinToggle, dispatcher.Logged())
	d.Register(CmdPinAvailable, m.handlePinAvailable)
	d.Register(CmdStatus, m.handleStatus)

	// Backend calls - scan increments are fire-and-forget
	d.Register(CmdScanIncrement, m.handleScanIncrement, dispatcher.Buffered(100), dispatcher.Logged())
	d.Register(CmdSessionEnd, m.handleSessionEnd, dispatcher.Logged())
}

// ScanEnqueuer returns a scans.EnqueueFunc that queues a scan increment on d.
func ScanEnqueuer(d *dispatcher.Dispatcher) scans.EnqueueFunc {
	return func(referenceName string) error {
		_, err := d.Dispatch(dispatcher.Event{
			Command:   CmdScanIncrement,
			Args:      []string{referenceName},
			Timestamp: time.Now(),
		})
		return err
	}
}

func (m *Manager) handleTrackingChanged(e dispatcher.Event) (any, error) {
	res, err := m.deps.Service.HandleTrackingChanged(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle tracking batch: %w", err)
	}
	return res, nil
}

func (m *Manager) handlePinToggle(_ dispatcher.Event) (any, error) {
	return m.deps.Service.TogglePin()
}

func (m *Manager) handlePinAvailable(_ dispatcher.Event) (any, error) {
	return m.deps.Service.PinAvailable(), nil
}

func (m *Manager) handleStatus(_ dispatcher.Event) (any, error) {
	return m.deps.Service.Status(), nil
}

func (m *Manager) handleScanIncrement(e dispatcher.Event) (any, error) {
	docID, err := m.deps.Parser.ParseDocID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to increment scan: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.deps.RequestTimeout)
	defer cancel()
	return m.deps.Service.IncrementScan(ctx, docID)
}

func (m *Manager) handleSessionEnd(e dispatcher.Event) (any, error) {
	d, ok, err := m.deps.Parser.ParseSessionDuration(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.deps.RequestTimeout)
	defer cancel()
	return m.deps.Service.EndSession(ctx, d, ok)
}
