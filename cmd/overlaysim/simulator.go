package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GormazAR/overlay/internal/cache"
	"github.com/GormazAR/overlay/internal/config"
	"github.com/GormazAR/overlay/internal/dispatcher"
	"github.com/GormazAR/overlay/internal/handlers"
	"github.com/GormazAR/overlay/internal/logging"
	"github.com/GormazAR/overlay/internal/overlay"
	"github.com/GormazAR/overlay/internal/parser"
	"github.com/GormazAR/overlay/internal/pool"
	"github.com/GormazAR/overlay/internal/scans"
	"github.com/GormazAR/overlay/internal/session"
	"github.com/GormazAR/overlay/internal/worker"
	"github.com/GormazAR/overlay/pkg/core"
	"github.com/GormazAR/overlay/pkg/host"
)

// defaultCamera is a phone held upright at eye height.
var defaultCamera = core.Camera{
	Position:    r3.Vec{Y: 1.5},
	Rotation:    core.IdentityRotation,
	FieldOfView: 60,
	Aspect:      9.0 / 16.0,
}

type simOptions struct {
	Overlay  config.OverlayConfig
	UserID   string
	Stats    handlers.StatsClient
	Logger   *slog.Logger
	LogOut   io.Writer
	LogLevel string
	Camera   core.Camera
}

// simulator is the full client stack wired to an in-memory scene.
type simulator struct {
	scene   *host.Scene
	bridge  *host.Bridge
	d       *dispatcher.Dispatcher
	manager *overlay.Manager
	service *handlers.Service
	session *session.Context
	logger  *slog.Logger

	lastCommand string
}

func newSimulator(o simOptions) (*simulator, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logOut := o.LogOut
	if logOut == nil {
		logOut = io.Discard
	}

	registry, err := pool.New(o.Overlay.Pools)
	if err != nil {
		return nil, fmt.Errorf("pool table: %w", err)
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(logging.NewZerolog(logOut, o.LogLevel)))
	if err != nil {
		return nil, err
	}

	s := &simulator{
		scene:   host.NewScene(o.Camera),
		d:       d,
		session: session.NewContext(o.UserID),
		logger:  logger,
	}

	feed := host.NewFeed()
	s.manager, err = overlay.New(overlay.Config{
		ScaleFactor:      o.Overlay.ScaleFactor,
		DisplayDistance:  o.Overlay.DisplayDistance,
		PinWidthFraction: o.Overlay.PinWidthFraction,
	}, overlay.Dependencies{
		Registry: registry,
		Renderer: s.scene,
		Camera:   s.scene,
		Logger:   logger,
		OnPinAvailable: func(v bool) {
			logger.Info("pin trigger visibility changed", "visible", v)
		},
	})
	if err != nil {
		return nil, err
	}
	s.manager.Attach(feed)

	p := parser.NewParser(logger)
	reporter := scans.NewReporter(worker.ScanEnqueuer(d), func(name string, err error) {
		logger.Warn("scan increment not queued", "reference", name, "error", err)
	})

	s.service, err = handlers.NewService(handlers.Dependencies{
		Parser:     p,
		Trackables: cache.NewTrackableCache(),
		Feed:       feed,
		Overlays:   s.manager,
		Registry:   registry,
		Session:    s.session,
		Reporter:   reporter,
		Stats:      o.Stats,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	worker.NewManager(worker.Dependencies{Service: s.service, Parser: p, Logger: logger}).RegisterHandlers(d)
	s.bridge = host.NewBridge(d, version)
	return s, nil
}

// logAttrs is the logging.ContextProvider of a running simulator.
func (s *simulator) logAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("user", s.session.UserID()),
		slog.String("pin", s.manager.PinState().String()),
	}
}

// run executes the steps in order. onReply is called after every command.
func (s *simulator) run(steps []step, onReply func(step, string)) error {
	for _, st := range steps {
		if st.Camera != nil {
			cam, err := st.Camera.apply(s.scene.Camera())
			if err != nil {
				return fmt.Errorf("line %d: %w", st.Line, err)
			}
			s.scene.SetCamera(cam)
		}
		if st.Command == "" {
			continue
		}
		reply := s.bridge.Call(st.Command, st.args...)
		s.lastCommand = st.Command
		if onReply != nil {
			onReply(st, reply)
		}
	}
	return nil
}

// finish drains queued scan reports and ends the session unless the script
// just did.
func (s *simulator) finish() string {
	s.d.Close()
	if s.lastCommand == worker.CmdSessionEnd {
		return ""
	}
	return s.bridge.Call(worker.CmdSessionEnd)
}

// shutdown destroys every overlay left in the scene.
func (s *simulator) shutdown() error {
	s.manager.Detach()
	if err := s.manager.Reset(); err != nil {
		return errors.Join(errors.New("reset overlays"), err)
	}
	return nil
}
