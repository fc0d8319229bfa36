package main

import (
	"fmt"
	"os/exec"
	"strings"

	"deedles.dev/thing/internal/compositor"
	"deedles.dev/thing/internal/config"
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/thing/internal/xwm"
	"deedles.dev/wlr"
	"github.com/sirupsen/logrus"
)

type Server struct {
	cfg *config.Config

	display wlr.Display

	allocator    wlr.Allocator
	backend      wlr.Backend
	cursor       wlr.Cursor
	outputLayout wlr.OutputLayout
	renderer     wlr.Renderer
	seat         wlr.Seat
	cursorMgr    wlr.XCursorManager
	xdgShell     wlr.XDGShell

	comp *compositor.Compositor

	outputs   []*Output
	keyboards []*Keyboard
	lastID    wl.SurfaceID

	// serials maps the seat's button serials to the compositor's.
	serials wl.SerialMap

	xserver   *exec.Cmd
	wms       chan *xwm.Manager
	wm        *xwm.Manager
	xsurfaces map[wlr.Surface]*surface

	newOutput            wlr.Listener
	newInput             wlr.Listener
	cursorMotion         wlr.Listener
	cursorMotionAbsolute wlr.Listener
	cursorButton         wlr.Listener
	cursorAxis           wlr.Listener
	requestCursor        wlr.Listener

	newXDGSurface wlr.Listener
}

func NewServer(cfg *config.Config) *Server {
	server := Server{
		cfg:       cfg,
		wms:       make(chan *xwm.Manager, 1),
		xsurfaces: make(map[wlr.Surface]*surface),
	}
	server.comp = compositor.New(cfg.Options(), pointerSink{&server}, keyboardSink{&server})
	server.comp.Shortcut = server.shortcut

	server.display = wlr.CreateDisplay()
	server.backend = wlr.AutocreateBackend(server.display)
	server.newOutput = server.backend.OnNewOutput(server.onNewOutput)
	server.newInput = server.backend.OnNewInput(server.onNewInput)

	server.renderer = wlr.AutocreateRenderer(server.backend)
	server.renderer.InitWLDisplay(server.display)
	server.allocator = wlr.AutocreateAllocator(server.backend, server.renderer)

	wlr.CreateCompositor(server.display, 5, server.renderer)
	wlr.CreateDataDeviceManager(server.display)

	server.outputLayout = wlr.CreateOutputLayout()

	server.xdgShell = wlr.CreateXDGShell(server.display, 3)
	server.newXDGSurface = server.xdgShell.OnNewSurface(server.onNewXDGSurface)

	server.cursor = wlr.CreateCursor()
	server.cursorMotion = server.cursor.OnMotion(server.onCursorMotion)
	server.cursorMotionAbsolute = server.cursor.OnMotionAbsolute(server.onCursorMotionAbsolute)
	server.cursorButton = server.cursor.OnButton(server.onCursorButton)
	server.cursorAxis = server.cursor.OnAxis(server.onCursorAxis)
	server.cursor.AttachOutputLayout(server.outputLayout)

	server.cursorMgr = wlr.CreateXCursorManager("", 24)
	server.cursorMgr.Load(1)

	server.seat = wlr.CreateSeat(server.display, cfg.Seat)
	server.requestCursor = server.seat.OnRequestSetCursor(server.onRequestCursor)

	return &server
}

// Start starts the backend, opens the client socket and, if enabled,
// starts Xwayland.
func (server *Server) Start() error {
	err := server.backend.Start()
	if err != nil {
		return fmt.Errorf("start backend: %w", err)
	}

	socket, err := server.display.AddSocketAuto()
	if err != nil {
		return fmt.Errorf("add socket: %w", err)
	}
	err = server.comp.PublishSocket(socket)
	if err != nil {
		return fmt.Errorf("publish socket: %w", err)
	}

	server.startXwayland()
	return nil
}

// Run runs the display's event loop until it is terminated.
func (server *Server) Run() error {
	server.display.Run()

	server.stopXwayland()
	server.display.Destroy()
	server.outputLayout.Destroy()
	server.cursorMgr.Destroy()
	server.cursor.Destroy()
	return nil
}

func (server *Server) exec(command string) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return
	}

	cmd := exec.Command(args[0], args[1:]...)
	err := cmd.Start()
	if err != nil {
		logrus.WithField("command", command).WithError(err).Error("start command")
		return
	}
	logrus.WithFields(logrus.Fields{
		"command": command,
		"pid":     cmd.Process.Pid,
	}).Info("started command")

	go cmd.Wait()
}

func (server *Server) shortcut(c *compositor.Compositor, code uint32, mods input.Modifiers) bool {
	if mods&input.ModLogo == 0 {
		return false
	}

	switch code {
	case input.KeyQ:
		c.CloseFocused()
		return true
	case input.KeyEsc:
		if mods&input.ModShift == 0 {
			return false
		}
		logrus.Info("exiting")
		server.display.Terminate()
		return true
	}

	return false
}
