// Package xwm is a minimal X11 window manager for a rootless Xwayland
// server. It doesn't decide anything itself: every event is translated
// and handed to a Bridge.
package xwm

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"deedles.dev/thing/internal/element"
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/shell"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/sirupsen/logrus"
)

var ErrAnotherWM = errors.New("another window manager is running")

// Bridge receives the window manager's lifecycle callbacks.
type Bridge interface {
	LegacyNewWindow(win element.Window)
	LegacyAssociate(id uint32, s wl.Surface)
	LegacyMapRequest(id uint32)
	LegacyMappedOverrideRedirect(id uint32)
	LegacyUnmapped(id uint32)
	LegacyDestroyed(id uint32)
	LegacyConfigureRequest(id uint32, req element.ConfigureRequest)
	LegacyConfigureNotify(id uint32, r geom.Rect[int])
	LegacyMoveRequest(id uint32, button input.Button)
	LegacyResizeRequest(id uint32, button input.Button, edges shell.Edges)
}

type atoms struct {
	wmProtocols    xproto.Atom
	wmDeleteWindow xproto.Atom
	netMoveResize  xproto.Atom
	netWMName      xproto.Atom
	wlSurfaceID    xproto.Atom
}

type Manager struct {
	xu      *xgbutil.XUtil
	display string
	atoms   atoms
	windows map[xproto.Window]*Window

	// Lookup resolves the protocol ID Xwayland reports for a window's
	// surface. If it is nil, windows are never associated with
	// surfaces.
	Lookup func(protocolID uint32) wl.Surface

	// titleOf and hintsOf read a window's properties from the server.
	titleOf func(xproto.Window) string
	hintsOf func(xproto.Window) wl.SizeHints

	events    chan xgb.Event
	closeOnce sync.Once
}

func newManager(xu *xgbutil.XUtil, display string) *Manager {
	m := Manager{
		xu:      xu,
		display: display,
		windows: make(map[xproto.Window]*Window),
		events:  make(chan xgb.Event, 64),
	}
	m.titleOf = m.fetchTitle
	m.hintsOf = m.fetchSizeHints
	return &m
}

// Connect connects to the X server on display and becomes its window
// manager. On success, DISPLAY is set so that clients started from now
// on connect to the same server.
func Connect(display string) (*Manager, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to %q: %w", display, err)
	}

	m := newManager(xu, display)
	err = m.redirect()
	if err != nil {
		xu.Conn().Close()
		return nil, err
	}
	err = m.internAtoms()
	if err != nil {
		xu.Conn().Close()
		return nil, err
	}

	err = os.Setenv("DISPLAY", display)
	if err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("set DISPLAY: %w", err)
	}

	go m.pump()

	logrus.WithField("display", display).Info("window manager started")
	return m, nil
}

func (m *Manager) redirect() error {
	err := xproto.ChangeWindowAttributesChecked(
		m.xu.Conn(),
		m.xu.RootWin(),
		xproto.CwEventMask,
		[]uint32{
			xproto.EventMaskSubstructureRedirect |
				xproto.EventMaskSubstructureNotify |
				xproto.EventMaskPropertyChange,
		},
	).Check()
	if err != nil {
		if _, ok := err.(xproto.AccessError); ok {
			return ErrAnotherWM
		}
		return fmt.Errorf("select root events: %w", err)
	}
	return nil
}

func (m *Manager) internAtoms() error {
	for name, dst := range map[string]*xproto.Atom{
		"WM_PROTOCOLS":       &m.atoms.wmProtocols,
		"WM_DELETE_WINDOW":   &m.atoms.wmDeleteWindow,
		"_NET_WM_MOVERESIZE": &m.atoms.netMoveResize,
		"_NET_WM_NAME":       &m.atoms.netWMName,
		"WL_SURFACE_ID":      &m.atoms.wlSurfaceID,
	} {
		atom, err := xprop.Atm(m.xu, name)
		if err != nil {
			return fmt.Errorf("intern %v: %w", name, err)
		}
		*dst = atom
	}
	return nil
}

// pump reads events from the X connection until it is closed.
func (m *Manager) pump() {
	defer close(m.events)

	for {
		ev, err := m.xu.Conn().WaitForEvent()
		if (ev == nil) && (err == nil) {
			logrus.Debug("X connection closed")
			return
		}
		if err != nil {
			logrus.WithError(err).Debug("X error")
			continue
		}
		m.events <- ev
	}
}

// Events returns the channel that X events are delivered on. It is
// closed when the connection is. Each event should be passed to
// Dispatch from the goroutine that owns the Bridge.
func (m *Manager) Events() <-chan xgb.Event {
	return m.events
}

func (m *Manager) Display() string {
	return m.display
}

func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		if m.xu != nil {
			m.xu.Conn().Close()
		}
	})
}

// Associate records that s is the surface backing the window with the
// given ID and tells b about it.
func (m *Manager) Associate(id uint32, s wl.Surface, b Bridge) {
	w, ok := m.windows[xproto.Window(id)]
	if !ok {
		logrus.WithField("window", id).Debug("associate unknown window")
		return
	}
	w.surface = s
	w.surfaceID = 0
	b.LegacyAssociate(id, s)
}

// Pair retries the association of windows whose WL_SURFACE_ID arrived
// before Lookup could find the surface. Xwayland doesn't order its X
// and Wayland connections, so this should be called again after the
// Wayland side has been dispatched.
func (m *Manager) Pair(b Bridge) {
	if m.Lookup == nil {
		return
	}
	for _, w := range m.windows {
		if (w.surfaceID == 0) || (w.surface != nil) {
			continue
		}
		if s := m.Lookup(w.surfaceID); s != nil {
			m.Associate(uint32(w.id), s, b)
		}
	}
}
