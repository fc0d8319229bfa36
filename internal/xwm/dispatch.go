package xwm

import (
	"deedles.dev/thing/internal/element"
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/shell"
	"deedles.dev/ximage/geom"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/sirupsen/logrus"
)

// _NET_WM_MOVERESIZE directions.
const (
	moveResizeTopLeft uint32 = iota
	moveResizeTop
	moveResizeTopRight
	moveResizeRight
	moveResizeBottomRight
	moveResizeBottom
	moveResizeBottomLeft
	moveResizeLeft
	moveResizeMove
)

// Dispatch translates a single X event into calls on b.
func (m *Manager) Dispatch(ev xgb.Event, b Bridge) {
	switch ev := ev.(type) {
	case xproto.CreateNotifyEvent:
		m.create(ev, b)

	case xproto.MapRequestEvent:
		if _, ok := m.window(ev.Window); ok {
			b.LegacyMapRequest(uint32(ev.Window))
		}

	case xproto.MapNotifyEvent:
		w, ok := m.window(ev.Window)
		if !ok {
			return
		}
		w.mapped = true
		w.or = ev.OverrideRedirect
		if w.or {
			b.LegacyMappedOverrideRedirect(uint32(ev.Window))
		}

	case xproto.UnmapNotifyEvent:
		w, ok := m.window(ev.Window)
		if !ok {
			return
		}
		w.mapped = false
		b.LegacyUnmapped(uint32(ev.Window))

	case xproto.DestroyNotifyEvent:
		w, ok := m.window(ev.Window)
		if !ok {
			return
		}
		w.alive = false
		delete(m.windows, ev.Window)
		b.LegacyDestroyed(uint32(ev.Window))

	case xproto.ConfigureRequestEvent:
		if _, ok := m.window(ev.Window); ok {
			b.LegacyConfigureRequest(uint32(ev.Window), configureRequest(ev))
		}

	case xproto.ConfigureNotifyEvent:
		w, ok := m.window(ev.Window)
		if !ok {
			return
		}
		w.geom = geom.Rt(int(ev.X), int(ev.Y), int(ev.X)+int(ev.Width), int(ev.Y)+int(ev.Height))
		w.or = ev.OverrideRedirect
		b.LegacyConfigureNotify(uint32(ev.Window), w.geom)

	case xproto.PropertyNotifyEvent:
		// Root window properties land here too.
		if w, ok := m.windows[ev.Window]; ok {
			w.propertyChanged(ev.Atom)
		}

	case xproto.ClientMessageEvent:
		m.clientMessage(ev, b)
	}
}

func (m *Manager) window(id xproto.Window) (*Window, bool) {
	w, ok := m.windows[id]
	if !ok {
		logrus.WithField("window", id).Debug("event for unknown window")
	}
	return w, ok
}

func (m *Manager) create(ev xproto.CreateNotifyEvent, b Bridge) {
	if (m.xu != nil) && (ev.Parent != m.xu.RootWin()) {
		return
	}

	w := &Window{
		m:     m,
		id:    ev.Window,
		geom:  geom.Rt(int(ev.X), int(ev.Y), int(ev.X)+int(ev.Width), int(ev.Y)+int(ev.Height)),
		or:    ev.OverrideRedirect,
		alive: true,
	}
	m.selectProperties(w.id)
	w.title = m.titleOf(w.id)
	w.hints = m.hintsOf(w.id)
	m.windows[ev.Window] = w
	b.LegacyNewWindow(w)
}

func (m *Manager) clientMessage(ev xproto.ClientMessageEvent, b Bridge) {
	w, ok := m.window(ev.Window)
	if !ok {
		return
	}
	data := ev.Data.Data32
	if len(data) < 5 {
		return
	}

	switch ev.Type {
	case m.atoms.netMoveResize:
		dir, button := data[2], xButton(data[3])
		if dir == moveResizeMove {
			b.LegacyMoveRequest(uint32(w.id), button)
			return
		}
		edges, ok := moveResizeEdges(dir)
		if !ok {
			logrus.WithFields(logrus.Fields{
				"window":    w.id,
				"direction": dir,
			}).Debug("unsupported move/resize direction")
			return
		}
		b.LegacyResizeRequest(uint32(w.id), button, edges)

	case m.atoms.wlSurfaceID:
		w.surfaceID = data[0]
		if m.Lookup == nil {
			return
		}
		s := m.Lookup(data[0])
		if s == nil {
			logrus.WithFields(logrus.Fields{
				"window":  w.id,
				"surface": data[0],
			}).Debug("surface for window not found yet")
			return
		}
		m.Associate(uint32(w.id), s, b)
	}
}

// configureRequest extracts the fields of a configure request that the
// client actually set.
func configureRequest(ev xproto.ConfigureRequestEvent) (req element.ConfigureRequest) {
	if ev.ValueMask&xproto.ConfigWindowX != 0 {
		x := int32(ev.X)
		req.X = &x
	}
	if ev.ValueMask&xproto.ConfigWindowY != 0 {
		y := int32(ev.Y)
		req.Y = &y
	}
	if ev.ValueMask&xproto.ConfigWindowWidth != 0 {
		w := uint32(ev.Width)
		req.Width = &w
	}
	if ev.ValueMask&xproto.ConfigWindowHeight != 0 {
		h := uint32(ev.Height)
		req.Height = &h
	}
	return req
}

func moveResizeEdges(dir uint32) (shell.Edges, bool) {
	switch dir {
	case moveResizeTopLeft:
		return shell.EdgeTop | shell.EdgeLeft, true
	case moveResizeTop:
		return shell.EdgeTop, true
	case moveResizeTopRight:
		return shell.EdgeTop | shell.EdgeRight, true
	case moveResizeRight:
		return shell.EdgeRight, true
	case moveResizeBottomRight:
		return shell.EdgeBottom | shell.EdgeRight, true
	case moveResizeBottom:
		return shell.EdgeBottom, true
	case moveResizeBottomLeft:
		return shell.EdgeBottom | shell.EdgeLeft, true
	case moveResizeLeft:
		return shell.EdgeLeft, true
	default:
		return shell.EdgeNone, false
	}
}

// xButton converts an X button number into an evdev button code. 0
// means the client didn't say, which is treated as the left button.
func xButton(b uint32) input.Button {
	switch b {
	case 2:
		return input.BtnMiddle
	case 3:
		return input.BtnRight
	default:
		return input.BtnLeft
	}
}
