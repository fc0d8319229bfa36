package xwm

import (
	"fmt"

	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Window is a top-level X11 window. It implements element.Window.
type Window struct {
	m       *Manager
	id      xproto.Window
	geom    geom.Rect[int]
	or      bool
	surface wl.Surface
	alive   bool
	mapped  bool

	// surfaceID is the WL_SURFACE_ID that hasn't been paired with a
	// surface yet.
	surfaceID uint32

	title string
	hints wl.SizeHints
}

func (w *Window) ID() uint32 {
	return uint32(w.id)
}

func (w *Window) Surface() wl.Surface {
	return w.surface
}

func (w *Window) Alive() bool {
	return w.alive
}

func (w *Window) Title() string {
	return w.title
}

func (w *Window) OverrideRedirect() bool {
	return w.or
}

func (w *Window) Geometry() geom.Rect[int] {
	return w.geom
}

func (w *Window) SizeHints() wl.SizeHints {
	return w.hints
}

// propertyChanged refreshes the cached copy of the property atom, if
// there is one.
func (w *Window) propertyChanged(atom xproto.Atom) {
	switch atom {
	case xproto.AtomWmName, w.m.atoms.netWMName:
		w.title = w.m.titleOf(w.id)
	case xproto.AtomWmNormalHints:
		w.hints = w.m.hintsOf(w.id)
	}
}

// selectProperties asks for PropertyNotify events on a window.
func (m *Manager) selectProperties(id xproto.Window) {
	if m.xu == nil {
		return
	}

	err := xproto.ChangeWindowAttributesChecked(
		m.xu.Conn(),
		id,
		xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange},
	).Check()
	if err != nil {
		logrus.WithField("window", id).WithError(err).Debug("select property events")
	}
}

func (m *Manager) fetchTitle(id xproto.Window) string {
	if m.xu == nil {
		return ""
	}

	name, err := ewmh.WmNameGet(m.xu, id)
	if (err == nil) && (name != "") {
		return name
	}
	name, _ = icccm.WmNameGet(m.xu, id)
	return name
}

func (m *Manager) fetchSizeHints(id xproto.Window) wl.SizeHints {
	if m.xu == nil {
		return wl.SizeHints{}
	}

	hints, err := icccm.WmNormalHintsGet(m.xu, id)
	if err != nil {
		return wl.SizeHints{}
	}
	return sizeHints(hints)
}

func sizeHints(hints *icccm.NormalHints) (h wl.SizeHints) {
	if hints.Flags&icccm.SizeHintPMinSize != 0 {
		h.Min = geom.Pt(int(hints.MinWidth), int(hints.MinHeight))
	}
	if hints.Flags&icccm.SizeHintPMaxSize != 0 {
		h.Max = geom.Pt(int(hints.MaxWidth), int(hints.MaxHeight))
	}
	return h
}

func (w *Window) Configure(r geom.Rect[int]) error {
	if !w.alive {
		return fmt.Errorf("configure window %v: destroyed", w.id)
	}

	size := r.Size()
	err := xproto.ConfigureWindowChecked(
		w.m.xu.Conn(),
		w.id,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(int32(r.Min.X)), uint32(int32(r.Min.Y)), uint32(max(size.X, 1)), uint32(max(size.Y, 1))},
	).Check()
	if err != nil {
		return fmt.Errorf("configure window %v: %w", w.id, err)
	}
	w.geom = r
	return nil
}

func (w *Window) SetActivated(activated bool) error {
	if !w.alive {
		return fmt.Errorf("activate window %v: destroyed", w.id)
	}

	if !activated {
		active, err := ewmh.ActiveWindowGet(w.m.xu)
		if (err != nil) || (active != w.id) {
			return nil
		}
		return ewmh.ActiveWindowSet(w.m.xu, 0)
	}

	err := xproto.SetInputFocusChecked(
		w.m.xu.Conn(),
		xproto.InputFocusPointerRoot,
		w.id,
		xproto.TimeCurrentTime,
	).Check()
	if err != nil {
		return fmt.Errorf("focus window %v: %w", w.id, err)
	}
	return ewmh.ActiveWindowSet(w.m.xu, w.id)
}

func (w *Window) SetMapped(mapped bool) error {
	if !w.alive {
		return fmt.Errorf("map window %v: destroyed", w.id)
	}

	var err error
	if mapped {
		err = xproto.MapWindowChecked(w.m.xu.Conn(), w.id).Check()
	} else {
		err = xproto.UnmapWindowChecked(w.m.xu.Conn(), w.id).Check()
	}
	if err != nil {
		return fmt.Errorf("map window %v: %w", w.id, err)
	}
	w.mapped = mapped
	return nil
}

// Close asks the window to close with WM_DELETE_WINDOW if it supports
// it and kills its client otherwise.
func (w *Window) Close() error {
	if !w.alive {
		return nil
	}

	protocols, err := icccm.WmProtocolsGet(w.m.xu, w.id)
	if (err != nil) || !slices.Contains(protocols, "WM_DELETE_WINDOW") {
		return xproto.KillClientChecked(w.m.xu.Conn(), uint32(w.id)).Check()
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: w.id,
		Type:   w.m.atoms.wmProtocols,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			uint32(w.m.atoms.wmDeleteWindow),
			uint32(xproto.TimeCurrentTime),
			0,
			0,
			0,
		}),
	}
	return xproto.SendEventChecked(
		w.m.xu.Conn(),
		false,
		w.id,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}
