package element

import (
	"time"

	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
)

// Window is the window manager's handle for a single X11 window.
type Window interface {
	ID() uint32

	// Surface is the Wayland surface Xwayland created for the window,
	// or nil if it hasn't been associated yet.
	Surface() wl.Surface
	Alive() bool
	Title() string
	OverrideRedirect() bool

	// Geometry is the window's last known geometry in global
	// coordinates.
	Geometry() geom.Rect[int]
	SizeHints() wl.SizeHints

	Configure(geom.Rect[int]) error
	SetActivated(bool) error
	SetMapped(bool) error
	Close() error
}

// Legacy is an Element backed by an X11 window.
type Legacy struct {
	win       Window
	loc       geom.Point[int]
	size      geom.Point[int]
	activated bool
	mapped    bool
}

func NewLegacy(win Window) *Legacy {
	r := win.Geometry()
	return &Legacy{
		win:  win,
		loc:  r.Min,
		size: r.Size(),
	}
}

func (l *Legacy) Window() Window {
	return l.win
}

func (l *Legacy) Kind() Kind {
	return KindLegacy
}

func (l *Legacy) Title() string {
	return l.win.Title()
}

func (l *Legacy) Surface() wl.Surface {
	return l.win.Surface()
}

func (l *Legacy) Alive() bool {
	return l.win.Alive()
}

func (l *Legacy) Mapped() bool {
	return l.mapped
}

func (l *Legacy) SetMapped(m bool) {
	l.mapped = m
}

func (l *Legacy) Geometry() geom.Rect[int] {
	return geom.Rect[int]{Max: l.size}
}

func (l *Legacy) BBox() geom.Rect[int] {
	if !l.mapped {
		return geom.Rect[int]{}
	}
	return l.Geometry()
}

func (l *Legacy) SurfaceAt(p geom.Point[float64]) (wl.Surface, geom.Point[float64], bool) {
	s := l.win.Surface()
	if !l.mapped || !wl.Alive(s) {
		return nil, geom.Point[float64]{}, false
	}
	return s.SurfaceAt(p)
}

func (l *Legacy) SizeHints() wl.SizeHints {
	return l.win.SizeHints()
}

func (l *Legacy) Activated() bool {
	return l.activated
}

// SetActivated takes effect immediately. X has no notion of a pending
// activation state.
func (l *Legacy) SetActivated(a bool) {
	if l.activated == a {
		return
	}
	l.activated = a
	if !l.Alive() {
		return
	}
	err := l.win.SetActivated(a)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"window":    l.win.ID(),
			"activated": a,
		}).WithError(err).Warn("set activation")
	}
}

// SetResizing is a no-op. X11 has no resizing state.
func (l *Legacy) SetResizing(bool) {}

func (l *Legacy) Resize(size geom.Point[int]) {
	l.size = size
}

func (l *Legacy) Relocate(loc geom.Point[int]) {
	if l.loc == loc {
		return
	}
	l.loc = loc
	l.SendConfigure()
}

// Location returns the position last given to Relocate or Sync.
func (l *Legacy) Location() geom.Point[int] {
	return l.loc
}

// Sync records a geometry that the X server reported for the window
// without configuring it.
func (l *Legacy) Sync(r geom.Rect[int]) {
	l.loc = r.Min
	l.size = r.Size()
}

func (l *Legacy) SendConfigure() {
	if !l.Alive() {
		return
	}
	r := geom.Rect[int]{Min: l.loc, Max: l.loc.Add(l.size)}
	err := l.win.Configure(r)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"window":   l.win.ID(),
			"geometry": r,
		}).WithError(err).Warn("configure window")
	}
}

func (l *Legacy) OverrideRedirect() bool {
	return l.win.OverrideRedirect()
}

func (l *Legacy) OnCommit() {}

func (l *Legacy) OutputEnter(out *wl.Output) {
	if s := l.win.Surface(); wl.Alive(s) {
		s.SendEnter(out)
	}
}

func (l *Legacy) OutputLeave(out *wl.Output) {
	if s := l.win.Surface(); wl.Alive(s) {
		s.SendLeave(out)
	}
}

func (l *Legacy) SendFrame(t time.Time) {
	if s := l.win.Surface(); wl.Alive(s) {
		s.SendFrameDone(t)
	}
}

func (l *Legacy) Close() {
	if !l.Alive() {
		return
	}
	err := l.win.Close()
	if err != nil {
		logrus.WithField("window", l.win.ID()).WithError(err).Warn("close window")
	}
}
