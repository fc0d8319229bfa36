// Package wltest provides in-memory implementations of the wl
// interfaces for tests.
package wltest

import (
	"sync/atomic"
	"time"

	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
)

var nextID atomic.Uint64

// Child is a subsurface placed at Offset inside its parent.
type Child struct {
	Surface *Surface
	Offset  geom.Point[int]
}

type Surface struct {
	Id       wl.SurfaceID
	Object   uint32
	ClientID wl.ClientID
	Size     geom.Point[int]
	Children []Child
	Dead     bool

	Outputs map[string]bool
	Frames  int
}

func NewSurface(client wl.ClientID, w, h int) *Surface {
	id := nextID.Add(1)
	return &Surface{
		Id:       wl.SurfaceID(id),
		Object:   uint32(id),
		ClientID: client,
		Size:     geom.Pt(w, h),
		Outputs:  make(map[string]bool),
	}
}

func (s *Surface) ID() wl.SurfaceID        { return s.Id }
func (s *Surface) ProtocolID() uint32      { return s.Object }
func (s *Surface) Client() wl.ClientID     { return s.ClientID }
func (s *Surface) Alive() bool             { return !s.Dead }
func (s *Surface) SendEnter(o *wl.Output)  { s.Outputs[o.Name] = true }
func (s *Surface) SendLeave(o *wl.Output)  { delete(s.Outputs, o.Name) }
func (s *Surface) SendFrameDone(time.Time) { s.Frames++ }

func (s *Surface) SurfaceAt(p geom.Point[float64]) (wl.Surface, geom.Point[float64], bool) {
	for i := len(s.Children) - 1; i >= 0; i-- {
		c := s.Children[i]
		local := p.Sub(geom.PConv[float64](c.Offset))
		if sub, sp, ok := c.Surface.SurfaceAt(local); ok {
			return sub, sp, true
		}
	}

	r := geom.Rect[float64]{Max: geom.PConv[float64](s.Size)}
	if !p.In(r) {
		return nil, geom.Point[float64]{}, false
	}
	return s, p, true
}

type Toplevel struct {
	S     *Surface
	Name  string
	Geom  geom.Rect[int]
	Hints wl.SizeHints

	Configures []wl.ToplevelState
	Closed     bool

	serials wl.SerialCounter
}

func NewToplevel(client wl.ClientID, w, h int) *Toplevel {
	return &Toplevel{
		S:    NewSurface(client, w, h),
		Geom: geom.Rt(0, 0, w, h),
	}
}

func (t *Toplevel) Surface() wl.Surface      { return t.S }
func (t *Toplevel) Title() string            { return t.Name }
func (t *Toplevel) Geometry() geom.Rect[int] { return t.Geom }
func (t *Toplevel) SizeHints() wl.SizeHints  { return t.Hints }
func (t *Toplevel) SendClose()               { t.Closed = true }

func (t *Toplevel) SendConfigure(state wl.ToplevelState) wl.Serial {
	t.Configures = append(t.Configures, state)
	return t.serials.Next()
}

// LastConfigure returns the most recently sent configure.
func (t *Toplevel) LastConfigure() (wl.ToplevelState, bool) {
	if len(t.Configures) == 0 {
		return wl.ToplevelState{}, false
	}
	return t.Configures[len(t.Configures)-1], true
}

// Resize simulates the client committing a buffer of the given size.
func (t *Toplevel) Resize(w, h int) {
	t.Geom = geom.Rt(0, 0, w, h)
	t.S.Size = geom.Pt(w, h)
}

type Popup struct {
	S         *Surface
	ParentS   wl.Surface
	Geom      geom.Rect[int]
	Configure int
	Done      bool
	Tokens    []uint32
}

func NewPopup(parent wl.Surface, r geom.Rect[int]) *Popup {
	return &Popup{
		S:       NewSurface(parent.Client(), r.Dx(), r.Dy()),
		ParentS: parent,
		Geom:    r,
	}
}

func (p *Popup) Surface() wl.Surface { return p.S }

func (p *Popup) Parent() wl.Surface {
	if !wl.Alive(p.ParentS) {
		return nil
	}
	return p.ParentS
}

func (p *Popup) Geometry() geom.Rect[int]      { return p.Geom }
func (p *Popup) SetGeometry(r geom.Rect[int])  { p.Geom = r }
func (p *Popup) SendRepositioned(token uint32) { p.Tokens = append(p.Tokens, token) }
func (p *Popup) SendDone()                     { p.Done = true }

func (p *Popup) SendConfigure() wl.Serial {
	p.Configure++
	return wl.Serial(p.Configure)
}

type PointerEvent struct {
	Kind    string
	Surface wl.Surface
	Point   geom.Point[float64]
	Button  input.Button
	State   input.ButtonState
	Serial  wl.Serial
}

// Pointer records every pointer event it is handed.
type Pointer struct {
	Events []PointerEvent
	Focus  wl.Surface
}

func (p *Pointer) Enter(s wl.Surface, pt geom.Point[float64], serial wl.Serial) {
	p.Focus = s
	p.Events = append(p.Events, PointerEvent{Kind: "enter", Surface: s, Point: pt, Serial: serial})
}

func (p *Pointer) Leave(s wl.Surface, serial wl.Serial) {
	if p.Focus == s {
		p.Focus = nil
	}
	p.Events = append(p.Events, PointerEvent{Kind: "leave", Surface: s, Serial: serial})
}

func (p *Pointer) Motion(s wl.Surface, pt geom.Point[float64], time uint32) {
	p.Events = append(p.Events, PointerEvent{Kind: "motion", Surface: s, Point: pt})
}

func (p *Pointer) Button(s wl.Surface, b input.Button, state input.ButtonState, serial wl.Serial, time uint32) {
	p.Events = append(p.Events, PointerEvent{Kind: "button", Surface: s, Button: b, State: state, Serial: serial})
}

func (p *Pointer) Axis(s wl.Surface, frame input.AxisFrame) {
	p.Events = append(p.Events, PointerEvent{Kind: "axis", Surface: s})
}

func (p *Pointer) Frame(s wl.Surface) {
	p.Events = append(p.Events, PointerEvent{Kind: "frame", Surface: s})
}

// Count returns the number of recorded events of the given kind.
func (p *Pointer) Count(kind string) (n int) {
	for _, ev := range p.Events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

type KeyEvent struct {
	Kind    string
	Surface wl.Surface
	Code    uint32
	State   input.KeyState
	Mods    input.Modifiers
}

// Keyboard records every keyboard event it is handed.
type Keyboard struct {
	Events []KeyEvent
	Focus  wl.Surface
}

func (k *Keyboard) Enter(s wl.Surface, pressed []uint32, serial wl.Serial) {
	k.Focus = s
	k.Events = append(k.Events, KeyEvent{Kind: "enter", Surface: s})
}

func (k *Keyboard) Leave(s wl.Surface, serial wl.Serial) {
	if k.Focus == s {
		k.Focus = nil
	}
	k.Events = append(k.Events, KeyEvent{Kind: "leave", Surface: s})
}

func (k *Keyboard) Key(s wl.Surface, code uint32, state input.KeyState, serial wl.Serial, time uint32) {
	k.Events = append(k.Events, KeyEvent{Kind: "key", Surface: s, Code: code, State: state})
}

func (k *Keyboard) Modifiers(s wl.Surface, mods input.Modifiers, serial wl.Serial) {
	k.Events = append(k.Events, KeyEvent{Kind: "modifiers", Surface: s, Mods: mods})
}

// Window is an X11 window as seen through the window manager.
type Window struct {
	Xid   uint32
	S     wl.Surface
	Dead  bool
	Name  string
	OR    bool
	Geom  geom.Rect[int]
	Hints wl.SizeHints

	Activated  bool
	Mapped     bool
	Configures []geom.Rect[int]
	Closed     bool

	// Err is returned from every request when set.
	Err error
}

func NewWindow(xid uint32, r geom.Rect[int]) *Window {
	return &Window{Xid: xid, Geom: r}
}

func (w *Window) ID() uint32               { return w.Xid }
func (w *Window) Surface() wl.Surface      { return w.S }
func (w *Window) Alive() bool              { return !w.Dead }
func (w *Window) Title() string            { return w.Name }
func (w *Window) OverrideRedirect() bool   { return w.OR }
func (w *Window) Geometry() geom.Rect[int] { return w.Geom }
func (w *Window) SizeHints() wl.SizeHints  { return w.Hints }

func (w *Window) Configure(r geom.Rect[int]) error {
	if w.Err != nil {
		return w.Err
	}
	w.Geom = r
	w.Configures = append(w.Configures, r)
	return nil
}

func (w *Window) SetActivated(a bool) error {
	if w.Err != nil {
		return w.Err
	}
	w.Activated = a
	return nil
}

func (w *Window) SetMapped(m bool) error {
	if w.Err != nil {
		return w.Err
	}
	w.Mapped = m
	return nil
}

func (w *Window) Close() error {
	if w.Err != nil {
		return w.Err
	}
	w.Closed = true
	return nil
}
