package element

import (
	"time"

	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
)

// Native is an Element backed by an xdg toplevel.
type Native struct {
	toplevel wl.Toplevel
	pending  wl.ToplevelState
	geometry geom.Rect[int]
	mapped   bool
}

func NewNative(toplevel wl.Toplevel) *Native {
	return &Native{
		toplevel: toplevel,
		geometry: toplevel.Geometry(),
	}
}

func (n *Native) Toplevel() wl.Toplevel {
	return n.toplevel
}

func (n *Native) Kind() Kind {
	return KindNative
}

func (n *Native) Title() string {
	return n.toplevel.Title()
}

func (n *Native) Surface() wl.Surface {
	return n.toplevel.Surface()
}

func (n *Native) Alive() bool {
	return wl.Alive(n.toplevel.Surface())
}

func (n *Native) Mapped() bool {
	return n.mapped
}

func (n *Native) SetMapped(m bool) {
	n.mapped = m
}

func (n *Native) Geometry() geom.Rect[int] {
	return n.geometry
}

func (n *Native) BBox() geom.Rect[int] {
	if !n.mapped {
		return geom.Rect[int]{}
	}
	return n.geometry
}

func (n *Native) SurfaceAt(p geom.Point[float64]) (wl.Surface, geom.Point[float64], bool) {
	s := n.toplevel.Surface()
	if !n.mapped || !wl.Alive(s) {
		return nil, geom.Point[float64]{}, false
	}
	return s.SurfaceAt(p)
}

func (n *Native) SizeHints() wl.SizeHints {
	return n.toplevel.SizeHints()
}

func (n *Native) Activated() bool {
	return n.pending.Activated
}

func (n *Native) SetActivated(a bool) {
	n.pending.Activated = a
}

func (n *Native) SetResizing(r bool) {
	n.pending.Resizing = r
}

func (n *Native) Resize(size geom.Point[int]) {
	n.pending.Size = size
}

// Relocate is a no-op. xdg clients don't know where they are.
func (n *Native) Relocate(geom.Point[int]) {}

func (n *Native) SendConfigure() {
	if !n.Alive() {
		return
	}
	n.toplevel.SendConfigure(n.pending)
}

func (n *Native) OverrideRedirect() bool {
	return false
}

func (n *Native) OnCommit() {
	n.geometry = n.toplevel.Geometry()
}

func (n *Native) OutputEnter(out *wl.Output) {
	if s := n.toplevel.Surface(); wl.Alive(s) {
		s.SendEnter(out)
	}
}

func (n *Native) OutputLeave(out *wl.Output) {
	if s := n.toplevel.Surface(); wl.Alive(s) {
		s.SendLeave(out)
	}
}

func (n *Native) SendFrame(t time.Time) {
	if s := n.toplevel.Surface(); wl.Alive(s) {
		s.SendFrameDone(t)
	}
}

func (n *Native) Close() {
	if n.Alive() {
		n.toplevel.SendClose()
	}
}
