package main

import (
	"time"

	"deedles.dev/thing/internal/wl"
	"deedles.dev/wlr"
	"deedles.dev/ximage/geom"
)

// surface adapts a wlr.Surface to the compositor core. Subsurfaces
// found by hit-testing get their own surface that shares the root's
// lifetime.
type surface struct {
	server *Server
	s      wlr.Surface
	id     wl.SurfaceID
	client wl.ClientID
	alive  bool

	root     *surface
	children map[wlr.Surface]*surface

	// Set for surfaces that aren't owned by a View.
	onCommitListener  commitListener
	onDestroyListener wlr.Listener
}

func (server *Server) newSurface(s wlr.Surface, client wl.ClientID) *surface {
	server.lastID++
	return &surface{
		server:   server,
		s:        s,
		id:       server.lastID,
		client:   client,
		alive:    true,
		children: make(map[wlr.Surface]*surface),
	}
}

// child returns the surface for ws, which is somewhere in the tree
// rooted at s.
func (s *surface) child(ws wlr.Surface) *surface {
	if ws == s.s {
		return s
	}
	if c, ok := s.children[ws]; ok {
		return c
	}

	c := s.server.newSurface(ws, s.client)
	c.root = s
	s.children[ws] = c
	return c
}

func (s *surface) ID() wl.SurfaceID    { return s.id }
func (s *surface) Client() wl.ClientID { return s.client }

func (s *surface) ProtocolID() uint32 {
	if !s.Alive() {
		return 0
	}
	return surfaceID(s.s)
}

func (s *surface) Alive() bool {
	if s.root != nil {
		return s.root.Alive()
	}
	return s.alive
}

func (s *surface) SurfaceAt(p geom.Point[float64]) (wl.Surface, geom.Point[float64], bool) {
	ws, sx, sy, ok := s.s.SurfaceAt(p.X, p.Y)
	if !ok {
		return nil, geom.Point[float64]{}, false
	}
	root := s
	if s.root != nil {
		root = s.root
	}
	return root.child(ws), geom.Pt(sx, sy), true
}

func (s *surface) SendEnter(out *wl.Output) {
	if o := s.server.outputFor(out); o != nil {
		s.s.SendEnter(o.Output)
	}
}

func (s *surface) SendLeave(out *wl.Output) {
	if o := s.server.outputFor(out); o != nil {
		s.s.SendLeave(o.Output)
	}
}

func (s *surface) SendFrameDone(t time.Time) {
	s.s.SendFrameDone(t)
}

// toplevel adapts an xdg toplevel.
type toplevel struct {
	surface *surface
	xdg     wlr.XDGSurface
}

func (t *toplevel) Surface() wl.Surface {
	return t.surface
}

func (t *toplevel) Title() string {
	return t.xdg.Toplevel().Title()
}

func (t *toplevel) Geometry() geom.Rect[int] {
	return geom.FromImageRect(t.xdg.GetGeometry())
}

func (t *toplevel) SizeHints() wl.SizeHints {
	current := t.xdg.Toplevel().Current()
	return wl.SizeHints{
		Min: geom.Pt(int(current.MinWidth()), int(current.MinHeight())),
		Max: geom.Pt(int(current.MaxWidth()), int(current.MaxHeight())),
	}
}

// SendConfigure sets the pending toplevel state. wlroots batches the
// changes into a single configure, so the returned serial is the
// compositor's rather than the one sent to the client.
func (t *toplevel) SendConfigure(state wl.ToplevelState) wl.Serial {
	top := t.xdg.Toplevel()
	top.SetSize(int32(state.Size.X), int32(state.Size.Y))
	top.SetActivated(state.Activated)
	top.SetResizing(state.Resizing)
	return t.surface.server.comp.NextSerial()
}

func (t *toplevel) SendClose() {
	t.xdg.Toplevel().SendClose()
}
