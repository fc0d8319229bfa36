// Package shell tracks the xdg-shell state machines that outlive a
// single request: initial configures, interactive resizes and popup
// grabs.
package shell

import (
	"errors"
	"strings"

	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
)

var ErrNotTracked = errors.New("surface is not tracked")

// Edges is a set of window edges. The values match
// xdg_toplevel.resize_edge when combined.
type Edges uint32

const (
	EdgeNone   Edges = 0
	EdgeTop    Edges = 1
	EdgeBottom Edges = 2
	EdgeLeft   Edges = 4
	EdgeRight  Edges = 8
)

func (e Edges) Has(edge Edges) bool {
	return e&edge != 0
}

func (e Edges) String() string {
	if e == EdgeNone {
		return "none"
	}

	var parts []string
	for _, edge := range []struct {
		e    Edges
		name string
	}{
		{EdgeTop, "top"},
		{EdgeBottom, "bottom"},
		{EdgeLeft, "left"},
		{EdgeRight, "right"},
	} {
		if e.Has(edge.e) {
			parts = append(parts, edge.name)
		}
	}
	return strings.Join(parts, "|")
}

type ResizeState int

const (
	ResizeIdle ResizeState = iota
	Resizing
	ResizeWaitingForLastCommit
)

func (s ResizeState) String() string {
	switch s {
	case ResizeIdle:
		return "idle"
	case Resizing:
		return "resizing"
	case ResizeWaitingForLastCommit:
		return "waiting for last commit"
	default:
		return "unknown"
	}
}

type resize struct {
	state   ResizeState
	edges   Edges
	initial geom.Rect[int]
}

type surfaceState struct {
	configured bool
	ready      bool
	resize     resize
}

// Surfaces is a side table of per-surface state keyed by surface ID.
// Entries are removed explicitly when their surface is destroyed.
type Surfaces struct {
	states map[wl.SurfaceID]*surfaceState
}

func NewSurfaces() *Surfaces {
	return &Surfaces{
		states: make(map[wl.SurfaceID]*surfaceState),
	}
}

// Track starts tracking the surface. Tracking an already tracked
// surface does nothing.
func (s *Surfaces) Track(id wl.SurfaceID) {
	if _, ok := s.states[id]; ok {
		return
	}
	s.states[id] = &surfaceState{}
}

// TrackConfigured tracks a surface that doesn't take part in the
// configure handshake. It is considered ready immediately.
func (s *Surfaces) TrackConfigured(id wl.SurfaceID) {
	s.states[id] = &surfaceState{configured: true, ready: true}
}

func (s *Surfaces) Forget(id wl.SurfaceID) {
	delete(s.states, id)
}

func (s *Surfaces) Tracked(id wl.SurfaceID) bool {
	_, ok := s.states[id]
	return ok
}

// Ready reports whether the surface has committed after its initial
// configure.
func (s *Surfaces) Ready(id wl.SurfaceID) bool {
	st, ok := s.states[id]
	return ok && st.ready
}

// CommitResult describes what a commit means for a surface.
type CommitResult struct {
	// InitialConfigure is set if the commit caused the initial
	// configure to be sent.
	InitialConfigure bool

	// Ready is set if this was the first commit after the initial
	// configure.
	Ready bool

	// Anchor is set if the surface is being resized from its top or
	// left edge and has to be repositioned so that the opposite edge
	// stays in place.
	Anchor  bool
	Edges   Edges
	Initial geom.Rect[int]
}

// Commit advances the state machines for a commit of the surface.
// configure is called exactly once over the life of a surface, on its
// first commit. Commits of untracked surfaces are ignored.
func (s *Surfaces) Commit(id wl.SurfaceID, configure func()) CommitResult {
	st, ok := s.states[id]
	if !ok {
		return CommitResult{}
	}

	if !st.configured {
		st.configured = true
		configure()
		return CommitResult{InitialConfigure: true}
	}

	var r CommitResult
	if !st.ready {
		st.ready = true
		r.Ready = true
	}

	switch st.resize.state {
	case Resizing:
		r.Anchor = st.resize.edges.Has(EdgeTop | EdgeLeft)
		r.Edges = st.resize.edges
		r.Initial = st.resize.initial
	case ResizeWaitingForLastCommit:
		r.Anchor = st.resize.edges.Has(EdgeTop | EdgeLeft)
		r.Edges = st.resize.edges
		r.Initial = st.resize.initial
		st.resize = resize{}
	}

	return r
}

// BeginResize records the start of an interactive resize. initial is
// the window geometry, in global coordinates, when the resize began.
func (s *Surfaces) BeginResize(id wl.SurfaceID, edges Edges, initial geom.Rect[int]) error {
	st, ok := s.states[id]
	if !ok {
		return ErrNotTracked
	}
	st.resize = resize{state: Resizing, edges: edges, initial: initial}
	return nil
}

// EndResize moves a resizing surface into waiting for the commit that
// acknowledges the final size.
func (s *Surfaces) EndResize(id wl.SurfaceID) error {
	st, ok := s.states[id]
	if !ok {
		return ErrNotTracked
	}
	if st.resize.state == Resizing {
		st.resize.state = ResizeWaitingForLastCommit
	}
	return nil
}

// CancelResize drops the surface's resize state without waiting for a
// commit.
func (s *Surfaces) CancelResize(id wl.SurfaceID) {
	if st, ok := s.states[id]; ok {
		st.resize = resize{}
	}
}

func (s *Surfaces) ResizeState(id wl.SurfaceID) ResizeState {
	st, ok := s.states[id]
	if !ok {
		return ResizeIdle
	}
	return st.resize.state
}

// Anchor returns the location that keeps the edges opposite of the
// ones being dragged in place, given the location and geometry the
// resize started with and the size the client committed.
func Anchor(loc geom.Point[int], edges Edges, initial geom.Rect[int], size geom.Point[int]) geom.Point[int] {
	if edges.Has(EdgeLeft) {
		loc.X = initial.Min.X + (initial.Dx() - size.X)
	}
	if edges.Has(EdgeTop) {
		loc.Y = initial.Min.Y + (initial.Dy() - size.Y)
	}
	return loc
}
