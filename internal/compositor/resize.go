package compositor

import (
	"math"

	"deedles.dev/thing/internal/element"
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/shell"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
)

type resizeGrab struct {
	start   GrabStartData
	element element.Element
	edges   shell.Edges
	initial geom.Rect[int]
	last    geom.Point[int]

	// released is set once the button that started the grab is let go.
	released bool
}

func (c *Compositor) startResize(el element.Element, edges shell.Edges, start GrabStartData, serial wl.Serial) {
	if !c.space.Contains(el) {
		return
	}
	// A grab being replaced may still move el.
	c.releasePointerGrab()

	initial, ok := c.space.Geometry(el)
	if !ok {
		return
	}

	if s := el.Surface(); s != nil {
		err := c.surfaces.BeginResize(s.ID(), edges, initial)
		if err != nil {
			logrus.WithField("title", el.Title()).WithError(err).Debug("resize state not tracked")
		}
	}

	logrus.WithFields(logrus.Fields{
		"title": el.Title(),
		"edges": edges,
	}).Debug("resize started")
	c.SetPointerGrab(&resizeGrab{
		start:   start,
		element: el,
		edges:   edges,
		initial: initial,
		last:    initial.Size(),
	}, serial, true)
}

func (g *resizeGrab) Motion(c *Compositor, focus *Focus, ev MotionEvent) {
	c.deliverMotion(nil, ev)
	if !g.element.Alive() {
		return
	}

	delta := ev.Location.Sub(g.start.Location)
	dx, dy := 0, 0
	switch {
	case g.edges.Has(shell.EdgeLeft):
		dx = -int(delta.X)
	case g.edges.Has(shell.EdgeRight):
		dx = int(delta.X)
	}
	switch {
	case g.edges.Has(shell.EdgeTop):
		dy = -int(delta.Y)
	case g.edges.Has(shell.EdgeBottom):
		dy = int(delta.Y)
	}

	size := ClampSize(g.initial.Size().Add(geom.Pt(dx, dy)), g.element.SizeHints())
	g.last = size

	g.element.SetResizing(true)
	g.element.Resize(size)
	g.element.SendConfigure()
}

func (g *resizeGrab) Button(c *Compositor, ev ButtonEvent) {
	c.deliverButton(ev)
	if c.seat.pointer.Pressed(g.start.Button) {
		return
	}

	g.released = true
	c.UnsetPointerGrab(ev.Serial, ev.Time, true)
	if !g.element.Alive() {
		return
	}

	g.element.SetResizing(false)
	g.element.Resize(g.last)
	g.element.SendConfigure()

	s := g.element.Surface()
	if (s == nil) || !c.surfaces.Tracked(s.ID()) {
		// Nothing will commit, so anchor right away.
		c.anchor(g.element, g.edges, g.initial, g.last)
		return
	}
	c.surfaces.EndResize(s.ID())
}

func (g *resizeGrab) Axis(c *Compositor, frame input.AxisFrame) {
	c.deliverAxis(frame)
}

func (g *resizeGrab) Frame(c *Compositor) {
	c.deliverFrame()
}

func (g *resizeGrab) StartData() GrabStartData {
	return g.start
}

// Unset ends the resize. If the grab was replaced by another one
// before the button was released, the final size is sent and the
// window is anchored right away, so that later commits don't anchor it
// against a rectangle it may since have moved away from.
func (g *resizeGrab) Unset(c *Compositor) {
	logrus.WithFields(logrus.Fields{
		"title":    g.element.Title(),
		"size":     g.last,
		"released": g.released,
	}).Debug("resize ended")
	if g.released || !g.element.Alive() {
		return
	}

	g.element.SetResizing(false)
	g.element.Resize(g.last)
	g.element.SendConfigure()
	c.anchor(g.element, g.edges, g.initial, g.last)
	if s := g.element.Surface(); s != nil {
		c.surfaces.CancelResize(s.ID())
	}
}

// anchor repositions el after a resize so that the edges opposite of
// the dragged ones stay where they were.
func (c *Compositor) anchor(el element.Element, edges shell.Edges, initial geom.Rect[int], size geom.Point[int]) {
	if !edges.Has(shell.EdgeTop | shell.EdgeLeft) {
		return
	}
	loc, ok := c.space.Location(el)
	if !ok {
		return
	}

	anchored := shell.Anchor(loc, edges, initial, size)
	if anchored != loc {
		c.space.Relocate(el, anchored)
	}
}

// ClampSize limits size to the given hints. Minimums are at least 1
// and a zero maximum is unbounded. The minimum wins if the hints
// conflict.
func ClampSize(size geom.Point[int], hints wl.SizeHints) geom.Point[int] {
	return geom.Pt(
		clamp(size.X, hints.Min.X, hints.Max.X),
		clamp(size.Y, hints.Min.Y, hints.Max.Y),
	)
}

func clamp(v, lo, hi int) int {
	lo = max(lo, 1)
	if hi == 0 {
		hi = math.MaxInt32
	}
	return max(min(v, hi), lo)
}

// nearestCorner returns the edges of the corner of r closest to p.
func nearestCorner(r geom.Rect[int], p geom.Point[float64]) shell.Edges {
	center := geom.PConv[float64](r.Min.Add(r.Max)).Div(2)

	edges := shell.EdgeBottom
	if p.Y < center.Y {
		edges = shell.EdgeTop
	}
	if p.X < center.X {
		return edges | shell.EdgeLeft
	}
	return edges | shell.EdgeRight
}
