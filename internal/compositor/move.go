package compositor

import (
	"math"

	"deedles.dev/thing/internal/element"
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
)

type moveGrab struct {
	start   GrabStartData
	element element.Element
	initial geom.Point[int]
}

func (c *Compositor) startMove(el element.Element, start GrabStartData, serial wl.Serial) {
	if !c.space.Contains(el) {
		return
	}
	// A grab being replaced may still move el.
	c.releasePointerGrab()

	loc, ok := c.space.Location(el)
	if !ok {
		return
	}

	logrus.WithField("title", el.Title()).Debug("move started")
	c.SetPointerGrab(&moveGrab{
		start:   start,
		element: el,
		initial: loc,
	}, serial, true)
}

func (g *moveGrab) Motion(c *Compositor, focus *Focus, ev MotionEvent) {
	c.deliverMotion(nil, ev)
	if !g.element.Alive() {
		return
	}

	delta := ev.Location.Sub(g.start.Location)
	loc := geom.Pt(
		int(math.Round(float64(g.initial.X)+delta.X)),
		int(math.Round(float64(g.initial.Y)+delta.Y)),
	)
	c.space.Relocate(g.element, loc)
}

func (g *moveGrab) Button(c *Compositor, ev ButtonEvent) {
	c.deliverButton(ev)
	if !c.seat.pointer.Pressed(g.start.Button) {
		c.UnsetPointerGrab(ev.Serial, ev.Time, true)
	}
}

func (g *moveGrab) Axis(c *Compositor, frame input.AxisFrame) {
	c.deliverAxis(frame)
}

func (g *moveGrab) Frame(c *Compositor) {
	c.deliverFrame()
}

func (g *moveGrab) StartData() GrabStartData {
	return g.start
}

func (g *moveGrab) Unset(c *Compositor) {
	logrus.WithField("title", g.element.Title()).Debug("move ended")
}
