package compositor

import (
	"deedles.dev/thing/internal/element"
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/shell"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
)

// ProcessInput routes a single input event.
func (c *Compositor) ProcessInput(ev input.Event) {
	switch ev := ev.(type) {
	case input.KeyboardKeyEvent:
		c.keyboardKey(ev, c.NextSerial())

	case input.KeyboardModifiersEvent:
		c.setModifiers(ev.Modifiers, c.NextSerial())

	case input.PointerMotionEvent:
		c.MovePointer(c.seat.pointer.location.Add(ev.Delta), ev.Time)

	case input.PointerMotionAbsoluteEvent:
		out, ok := c.space.Output(ev.Output)
		if !ok {
			logrus.WithField("output", ev.Output).Debug("absolute motion without output")
			return
		}
		c.MovePointer(ev.Transformed(out.Geometry), ev.Time)

	case input.PointerButtonEvent:
		c.processButton(ev)

	case input.PointerAxisEvent:
		c.pointerAxis(input.AxisFrame{
			Source:  ev.Source,
			Time:    ev.Time,
			Amount:  ev.Amount,
			V120:    ev.V120,
			HasV120: ev.HasV120,
			StopX:   (ev.Source == input.AxisSourceFinger) && (ev.Amount.X == 0),
			StopY:   (ev.Source == input.AxisSourceFinger) && (ev.Amount.Y == 0),
		})
		c.pointerFrame()

	default:
		logrus.WithField("event", ev).Warn("unknown input event")
	}
}

// MovePointer moves the pointer to an absolute global location.
// Locations outside of every output are allowed.
func (c *Compositor) MovePointer(loc geom.Point[float64], time uint32) {
	focus := c.surfaceUnder(loc)
	c.pointerMotion(focus, MotionEvent{
		Location: loc,
		Serial:   c.NextSerial(),
		Time:     time,
	})
	c.pointerFrame()
}

func (c *Compositor) processButton(ev input.PointerButtonEvent) {
	serial := c.NextSerial()
	p := c.seat.pointer

	if (ev.State == input.ButtonPressed) && (p.grab == nil) {
		c.clickFocus(ev.Button, serial)
	}

	c.pointerButton(ButtonEvent{
		Button: ev.Button,
		State:  ev.State,
		Serial: serial,
		Time:   ev.Time,
	})
	c.pointerFrame()
}

// clickFocus handles a press when nothing holds the pointer: the
// element under the pointer gets focus, and if the grab modifier is
// held, a move or resize starts.
func (c *Compositor) clickFocus(b input.Button, serial wl.Serial) {
	p := c.seat.pointer

	hit, ok := c.space.ElementUnder(p.location)
	if !ok {
		c.focus(nil, serial)
		return
	}
	c.focus(hit.Element, serial)

	if !c.grabModifierHeld() || hit.Element.OverrideRedirect() {
		return
	}

	start := GrabStartData{
		Focus:    &Focus{Surface: hit.Surface, Origin: hit.Origin},
		Button:   b,
		Location: p.location,
	}
	switch b {
	case c.opts.MoveButton:
		c.startMove(hit.Element, start, serial)
	case c.opts.ResizeButton:
		c.startResize(hit.Element, c.resizeEdges(hit.Element), start, serial)
	}
}

func (c *Compositor) grabModifierHeld() bool {
	m := c.opts.GrabModifier
	return (m != 0) && (c.seat.keyboard.mods&m == m)
}

func (c *Compositor) resizeEdges(el element.Element) shell.Edges {
	r, _ := c.space.Geometry(el)
	return nearestCorner(r, c.seat.pointer.location)
}
