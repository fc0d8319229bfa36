package compositor

import (
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/wl"
	"github.com/sirupsen/logrus"
)

// popupGrab routes pointer input while a chain of popups holds an
// explicit grab. Surfaces of the grabbing client get events as usual.
// A press anywhere else dismisses the whole chain.
type popupGrab struct {
	start GrabStartData
}

func (g *popupGrab) Motion(c *Compositor, focus *Focus, ev MotionEvent) {
	pg := c.popups.Grab()
	if (pg == nil) || (focus == nil) || !pg.Owns(focus.Surface) {
		focus = nil
	}
	c.deliverMotion(focus, ev)
}

func (g *popupGrab) Button(c *Compositor, ev ButtonEvent) {
	pg := c.popups.Grab()
	if pg == nil {
		c.UnsetPointerGrab(ev.Serial, ev.Time, true)
		c.deliverButton(ev)
		return
	}

	if ev.State == input.ButtonPressed {
		focus := c.seat.pointer.focus
		if !focus.alive() || !pg.Owns(focus.Surface) {
			logrus.Debug("press outside of popup grab")
			c.popups.Ungrab()
			c.endPopupGrab(ev.Serial, ev.Time)
			return
		}
		pg.NoteSerial(ev.Serial)
	}
	c.deliverButton(ev)
}

func (g *popupGrab) Axis(c *Compositor, frame input.AxisFrame) {
	c.deliverAxis(frame)
}

func (g *popupGrab) Frame(c *Compositor) {
	c.deliverFrame()
}

func (g *popupGrab) StartData() GrabStartData {
	return g.start
}

func (g *popupGrab) Unset(c *Compositor) {}

// beginPopupGrab moves pointer and keyboard input into the popup
// chain's grab.
func (c *Compositor) beginPopupGrab(serial wl.Serial) {
	pg := c.popups.Grab()
	if pg == nil {
		return
	}

	p := c.seat.pointer
	if _, ok := p.grab.(*popupGrab); !ok {
		start, _ := p.GrabStartData()
		c.SetPointerGrab(&popupGrab{start: start}, serial, false)
	}

	if top := pg.Topmost(); top != nil {
		c.forceKeyboardFocus(top.Surface(), serial)
		c.seat.keyboard.grabbed = true
	}
}

// endPopupGrab releases the seat from a popup grab that has ended and
// returns keyboard focus to the grab's root.
func (c *Compositor) endPopupGrab(serial wl.Serial, time uint32) {
	if _, ok := c.seat.pointer.grab.(*popupGrab); ok {
		c.UnsetPointerGrab(serial, time, true)
	}

	kb := c.seat.keyboard
	if !kb.grabbed {
		return
	}
	kb.grabbed = false

	root := c.activeRoot()
	c.forceKeyboardFocus(root, serial)
}

// activeRoot returns the surface of the activated element.
func (c *Compositor) activeRoot() wl.Surface {
	el := c.space.Activated()
	if el == nil {
		return nil
	}
	return el.Surface()
}

// syncPopupGrab brings the seat in line with the popup manager after
// popups were closed behind its back.
func (c *Compositor) syncPopupGrab(serial wl.Serial, time uint32) {
	pg := c.popups.Grab()
	if pg == nil {
		_, pointerGrabbed := c.seat.pointer.grab.(*popupGrab)
		if pointerGrabbed || c.seat.keyboard.grabbed {
			c.endPopupGrab(serial, time)
		}
		return
	}

	if !c.seat.keyboard.grabbed {
		return
	}
	if top := pg.Topmost(); top != nil {
		c.forceKeyboardFocus(top.Surface(), serial)
	}
}
