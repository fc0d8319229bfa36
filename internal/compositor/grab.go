package compositor

import (
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
)

type MotionEvent struct {
	Location geom.Point[float64]
	Serial   wl.Serial
	Time     uint32
}

type ButtonEvent struct {
	Button input.Button
	State  input.ButtonState
	Serial wl.Serial
	Time   uint32
}

// PointerGrab takes over pointer event handling while installed.
// Implementations decide what, if anything, is forwarded to clients.
type PointerGrab interface {
	// Motion is called with the focus candidate under the new pointer
	// location, which may be nil.
	Motion(c *Compositor, focus *Focus, ev MotionEvent)
	Button(c *Compositor, ev ButtonEvent)
	Axis(c *Compositor, frame input.AxisFrame)
	Frame(c *Compositor)

	StartData() GrabStartData

	// Unset is called when the grab is removed, whether by itself or
	// because it was replaced.
	Unset(c *Compositor)
}

// checkGrab validates a client's request to start a grab. The pointer
// must hold a grab started by the event with the given serial, and
// that grab must have started on a surface of the requesting client.
func (c *Compositor) checkGrab(s wl.Surface, serial wl.Serial) (GrabStartData, bool) {
	p := c.seat.pointer
	if !p.HasGrab(serial) {
		logrus.WithField("serial", serial).Debug("grab request with stale serial")
		return GrabStartData{}, false
	}

	start, ok := p.GrabStartData()
	if !ok || (start.Focus == nil) {
		return GrabStartData{}, false
	}
	if !wl.SameClient(start.Focus.Surface, s) {
		logrus.WithField("serial", serial).Debug("grab request from client without pointer focus")
		return GrabStartData{}, false
	}
	return start, true
}
