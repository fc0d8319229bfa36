package compositor

import (
	"deedles.dev/thing/internal/element"
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/shell"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
)

func (c *Compositor) legacyElement(id uint32) *element.Legacy {
	el, ok := c.legacy[id]
	if !ok {
		logrus.WithField("window", id).Debug("event for unknown window")
		return nil
	}
	return el
}

// LegacyNewWindow starts tracking a new X11 window, managed or
// override-redirect. It isn't mapped yet.
func (c *Compositor) LegacyNewWindow(win element.Window) {
	el := element.NewLegacy(win)
	c.legacy[win.ID()] = el
	if s := win.Surface(); s != nil {
		c.surfaces.TrackConfigured(s.ID())
	}

	logrus.WithFields(logrus.Fields{
		"window":            win.ID(),
		"override_redirect": win.OverrideRedirect(),
	}).Debug("new window")
}

// LegacyAssociate records that s is the surface Xwayland created for
// the window.
func (c *Compositor) LegacyAssociate(id uint32, s wl.Surface) {
	if c.legacyElement(id) == nil {
		return
	}
	c.surfaces.TrackConfigured(s.ID())
}

// LegacyMapRequest maps a managed window at the position it asked
// for and activates it.
func (c *Compositor) LegacyMapRequest(id uint32) {
	el := c.legacyElement(id)
	if el == nil {
		return
	}

	err := el.Window().SetMapped(true)
	if err != nil {
		logrus.WithField("window", id).WithError(err).Warn("map window")
		return
	}

	el.SetMapped(true)
	c.space.Map(el, el.Location(), true)
	c.setKeyboardFocus(el.Surface(), c.NextSerial())
}

// LegacyMappedOverrideRedirect maps an override-redirect window where
// it put itself.
func (c *Compositor) LegacyMappedOverrideRedirect(id uint32) {
	el := c.legacyElement(id)
	if el == nil {
		return
	}

	el.Sync(el.Window().Geometry())
	el.SetMapped(true)
	c.space.Map(el, el.Location(), false)
}

func (c *Compositor) LegacyUnmapped(id uint32) {
	el := c.legacyElement(id)
	if el == nil {
		return
	}

	el.SetMapped(false)
	c.space.Unmap(el)
	if s := el.Surface(); s != nil {
		c.releaseSurfaceFocus(s, c.NextSerial())
	}
}

func (c *Compositor) LegacyDestroyed(id uint32) {
	el := c.legacyElement(id)
	if el == nil {
		return
	}
	delete(c.legacy, id)

	c.space.Unmap(el)
	if s := el.Surface(); s != nil {
		c.surfaces.Forget(s.ID())
		c.popups.RemoveRoot(s.ID())
		c.syncPopupGrab(c.NextSerial(), 0)
		c.releaseSurfaceFocus(s, c.NextSerial())
	}
}

// LegacyConfigureRequest applies the fields of a window's configure
// request on top of its current geometry.
func (c *Compositor) LegacyConfigureRequest(id uint32, req element.ConfigureRequest) {
	el := c.legacyElement(id)
	if el == nil {
		return
	}

	current := geom.Rect[int]{Min: el.Location(), Max: el.Location().Add(el.Geometry().Size())}
	r := req.Merge(current)

	el.Resize(r.Size())
	if c.space.Contains(el) {
		c.space.Relocate(el, r.Min)
	} else {
		el.Relocate(r.Min)
	}
	el.SendConfigure()
}

// LegacyConfigureNotify records a geometry change that the X server
// reported. Only override-redirect windows are moved by it.
func (c *Compositor) LegacyConfigureNotify(id uint32, r geom.Rect[int]) {
	el := c.legacyElement(id)
	if (el == nil) || !el.OverrideRedirect() {
		return
	}

	el.Sync(r)
	if c.space.Contains(el) {
		c.space.Relocate(el, r.Min)
	}
}

// LegacyMoveRequest starts a move of the window while button is held.
func (c *Compositor) LegacyMoveRequest(id uint32, button input.Button) {
	el := c.legacyElement(id)
	if el == nil {
		return
	}
	start, ok := c.legacyGrabStart(button)
	if !ok {
		return
	}
	c.startMove(el, start, c.NextSerial())
}

// LegacyResizeRequest starts a resize of the window from the given
// edges while button is held.
func (c *Compositor) LegacyResizeRequest(id uint32, button input.Button, edges shell.Edges) {
	el := c.legacyElement(id)
	if el == nil {
		return
	}
	start, ok := c.legacyGrabStart(button)
	if !ok {
		return
	}
	c.startResize(el, edges, start, c.NextSerial())
}

// legacyGrabStart returns start data for a grab requested by an X11
// client. X11 requests carry no serial, so the request is honored as
// long as the button is still held.
func (c *Compositor) legacyGrabStart(button input.Button) (GrabStartData, bool) {
	p := c.seat.pointer
	if !p.Pressed(button) {
		logrus.WithField("button", button).Debug("window grab request without held button")
		return GrabStartData{}, false
	}

	start, ok := p.GrabStartData()
	if !ok {
		return GrabStartData{}, false
	}
	start.Button = button
	return start, true
}
