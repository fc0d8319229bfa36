package compositor

import (
	"fmt"

	"deedles.dev/thing/internal/element"
	"deedles.dev/thing/internal/shell"
	"deedles.dev/thing/internal/wl"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// NewToplevel starts tracking a toplevel. It isn't mapped until it has
// committed in response to its initial configure.
func (c *Compositor) NewToplevel(t wl.Toplevel) *element.Native {
	el := element.NewNative(t)
	id := t.Surface().ID()

	c.native[id] = el
	c.pending = append(c.pending, el)
	c.surfaces.Track(id)

	logrus.WithField("surface", id).Debug("new toplevel")
	return el
}

// NewPopup starts tracking a popup, placing it so that it stays on the
// outputs its root element is on.
func (c *Compositor) NewPopup(p wl.Popup) error {
	root, err := c.popups.Root(p)
	if err != nil {
		logrus.WithField("popup", p.Surface().ID()).WithError(err).Warn("new popup")
		return err
	}

	if el := c.ElementForSurface(root); el != nil {
		if loc, ok := c.space.Location(el); ok {
			c.popups.Place(p, loc, c.space.OutputGeometryUnion(el))
		}
	}

	err = c.popups.Track(p)
	if err != nil {
		return err
	}
	c.surfaces.Track(p.Surface().ID())
	return nil
}

// PopupGrabRequest handles a popup's request for an explicit grab on
// the named seat.
func (c *Compositor) PopupGrabRequest(p wl.Popup, seat string, serial wl.Serial) error {
	if seat != c.seat.name {
		return fmt.Errorf("popup grab on %q: %w", seat, ErrUnknownSeat)
	}

	_, err := c.popups.RequestGrab(p, serial, c.seatOwnsSerial(serial))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"popup":  p.Surface().ID(),
			"serial": serial,
		}).WithError(err).Debug("popup grab")
		c.syncPopupGrab(serial, 0)
		return err
	}

	c.beginPopupGrab(serial)
	return nil
}

// RepositionRequest places a popup again after its positioner
// changed.
func (c *Compositor) RepositionRequest(p wl.Popup, token uint32) {
	root, err := c.popups.Root(p)
	if err != nil {
		return
	}

	if el := c.ElementForSurface(root); el != nil {
		if loc, ok := c.space.Location(el); ok {
			c.popups.Place(p, loc, c.space.OutputGeometryUnion(el))
		}
	}
	p.SendRepositioned(token)
	p.SendConfigure()
}

// MoveRequest handles a client asking to be moved interactively.
func (c *Compositor) MoveRequest(s wl.Surface, seat string, serial wl.Serial) error {
	if seat != c.seat.name {
		return fmt.Errorf("move on %q: %w", seat, ErrUnknownSeat)
	}

	el := c.ElementForSurface(s)
	if el == nil {
		return nil
	}
	start, ok := c.checkGrab(s, serial)
	if !ok {
		return nil
	}
	c.startMove(el, start, serial)
	return nil
}

// ResizeRequest handles a client asking to be resized interactively
// from the given edges.
func (c *Compositor) ResizeRequest(s wl.Surface, seat string, serial wl.Serial, edges shell.Edges) error {
	if seat != c.seat.name {
		return fmt.Errorf("resize on %q: %w", seat, ErrUnknownSeat)
	}

	el := c.ElementForSurface(s)
	if el == nil {
		return nil
	}
	start, ok := c.checkGrab(s, serial)
	if !ok {
		return nil
	}
	c.startResize(el, edges, start, serial)
	return nil
}

// Commit handles a surface commit.
func (c *Compositor) Commit(s wl.Surface) {
	if !wl.Alive(s) {
		return
	}

	if el := c.ElementForSurface(s); el != nil {
		r := c.surfaces.Commit(s.ID(), el.SendConfigure)
		el.OnCommit()
		if r.Ready {
			c.mapReady(el)
		}
		if r.Anchor {
			c.anchor(el, r.Edges, r.Initial, el.Geometry().Size())
		}
		return
	}

	if p, ok := c.popups.Find(s); ok {
		c.surfaces.Commit(s.ID(), func() { p.SendConfigure() })
	}
}

// mapReady maps a native element that just became ready.
func (c *Compositor) mapReady(el element.Element) {
	i := slices.IndexFunc(c.pending, func(n *element.Native) bool { return n == el })
	if i < 0 {
		return
	}
	c.pending = slices.Delete(c.pending, i, i+1)

	el.SetMapped(true)
	c.space.Map(el, c.placement(el), true)
	c.setKeyboardFocus(el.Surface(), c.NextSerial())

	logrus.WithField("title", el.Title()).Debug("toplevel mapped")
}

// SurfaceDestroyed forgets everything associated with a destroyed
// toplevel or popup surface.
func (c *Compositor) SurfaceDestroyed(s wl.Surface) {
	id := s.ID()
	c.surfaces.Forget(id)

	if p, ok := c.popups.Find(s); ok {
		c.popups.Dismiss(p)
		c.syncPopupGrab(c.NextSerial(), 0)
		return
	}

	el, ok := c.native[id]
	if !ok {
		return
	}
	delete(c.native, id)
	c.pending = slices.DeleteFunc(c.pending, func(n *element.Native) bool { return n == el })

	c.space.Unmap(el)
	c.popups.RemoveRoot(id)
	c.syncPopupGrab(c.NextSerial(), 0)
	c.dropSurfaceFocus(s)

	logrus.WithField("surface", id).Debug("toplevel destroyed")
}

// BufferDestroyed is called when a client destroys a buffer. The core
// holds no buffers.
func (c *Compositor) BufferDestroyed() {}

// releaseSurfaceFocus takes pointer and keyboard focus away from s. A
// legacy window's surface can outlive the window, so a live s is sent
// leave events. A dead one is dropped silently.
func (c *Compositor) releaseSurfaceFocus(s wl.Surface, serial wl.Serial) {
	if !wl.Alive(s) {
		c.dropSurfaceFocus(s)
		return
	}

	if p := c.seat.pointer; (p.focus != nil) && (p.focus.Surface == s) {
		c.setPointerFocus(nil, serial, 0)
	}
	if c.seat.keyboard.focus == s {
		c.forceKeyboardFocus(nil, serial)
	}
}

// dropSurfaceFocus clears any focus on s without sending it events.
func (c *Compositor) dropSurfaceFocus(s wl.Surface) {
	p := c.seat.pointer
	if (p.focus != nil) && (p.focus.Surface == s) {
		p.focus = nil
	}
	if kb := c.seat.keyboard; kb.focus == s {
		kb.focus = nil
	}
}
