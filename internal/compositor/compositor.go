// Package compositor ties the space, the shell state machines and the
// seat together and routes input to them.
//
// A Compositor is owned by a single goroutine. Every method must be
// called from that goroutine.
package compositor

import (
	"errors"
	"os"
	"time"

	"deedles.dev/thing/internal/element"
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/shell"
	"deedles.dev/thing/internal/space"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

var ErrUnknownSeat = errors.New("unknown seat")

// Options configures a Compositor.
type Options struct {
	// Seat is the name of the only seat.
	Seat string

	// GrabModifier must be held for a button press on a window to start
	// a compositor-driven move or resize.
	GrabModifier input.Modifiers
	MoveButton   input.Button
	ResizeButton input.Button
}

func DefaultOptions() Options {
	return Options{
		Seat:         "seat0",
		GrabModifier: input.ModAlt,
		MoveButton:   input.BtnLeft,
		ResizeButton: input.BtnRight,
	}
}

type Compositor struct {
	opts Options

	space    *space.Space
	surfaces *shell.Surfaces
	popups   *shell.PopupManager
	seat     *Seat
	serials  wl.SerialCounter

	pending []*element.Native
	native  map[wl.SurfaceID]*element.Native
	legacy  map[uint32]*element.Legacy

	// Shortcut, if set, is offered every key press before it is
	// delivered to a client. Returning true consumes the key.
	Shortcut func(c *Compositor, code uint32, mods input.Modifiers) bool
}

func New(opts Options, pointer wl.PointerSink, keyboard wl.KeyboardSink) *Compositor {
	return &Compositor{
		opts:     opts,
		space:    space.New(),
		surfaces: shell.NewSurfaces(),
		popups:   shell.NewPopupManager(),
		seat:     newSeat(opts.Seat, pointer, keyboard),
		native:   make(map[wl.SurfaceID]*element.Native),
		legacy:   make(map[uint32]*element.Legacy),
	}
}

func (c *Compositor) Space() *space.Space {
	return c.space
}

func (c *Compositor) Surfaces() *shell.Surfaces {
	return c.surfaces
}

func (c *Compositor) Popups() *shell.PopupManager {
	return c.popups
}

func (c *Compositor) Seat() *Seat {
	return c.seat
}

// NextSerial returns a fresh serial.
func (c *Compositor) NextSerial() wl.Serial {
	return c.serials.Next()
}

// PublishSocket makes the named listening socket discoverable by
// clients started from this process.
func (c *Compositor) PublishSocket(name string) error {
	err := os.Setenv("WAYLAND_DISPLAY", name)
	if err != nil {
		return err
	}
	logrus.WithField("socket", name).Info("listening")
	return nil
}

// MapOutput adds an output to the space.
func (c *Compositor) MapOutput(out *wl.Output) {
	c.space.MapOutput(out)
	logrus.WithFields(logrus.Fields{
		"output":   out.Name,
		"geometry": out.Geometry,
	}).Info("output mapped")
}

func (c *Compositor) UnmapOutput(out *wl.Output) {
	c.space.UnmapOutput(out)
	logrus.WithField("output", out.Name).Info("output unmapped")
}

// Frame runs the periodic housekeeping: dead elements and popups are
// dropped, output membership is updated and mapped elements are told
// that a frame was shown.
func (c *Compositor) Frame(now time.Time) {
	c.space.Refresh()

	for _, el := range c.space.Elements() {
		if el.Mapped() {
			el.SendFrame(now)
		}
	}

	c.pending = slices.DeleteFunc(c.pending, func(el *element.Native) bool { return !el.Alive() })

	c.popups.Cleanup()
	c.syncPopupGrab(c.NextSerial(), 0)
	c.dropDeadFocus()
}

// CloseFocused asks the element that has keyboard focus to close.
func (c *Compositor) CloseFocused() {
	el := c.ElementForSurface(c.seat.keyboard.focus)
	if el == nil {
		return
	}
	logrus.WithField("title", el.Title()).Debug("closing focused element")
	el.Close()
}

// ElementForSurface returns the element whose root surface is s.
func (c *Compositor) ElementForSurface(s wl.Surface) element.Element {
	if s == nil {
		return nil
	}
	if el, ok := c.native[s.ID()]; ok {
		return el
	}
	for _, el := range c.legacy {
		if el.Surface() == s {
			return el
		}
	}
	return nil
}

// focus transfers input focus to el in response to a click: it is
// raised, exclusively activated and given keyboard focus. A nil el
// clears focus and deactivates everything.
func (c *Compositor) focus(el element.Element, serial wl.Serial) {
	if el == nil {
		c.space.DeactivateAll()
		c.setKeyboardFocus(nil, serial)
		return
	}

	c.space.Raise(el)
	if el.OverrideRedirect() {
		return
	}
	c.space.Activate(el)
	c.setKeyboardFocus(el.Surface(), serial)
}

// placement picks a location for a newly mapped element: centered on
// the output under the cursor, or the first output.
func (c *Compositor) placement(el element.Element) geom.Point[int] {
	out, ok := c.space.OutputAt(c.seat.pointer.location)
	if !ok {
		out, ok = c.space.Output("")
	}
	if !ok {
		return geom.Point[int]{}
	}

	size := el.Geometry().Size()
	center := out.Geometry.Min.Add(out.Geometry.Size().Div(2))
	return center.Sub(size.Div(2))
}

// surfaceUnder returns the focus candidate under p, taking popups
// into account.
func (c *Compositor) surfaceUnder(p geom.Point[float64]) *Focus {
	els := c.space.Elements()
	for i := len(els) - 1; i >= 0; i-- {
		el := els[i]
		if s := el.Surface(); wl.Alive(s) {
			loc, _ := c.space.Location(el)
			ps, origin, ok := c.popups.SurfaceUnder(s.ID(), loc, p)
			if ok {
				return &Focus{Surface: ps, Origin: origin}
			}
		}

		hit, ok := c.space.HitTest(el, p)
		if ok {
			return &Focus{Surface: hit.Surface, Origin: hit.Origin}
		}
	}
	return nil
}

// dropDeadFocus clears pointer and keyboard focus that points at
// destroyed surfaces.
func (c *Compositor) dropDeadFocus() {
	p := c.seat.pointer
	if (p.focus != nil) && !p.focus.Surface.Alive() {
		p.focus = nil
	}

	kb := c.seat.keyboard
	if (kb.focus != nil) && !kb.focus.Alive() {
		kb.focus = nil
	}
}
