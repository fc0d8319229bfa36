package compositor

import (
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Focus is a surface that can receive pointer events, along with the
// global position of its origin.
type Focus struct {
	Surface wl.Surface
	Origin  geom.Point[float64]
}

// Local converts a global point into the focused surface's
// coordinates.
func (f *Focus) Local(p geom.Point[float64]) geom.Point[float64] {
	return p.Sub(f.Origin)
}

func (f *Focus) alive() bool {
	return (f != nil) && wl.Alive(f.Surface)
}

// GrabStartData records the pointer state at the moment a grab
// started.
type GrabStartData struct {
	Focus    *Focus
	Button   input.Button
	Location geom.Point[float64]
}

type Seat struct {
	name     string
	pointer  *Pointer
	keyboard *Keyboard
}

func newSeat(name string, pointer wl.PointerSink, keyboard wl.KeyboardSink) *Seat {
	return &Seat{
		name:     name,
		pointer:  &Pointer{sink: pointer},
		keyboard: &Keyboard{sink: keyboard},
	}
}

func (s *Seat) Name() string {
	return s.name
}

func (s *Seat) Pointer() *Pointer {
	return s.pointer
}

func (s *Seat) Keyboard() *Keyboard {
	return s.keyboard
}

type Pointer struct {
	sink     wl.PointerSink
	location geom.Point[float64]
	focus    *Focus
	pressed  []input.Button

	grab       PointerGrab
	grabSerial wl.Serial

	// click is the implicit grab held while any button is down.
	click       *GrabStartData
	clickSerial wl.Serial
}

// Location returns the pointer's global position.
func (p *Pointer) Location() geom.Point[float64] {
	return p.location
}

// Focus returns the surface receiving pointer events, if any.
func (p *Pointer) Focus() wl.Surface {
	if p.focus == nil {
		return nil
	}
	return p.focus.Surface
}

func (p *Pointer) Pressed(b input.Button) bool {
	return slices.Contains(p.pressed, b)
}

// Grab returns the active explicit grab, if any.
func (p *Pointer) Grab() PointerGrab {
	return p.grab
}

// HasGrab reports whether the pointer holds a grab that was started by
// the event with the given serial.
func (p *Pointer) HasGrab(serial wl.Serial) bool {
	if (p.grab != nil) && (p.grabSerial == serial) {
		return true
	}
	return (p.click != nil) && (p.clickSerial == serial)
}

// GrabStartData returns the start data of the active explicit or
// implicit grab.
func (p *Pointer) GrabStartData() (GrabStartData, bool) {
	if p.grab != nil {
		return p.grab.StartData(), true
	}
	if p.click != nil {
		return *p.click, true
	}
	return GrabStartData{}, false
}

type Keyboard struct {
	sink    wl.KeyboardSink
	focus   wl.Surface
	pressed []uint32
	mods    input.Modifiers

	// grabbed is set while a popup grab holds the keyboard.
	grabbed bool

	// lastSerial is the serial of the most recent key press.
	lastSerial wl.Serial
}

func (kb *Keyboard) Focus() wl.Surface {
	return kb.focus
}

func (kb *Keyboard) Modifiers() input.Modifiers {
	return kb.mods
}

// Grabbed reports whether a popup grab holds the keyboard.
func (kb *Keyboard) Grabbed() bool {
	return kb.grabbed
}

// seatOwnsSerial reports whether serial was produced by an input event
// that is still relevant to the seat.
func (c *Compositor) seatOwnsSerial(serial wl.Serial) bool {
	if c.seat.pointer.HasGrab(serial) {
		return true
	}
	return (c.seat.keyboard.lastSerial != 0) && (c.seat.keyboard.lastSerial == serial)
}

// SetPointerGrab installs an explicit grab, replacing any previous one.
func (c *Compositor) SetPointerGrab(g PointerGrab, serial wl.Serial, clearFocus bool) {
	c.releasePointerGrab()

	p := c.seat.pointer
	p.grab = g
	p.grabSerial = serial
	if clearFocus {
		c.setPointerFocus(nil, serial, 0)
	}
}

// releasePointerGrab unsets the current grab, if any, without touching
// focus.
func (c *Compositor) releasePointerGrab() {
	p := c.seat.pointer
	if prev := p.grab; prev != nil {
		p.grab = nil
		prev.Unset(c)
	}
}

// UnsetPointerGrab removes the explicit grab, if any. If restoreFocus
// is true, pointer focus is recomputed from the pointer's location.
func (c *Compositor) UnsetPointerGrab(serial wl.Serial, time uint32, restoreFocus bool) {
	p := c.seat.pointer
	g := p.grab
	if g == nil {
		return
	}
	p.grab = nil
	g.Unset(c)

	if restoreFocus {
		c.setPointerFocus(c.surfaceUnder(p.location), serial, time)
	}
}

func (c *Compositor) pointerMotion(focus *Focus, ev MotionEvent) {
	p := c.seat.pointer
	if p.grab != nil {
		p.grab.Motion(c, focus, ev)
		return
	}
	c.deliverMotion(focus, ev)
}

func (c *Compositor) pointerButton(ev ButtonEvent) {
	p := c.seat.pointer
	switch ev.State {
	case input.ButtonPressed:
		if !p.Pressed(ev.Button) {
			p.pressed = append(p.pressed, ev.Button)
		}
		if p.click == nil {
			var focus *Focus
			if p.focus != nil {
				f := *p.focus
				focus = &f
			}
			p.click = &GrabStartData{Focus: focus, Button: ev.Button, Location: p.location}
			p.clickSerial = ev.Serial
		}
	case input.ButtonReleased:
		p.pressed = slices.DeleteFunc(p.pressed, func(b input.Button) bool { return b == ev.Button })
	}

	if p.grab != nil {
		p.grab.Button(c, ev)
	} else {
		c.deliverButton(ev)
	}

	if len(p.pressed) == 0 {
		p.click = nil
	}
}

func (c *Compositor) pointerAxis(frame input.AxisFrame) {
	p := c.seat.pointer
	if p.grab != nil {
		p.grab.Axis(c, frame)
		return
	}
	c.deliverAxis(frame)
}

func (c *Compositor) pointerFrame() {
	p := c.seat.pointer
	if p.grab != nil {
		p.grab.Frame(c)
		return
	}
	c.deliverFrame()
}

// deliverMotion moves the pointer and sends enter, leave and motion
// events as needed. It is the default motion handling used when no
// grab is active, and grabs call it to forward motion.
func (c *Compositor) deliverMotion(focus *Focus, ev MotionEvent) {
	c.seat.pointer.location = ev.Location
	c.setPointerFocus(focus, ev.Serial, ev.Time)
}

func (c *Compositor) setPointerFocus(focus *Focus, serial wl.Serial, time uint32) {
	p := c.seat.pointer
	if !focus.alive() {
		focus = nil
	}

	prev := p.focus
	switch {
	case (prev != nil) && (focus != nil) && (prev.Surface == focus.Surface):
		p.focus = focus
		p.sink.Motion(focus.Surface, focus.Local(p.location), time)

	default:
		if prev.alive() {
			p.sink.Leave(prev.Surface, serial)
		}
		p.focus = focus
		if focus != nil {
			p.sink.Enter(focus.Surface, focus.Local(p.location), serial)
		}
	}
}

func (c *Compositor) deliverButton(ev ButtonEvent) {
	p := c.seat.pointer
	if !p.focus.alive() {
		return
	}
	p.sink.Button(p.focus.Surface, ev.Button, ev.State, ev.Serial, ev.Time)
}

func (c *Compositor) deliverAxis(frame input.AxisFrame) {
	p := c.seat.pointer
	if !p.focus.alive() {
		return
	}
	p.sink.Axis(p.focus.Surface, frame)
}

func (c *Compositor) deliverFrame() {
	p := c.seat.pointer
	if !p.focus.alive() {
		return
	}
	p.sink.Frame(p.focus.Surface)
}

// setKeyboardFocus moves keyboard focus to s. It does nothing while a
// popup grab holds the keyboard.
func (c *Compositor) setKeyboardFocus(s wl.Surface, serial wl.Serial) {
	if c.seat.keyboard.grabbed {
		logrus.Debug("keyboard focus change blocked by popup grab")
		return
	}
	c.forceKeyboardFocus(s, serial)
}

func (c *Compositor) forceKeyboardFocus(s wl.Surface, serial wl.Serial) {
	kb := c.seat.keyboard
	if !wl.Alive(s) {
		s = nil
	}
	if kb.focus == s {
		return
	}

	if wl.Alive(kb.focus) {
		kb.sink.Leave(kb.focus, serial)
	}
	kb.focus = s
	if s != nil {
		kb.sink.Enter(s, slices.Clone(kb.pressed), serial)
		kb.sink.Modifiers(s, kb.mods, serial)
	}
}

// keyboardTarget is the surface that receives key events: the topmost
// grabbed popup if a popup grab holds the keyboard, otherwise the
// focused surface.
func (c *Compositor) keyboardTarget() wl.Surface {
	kb := c.seat.keyboard
	if kb.grabbed {
		if g := c.popups.Grab(); g != nil {
			if top := g.Topmost(); top != nil {
				return top.Surface()
			}
		}
	}
	return kb.focus
}

func (c *Compositor) keyboardKey(ev input.KeyboardKeyEvent, serial wl.Serial) {
	kb := c.seat.keyboard

	mods := kb.mods
	switch ev.State {
	case input.KeyPressed:
		if !slices.Contains(kb.pressed, ev.Code) {
			kb.pressed = append(kb.pressed, ev.Code)
		}
		kb.lastSerial = serial
		mods |= input.ModifierForKey(ev.Code)
	case input.KeyReleased:
		kb.pressed = slices.DeleteFunc(kb.pressed, func(code uint32) bool { return code == ev.Code })
		if m := input.ModifierForKey(ev.Code); m != 0 && !c.modifierHeld(m) {
			mods &^= m
		}
	}

	if (ev.State == input.KeyPressed) && (c.Shortcut != nil) && c.Shortcut(c, ev.Code, mods) {
		c.setModifiers(mods, serial)
		return
	}

	target := c.keyboardTarget()
	if wl.Alive(target) {
		kb.sink.Key(target, ev.Code, ev.State, serial, ev.Time)
	}
	c.setModifiers(mods, serial)
}

func (c *Compositor) modifierHeld(m input.Modifiers) bool {
	return slices.ContainsFunc(c.seat.keyboard.pressed, func(code uint32) bool {
		return input.ModifierForKey(code) == m
	})
}

func (c *Compositor) setModifiers(mods input.Modifiers, serial wl.Serial) {
	kb := c.seat.keyboard
	if kb.mods == mods {
		return
	}
	kb.mods = mods

	target := c.keyboardTarget()
	if wl.Alive(target) {
		kb.sink.Modifiers(target, mods, serial)
	}
}
