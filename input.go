package main

import (
	"os"
	"time"

	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/wlr"
	"deedles.dev/wlr/xkb"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
)

type Keyboard struct {
	Device wlr.Keyboard

	onModifiersListener wlr.Listener
	onKeyListener       wlr.Listener
}

// msec converts a time to the millisecond timestamps used on the wire.
func msec(t time.Time) uint32 {
	return uint32(t.UnixMilli())
}

func fromMsec(ms uint32) time.Time {
	return time.UnixMilli(int64(ms))
}

func (server *Server) onNewInput(device wlr.InputDevice) {
	switch device.Type() {
	case wlr.InputDeviceTypeKeyboard:
		server.addKeyboard(device.Keyboard())
	case wlr.InputDeviceTypePointer:
		server.addPointer(device.Pointer())
	}
}

// onKeyboardModifiers only makes kb the seat's keyboard. The
// compositor tracks modifiers from key codes.
func (server *Server) onKeyboardModifiers(kb *Keyboard) {
	server.seat.SetKeyboard(kb.Device)
}

func (server *Server) onKeyboardKey(kb *Keyboard, code uint32, update bool, state wlr.KeyState, t time.Time) {
	server.seat.SetKeyboard(kb.Device)

	ev := input.KeyboardKeyEvent{Time: msec(t), Code: code, State: input.KeyReleased}
	if state == wlr.KeyStatePressed {
		ev.State = input.KeyPressed
	}
	server.comp.ProcessInput(ev)
}

func (server *Server) onCursorMotion(dev wlr.Pointer, t time.Time, dx, dy float64) {
	server.cursor.Move(dev.Base(), dx, dy)
	server.comp.MovePointer(server.cursorCoords(), msec(t))
}

func (server *Server) onCursorMotionAbsolute(dev wlr.Pointer, t time.Time, x, y float64) {
	server.cursor.WarpAbsolute(dev.Base(), x, y)
	server.comp.MovePointer(server.cursorCoords(), msec(t))
}

func (server *Server) onCursorButton(dev wlr.Pointer, t time.Time, b wlr.CursorButton, state wlr.ButtonState) {
	ev := input.PointerButtonEvent{
		Time:   msec(t),
		Button: input.Button(b),
		State:  input.ButtonReleased,
	}
	if state == wlr.ButtonPressed {
		ev.State = input.ButtonPressed
	}
	server.comp.ProcessInput(ev)
}

func (server *Server) onCursorAxis(dev wlr.Pointer, t time.Time, source wlr.AxisSource, orient wlr.AxisOrientation, delta float64, deltaDiscrete int32) {
	ev := input.PointerAxisEvent{
		Time:    msec(t),
		Source:  axisSource(source),
		HasV120: source == wlr.AxisSourceWheel,
	}
	switch orient {
	case wlr.AxisOrientationHorizontal:
		ev.Amount.X = delta
		ev.V120.X = int(deltaDiscrete)
	default:
		ev.Amount.Y = delta
		ev.V120.Y = int(deltaDiscrete)
	}
	server.comp.ProcessInput(ev)
}

func axisSource(source wlr.AxisSource) input.AxisSource {
	switch source {
	case wlr.AxisSourceFinger:
		return input.AxisSourceFinger
	case wlr.AxisSourceContinuous:
		return input.AxisSourceContinuous
	case wlr.AxisSourceWheelTilt:
		return input.AxisSourceWheelTilt
	default:
		return input.AxisSourceWheel
	}
}

func (server *Server) onRequestCursor(client wlr.SeatClient, surface wlr.Surface, serial uint32, hotspotX, hotspotY int32) {
	focused := server.seat.PointerState().FocusedClient()
	if focused == client {
		server.cursor.SetSurface(surface, hotspotX, hotspotY)
	}
}

func (server *Server) addKeyboard(dev wlr.Keyboard) {
	kb := Keyboard{
		Device: dev,
	}

	rules := xkb.RuleNames{
		Rules:   os.Getenv("XKB_DEFAULT_RULES"),
		Model:   os.Getenv("XKB_DEFAULT_MODEL"),
		Layout:  os.Getenv("XKB_DEFAULT_LAYOUT"),
		Variant: os.Getenv("XKB_DEFAULT_VARIANT"),
		Options: os.Getenv("XKB_DEFAULT_OPTIONS"),
	}

	ctx := xkb.NewContext(xkb.ContextNoFlags)
	defer ctx.Unref()

	keymap := xkb.NewKeymapFromNames(ctx, &rules, xkb.KeymapCompileNoFlags)
	defer keymap.Unref()

	kb.Device.SetKeymap(keymap)
	kb.Device.SetRepeatInfo(server.cfg.RepeatRate, server.cfg.RepeatDelay)

	kb.onModifiersListener = kb.Device.OnModifiers(func(k wlr.Keyboard) {
		server.onKeyboardModifiers(&kb)
	})
	kb.onKeyListener = kb.Device.OnKey(func(k wlr.Keyboard, t time.Time, code uint32, update bool, state wlr.KeyState) {
		server.onKeyboardKey(&kb, code, update, state, t)
	})

	server.seat.SetKeyboard(dev)
	server.keyboards = append(server.keyboards, &kb)

	server.seat.SetCapabilities(server.seat.Capabilities() | wlr.SeatCapabilityKeyboard)
	logrus.WithField("keyboards", len(server.keyboards)).Debug("keyboard added")
}

func (server *Server) addPointer(dev wlr.Pointer) {
	server.cursor.AttachInputDevice(dev.Base())
	server.seat.SetCapabilities(server.seat.Capabilities() | wlr.SeatCapabilityPointer)
	server.cursor.SetXCursor(server.cursorMgr, "left_ptr")
}

func (server *Server) cursorCoords() geom.Point[float64] {
	return geom.Pt(server.cursor.X(), server.cursor.Y())
}

// pointerSink delivers the compositor's pointer events through the
// wlroots seat.
type pointerSink struct {
	server *Server
}

func wlrSurface(s wl.Surface) (ws wlr.Surface, ok bool) {
	sf, ok := s.(*surface)
	if !ok || !sf.Alive() {
		return ws, false
	}
	return sf.s, true
}

func (p pointerSink) Enter(s wl.Surface, loc geom.Point[float64], serial wl.Serial) {
	if ws, ok := wlrSurface(s); ok {
		p.server.seat.PointerNotifyEnter(ws, loc.X, loc.Y)
	}
}

func (p pointerSink) Leave(s wl.Surface, serial wl.Serial) {
	ws, ok := wlrSurface(s)
	if ok && (p.server.seat.PointerState().FocusedSurface() == ws) {
		p.server.seat.PointerNotifyClearFocus()
	}
}

func (p pointerSink) Motion(s wl.Surface, loc geom.Point[float64], time uint32) {
	p.server.seat.PointerNotifyMotion(fromMsec(time), loc.X, loc.Y)
}

// Button records the serial wlroots sends with the event so that
// requests quoting it can be traced back to serial.
func (p pointerSink) Button(s wl.Surface, b input.Button, state input.ButtonState, serial wl.Serial, time uint32) {
	ws := wlr.ButtonReleased
	if state == input.ButtonPressed {
		ws = wlr.ButtonPressed
	}
	sent := pointerNotifyButton(p.server.seat, fromMsec(time), wlr.CursorButton(b), ws)
	p.server.serials.Record(sent, serial)
}

func (p pointerSink) Axis(s wl.Surface, frame input.AxisFrame) {
	source := wlr.AxisSourceWheel
	switch frame.Source {
	case input.AxisSourceFinger:
		source = wlr.AxisSourceFinger
	case input.AxisSourceContinuous:
		source = wlr.AxisSourceContinuous
	case input.AxisSourceWheelTilt:
		source = wlr.AxisSourceWheelTilt
	}

	t := fromMsec(frame.Time)
	if (frame.Amount.X != 0) || frame.StopX {
		p.server.seat.PointerNotifyAxis(t, wlr.AxisOrientationHorizontal, frame.Amount.X, int32(frame.V120.X), source)
	}
	if (frame.Amount.Y != 0) || frame.StopY {
		p.server.seat.PointerNotifyAxis(t, wlr.AxisOrientationVertical, frame.Amount.Y, int32(frame.V120.Y), source)
	}
}

func (p pointerSink) Frame(s wl.Surface) {
	p.server.seat.PointerNotifyFrame()
}

// keyboardSink delivers the compositor's keyboard events through the
// wlroots seat.
type keyboardSink struct {
	server *Server
}

func (k keyboardSink) Enter(s wl.Surface, pressed []uint32, serial wl.Serial) {
	ws, ok := wlrSurface(s)
	if !ok {
		return
	}
	keyboard := k.server.seat.GetKeyboard()
	k.server.seat.KeyboardNotifyEnter(ws, keyboard.Keycodes(), keyboard.Modifiers())
}

// Leave clears the seat's keyboard focus if it is still on s.
func (k keyboardSink) Leave(s wl.Surface, serial wl.Serial) {
	ws, ok := wlrSurface(s)
	if ok && (k.server.seat.KeyboardState().FocusedSurface() == ws) {
		keyboardNotifyClearFocus(k.server.seat)
	}
}

func (k keyboardSink) Key(s wl.Surface, code uint32, state input.KeyState, serial wl.Serial, time uint32) {
	ks := wlr.KeyStateReleased
	if state == input.KeyPressed {
		ks = wlr.KeyStatePressed
	}
	k.server.seat.KeyboardNotifyKey(fromMsec(time), code, ks)
}

func (k keyboardSink) Modifiers(s wl.Surface, mods input.Modifiers, serial wl.Serial) {
	keyboard := k.server.seat.GetKeyboard()
	k.server.seat.KeyboardNotifyModifiers(keyboard.Modifiers())
}
