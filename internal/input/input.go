// Package input defines the events the compositor core consumes from
// an input backend.
package input

import "deedles.dev/ximage/geom"

// Button is a pointer button code as defined in the Linux kernel's
// linux/input-event-codes.h.
type Button uint32

const (
	BtnLeft   Button = 0x110
	BtnRight  Button = 0x111
	BtnMiddle Button = 0x112
)

func (b Button) String() string {
	switch b {
	case BtnLeft:
		return "left"
	case BtnRight:
		return "right"
	case BtnMiddle:
		return "middle"
	default:
		return "unknown"
	}
}

type ButtonState int

const (
	ButtonReleased ButtonState = iota
	ButtonPressed
)

type KeyState int

const (
	KeyReleased KeyState = iota
	KeyPressed
)

// Modifiers is a bitmask of keyboard modifiers, using the same bit
// layout as wlroots.
type Modifiers uint32

const (
	ModShift Modifiers = 1 << iota
	ModCaps
	ModCtrl
	ModAlt
	ModMod2
	ModMod3
	ModLogo
	ModMod5
)

// Evdev key codes of the modifier keys and the keys used by built-in
// shortcuts.
const (
	KeyEsc        uint32 = 1
	KeyQ          uint32 = 16
	KeyLeftCtrl   uint32 = 29
	KeyLeftShift  uint32 = 42
	KeyRightShift uint32 = 54
	KeyLeftAlt    uint32 = 56
	KeyRightCtrl  uint32 = 97
	KeyRightAlt   uint32 = 100
	KeyLeftMeta   uint32 = 125
	KeyRightMeta  uint32 = 126
)

// ModifierForKey returns the modifier that the given key code
// controls, or 0 if it isn't a modifier key.
func ModifierForKey(code uint32) Modifiers {
	switch code {
	case KeyLeftShift, KeyRightShift:
		return ModShift
	case KeyLeftCtrl, KeyRightCtrl:
		return ModCtrl
	case KeyLeftAlt, KeyRightAlt:
		return ModAlt
	case KeyLeftMeta, KeyRightMeta:
		return ModLogo
	default:
		return 0
	}
}

type AxisSource int

const (
	AxisSourceWheel AxisSource = iota
	AxisSourceFinger
	AxisSourceContinuous
	AxisSourceWheelTilt
)

// AxisFrame is a single scroll event as delivered to a client.
type AxisFrame struct {
	Source AxisSource
	Time   uint32

	// Amount is the scroll distance along each axis.
	Amount geom.Point[float64]

	// V120 is the high-resolution wheel value. Only meaningful when
	// HasV120 is set.
	V120    geom.Point[int]
	HasV120 bool

	// StopX and StopY mark the end of a kinetic scroll sequence on
	// the corresponding axis.
	StopX, StopY bool
}

// Event is implemented by every input event type in this package.
type Event interface {
	EventTime() uint32
}

type KeyboardKeyEvent struct {
	Time  uint32
	Code  uint32
	State KeyState
}

// KeyboardModifiersEvent overrides the modifier state derived from
// key presses, for backends that track it themselves.
type KeyboardModifiersEvent struct {
	Time      uint32
	Modifiers Modifiers
}

type PointerMotionEvent struct {
	Time  uint32
	Delta geom.Point[float64]
}

// PointerMotionAbsoluteEvent carries a position normalized to [0, 1]
// on each axis, relative to the named output. An empty Output means
// the first output.
type PointerMotionAbsoluteEvent struct {
	Time     uint32
	Position geom.Point[float64]
	Output   string
}

// Transformed maps the normalized position into the given output
// geometry.
func (ev PointerMotionAbsoluteEvent) Transformed(out geom.Rect[int]) geom.Point[float64] {
	size := geom.PConv[float64](out.Size())
	return geom.Pt(
		float64(out.Min.X)+ev.Position.X*size.X,
		float64(out.Min.Y)+ev.Position.Y*size.Y,
	)
}

type PointerButtonEvent struct {
	Time   uint32
	Button Button
	State  ButtonState
}

type PointerAxisEvent struct {
	Time    uint32
	Source  AxisSource
	Amount  geom.Point[float64]
	V120    geom.Point[int]
	HasV120 bool
}

func (ev KeyboardKeyEvent) EventTime() uint32           { return ev.Time }
func (ev KeyboardModifiersEvent) EventTime() uint32     { return ev.Time }
func (ev PointerMotionEvent) EventTime() uint32         { return ev.Time }
func (ev PointerMotionAbsoluteEvent) EventTime() uint32 { return ev.Time }
func (ev PointerButtonEvent) EventTime() uint32         { return ev.Time }
func (ev PointerAxisEvent) EventTime() uint32           { return ev.Time }
