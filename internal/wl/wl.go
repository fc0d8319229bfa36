// Package wl describes the pieces of the Wayland protocol runtime that
// the compositor core calls into. Wire marshalling, client bookkeeping
// and buffer management all live behind these interfaces.
package wl

import (
	"sync/atomic"
	"time"

	"deedles.dev/thing/internal/input"
	"deedles.dev/ximage/geom"
)

// SurfaceID is a stable identity for a surface that stays unique for
// the lifetime of the process.
type SurfaceID uint64

type ClientID uint64

// Serial is a monotonically increasing number used to tie a request to
// the event that caused it.
type Serial uint32

// SerialCounter hands out serials. The zero value is ready to use.
type SerialCounter struct {
	n atomic.Uint32
}

func (c *SerialCounter) Next() Serial {
	return Serial(c.n.Add(1))
}

const serialMapSize = 32

// SerialMap translates serials from a foreign numbering, such as the one
// a protocol library sends to clients, back to the compositor's own.
// Only the most recent entries are remembered. Zero is never a valid
// foreign serial. The zero value is ready to use.
type SerialMap struct {
	entries [serialMapSize]serialEntry
	next    int
}

type serialEntry struct {
	foreign uint32
	serial  Serial
}

func (m *SerialMap) Record(foreign uint32, serial Serial) {
	if foreign == 0 {
		return
	}
	m.entries[m.next%serialMapSize] = serialEntry{foreign: foreign, serial: serial}
	m.next++
}

func (m *SerialMap) Lookup(foreign uint32) (Serial, bool) {
	if foreign == 0 {
		return 0, false
	}
	for _, e := range m.entries {
		if e.foreign == foreign {
			return e.serial, true
		}
	}
	return 0, false
}

type Output struct {
	Name     string
	Geometry geom.Rect[int]
	Scale    float64
}

// SizeHints are a surface's cached min/max size. A zero component
// means unbounded.
type SizeHints struct {
	Min, Max geom.Point[int]
}

type Surface interface {
	ID() SurfaceID

	// ProtocolID is the object ID the owning client knows the surface
	// by.
	ProtocolID() uint32
	Client() ClientID
	Alive() bool

	// SurfaceAt finds the input-accepting surface of the surface tree
	// rooted here under p, which is relative to this surface's origin.
	// The returned point is relative to the returned surface.
	SurfaceAt(p geom.Point[float64]) (s Surface, sp geom.Point[float64], ok bool)

	SendEnter(*Output)
	SendLeave(*Output)
	SendFrameDone(time.Time)
}

// ToplevelState is the part of an xdg_toplevel configure that the core
// decides on. A zero Size lets the client pick.
type ToplevelState struct {
	Size      geom.Point[int]
	Activated bool
	Resizing  bool
}

type Toplevel interface {
	Surface() Surface
	Title() string

	// Geometry is the committed window geometry, relative to the
	// surface origin.
	Geometry() geom.Rect[int]
	SizeHints() SizeHints

	SendConfigure(ToplevelState) Serial
	SendClose()
}

type Popup interface {
	Surface() Surface

	// Parent returns the surface the popup is attached to, or nil if
	// it is already gone.
	Parent() Surface

	// Geometry is the popup's placement relative to its parent's
	// origin.
	Geometry() geom.Rect[int]
	SetGeometry(geom.Rect[int])

	SendConfigure() Serial
	SendRepositioned(token uint32)
	SendDone()
}

// PointerSink delivers positioned pointer events to clients.
type PointerSink interface {
	Enter(s Surface, p geom.Point[float64], serial Serial)
	Leave(s Surface, serial Serial)
	Motion(s Surface, p geom.Point[float64], time uint32)
	Button(s Surface, b input.Button, state input.ButtonState, serial Serial, time uint32)
	Axis(s Surface, frame input.AxisFrame)
	Frame(s Surface)
}

// KeyboardSink delivers keyboard events to clients.
type KeyboardSink interface {
	Enter(s Surface, pressed []uint32, serial Serial)
	Leave(s Surface, serial Serial)
	Key(s Surface, code uint32, state input.KeyState, serial Serial, time uint32)
	Modifiers(s Surface, mods input.Modifiers, serial Serial)
}

// SameClient reports whether two surfaces belong to the same client.
// Nil surfaces never match.
func SameClient(a, b Surface) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Client() == b.Client()
}

// Alive reports whether s is non-nil and alive.
func Alive(s Surface) bool {
	return s != nil && s.Alive()
}
