// Package element provides a single window abstraction over native
// xdg toplevels and bridged legacy X11 windows.
package element

import (
	"time"

	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
)

type Kind int

const (
	KindNative Kind = iota
	KindLegacy
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// Element is a window in the scene. Everything outside of the bridge
// works against this interface and never against a concrete variant.
//
// Coordinates passed to and returned from an Element are relative to
// its surface origin unless noted otherwise. The location an Element
// is mapped at in a Space is the top-left corner of its window
// geometry.
type Element interface {
	Kind() Kind
	Title() string

	// Surface returns the element's root surface. It can be nil for a
	// legacy window that hasn't been associated with one yet.
	Surface() wl.Surface
	Alive() bool

	Mapped() bool
	SetMapped(bool)

	// Geometry is the window geometry. Its size is the size of the
	// window as the user sees it.
	Geometry() geom.Rect[int]

	// BBox is the area the element covers, for hit-testing and output
	// membership. It is empty while the element is unmapped.
	BBox() geom.Rect[int]

	SurfaceAt(geom.Point[float64]) (s wl.Surface, sp geom.Point[float64], ok bool)
	SizeHints() wl.SizeHints

	Activated() bool
	SetActivated(bool)
	SetResizing(bool)
	Resize(size geom.Point[int])

	// Relocate tells the element where it was placed in the global
	// space.
	Relocate(loc geom.Point[int])

	// SendConfigure flushes pending activation and size state to the
	// client.
	SendConfigure()

	// OverrideRedirect elements are placed by their client. They are
	// stacked above everything else and are never activated.
	OverrideRedirect() bool

	OnCommit()
	OutputEnter(*wl.Output)
	OutputLeave(*wl.Output)
	SendFrame(time.Time)
	Close()
}

// Origin returns the global position of el's surface origin when its
// window geometry is placed at loc.
func Origin(el Element, loc geom.Point[int]) geom.Point[int] {
	return loc.Sub(el.Geometry().Min)
}

// ConfigureRequest is a legacy window's request to change its
// geometry. Nil fields are left as they are.
type ConfigureRequest struct {
	X, Y          *int32
	Width, Height *uint32
}

// Merge applies the request on top of r. Sizes that can't be
// represented, including zero, are ignored.
func (req ConfigureRequest) Merge(r geom.Rect[int]) geom.Rect[int] {
	loc := r.Min
	size := r.Size()
	if req.X != nil {
		loc.X = int(*req.X)
	}
	if req.Y != nil {
		loc.Y = int(*req.Y)
	}
	if w, ok := coerceSize(req.Width); ok {
		size.X = w
	}
	if h, ok := coerceSize(req.Height); ok {
		size.Y = h
	}
	return geom.Rect[int]{Min: loc, Max: loc.Add(size)}
}

func coerceSize(v *uint32) (int, bool) {
	if v == nil {
		return 0, false
	}
	if (*v == 0) || (*v > 1<<31-1) {
		return 0, false
	}
	return int(*v), true
}
