package shell

import (
	"errors"
	"fmt"

	"deedles.dev/thing/internal/util"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

var (
	ErrNoRoot      = errors.New("popup root cannot be resolved")
	ErrInvalidGrab = errors.New("popup grab rejected")
)

type PopupState int

const (
	PopupClosed PopupState = iota
	PopupTracked
	PopupGrabbed
)

func (s PopupState) String() string {
	switch s {
	case PopupClosed:
		return "closed"
	case PopupTracked:
		return "tracked"
	case PopupGrabbed:
		return "grabbed"
	default:
		return "unknown"
	}
}

// chain is every popup attached, directly or not, to a single root
// surface, in the order they were opened.
type chain struct {
	root   wl.Surface
	popups []wl.Popup
}

func (c *chain) index(id wl.SurfaceID) int {
	return slices.IndexFunc(c.popups, func(p wl.Popup) bool { return p.Surface().ID() == id })
}

// PopupGrab is an explicit grab held by a chain of popups.
type PopupGrab struct {
	root     wl.Surface
	popups   []wl.Popup
	serial   wl.Serial
	previous wl.Serial
}

func (g *PopupGrab) Root() wl.Surface {
	return g.root
}

// Topmost returns the most recently grabbed popup that is still open.
func (g *PopupGrab) Topmost() wl.Popup {
	if len(g.popups) == 0 {
		return nil
	}
	return g.popups[len(g.popups)-1]
}

func (g *PopupGrab) Popups() []wl.Popup {
	return slices.Clone(g.popups)
}

func (g *PopupGrab) Serial() wl.Serial {
	return g.serial
}

// NoteSerial records a serial generated for the grabbing client while
// the grab is active. Nested popups may use it or the one before it.
func (g *PopupGrab) NoteSerial(serial wl.Serial) {
	if serial == g.serial {
		return
	}
	g.previous, g.serial = g.serial, serial
}

// Owns reports whether s belongs to the client holding the grab.
// Pointer events over such surfaces are delivered normally.
func (g *PopupGrab) Owns(s wl.Surface) bool {
	return wl.SameClient(g.root, s)
}

func (g *PopupGrab) accepts(p wl.Popup, serial wl.Serial) bool {
	top := g.Topmost()
	if (top == nil) || (p.Parent() != top.Surface()) {
		return false
	}
	return (serial == g.serial) || (serial == g.previous)
}

// PopupManager tracks popup chains and the popup grab.
type PopupManager struct {
	chains map[wl.SurfaceID]*chain
	owners map[wl.SurfaceID]wl.SurfaceID
	states map[wl.SurfaceID]PopupState
	grab   *PopupGrab
}

func NewPopupManager() *PopupManager {
	return &PopupManager{
		chains: make(map[wl.SurfaceID]*chain),
		owners: make(map[wl.SurfaceID]wl.SurfaceID),
		states: make(map[wl.SurfaceID]PopupState),
	}
}

// Root resolves the non-popup surface at the bottom of p's parent
// chain.
func (m *PopupManager) Root(p wl.Popup) (wl.Surface, error) {
	parent := p.Parent()
	if !wl.Alive(parent) {
		return nil, ErrNoRoot
	}

	rootID, ok := m.owners[parent.ID()]
	if !ok {
		return parent, nil
	}
	c, ok := m.chains[rootID]
	if !ok || !wl.Alive(c.root) {
		return nil, ErrNoRoot
	}
	return c.root, nil
}

// Track adds p to the end of its root's chain.
func (m *PopupManager) Track(p wl.Popup) error {
	id := p.Surface().ID()
	root, err := m.Root(p)
	if err != nil {
		return fmt.Errorf("track popup %v: %w", id, err)
	}

	c, ok := m.chains[root.ID()]
	if !ok {
		c = &chain{root: root}
		m.chains[root.ID()] = c
	}
	if c.index(id) < 0 {
		c.popups = append(c.popups, p)
	}
	m.owners[id] = root.ID()
	m.states[id] = PopupTracked
	return nil
}

// Find returns the tracked popup whose surface is s.
func (m *PopupManager) Find(s wl.Surface) (wl.Popup, bool) {
	if s == nil {
		return nil, false
	}
	rootID, ok := m.owners[s.ID()]
	if !ok {
		return nil, false
	}
	c := m.chains[rootID]
	return util.FindFunc(c.popups, func(p wl.Popup) bool { return p.Surface().ID() == s.ID() })
}

func (m *PopupManager) State(id wl.SurfaceID) PopupState {
	return m.states[id]
}

// Chain returns the open popups rooted at the given surface, oldest
// first.
func (m *PopupManager) Chain(root wl.SurfaceID) []wl.Popup {
	c, ok := m.chains[root]
	if !ok {
		return nil
	}
	return slices.Clone(c.popups)
}

// Grab returns the active grab, or nil if there isn't one.
func (m *PopupManager) Grab() *PopupGrab {
	return m.grab
}

// RequestGrab handles a popup's request for an explicit grab. When no
// grab is active, seatValid decides whether serial refers to an event
// the seat actually sent. Nested grabs have to come from a child of
// the topmost grabbed popup with the grab's current or previous
// serial.
//
// A rejected request dismisses the popup along with everything that
// was already grabbed.
func (m *PopupManager) RequestGrab(p wl.Popup, serial wl.Serial, seatValid bool) (*PopupGrab, error) {
	id := p.Surface().ID()
	rootID, ok := m.owners[id]
	if !ok {
		return nil, fmt.Errorf("grab popup %v: %w", id, ErrNotTracked)
	}
	c := m.chains[rootID]

	if g := m.grab; g != nil {
		if (g.root.ID() != rootID) || !g.accepts(p, serial) {
			m.dismissGrab(p)
			return nil, fmt.Errorf("grab popup %v with serial %v: %w", id, serial, ErrInvalidGrab)
		}
		g.popups = append(g.popups, p)
		g.NoteSerial(serial)
		m.states[id] = PopupGrabbed
		return g, nil
	}

	if !seatValid {
		m.Dismiss(p)
		return nil, fmt.Errorf("grab popup %v with serial %v: %w", id, serial, ErrInvalidGrab)
	}

	m.grab = &PopupGrab{
		root:     c.root,
		popups:   []wl.Popup{p},
		serial:   serial,
		previous: serial,
	}
	m.states[id] = PopupGrabbed
	return m.grab, nil
}

// dismissGrab closes every grabbed popup and p.
func (m *PopupManager) dismissGrab(p wl.Popup) {
	m.Ungrab()
	m.Dismiss(p)
}

// Ungrab ends the active grab and dismisses every popup in it,
// topmost first.
func (m *PopupManager) Ungrab() {
	g := m.grab
	if g == nil {
		return
	}
	m.grab = nil

	if len(g.popups) == 0 {
		return
	}
	c, ok := m.chains[g.root.ID()]
	if !ok {
		return
	}
	i := c.index(g.popups[0].Surface().ID())
	if i < 0 {
		return
	}
	m.truncate(c, i)
}

// Dismiss closes p and every popup opened after it in its chain.
func (m *PopupManager) Dismiss(p wl.Popup) {
	id := p.Surface().ID()
	rootID, ok := m.owners[id]
	if !ok {
		return
	}
	c := m.chains[rootID]
	if i := c.index(id); i >= 0 {
		m.truncate(c, i)
	}
}

// RemoveRoot closes every popup rooted at the given surface.
func (m *PopupManager) RemoveRoot(root wl.SurfaceID) {
	c, ok := m.chains[root]
	if !ok {
		return
	}
	m.truncate(c, 0)
}

// Cleanup drops popups whose surfaces or roots have gone away. A dead
// popup takes every popup opened after it down with it.
func (m *PopupManager) Cleanup() {
	for _, c := range m.chains {
		if !wl.Alive(c.root) {
			m.truncate(c, 0)
			continue
		}

		i := slices.IndexFunc(c.popups, func(p wl.Popup) bool { return !wl.Alive(p.Surface()) })
		if i >= 0 {
			m.truncate(c, i)
		}
	}
}

// truncate closes the popups of c from index i onward.
func (m *PopupManager) truncate(c *chain, i int) {
	closed := c.popups[i:]
	c.popups = slices.Clone(c.popups[:i])

	for j := len(closed) - 1; j >= 0; j-- {
		p := closed[j]
		s := p.Surface()
		if wl.Alive(s) {
			p.SendDone()
		}
		delete(m.owners, s.ID())
		delete(m.states, s.ID())
		logrus.WithField("popup", s.ID()).Debug("popup closed")
	}

	if g := m.grab; (g != nil) && (g.root == c.root) {
		g.popups = slices.DeleteFunc(g.popups, func(p wl.Popup) bool {
			return slices.Contains(closed, p)
		})
		if len(g.popups) == 0 {
			m.grab = nil
		}
	}

	if len(c.popups) == 0 {
		delete(m.chains, c.root.ID())
	}
}

// Offset returns the position of p's origin relative to its root's
// window geometry.
func (m *PopupManager) Offset(p wl.Popup) geom.Point[int] {
	return p.Geometry().Min.Add(m.parentOffset(p))
}

func (m *PopupManager) parentOffset(p wl.Popup) (off geom.Point[int]) {
	for range len(m.owners) + 1 {
		parent, ok := m.Find(p.Parent())
		if !ok {
			return off
		}
		off = off.Add(parent.Geometry().Min)
		p = parent
	}
	return off
}

// SurfaceUnder finds the topmost popup surface rooted at root under
// p. rootLoc is the global location of the root's window geometry.
func (m *PopupManager) SurfaceUnder(root wl.SurfaceID, rootLoc geom.Point[int], p geom.Point[float64]) (s wl.Surface, origin geom.Point[float64], ok bool) {
	c, ok := m.chains[root]
	if !ok {
		return nil, origin, false
	}

	for i := len(c.popups) - 1; i >= 0; i-- {
		popup := c.popups[i]
		if !wl.Alive(popup.Surface()) {
			continue
		}
		o := geom.PConv[float64](rootLoc.Add(m.Offset(popup)))
		s, sp, ok := popup.Surface().SurfaceAt(p.Sub(o))
		if ok {
			return s, p.Sub(sp), true
		}
	}
	return nil, origin, false
}

// Place positions a popup that hasn't been tracked yet so that it
// stays inside area as far as possible. rootLoc is the global
// location of the root's window geometry.
func (m *PopupManager) Place(p wl.Popup, rootLoc geom.Point[int], area geom.Rect[int]) {
	if area.Empty() {
		return
	}

	base := rootLoc.Add(m.parentOffset(p))
	r := Constrain(p.Geometry().Add(base), area)
	p.SetGeometry(r.Sub(base))
}

// Constrain shifts r so that it fits into area. If r is larger than
// area along an axis, it is aligned with area's top-left along that
// axis.
func Constrain(r, area geom.Rect[int]) geom.Rect[int] {
	if r.Max.X > area.Max.X {
		r = r.Sub(geom.Pt(r.Max.X-area.Max.X, 0))
	}
	if r.Min.X < area.Min.X {
		r = r.Add(geom.Pt(area.Min.X-r.Min.X, 0))
	}
	if r.Max.Y > area.Max.Y {
		r = r.Sub(geom.Pt(0, r.Max.Y-area.Max.Y))
	}
	if r.Min.Y < area.Min.Y {
		r = r.Add(geom.Pt(0, area.Min.Y-r.Min.Y))
	}
	return r
}
