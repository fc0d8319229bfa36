// Package space keeps track of where elements are, how they are
// stacked and which outputs they are shown on.
package space

import (
	"deedles.dev/thing/internal/element"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

type entry struct {
	el      element.Element
	loc     geom.Point[int]
	outputs map[*wl.Output]struct{}
}

func (e *entry) origin() geom.Point[int] {
	return element.Origin(e.el, e.loc)
}

func (e *entry) bbox() geom.Rect[int] {
	return e.el.BBox().Add(e.origin())
}

// Space is a 2D plane of stacked elements and outputs. Elements are
// kept bottom to top, with override-redirect elements always above
// every other element.
//
// A Space is not safe for concurrent use.
type Space struct {
	elements []*entry
	outputs  []*wl.Output
}

func New() *Space {
	return &Space{}
}

func (s *Space) index(el element.Element) int {
	return slices.IndexFunc(s.elements, func(e *entry) bool { return e.el == el })
}

func (s *Space) find(el element.Element) *entry {
	i := s.index(el)
	if i < 0 {
		return nil
	}
	return s.elements[i]
}

// push inserts e at the top of its layer.
func (s *Space) push(e *entry) {
	if e.el.OverrideRedirect() {
		s.elements = append(s.elements, e)
		return
	}

	i := slices.IndexFunc(s.elements, func(e *entry) bool { return e.el.OverrideRedirect() })
	if i < 0 {
		s.elements = append(s.elements, e)
		return
	}
	s.elements = slices.Insert(s.elements, i, e)
}

// Map places el at loc and raises it to the top of the stack. If el
// is already mapped, it is moved instead. If activate is true, el
// becomes the only activated element.
func (s *Space) Map(el element.Element, loc geom.Point[int], activate bool) {
	if !el.Alive() {
		logrus.WithField("title", el.Title()).Debug("ignoring map of dead element")
		return
	}

	var e *entry
	if i := s.index(el); i >= 0 {
		e = s.elements[i]
		s.elements = slices.Delete(s.elements, i, i+1)
	} else {
		e = &entry{el: el, outputs: make(map[*wl.Output]struct{})}
	}
	e.loc = loc
	s.push(e)

	el.Relocate(loc)
	s.updateOutputs(e)

	if activate {
		s.Activate(el)
	}
}

// Unmap removes el from the space. Unmapping an element that isn't
// mapped does nothing.
func (s *Space) Unmap(el element.Element) {
	i := s.index(el)
	if i < 0 {
		return
	}
	e := s.elements[i]
	s.elements = slices.Delete(s.elements, i, i+1)

	for out := range e.outputs {
		el.OutputLeave(out)
	}
}

// Raise moves el to the top of its layer without changing its
// activation.
func (s *Space) Raise(el element.Element) {
	i := s.index(el)
	if (i < 0) || !el.Alive() {
		return
	}
	e := s.elements[i]
	s.elements = slices.Delete(s.elements, i, i+1)
	s.push(e)
}

// Relocate moves el to loc without touching the stack.
func (s *Space) Relocate(el element.Element, loc geom.Point[int]) bool {
	e := s.find(el)
	if (e == nil) || !el.Alive() {
		return false
	}
	e.loc = loc
	el.Relocate(loc)
	s.updateOutputs(e)
	return true
}

// Activate makes el the only activated element and flushes the change
// to every element whose state changed. Override-redirect and dead
// elements can't be activated.
func (s *Space) Activate(el element.Element) bool {
	if (s.find(el) == nil) || !el.Alive() || el.OverrideRedirect() {
		return false
	}

	for _, e := range s.elements {
		if (e.el == el) || !e.el.Activated() {
			continue
		}
		e.el.SetActivated(false)
		e.el.SendConfigure()
	}
	if !el.Activated() {
		el.SetActivated(true)
		el.SendConfigure()
	}
	return true
}

func (s *Space) DeactivateAll() {
	for _, e := range s.elements {
		if !e.el.Activated() {
			continue
		}
		e.el.SetActivated(false)
		e.el.SendConfigure()
	}
}

// Activated returns the activated element, or nil if there isn't one.
func (s *Space) Activated() element.Element {
	for _, e := range s.elements {
		if e.el.Activated() {
			return e.el
		}
	}
	return nil
}

// Elements returns the mapped elements from bottom to top.
func (s *Space) Elements() []element.Element {
	els := make([]element.Element, 0, len(s.elements))
	for _, e := range s.elements {
		els = append(els, e.el)
	}
	return els
}

func (s *Space) Contains(el element.Element) bool {
	return s.index(el) >= 0
}

// Location returns the location el was mapped at.
func (s *Space) Location(el element.Element) (geom.Point[int], bool) {
	e := s.find(el)
	if e == nil {
		return geom.Point[int]{}, false
	}
	return e.loc, true
}

// Geometry returns el's window geometry in global coordinates.
func (s *Space) Geometry(el element.Element) (geom.Rect[int], bool) {
	e := s.find(el)
	if e == nil {
		return geom.Rect[int]{}, false
	}
	return geom.Rect[int]{Min: e.loc, Max: e.loc.Add(el.Geometry().Size())}, true
}

// BBox returns el's bounding box in global coordinates.
func (s *Space) BBox(el element.Element) (geom.Rect[int], bool) {
	e := s.find(el)
	if e == nil {
		return geom.Rect[int]{}, false
	}
	return e.bbox(), true
}

// Hit is the result of a successful hit-test.
type Hit struct {
	Element  element.Element
	Location geom.Point[int]

	// Surface is the surface that was hit and Origin is its origin in
	// global coordinates.
	Surface wl.Surface
	Origin  geom.Point[float64]
}

// Local converts a global point into Surface's coordinates.
func (h Hit) Local(p geom.Point[float64]) geom.Point[float64] {
	return p.Sub(h.Origin)
}

// HitTest checks whether p lands on an input-accepting surface of el.
func (s *Space) HitTest(el element.Element, p geom.Point[float64]) (Hit, bool) {
	e := s.find(el)
	if (e == nil) || !el.Alive() {
		return Hit{}, false
	}
	if !p.In(geom.RConv[float64](e.bbox())) {
		return Hit{}, false
	}

	origin := geom.PConv[float64](e.origin())
	surface, sp, ok := el.SurfaceAt(p.Sub(origin))
	if !ok {
		return Hit{}, false
	}
	return Hit{
		Element:  el,
		Location: e.loc,
		Surface:  surface,
		Origin:   p.Sub(sp),
	}, true
}

// ElementUnder returns the topmost element with an input-accepting
// surface under p.
func (s *Space) ElementUnder(p geom.Point[float64]) (Hit, bool) {
	for i := len(s.elements) - 1; i >= 0; i-- {
		hit, ok := s.HitTest(s.elements[i].el, p)
		if ok {
			return hit, true
		}
	}
	return Hit{}, false
}

// Refresh drops dead elements and brings output membership up to
// date.
func (s *Space) Refresh() {
	s.elements = slices.DeleteFunc(s.elements, func(e *entry) bool {
		if e.el.Alive() {
			return false
		}
		logrus.WithField("title", e.el.Title()).Debug("dropping dead element")
		return true
	})

	for _, e := range s.elements {
		s.updateOutputs(e)
	}
}

func (s *Space) updateOutputs(e *entry) {
	bbox := e.bbox()
	for _, out := range s.outputs {
		_, entered := e.outputs[out]
		overlaps := bbox.Overlaps(out.Geometry)
		switch {
		case overlaps && !entered:
			e.outputs[out] = struct{}{}
			e.el.OutputEnter(out)
		case !overlaps && entered:
			delete(e.outputs, out)
			e.el.OutputLeave(out)
		}
	}

	for out := range e.outputs {
		if !slices.Contains(s.outputs, out) {
			delete(e.outputs, out)
			e.el.OutputLeave(out)
		}
	}
}
