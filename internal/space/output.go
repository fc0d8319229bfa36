package space

import (
	"deedles.dev/thing/internal/element"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"golang.org/x/exp/slices"
)

// MapOutput adds out to the space, or updates its geometry if it is
// already there.
func (s *Space) MapOutput(out *wl.Output) {
	if !slices.Contains(s.outputs, out) {
		s.outputs = append(s.outputs, out)
	}
	for _, e := range s.elements {
		s.updateOutputs(e)
	}
}

func (s *Space) UnmapOutput(out *wl.Output) {
	i := slices.Index(s.outputs, out)
	if i < 0 {
		return
	}
	s.outputs = slices.Delete(s.outputs, i, i+1)
	for _, e := range s.elements {
		s.updateOutputs(e)
	}
}

// Outputs returns the mapped outputs in the order they were mapped.
func (s *Space) Outputs() []*wl.Output {
	return slices.Clone(s.outputs)
}

// Output returns the named output. An empty name returns the first
// output.
func (s *Space) Output(name string) (*wl.Output, bool) {
	if name == "" {
		if len(s.outputs) == 0 {
			return nil, false
		}
		return s.outputs[0], true
	}

	i := slices.IndexFunc(s.outputs, func(out *wl.Output) bool { return out.Name == name })
	if i < 0 {
		return nil, false
	}
	return s.outputs[i], true
}

// OutputAt returns the output containing p.
func (s *Space) OutputAt(p geom.Point[float64]) (*wl.Output, bool) {
	for _, out := range s.outputs {
		if p.In(geom.RConv[float64](out.Geometry)) {
			return out, true
		}
	}
	return nil, false
}

// OutputsFor returns the outputs that el overlaps.
func (s *Space) OutputsFor(el element.Element) []*wl.Output {
	e := s.find(el)
	if e == nil {
		return nil
	}

	outputs := make([]*wl.Output, 0, len(e.outputs))
	for _, out := range s.outputs {
		if _, ok := e.outputs[out]; ok {
			outputs = append(outputs, out)
		}
	}
	return outputs
}

// OutputGeometryUnion returns the union of the geometries of every
// output el overlaps. It is empty if el overlaps no output.
func (s *Space) OutputGeometryUnion(el element.Element) geom.Rect[int] {
	var union geom.Rect[int]
	for _, out := range s.OutputsFor(el) {
		if union.Empty() {
			union = out.Geometry
			continue
		}
		union = union.Union(out.Geometry)
	}
	return union
}
