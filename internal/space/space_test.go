package space_test

import (
	"testing"

	"deedles.dev/thing/internal/element"
	"deedles.dev/thing/internal/space"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/thing/internal/wl/wltest"
	"deedles.dev/ximage/geom"
)

func native(w, h int) (*element.Native, *wltest.Toplevel) {
	top := wltest.NewToplevel(1, w, h)
	el := element.NewNative(top)
	el.SetMapped(true)
	return el, top
}

func TestStacking(t *testing.T) {
	s := space.New()
	a, _ := native(100, 100)
	b, _ := native(100, 100)

	s.Map(a, geom.Pt(0, 0), false)
	s.Map(b, geom.Pt(50, 50), false)

	hit, ok := s.ElementUnder(geom.Pt(75.0, 75.0))
	if !ok || hit.Element != b {
		t.Fatalf("expected b on top, got %v", hit.Element)
	}
	if hit.Origin != geom.Pt(50.0, 50.0) {
		t.Fatalf("unexpected origin %v", hit.Origin)
	}

	s.Raise(a)
	hit, ok = s.ElementUnder(geom.Pt(75.0, 75.0))
	if !ok || hit.Element != a {
		t.Fatalf("expected a on top after raise, got %v", hit.Element)
	}

	hit, ok = s.ElementUnder(geom.Pt(125.0, 125.0))
	if !ok || hit.Element != b {
		t.Fatalf("expected b, got %v", hit.Element)
	}

	_, ok = s.ElementUnder(geom.Pt(500.0, 500.0))
	if ok {
		t.Fatal("hit in empty space")
	}
}

func TestExclusiveActivation(t *testing.T) {
	s := space.New()
	a, atop := native(100, 100)
	b, btop := native(100, 100)

	s.Map(a, geom.Pt(0, 0), true)
	s.Map(b, geom.Pt(200, 0), true)

	if a.Activated() || !b.Activated() {
		t.Fatalf("expected only b activated: a=%v b=%v", a.Activated(), b.Activated())
	}
	if c, _ := atop.LastConfigure(); c.Activated {
		t.Fatal("a was not sent a deactivating configure")
	}
	if c, _ := btop.LastConfigure(); !c.Activated {
		t.Fatal("b was not sent an activating configure")
	}

	s.DeactivateAll()
	if s.Activated() != nil {
		t.Fatalf("expected no activated element, got %v", s.Activated())
	}
}

func TestOverrideRedirect(t *testing.T) {
	s := space.New()

	menu := wltest.NewWindow(1, geom.Rt(10, 10, 60, 60))
	menu.OR = true
	menu.S = wltest.NewSurface(2, 50, 50)
	or := element.NewLegacy(menu)
	or.SetMapped(true)

	s.Map(or, geom.Pt(10, 10), true)
	if or.Activated() {
		t.Fatal("override-redirect element was activated")
	}

	a, _ := native(100, 100)
	s.Map(a, geom.Pt(0, 0), true)

	hit, ok := s.ElementUnder(geom.Pt(20.0, 20.0))
	if !ok || hit.Element != or {
		t.Fatalf("expected override-redirect element on top, got %v", hit.Element)
	}

	els := s.Elements()
	if els[len(els)-1] != or {
		t.Fatalf("override-redirect element not topmost: %v", els)
	}
}

func TestDeadElements(t *testing.T) {
	s := space.New()
	a, atop := native(100, 100)
	s.Map(a, geom.Pt(0, 0), false)

	atop.S.Dead = true
	if _, ok := s.ElementUnder(geom.Pt(10.0, 10.0)); ok {
		t.Fatal("dead element was hit")
	}
	if s.Relocate(a, geom.Pt(5, 5)) {
		t.Fatal("relocated dead element")
	}

	s.Refresh()
	if s.Contains(a) {
		t.Fatal("dead element survived refresh")
	}

	s.Unmap(a)
	s.Map(a, geom.Pt(0, 0), true)
	if s.Contains(a) {
		t.Fatal("mapped dead element")
	}
}

func TestOutputs(t *testing.T) {
	s := space.New()
	left := &wl.Output{Name: "left", Geometry: geom.Rt(0, 0, 1000, 1000)}
	right := &wl.Output{Name: "right", Geometry: geom.Rt(1000, 0, 2000, 1000)}
	s.MapOutput(left)
	s.MapOutput(right)

	a, atop := native(100, 100)
	s.Map(a, geom.Pt(10, 10), false)
	if !atop.S.Outputs["left"] || atop.S.Outputs["right"] {
		t.Fatalf("unexpected outputs %v", atop.S.Outputs)
	}
	if u := s.OutputGeometryUnion(a); u != left.Geometry {
		t.Fatalf("unexpected union %v", u)
	}

	s.Relocate(a, geom.Pt(950, 10))
	if !atop.S.Outputs["left"] || !atop.S.Outputs["right"] {
		t.Fatalf("unexpected outputs %v", atop.S.Outputs)
	}
	if u := s.OutputGeometryUnion(a); u != geom.Rt(0, 0, 2000, 1000) {
		t.Fatalf("unexpected union %v", u)
	}

	s.Relocate(a, geom.Pt(5000, 5000))
	if len(atop.S.Outputs) != 0 {
		t.Fatalf("unexpected outputs %v", atop.S.Outputs)
	}
	if u := s.OutputGeometryUnion(a); !u.Empty() {
		t.Fatalf("expected empty union, got %v", u)
	}

	s.Relocate(a, geom.Pt(1500, 10))
	s.UnmapOutput(right)
	if len(atop.S.Outputs) != 0 {
		t.Fatalf("element still on unmapped output: %v", atop.S.Outputs)
	}

	out, ok := s.Output("")
	if !ok || out != left {
		t.Fatalf("expected first output, got %v", out)
	}
}
