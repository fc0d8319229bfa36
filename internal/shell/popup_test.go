package shell_test

import (
	"errors"
	"testing"

	"deedles.dev/thing/internal/shell"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/thing/internal/wl/wltest"
	"deedles.dev/ximage/geom"
)

func popupChain(t *testing.T, m *shell.PopupManager) (*wltest.Toplevel, *wltest.Popup, *wltest.Popup) {
	t.Helper()

	top := wltest.NewToplevel(1, 400, 300)
	p1 := wltest.NewPopup(top.S, geom.Rt(10, 10, 110, 210))
	p2 := wltest.NewPopup(p1.S, geom.Rt(100, 20, 200, 120))
	if err := m.Track(p1); err != nil {
		t.Fatal(err)
	}
	if err := m.Track(p2); err != nil {
		t.Fatal(err)
	}
	return top, p1, p2
}

func TestTrack(t *testing.T) {
	m := shell.NewPopupManager()
	top, p1, p2 := popupChain(t, m)

	root, err := m.Root(p2)
	if err != nil || root != top.S {
		t.Fatalf("unexpected root %v: %v", root, err)
	}
	if chain := m.Chain(top.S.ID()); len(chain) != 2 {
		t.Fatalf("unexpected chain %v", chain)
	}
	if off := m.Offset(p2); off != geom.Pt(110, 30) {
		t.Fatalf("unexpected offset %v", off)
	}
	if st := m.State(p1.S.ID()); st != shell.PopupTracked {
		t.Fatalf("unexpected state %v", st)
	}

	orphan := wltest.NewPopup(top.S, geom.Rt(0, 0, 10, 10))
	orphan.ParentS = nil
	if err := m.Track(orphan); !errors.Is(err, shell.ErrNoRoot) {
		t.Fatalf("expected ErrNoRoot, got %v", err)
	}
}

func TestNestedGrab(t *testing.T) {
	m := shell.NewPopupManager()
	_, p1, p2 := popupChain(t, m)

	g, err := m.RequestGrab(p1, 5, true)
	if err != nil {
		t.Fatal(err)
	}
	g.NoteSerial(6)

	g, err = m.RequestGrab(p2, 5, false)
	if err != nil {
		t.Fatalf("previous serial rejected: %v", err)
	}
	if g.Topmost() != p2 {
		t.Fatalf("unexpected topmost %v", g.Topmost())
	}
	if st := m.State(p2.S.ID()); st != shell.PopupGrabbed {
		t.Fatalf("unexpected state %v", st)
	}
}

func TestGrabBadSerial(t *testing.T) {
	m := shell.NewPopupManager()
	top, p1, p2 := popupChain(t, m)

	_, err := m.RequestGrab(p1, 5, true)
	if err != nil {
		t.Fatal(err)
	}

	_, err = m.RequestGrab(p2, 99, true)
	if !errors.Is(err, shell.ErrInvalidGrab) {
		t.Fatalf("expected ErrInvalidGrab, got %v", err)
	}
	if !p1.Done || !p2.Done {
		t.Fatalf("chain not dismissed: p1=%v p2=%v", p1.Done, p2.Done)
	}
	if m.Grab() != nil {
		t.Fatal("grab still active")
	}
	if chain := m.Chain(top.S.ID()); len(chain) != 0 {
		t.Fatalf("chain not cleared: %v", chain)
	}
}

func TestGrabWrongParent(t *testing.T) {
	m := shell.NewPopupManager()
	top, p1, _ := popupChain(t, m)

	sibling := wltest.NewPopup(top.S, geom.Rt(0, 0, 10, 10))
	if err := m.Track(sibling); err != nil {
		t.Fatal(err)
	}

	_, err := m.RequestGrab(p1, 5, true)
	if err != nil {
		t.Fatal(err)
	}

	_, err = m.RequestGrab(sibling, 5, true)
	if !errors.Is(err, shell.ErrInvalidGrab) {
		t.Fatalf("expected ErrInvalidGrab, got %v", err)
	}
	if !sibling.Done || !p1.Done {
		t.Fatal("popups not dismissed")
	}
}

func TestGrabInvalidSeatSerial(t *testing.T) {
	m := shell.NewPopupManager()
	_, p1, p2 := popupChain(t, m)

	_, err := m.RequestGrab(p1, 5, false)
	if !errors.Is(err, shell.ErrInvalidGrab) {
		t.Fatalf("expected ErrInvalidGrab, got %v", err)
	}
	if !p1.Done || !p2.Done {
		t.Fatal("popups not dismissed")
	}
}

func TestDismiss(t *testing.T) {
	m := shell.NewPopupManager()
	top, p1, p2 := popupChain(t, m)

	m.Dismiss(p2)
	if p1.Done || !p2.Done {
		t.Fatalf("wrong popups dismissed: p1=%v p2=%v", p1.Done, p2.Done)
	}
	if chain := m.Chain(top.S.ID()); len(chain) != 1 || chain[0] != p1 {
		t.Fatalf("unexpected chain %v", chain)
	}
	if st := m.State(p2.S.ID()); st != shell.PopupClosed {
		t.Fatalf("unexpected state %v", st)
	}
}

func TestCleanup(t *testing.T) {
	t.Run("DeadRoot", func(t *testing.T) {
		m := shell.NewPopupManager()
		top, p1, p2 := popupChain(t, m)
		m.RequestGrab(p1, 1, true)

		top.S.Dead = true
		m.Cleanup()
		if chain := m.Chain(top.S.ID()); len(chain) != 0 {
			t.Fatalf("chain survived root: %v", chain)
		}
		if !p1.Done || !p2.Done {
			t.Fatal("popups not dismissed")
		}
		if m.Grab() != nil {
			t.Fatal("grab survived root")
		}
	})

	t.Run("DeadPopup", func(t *testing.T) {
		m := shell.NewPopupManager()
		top, p1, p2 := popupChain(t, m)

		p1.S.Dead = true
		m.Cleanup()
		if chain := m.Chain(top.S.ID()); len(chain) != 0 {
			t.Fatalf("descendants of dead popup survived: %v", chain)
		}
		if p1.Done || !p2.Done {
			t.Fatalf("unexpected dismissals: p1=%v p2=%v", p1.Done, p2.Done)
		}
	})
}

func TestRemoveRoot(t *testing.T) {
	m := shell.NewPopupManager()
	top, p1, p2 := popupChain(t, m)

	m.RemoveRoot(top.S.ID())
	if !p1.Done || !p2.Done {
		t.Fatal("popups not dismissed")
	}
	if _, ok := m.Find(p1.S); ok {
		t.Fatal("popup still tracked")
	}
}

func TestSurfaceUnder(t *testing.T) {
	m := shell.NewPopupManager()
	top, _, p2 := popupChain(t, m)

	s, origin, ok := m.SurfaceUnder(top.S.ID(), geom.Pt(1000, 1000), geom.Pt(1120.0, 1040.0))
	if !ok || s != p2.S {
		t.Fatalf("expected p2, got %v", s)
	}
	if origin != geom.Pt(1110.0, 1030.0) {
		t.Fatalf("unexpected origin %v", origin)
	}

	if _, _, ok := m.SurfaceUnder(top.S.ID(), geom.Pt(1000, 1000), geom.Pt(0.0, 0.0)); ok {
		t.Fatal("hit outside of every popup")
	}
}

func TestConstrain(t *testing.T) {
	area := geom.Rt(0, 0, 1000, 800)
	tests := []struct {
		name string
		in   geom.Rect[int]
		out  geom.Rect[int]
	}{
		{name: "Inside", in: geom.Rt(10, 10, 110, 110), out: geom.Rt(10, 10, 110, 110)},
		{name: "Right", in: geom.Rt(950, 10, 1050, 110), out: geom.Rt(900, 10, 1000, 110)},
		{name: "TopLeft", in: geom.Rt(-20, -30, 80, 70), out: geom.Rt(0, 0, 100, 100)},
		{name: "TooWide", in: geom.Rt(500, 0, 1700, 100), out: geom.Rt(0, 0, 1200, 100)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out := shell.Constrain(test.in, area)
			if out != test.out {
				t.Fatalf("expected %v, got %v", test.out, out)
			}
		})
	}
}

func TestPlace(t *testing.T) {
	m := shell.NewPopupManager()
	top := wltest.NewToplevel(1, 400, 300)
	p := wltest.NewPopup(top.S, geom.Rt(350, 0, 450, 50))

	m.Place(p, geom.Pt(600, 0), geom.Rt(0, 0, 1000, 800))
	if p.Geom != geom.Rt(300, 0, 400, 50) {
		t.Fatalf("unexpected geometry %v", p.Geom)
	}

	var _ wl.Popup = p
}
