package compositor_test

import (
	"errors"
	"testing"
	"time"

	"deedles.dev/thing/internal/compositor"
	"deedles.dev/thing/internal/element"
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/shell"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/thing/internal/wl/wltest"
	"deedles.dev/ximage/geom"
)

type env struct {
	c   *compositor.Compositor
	ptr *wltest.Pointer
	kb  *wltest.Keyboard
	out *wl.Output
}

func newEnv(t *testing.T) *env {
	t.Helper()

	ptr := new(wltest.Pointer)
	kb := new(wltest.Keyboard)
	c := compositor.New(compositor.DefaultOptions(), ptr, kb)

	out := &wl.Output{Name: "test", Geometry: geom.Rt(0, 0, 1920, 1080), Scale: 1}
	c.MapOutput(out)

	return &env{c: c, ptr: ptr, kb: kb, out: out}
}

// toplevel creates a toplevel, runs it through the initial configure
// handshake and maps it at loc.
func (e *env) toplevel(t *testing.T, client wl.ClientID, w, h int, loc geom.Point[int]) (*wltest.Toplevel, element.Element) {
	t.Helper()

	top := wltest.NewToplevel(client, w, h)
	el := e.c.NewToplevel(top)
	e.c.Commit(top.S)
	if len(top.Configures) != 1 {
		t.Fatalf("expected initial configure, got %v", top.Configures)
	}
	e.c.Commit(top.S)
	if !e.c.Space().Contains(el) {
		t.Fatal("toplevel not mapped after ready commit")
	}

	e.c.Space().Map(el, loc, true)
	return top, el
}

func (e *env) location(t *testing.T, el element.Element) geom.Point[int] {
	t.Helper()

	loc, ok := e.c.Space().Location(el)
	if !ok {
		t.Fatal("element not in space")
	}
	return loc
}

func (e *env) key(code uint32, state input.KeyState) {
	e.c.ProcessInput(input.KeyboardKeyEvent{Code: code, State: state})
}

func (e *env) moveTo(x, y float64) {
	e.c.MovePointer(geom.Pt(x, y), 0)
}

func (e *env) button(b input.Button, state input.ButtonState) {
	e.c.ProcessInput(input.PointerButtonEvent{Button: b, State: state})
}

// lastButtonSerial returns the serial of the last button event sent to
// a client.
func (e *env) lastButtonSerial(t *testing.T) wl.Serial {
	t.Helper()

	for i := len(e.ptr.Events) - 1; i >= 0; i-- {
		if ev := e.ptr.Events[i]; ev.Kind == "button" {
			return ev.Serial
		}
	}
	t.Fatal("no button events")
	return 0
}

func TestMapReady(t *testing.T) {
	e := newEnv(t)

	top := wltest.NewToplevel(1, 200, 100)
	el := e.c.NewToplevel(top)
	if e.c.Space().Contains(el) {
		t.Fatal("mapped before initial commit")
	}

	e.c.Commit(top.S)
	if e.c.Space().Contains(el) {
		t.Fatal("mapped before ready commit")
	}

	e.c.Commit(top.S)
	if loc := e.location(t, el); loc != geom.Pt(860, 490) {
		t.Fatalf("expected toplevel centered on output, got %v", loc)
	}
	if !el.Activated() {
		t.Fatal("new toplevel not activated")
	}
	if e.kb.Focus != top.S {
		t.Fatal("new toplevel not focused")
	}
}

func TestModifierMove(t *testing.T) {
	e := newEnv(t)
	_, a := e.toplevel(t, 1, 200, 100, geom.Pt(0, 0))

	e.key(input.KeyLeftAlt, input.KeyPressed)
	e.moveTo(50, 50)
	e.button(input.BtnLeft, input.ButtonPressed)
	if e.c.Seat().Pointer().Grab() == nil {
		t.Fatal("move grab not started")
	}

	e.moveTo(70, 80)
	if loc := e.location(t, a); loc != geom.Pt(20, 30) {
		t.Fatalf("expected (20, 30), got %v", loc)
	}
	if !a.Activated() {
		t.Fatal("moved element not activated")
	}

	e.button(input.BtnLeft, input.ButtonReleased)
	if e.c.Seat().Pointer().Grab() != nil {
		t.Fatal("move grab survived release")
	}
}

func TestMoveWithoutMotion(t *testing.T) {
	e := newEnv(t)
	_, a := e.toplevel(t, 1, 200, 100, geom.Pt(10, 10))

	e.key(input.KeyLeftAlt, input.KeyPressed)
	e.moveTo(50, 50)
	e.button(input.BtnLeft, input.ButtonPressed)
	e.button(input.BtnLeft, input.ButtonReleased)

	if loc := e.location(t, a); loc != geom.Pt(10, 10) {
		t.Fatalf("zero-delta move changed location to %v", loc)
	}
}

func TestClientMoveRequest(t *testing.T) {
	e := newEnv(t)
	top, a := e.toplevel(t, 1, 200, 100, geom.Pt(0, 0))
	other := wltest.NewToplevel(2, 10, 10)

	e.moveTo(50, 50)
	e.button(input.BtnLeft, input.ButtonPressed)
	serial := e.lastButtonSerial(t)

	e.c.MoveRequest(top.S, "seat0", serial+100)
	if e.c.Seat().Pointer().Grab() != nil {
		t.Fatal("grab started with stale serial")
	}
	e.c.MoveRequest(other.S, "seat0", serial)
	if e.c.Seat().Pointer().Grab() != nil {
		t.Fatal("grab started for another client")
	}
	if err := e.c.MoveRequest(top.S, "seat9", serial); !errors.Is(err, compositor.ErrUnknownSeat) {
		t.Fatalf("expected ErrUnknownSeat, got %v", err)
	}

	err := e.c.MoveRequest(top.S, "seat0", serial)
	if err != nil {
		t.Fatal(err)
	}
	if e.c.Seat().Pointer().Grab() == nil {
		t.Fatal("valid move request ignored")
	}

	e.moveTo(60, 40)
	if loc := e.location(t, a); loc != geom.Pt(10, -10) {
		t.Fatalf("expected (10, -10), got %v", loc)
	}
	e.button(input.BtnLeft, input.ButtonReleased)
}

func TestModifierResizeClamp(t *testing.T) {
	e := newEnv(t)
	top, a := e.toplevel(t, 1, 200, 100, geom.Pt(100, 100))
	top.Hints = wl.SizeHints{Min: geom.Pt(50, 50)}

	e.key(input.KeyLeftAlt, input.KeyPressed)
	e.moveTo(290, 190)
	e.button(input.BtnRight, input.ButtonPressed)

	e.moveTo(-1000, -1000)
	c, _ := top.LastConfigure()
	if !c.Resizing || (c.Size != geom.Pt(50, 50)) {
		t.Fatalf("unexpected configure during resize %+v", c)
	}

	e.button(input.BtnRight, input.ButtonReleased)
	c, _ = top.LastConfigure()
	if c.Resizing || (c.Size != geom.Pt(50, 50)) {
		t.Fatalf("unexpected final configure %+v", c)
	}
	if st := e.c.Surfaces().ResizeState(top.S.ID()); st != shell.ResizeWaitingForLastCommit {
		t.Fatalf("expected waiting for last commit, got %v", st)
	}

	top.Resize(50, 50)
	e.c.Commit(top.S)
	if st := e.c.Surfaces().ResizeState(top.S.ID()); st != shell.ResizeIdle {
		t.Fatalf("expected idle, got %v", st)
	}
	if loc := e.location(t, a); loc != geom.Pt(100, 100) {
		t.Fatalf("bottom-right resize moved element to %v", loc)
	}
}

func TestResizeTopEdge(t *testing.T) {
	e := newEnv(t)
	top, a := e.toplevel(t, 1, 200, 100, geom.Pt(100, 100))

	e.moveTo(150, 150)
	e.button(input.BtnLeft, input.ButtonPressed)
	err := e.c.ResizeRequest(top.S, "seat0", e.lastButtonSerial(t), shell.EdgeTop)
	if err != nil {
		t.Fatal(err)
	}

	e.moveTo(150, 110)
	c, _ := top.LastConfigure()
	if c.Size != geom.Pt(200, 140) {
		t.Fatalf("expected 200x140, got %v", c.Size)
	}

	top.Resize(200, 140)
	e.c.Commit(top.S)
	if loc := e.location(t, a); loc != geom.Pt(100, 60) {
		t.Fatalf("expected live anchoring at (100, 60), got %v", loc)
	}

	e.button(input.BtnLeft, input.ButtonReleased)
	e.c.Commit(top.S)
	if loc := e.location(t, a); loc != geom.Pt(100, 60) {
		t.Fatalf("expected (100, 60), got %v", loc)
	}
	if st := e.c.Surfaces().ResizeState(top.S.ID()); st != shell.ResizeIdle {
		t.Fatalf("expected idle, got %v", st)
	}
}

func TestResizeReplacedByMove(t *testing.T) {
	e := newEnv(t)
	top, a := e.toplevel(t, 1, 200, 100, geom.Pt(100, 100))

	e.moveTo(150, 150)
	e.button(input.BtnLeft, input.ButtonPressed)
	serial := e.lastButtonSerial(t)
	if err := e.c.ResizeRequest(top.S, "seat0", serial, shell.EdgeTop); err != nil {
		t.Fatal(err)
	}
	if err := e.c.MoveRequest(top.S, "seat0", serial); err != nil {
		t.Fatal(err)
	}

	if st := e.c.Surfaces().ResizeState(top.S.ID()); st != shell.ResizeIdle {
		t.Fatalf("expected idle after replaced resize, got %v", st)
	}
	if c, _ := top.LastConfigure(); c.Resizing {
		t.Fatal("last configure still resizing")
	}

	e.moveTo(150, 250)
	if loc := e.location(t, a); loc != geom.Pt(100, 200) {
		t.Fatalf("expected (100, 200), got %v", loc)
	}

	e.button(input.BtnLeft, input.ButtonReleased)
	e.c.Commit(top.S)
	e.c.Commit(top.S)
	if loc := e.location(t, a); loc != geom.Pt(100, 200) {
		t.Fatalf("window moved back to %v", loc)
	}
}

func TestDestroyDuringGrab(t *testing.T) {
	e := newEnv(t)
	top, _ := e.toplevel(t, 1, 200, 100, geom.Pt(0, 0))

	e.key(input.KeyLeftAlt, input.KeyPressed)
	e.moveTo(50, 50)
	e.button(input.BtnLeft, input.ButtonPressed)

	top.S.Dead = true
	e.c.SurfaceDestroyed(top.S)

	e.moveTo(80, 80)
	e.button(input.BtnLeft, input.ButtonReleased)

	if e.c.Seat().Pointer().Grab() != nil {
		t.Fatal("grab survived release")
	}
	if e.c.Seat().Pointer().Focus() != nil {
		t.Fatal("pointer focus on destroyed surface")
	}
	if e.c.Seat().Keyboard().Focus() != nil {
		t.Fatal("keyboard focus on destroyed surface")
	}
	if len(e.c.Space().Elements()) != 0 {
		t.Fatal("destroyed element still mapped")
	}
}

func TestClickFocus(t *testing.T) {
	e := newEnv(t)
	atop, a := e.toplevel(t, 1, 100, 100, geom.Pt(0, 0))
	btop, b := e.toplevel(t, 2, 100, 100, geom.Pt(50, 50))

	e.moveTo(25, 25)
	e.button(input.BtnLeft, input.ButtonPressed)
	e.button(input.BtnLeft, input.ButtonReleased)

	els := e.c.Space().Elements()
	if els[len(els)-1] != a {
		t.Fatal("clicked element not raised")
	}
	if !a.Activated() || b.Activated() {
		t.Fatalf("unexpected activation a=%v b=%v", a.Activated(), b.Activated())
	}
	if e.kb.Focus != atop.S {
		t.Fatal("clicked element not focused")
	}
	if e.ptr.Count("button") != 2 {
		t.Fatalf("expected press and release delivered, got %v", e.ptr.Count("button"))
	}

	e.moveTo(75, 75)
	if e.ptr.Focus != atop.S {
		t.Fatal("pointer focus not on raised element")
	}
	e.moveTo(125, 125)
	if e.ptr.Focus != btop.S {
		t.Fatal("pointer focus not on b")
	}

	e.moveTo(1000, 1000)
	e.button(input.BtnLeft, input.ButtonPressed)
	if a.Activated() || b.Activated() {
		t.Fatal("click on empty space left an element activated")
	}
	if e.kb.Focus != nil {
		t.Fatal("click on empty space left keyboard focus")
	}
	if ev := e.kb.Events[len(e.kb.Events)-1]; (ev.Kind != "leave") || (ev.Surface != atop.S) {
		t.Fatalf("expected keyboard leave for a, got %+v", ev)
	}
}

func TestPopupGrabBadSerial(t *testing.T) {
	e := newEnv(t)
	top, _ := e.toplevel(t, 1, 400, 300, geom.Pt(0, 0))

	e.moveTo(10, 10)
	e.button(input.BtnLeft, input.ButtonPressed)
	serial := e.lastButtonSerial(t)

	p1 := wltest.NewPopup(top.S, geom.Rt(10, 10, 110, 210))
	if err := e.c.NewPopup(p1); err != nil {
		t.Fatal(err)
	}
	if err := e.c.PopupGrabRequest(p1, "seat0", serial); err != nil {
		t.Fatal(err)
	}
	if !e.c.Seat().Keyboard().Grabbed() || (e.kb.Focus != p1.S) {
		t.Fatal("keyboard not grabbed by popup")
	}

	p2 := wltest.NewPopup(p1.S, geom.Rt(100, 0, 200, 100))
	if err := e.c.NewPopup(p2); err != nil {
		t.Fatal(err)
	}
	err := e.c.PopupGrabRequest(p2, "seat0", serial+1000)
	if !errors.Is(err, shell.ErrInvalidGrab) {
		t.Fatalf("expected ErrInvalidGrab, got %v", err)
	}

	if !p1.Done || !p2.Done {
		t.Fatalf("chain not dismissed p1=%v p2=%v", p1.Done, p2.Done)
	}
	if e.c.Seat().Keyboard().Grabbed() {
		t.Fatal("keyboard still grabbed")
	}
	if e.kb.Focus != top.S {
		t.Fatal("keyboard focus not returned to root")
	}
	if e.c.Seat().Pointer().Grab() != nil {
		t.Fatal("pointer still grabbed")
	}
}

func TestPopupGrabUnknownSeat(t *testing.T) {
	e := newEnv(t)
	top, _ := e.toplevel(t, 1, 400, 300, geom.Pt(0, 0))

	p := wltest.NewPopup(top.S, geom.Rt(10, 10, 110, 210))
	e.c.NewPopup(p)
	err := e.c.PopupGrabRequest(p, "seat9", 1)
	if !errors.Is(err, compositor.ErrUnknownSeat) {
		t.Fatalf("expected ErrUnknownSeat, got %v", err)
	}
}

func TestPopupDismissOnOutsideClick(t *testing.T) {
	e := newEnv(t)
	top, _ := e.toplevel(t, 1, 400, 300, geom.Pt(0, 0))
	e.toplevel(t, 2, 400, 300, geom.Pt(500, 0))

	e.moveTo(10, 10)
	e.button(input.BtnLeft, input.ButtonPressed)
	serial := e.lastButtonSerial(t)

	p := wltest.NewPopup(top.S, geom.Rt(10, 10, 110, 210))
	e.c.NewPopup(p)
	if err := e.c.PopupGrabRequest(p, "seat0", serial); err != nil {
		t.Fatal(err)
	}
	e.button(input.BtnLeft, input.ButtonReleased)

	e.moveTo(50, 50)
	if e.ptr.Focus != p.S {
		t.Fatal("popup did not get pointer focus")
	}

	e.moveTo(600, 50)
	if e.ptr.Focus != nil {
		t.Fatal("other client got pointer focus during popup grab")
	}

	e.button(input.BtnLeft, input.ButtonPressed)
	if !p.Done {
		t.Fatal("popup not dismissed by outside click")
	}
	if e.c.Popups().Grab() != nil {
		t.Fatal("popup grab still active")
	}
}

func TestPopupRootDestroyed(t *testing.T) {
	e := newEnv(t)
	top, _ := e.toplevel(t, 1, 400, 300, geom.Pt(0, 0))

	p1 := wltest.NewPopup(top.S, geom.Rt(10, 10, 110, 210))
	p2 := wltest.NewPopup(p1.S, geom.Rt(100, 0, 200, 100))
	e.c.NewPopup(p1)
	e.c.NewPopup(p2)

	top.S.Dead = true
	e.c.SurfaceDestroyed(top.S)
	if len(e.c.Popups().Chain(top.S.ID())) != 0 {
		t.Fatal("popup chain survived root")
	}
	if !p1.Done || !p2.Done {
		t.Fatal("popups not dismissed")
	}
}

func TestPopupPlacement(t *testing.T) {
	e := newEnv(t)
	top, _ := e.toplevel(t, 1, 400, 300, geom.Pt(1700, 0))

	p := wltest.NewPopup(top.S, geom.Rt(300, 0, 500, 100))
	e.c.NewPopup(p)
	if p.Geom != geom.Rt(20, 0, 220, 100) {
		t.Fatalf("popup not constrained to output: %v", p.Geom)
	}

	e.c.Commit(p.S)
	if p.Configure != 1 {
		t.Fatalf("expected 1 popup configure, got %v", p.Configure)
	}

	p.Geom = geom.Rt(1000, 0, 1100, 100)
	e.c.RepositionRequest(p, 7)
	if p.Geom != geom.Rt(120, 0, 220, 100) {
		t.Fatalf("reposition not constrained: %v", p.Geom)
	}
	if len(p.Tokens) != 1 || p.Tokens[0] != 7 {
		t.Fatalf("unexpected reposition tokens %v", p.Tokens)
	}
}

func TestLegacyBridge(t *testing.T) {
	e := newEnv(t)

	win := wltest.NewWindow(5, geom.Rt(10, 10, 110, 110))
	win.S = wltest.NewSurface(3, 100, 100)
	e.c.LegacyNewWindow(win)
	if len(e.c.Space().Elements()) != 0 {
		t.Fatal("window mapped before map request")
	}

	e.c.LegacyMapRequest(5)
	if !win.Mapped || !win.Activated {
		t.Fatalf("window not mapped and activated: mapped=%v activated=%v", win.Mapped, win.Activated)
	}
	el := e.c.ElementForSurface(win.S)
	if loc := e.location(t, el); loc != geom.Pt(10, 10) {
		t.Fatalf("window not mapped where it asked: %v", loc)
	}
	if e.kb.Focus != win.S {
		t.Fatal("window not focused")
	}

	w := uint32(300)
	e.c.LegacyConfigureRequest(5, element.ConfigureRequest{Width: &w})
	if win.Geom != geom.Rt(10, 10, 310, 110) {
		t.Fatalf("unexpected geometry after configure request: %v", win.Geom)
	}

	n := len(win.Configures)
	zero := uint32(0)
	e.c.LegacyConfigureRequest(5, element.ConfigureRequest{Height: &zero})
	e.c.LegacyConfigureRequest(5, element.ConfigureRequest{})
	if len(win.Configures) != n+2 || (win.Geom != geom.Rt(10, 10, 310, 110)) {
		t.Fatalf("no-op configure changed geometry: %v", win.Geom)
	}

	win.Err = errors.New("window is gone")
	e.c.LegacyConfigureRequest(5, element.ConfigureRequest{Width: &w})

	e.c.LegacyDestroyed(5)
	if len(e.c.Space().Elements()) != 0 {
		t.Fatal("destroyed window still mapped")
	}
	if e.kb.Focus != nil {
		t.Fatal("destroyed window still focused")
	}
	if ev := e.kb.Events[len(e.kb.Events)-1]; (ev.Kind != "leave") || (ev.Surface != win.S) {
		t.Fatalf("expected keyboard leave for the window, got %+v", ev)
	}
}

func TestLegacyMoveRequest(t *testing.T) {
	e := newEnv(t)

	win := wltest.NewWindow(5, geom.Rt(0, 0, 100, 100))
	win.S = wltest.NewSurface(3, 100, 100)
	e.c.LegacyNewWindow(win)
	e.c.LegacyMapRequest(5)

	e.c.LegacyMoveRequest(5, input.BtnLeft)
	if e.c.Seat().Pointer().Grab() != nil {
		t.Fatal("move started without a held button")
	}

	e.moveTo(50, 50)
	e.button(input.BtnLeft, input.ButtonPressed)
	e.c.LegacyMoveRequest(5, input.BtnLeft)
	e.moveTo(60, 70)
	if win.Geom != geom.Rt(10, 20, 110, 120) {
		t.Fatalf("window not moved: %v", win.Geom)
	}
	e.button(input.BtnLeft, input.ButtonReleased)
	if e.c.Seat().Pointer().Grab() != nil {
		t.Fatal("grab survived release")
	}
}

func TestOverrideRedirect(t *testing.T) {
	e := newEnv(t)
	atop, a := e.toplevel(t, 1, 400, 300, geom.Pt(0, 0))

	menu := wltest.NewWindow(9, geom.Rt(20, 20, 120, 120))
	menu.OR = true
	menu.S = wltest.NewSurface(3, 100, 100)
	e.c.LegacyNewWindow(menu)
	e.c.LegacyMappedOverrideRedirect(9)

	e.moveTo(50, 50)
	e.button(input.BtnLeft, input.ButtonPressed)
	e.button(input.BtnLeft, input.ButtonReleased)

	if menu.Activated {
		t.Fatal("override-redirect window activated")
	}
	if !a.Activated() || (e.kb.Focus != atop.S) {
		t.Fatal("focus moved away from managed window")
	}
	if e.ptr.Focus != menu.S {
		t.Fatal("override-redirect window did not get pointer focus")
	}

	e.c.LegacyConfigureNotify(9, geom.Rt(200, 200, 300, 300))
	if loc := e.location(t, e.c.ElementForSurface(menu.S)); loc != geom.Pt(200, 200) {
		t.Fatalf("override-redirect window not moved: %v", loc)
	}
}

func TestFrame(t *testing.T) {
	e := newEnv(t)
	atop, _ := e.toplevel(t, 1, 100, 100, geom.Pt(0, 0))
	btop, _ := e.toplevel(t, 1, 100, 100, geom.Pt(200, 0))

	e.c.Frame(time.Now())
	if atop.S.Frames != 1 || btop.S.Frames != 1 {
		t.Fatalf("frame callbacks not sent: %v %v", atop.S.Frames, btop.S.Frames)
	}
	if !atop.S.Outputs["test"] {
		t.Fatal("output enter not sent")
	}

	btop.S.Dead = true
	e.c.Frame(time.Now())
	if len(e.c.Space().Elements()) != 1 {
		t.Fatal("dead element survived frame")
	}
}

func TestKeyboard(t *testing.T) {
	e := newEnv(t)
	top, _ := e.toplevel(t, 1, 100, 100, geom.Pt(0, 0))

	var shortcuts int
	e.c.Shortcut = func(c *compositor.Compositor, code uint32, mods input.Modifiers) bool {
		if (code == input.KeyEsc) && (mods&input.ModLogo != 0) {
			shortcuts++
			c.CloseFocused()
			return true
		}
		return false
	}

	e.key(30, input.KeyPressed)
	e.key(30, input.KeyReleased)
	var keys int
	for _, ev := range e.kb.Events {
		if ev.Kind == "key" {
			keys++
		}
	}
	if keys != 2 {
		t.Fatalf("expected 2 key events, got %v", keys)
	}

	e.key(input.KeyLeftMeta, input.KeyPressed)
	if e.c.Seat().Keyboard().Modifiers() != input.ModLogo {
		t.Fatalf("unexpected modifiers %v", e.c.Seat().Keyboard().Modifiers())
	}
	e.key(input.KeyEsc, input.KeyPressed)
	if shortcuts != 1 || !top.Closed {
		t.Fatal("shortcut not handled")
	}
	e.key(input.KeyLeftMeta, input.KeyReleased)
	if e.c.Seat().Keyboard().Modifiers() != 0 {
		t.Fatalf("modifiers not cleared: %v", e.c.Seat().Keyboard().Modifiers())
	}
}

func TestAxis(t *testing.T) {
	e := newEnv(t)
	top, _ := e.toplevel(t, 1, 100, 100, geom.Pt(0, 0))

	e.moveTo(50, 50)
	frames := e.ptr.Count("frame")
	e.c.ProcessInput(input.PointerAxisEvent{
		Source:  input.AxisSourceWheel,
		Amount:  geom.Pt(0.0, 10.0),
		V120:    geom.Pt(0, 120),
		HasV120: true,
	})

	if n := e.ptr.Count("axis"); n != 1 {
		t.Fatalf("expected 1 axis event, got %v", n)
	}
	if n := e.ptr.Count("frame"); n != frames+1 {
		t.Fatalf("expected a frame after the axis event, got %v frames", n-frames)
	}
	for _, ev := range e.ptr.Events {
		if (ev.Kind == "axis") && (ev.Surface != top.S) {
			t.Fatalf("axis sent to %v", ev.Surface)
		}
	}

	// Nothing is sent without a focused surface.
	e.moveTo(500, 500)
	e.c.ProcessInput(input.PointerAxisEvent{Source: input.AxisSourceWheel, Amount: geom.Pt(0.0, 10.0)})
	if n := e.ptr.Count("axis"); n != 1 {
		t.Fatalf("axis sent without focus, got %v axis events", n)
	}
}
