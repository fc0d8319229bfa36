package harness_test

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"deedles.dev/thing/internal/compositor"
	"deedles.dev/thing/internal/config"
	"deedles.dev/thing/internal/harness"
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/thing/internal/wl/wltest"
	"deedles.dev/ximage/geom"
)

type runtime struct {
	ptr      wltest.Pointer
	kb       wltest.Keyboard
	attached *compositor.Compositor
	inserted int
	flushes  int
}

func (rt *runtime) SocketName() string              { return "wayland-harness" }
func (rt *runtime) Pointer() wl.PointerSink         { return &rt.ptr }
func (rt *runtime) Keyboard() wl.KeyboardSink       { return &rt.kb }
func (rt *runtime) Attach(c *compositor.Compositor) { rt.attached = c }
func (rt *runtime) Flush()                          { rt.flushes++ }

func (rt *runtime) InsertClient(conn *net.UnixConn) (wl.ClientID, error) {
	rt.inserted++
	return wl.ClientID(100 + rt.inserted), nil
}

func start(t *testing.T) (*harness.Handle, *runtime) {
	t.Helper()
	t.Setenv("WAYLAND_DISPLAY", "")

	rt := new(runtime)
	cfg := config.Default()
	cfg.FrameInterval = time.Hour

	h, err := harness.Start(context.Background(), cfg.HarnessConfig(rt))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { h.Stop() })
	return h, rt
}

func do(t *testing.T, h *harness.Handle, f func(*compositor.Compositor)) {
	t.Helper()
	if err := h.Do(f); err != nil {
		t.Fatalf("do: %v", err)
	}
}

func send(t *testing.T, h *harness.Handle, ev harness.Event) {
	t.Helper()
	if err := h.Send(ev); err != nil {
		t.Fatalf("send %T: %v", ev, err)
	}
}

func TestStart(t *testing.T) {
	h, rt := start(t)

	do(t, h, func(c *compositor.Compositor) {
		if rt.attached != c {
			t.Error("runtime not attached to the running compositor")
		}
		if _, ok := c.Space().Output("harness"); !ok {
			t.Error("harness output not mapped")
		}
	})
	if name := os.Getenv("WAYLAND_DISPLAY"); name != "wayland-harness" {
		t.Fatalf("expected WAYLAND_DISPLAY to be published, got %q", name)
	}
}

func TestPositionWindowAndInput(t *testing.T) {
	h, rt := start(t)

	send(t, h, harness.NewClient{ClientID: 1})
	send(t, h, harness.NewPointer{DeviceID: 1})

	var top *wltest.Toplevel
	do(t, h, func(c *compositor.Compositor) {
		top = wltest.NewToplevel(101, 200, 100)
		c.NewToplevel(top)
		c.Commit(top.S)
		c.Commit(top.S)
	})

	send(t, h, harness.PositionWindow{
		ClientID: 1,
		Surface:  top.S.ProtocolID(),
		Location: geom.Pt(100, 100),
	})
	send(t, h, harness.PointerMoveAbsolute{DeviceID: 1, Location: geom.Pt(150.0, 120.0)})
	send(t, h, harness.PointerButtonDown{DeviceID: 1, Button: int32(input.BtnLeft)})
	send(t, h, harness.PointerButtonUp{DeviceID: 1, Button: int32(input.BtnLeft)})

	do(t, h, func(c *compositor.Compositor) {
		el := c.ElementForSurface(top.S)
		if loc, _ := c.Space().Location(el); loc != geom.Pt(100, 100) {
			t.Errorf("expected window at (100,100), got %v", loc)
		}

		if rt.ptr.Focus != top.S {
			t.Errorf("expected pointer focus on the toplevel, got %v", rt.ptr.Focus)
		}

		var states []input.ButtonState
		for _, ev := range rt.ptr.Events {
			if ev.Kind == "button" {
				states = append(states, ev.State)
			}
		}
		if (len(states) != 2) || (states[0] != input.ButtonPressed) || (states[1] != input.ButtonReleased) {
			t.Errorf("expected press and release, got %v", states)
		}

		if rt.flushes == 0 {
			t.Error("clients were never flushed")
		}
	})
}

func TestPositionWindowUnknownClient(t *testing.T) {
	h, _ := start(t)

	var top *wltest.Toplevel
	var before geom.Point[int]
	do(t, h, func(c *compositor.Compositor) {
		top = wltest.NewToplevel(5, 200, 100)
		el := c.NewToplevel(top)
		c.Commit(top.S)
		c.Commit(top.S)
		before, _ = c.Space().Location(el)
	})

	send(t, h, harness.PositionWindow{ClientID: 9, Surface: top.S.ProtocolID(), Location: geom.Pt(1, 1)})

	do(t, h, func(c *compositor.Compositor) {
		loc, _ := c.Space().Location(c.ElementForSurface(top.S))
		if loc != before {
			t.Errorf("window moved from %v to %v", before, loc)
		}
	})
}

func TestKeys(t *testing.T) {
	h, rt := start(t)

	var top *wltest.Toplevel
	do(t, h, func(c *compositor.Compositor) {
		top = wltest.NewToplevel(3, 200, 100)
		c.NewToplevel(top)
		c.Commit(top.S)
		c.Commit(top.S)
	})

	send(t, h, harness.NewKeyboard{DeviceID: 2})
	send(t, h, harness.KeyDown{DeviceID: 2, Code: 30})
	send(t, h, harness.KeyUp{DeviceID: 2, Code: 30})

	do(t, h, func(c *compositor.Compositor) {
		var keys int
		for _, ev := range rt.kb.Events {
			if (ev.Kind == "key") && (ev.Surface == top.S) {
				keys++
			}
		}
		if keys != 2 {
			t.Errorf("expected 2 key events for the focused toplevel, got %v", keys)
		}
	})
}

func TestStop(t *testing.T) {
	h, _ := start(t)

	if err := h.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := h.Send(harness.KeyDown{Code: 1}); !errors.Is(err, harness.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if err := h.Do(func(*compositor.Compositor) {}); !errors.Is(err, harness.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestContextCancel(t *testing.T) {
	t.Setenv("WAYLAND_DISPLAY", "")

	ctx, cancel := context.WithCancel(context.Background())
	h, err := harness.Start(ctx, harness.DefaultConfig(new(runtime)))
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	cancel()
	if err := h.Stop(); err != nil {
		t.Fatalf("stop after cancel: %v", err)
	}
}
