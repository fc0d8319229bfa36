package main

// The wlr bindings leave out a few things the compositor needs: the
// commit signal of a surface, the serial of a button event, clearing
// keyboard focus and finding the surface behind a protocol ID. They're
// filled in here against the same C types.

/*
#cgo pkg-config: wlroots wayland-server pixman-1
#cgo CFLAGS: -D_GNU_SOURCE -DWLR_USE_UNSTABLE

#include <stdlib.h>
#include <string.h>
#include <wayland-server-core.h>
#include <wlr/types/wlr_compositor.h>
#include <wlr/types/wlr_pointer.h>
#include <wlr/types/wlr_seat.h>

struct _commit_listener {
	struct wl_listener lis;
	uintptr_t handle;
};

extern void _commit_callback(uintptr_t handle);

static void _commit_notify(struct wl_listener *lis, void *data) {
	struct _commit_listener *cl = wl_container_of(lis, cl, lis);
	_commit_callback(cl->handle);
}

static inline struct _commit_listener *_listen_commit(struct wlr_surface *surface, uintptr_t handle) {
	struct _commit_listener *cl = calloc(1, sizeof(*cl));
	cl->handle = handle;
	cl->lis.notify = _commit_notify;
	wl_signal_add(&surface->events.commit, &cl->lis);
	return cl;
}

static inline void _unlisten_commit(struct _commit_listener *cl) {
	wl_list_remove(&cl->lis.link);
	free(cl);
}

static inline uint32_t _surface_id(struct wlr_surface *surface) {
	return wl_resource_get_id(surface->resource);
}

static inline struct wlr_surface *_client_surface(struct wl_display *display, pid_t pid, uint32_t id) {
	struct wl_client *client;
	wl_client_for_each(client, wl_display_get_client_list(display)) {
		pid_t cpid;
		wl_client_get_credentials(client, &cpid, NULL, NULL);
		if (cpid != pid) {
			continue;
		}

		struct wl_resource *r = wl_client_get_object(client, id);
		if ((r == NULL) || (strcmp(wl_resource_get_class(r), "wl_surface") != 0)) {
			return NULL;
		}
		return wlr_surface_from_resource(r);
	}
	return NULL;
}
*/
import "C"

import (
	"runtime/cgo"
	"time"
	"unsafe"

	"deedles.dev/wlr"
)

// The wlr types are single pointers to the C structs, so they convert
// directly.

func cSurface(s wlr.Surface) *C.struct_wlr_surface {
	return *(**C.struct_wlr_surface)(unsafe.Pointer(&s))
}

func goSurface(p *C.struct_wlr_surface) wlr.Surface {
	return *(*wlr.Surface)(unsafe.Pointer(&p))
}

func cSeat(s wlr.Seat) *C.struct_wlr_seat {
	return *(**C.struct_wlr_seat)(unsafe.Pointer(&s))
}

func cDisplay(d wlr.Display) *C.struct_wl_display {
	return *(**C.struct_wl_display)(unsafe.Pointer(&d))
}

// commitListener is attached to a surface's commit signal. It must be
// destroyed before the surface is.
type commitListener struct {
	p *C.struct__commit_listener
}

func onCommit(s wlr.Surface, cb func()) commitListener {
	h := cgo.NewHandle(cb)
	return commitListener{p: C._listen_commit(cSurface(s), C.uintptr_t(h))}
}

func (lis *commitListener) Destroy() {
	if lis.p == nil {
		return
	}

	cgo.Handle(lis.p.handle).Delete()
	C._unlisten_commit(lis.p)
	lis.p = nil
}

//export _commit_callback
func _commit_callback(handle C.uintptr_t) {
	cgo.Handle(handle).Value().(func())()
}

// surfaceID returns the protocol object ID of the surface's wl_surface.
func surfaceID(s wlr.Surface) uint32 {
	return uint32(C._surface_id(cSurface(s)))
}

// clientSurface finds the wl_surface with the given object ID belonging
// to the client with the given pid.
func clientSurface(d wlr.Display, pid int, id uint32) (wlr.Surface, bool) {
	p := C._client_surface(cDisplay(d), C.pid_t(pid), C.uint32_t(id))
	if p == nil {
		return wlr.Surface{}, false
	}
	return goSurface(p), true
}

// pointerNotifyButton is wlr.Seat.PointerNotifyButton but returns the
// serial that was sent to the client, or 0 if no client has pointer
// focus.
func pointerNotifyButton(seat wlr.Seat, t time.Time, button wlr.CursorButton, state wlr.ButtonState) uint32 {
	return uint32(C.wlr_seat_pointer_notify_button(
		cSeat(seat),
		C.uint32_t(t.UnixMilli()),
		C.uint32_t(button),
		C.enum_wlr_button_state(state),
	))
}

func keyboardNotifyClearFocus(seat wlr.Seat) {
	C.wlr_seat_keyboard_notify_clear_focus(cSeat(seat))
}
