package main

import (
	"deedles.dev/thing/internal/shell"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/wlr"
	"github.com/sirupsen/logrus"
)

// View ties an xdg toplevel's wlroots events to the compositor.
type View struct {
	server   *Server
	toplevel *toplevel

	onCommitListener        commitListener
	onDestroyListener       wlr.Listener
	onRequestMoveListener   wlr.Listener
	onRequestResizeListener wlr.Listener
}

func (server *Server) onNewXDGSurface(surface wlr.XDGSurface) {
	// TODO: Hand popups to Compositor.NewPopup once they have a wl.Popup
	// adapter.
	if surface.Role() != wlr.XDGSurfaceRoleToplevel {
		return
	}

	client := surface.Resource().GetClient()
	pid, _, _ := client.GetCredentials()

	view := &View{
		server: server,
		toplevel: &toplevel{
			surface: server.newSurface(surface.Surface(), wl.ClientID(pid)),
			xdg:     surface,
		},
	}
	view.onCommitListener = onCommit(surface.Surface(), view.onCommit)
	view.onDestroyListener = surface.OnDestroy(view.onDestroy)

	top := surface.Toplevel()
	view.onRequestMoveListener = top.OnRequestMove(view.onRequestMove)
	view.onRequestResizeListener = top.OnRequestResize(view.onRequestResize)

	server.comp.NewToplevel(view.toplevel)
}

func (view *View) onCommit() {
	view.server.comp.Commit(view.toplevel.surface)
}

func (view *View) onDestroy(wlr.XDGSurface) {
	view.onCommitListener.Destroy()
	view.onDestroyListener.Destroy()
	view.onRequestMoveListener.Destroy()
	view.onRequestResizeListener.Destroy()

	s := view.toplevel.surface
	s.alive = false
	view.server.comp.SurfaceDestroyed(s)
}

// serial translates the serial of a client request. Unknown serials
// come back as 0, which never passes a grab check.
func (view *View) serial(serial uint32) wl.Serial {
	s, ok := view.server.serials.Lookup(serial)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"title":  view.toplevel.Title(),
			"serial": serial,
		}).Debug("request with unknown serial")
	}
	return s
}

func (view *View) onRequestMove(t wlr.XDGToplevel, client wlr.SeatClient, serial uint32) {
	server := view.server
	err := server.comp.MoveRequest(view.toplevel.surface, server.cfg.Seat, view.serial(serial))
	if err != nil {
		logrus.WithError(err).Warn("move request")
	}
}

func (view *View) onRequestResize(t wlr.XDGToplevel, client wlr.SeatClient, serial uint32, edges wlr.Edges) {
	server := view.server
	err := server.comp.ResizeRequest(view.toplevel.surface, server.cfg.Seat, view.serial(serial), shellEdges(edges))
	if err != nil {
		logrus.WithError(err).Warn("resize request")
	}
}

func shellEdges(edges wlr.Edges) (e shell.Edges) {
	if edges&wlr.EdgeTop != 0 {
		e |= shell.EdgeTop
	}
	if edges&wlr.EdgeBottom != 0 {
		e |= shell.EdgeBottom
	}
	if edges&wlr.EdgeLeft != 0 {
		e |= shell.EdgeLeft
	}
	if edges&wlr.EdgeRight != 0 {
		e |= shell.EdgeRight
	}
	return e
}
