package main

import (
	"errors"
	"os"
	"os/exec"
	"time"

	"deedles.dev/thing/internal/compositor"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/thing/internal/xwm"
	"deedles.dev/wlr"
	"github.com/sirupsen/logrus"
)

var _ xwm.Bridge = (*compositor.Compositor)(nil)

const (
	xwmAttempts = 50
	xwmRetry    = 100 * time.Millisecond
)

// startXwayland starts a rootless Xwayland and connects the window
// manager to it in the background. The connection is picked up by
// dispatchX on the display's thread.
func (server *Server) startXwayland() {
	if !server.cfg.Xwayland {
		return
	}

	display := server.cfg.XDisplay
	cmd := exec.Command("Xwayland", display, "-rootless")
	cmd.Stderr = os.Stderr
	err := cmd.Start()
	if err != nil {
		logrus.WithError(err).Warn("start Xwayland")
		return
	}
	server.xserver = cmd

	go server.connectXWM(display)
}

func (server *Server) connectXWM(display string) {
	for i := 0; i < xwmAttempts; i++ {
		wm, err := xwm.Connect(display)
		if err == nil {
			server.wms <- wm
			return
		}
		if errors.Is(err, xwm.ErrAnotherWM) {
			logrus.WithField("display", display).WithError(err).Error("connect window manager")
			return
		}
		time.Sleep(xwmRetry)
	}

	logrus.WithField("display", display).Error("gave up connecting to Xwayland")
}

// dispatchX hands pending X events to the compositor.
func (server *Server) dispatchX() {
	if server.wm == nil {
		select {
		case wm := <-server.wms:
			server.wm = wm
			server.wm.Lookup = server.xwaylandSurface
			logrus.WithField("display", wm.Display()).Info("window manager ready")
		default:
			return
		}
	}

	for {
		select {
		case ev, ok := <-server.wm.Events():
			if !ok {
				logrus.Warn("X connection closed")
				server.wm = nil
				return
			}
			server.wm.Dispatch(ev, server.comp)
		default:
			server.wm.Pair(server.comp)
			return
		}
	}
}

// xwaylandSurface finds the surface that Xwayland created with the
// given protocol ID.
func (server *Server) xwaylandSurface(id uint32) wl.Surface {
	if server.xserver == nil {
		return nil
	}
	pid := server.xserver.Process.Pid
	ws, ok := clientSurface(server.display, pid, id)
	if !ok {
		return nil
	}
	if s, ok := server.xsurfaces[ws]; ok {
		return s
	}

	s := server.newSurface(ws, wl.ClientID(pid))
	s.onCommitListener = onCommit(ws, func() {
		server.comp.Commit(s)
	})
	s.onDestroyListener = ws.OnDestroy(func(wlr.Surface) {
		s.onCommitListener.Destroy()
		s.onDestroyListener.Destroy()
		delete(server.xsurfaces, ws)

		s.alive = false
		server.comp.SurfaceDestroyed(s)
	})
	server.xsurfaces[ws] = s
	return s
}

func (server *Server) stopXwayland() {
	if server.wm != nil {
		server.wm.Close()
		server.wm = nil
	}
	if server.xserver != nil {
		server.xserver.Process.Kill()
		server.xserver.Wait()
		server.xserver = nil
	}
}
