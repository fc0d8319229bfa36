package main

import (
	"deedles.dev/thing/internal/config"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/wlr"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

type Output struct {
	Output wlr.Output
	Frame  wlr.Listener
	Remove wlr.Listener

	// info is what the compositor knows the output as.
	info *wl.Output
}

func (server *Server) outputFor(info *wl.Output) *Output {
	for _, out := range server.outputs {
		if out.info == info {
			return out
		}
	}
	return nil
}

func (server *Server) onNewOutput(wout wlr.Output) {
	wout.InitRender(server.allocator, server.renderer)

	out := Output{
		Output: wout,
	}
	out.Frame = wout.OnFrame(func(wout wlr.Output) {
		server.onFrame(&out)
	})
	out.Remove = wout.OnDestroy(func(wout wlr.Output) {
		server.removeOutput(&out)
	})

	conf, ok := server.cfg.Output(wout.Name())
	wout.Enable(true)
	server.configureOutput(&out, conf, ok)

	wout.Commit()
	wout.CreateGlobal()

	server.mapOutput(&out, conf, ok)
}

func (server *Server) configureOutput(out *Output, conf config.Output, ok bool) {
	if !ok {
		server.outputLayout.AddAuto(out.Output)
		server.setOutputMode(out, nil)
		return
	}

	server.outputLayout.Add(out.Output, conf.X, conf.Y)
	server.setOutputMode(out, &conf)
	out.Output.SetScale(conf.Scale)
}

func (server *Server) setOutputMode(out *Output, conf *config.Output) {
	var set bool
	defer func() {
		if !set {
			mode := out.Output.PreferredMode()
			if mode.Valid() {
				out.Output.SetMode(mode)
			}
		}
	}()

	if (conf == nil) || (conf.Width == 0) || (conf.Height == 0) {
		return
	}

	for mode := range out.Output.Modes() {
		if (mode.Width() == int32(conf.Width)) && (mode.Height() == int32(conf.Height)) {
			out.Output.SetMode(mode)
			set = true
			return
		}
	}

	logrus.WithFields(logrus.Fields{
		"output": out.Output.Name(),
		"width":  conf.Width,
		"height": conf.Height,
	}).Warn("no matching mode, using preferred")
}

// mapOutput tells the compositor where the output ended up in the
// layout.
func (server *Server) mapOutput(out *Output, conf config.Output, ok bool) {
	scale := 1.0
	if ok {
		scale = float64(conf.Scale)
	}

	layout := server.outputLayout.Get(out.Output)
	w, h := out.Output.EffectiveResolution()
	origin := geom.Pt(layout.X(), layout.Y())

	out.info = &wl.Output{
		Name:     out.Output.Name(),
		Geometry: geom.Rect[int]{Min: origin, Max: origin.Add(geom.Pt(w, h))},
		Scale:    scale,
	}
	server.outputs = append(server.outputs, out)
	server.comp.MapOutput(out.info)
}

func (server *Server) removeOutput(out *Output) {
	i := slices.Index(server.outputs, out)
	if i < 0 {
		return
	}
	server.outputs = slices.Delete(server.outputs, i, i+1)
	server.comp.UnmapOutput(out.info)
}
