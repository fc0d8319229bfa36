package main

import (
	"image"
	"image/color"
	"time"

	"deedles.dev/wlr"
	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
)

var ColorBackground = color.NRGBA{0x77, 0x77, 0x77, 0xFF}

func (server *Server) onFrame(out *Output) {
	// The first output drives the compositor's frame tick.
	if (len(server.outputs) > 0) && (server.outputs[0] == out) {
		server.dispatchX()
		server.comp.Frame(time.Now())
	}

	_, err := out.Output.AttachRender()
	if err != nil {
		logrus.WithField("output", out.Output.Name()).WithError(err).Error("output attach render")
		return
	}
	defer out.Output.Commit()

	server.renderer.Begin(out.Output, out.Output.Width(), out.Output.Height())
	defer server.renderer.End()

	server.renderer.Clear(ColorBackground)
	server.renderElements(out)
	out.Output.RenderSoftwareCursors(image.ZR)
}

// renderElements draws every mapped element with a wlroots surface from
// bottom to top.
func (server *Server) renderElements(out *Output) {
	if out.info == nil {
		return
	}

	space := server.comp.Space()
	for _, el := range space.Elements() {
		if !el.Mapped() {
			continue
		}
		s, ok := el.Surface().(*surface)
		if !ok || !s.Alive() {
			continue
		}
		loc, ok := space.Location(el)
		if !ok {
			continue
		}

		origin := loc.Sub(el.Geometry().Min).Sub(out.info.Geometry.Min)
		s.s.ForEachSurface(func(ws wlr.Surface, x, y int) {
			server.renderSurface(out, ws, origin.Add(geom.Pt(x, y)))
		})
	}
}

func (server *Server) renderSurface(out *Output, s wlr.Surface, p geom.Point[int]) {
	texture := s.GetTexture()
	if !texture.Valid() {
		return
	}

	r := surfaceBounds(s).Add(p)
	tr := s.Current().Transform().Invert()
	m := wlr.ProjectBoxMatrix(r.ImageRect(), tr, 0, out.Output.TransformMatrix())

	server.renderer.RenderTextureWithMatrix(texture, m, 1)
}

func surfaceBounds(s wlr.Surface) geom.Rect[int] {
	current := s.Current()
	return geom.Rt(0, 0, current.Width(), current.Height())
}
