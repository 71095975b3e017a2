// Package render draws a spin field as an image.
//
// The image has two panels, each followed by its own colour bar:
//   - the in-plane components (sx, sy) of every spin as an arrow, coloured by sz,
//   - a filled contour of sz.
//
// Site (i, j) is drawn at x = i, y = j.
package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/fumin/mcsim"
)

const (
	// zMin and zMax bound the colour scales.
	zMin = -1
	zMax = 1
)

// Options are options for rendering.
type Options struct {
	width  vg.Length
	height vg.Length
	dpi    int
	levels int
	title  string
}

// NewOptions returns the default options.
func NewOptions() Options {
	opt := Options{}
	opt.width = 12 * vg.Inch
	opt.height = 5 * vg.Inch
	opt.dpi = 96
	opt.levels = 10
	return opt
}

// Size sets the size of the image.
func (opt Options) Size(width, height vg.Length) Options {
	opt.width, opt.height = width, height
	return opt
}

// DPI sets the resolution of the image.
func (opt Options) DPI(dpi int) Options {
	opt.dpi = dpi
	return opt
}

// Levels sets the number of bands of the contour panel.
func (opt Options) Levels(levels int) Options {
	opt.levels = levels
	return opt
}

// Title sets a prefix of the panel titles.
func (opt Options) Title(title string) Options {
	opt.title = title
	return opt
}

// Save renders f into a PNG file at path.
func Save(path string, f *mcsim.Field, options ...Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "")
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "")
	}

	w := bufio.NewWriter(file)
	err = PNG(w, f, options...)
	if err1 := w.Flush(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := file.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

// PNG renders f as a PNG image into w.
// f is only read, a snapshot is taken before drawing.
func PNG(w io.Writer, f *mcsim.Field, options ...Options) error {
	opt := NewOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	if opt.levels < 1 || opt.dpi < 1 || opt.width <= 0 || opt.height <= 0 {
		return errors.Errorf("%#v", opt)
	}
	snapshot := f.Clone()

	c := vgimg.NewWith(vgimg.UseWH(opt.width, opt.height), vgimg.UseDPI(opt.dpi))
	dc := draw.New(c)
	drawPanels(dc, snapshot, opt)

	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(w); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// drawPanels lays out, from left to right, the arrows, their colour bar, the contour and its colour bar.
func drawPanels(dc draw.Canvas, f *mcsim.Field, opt Options) {
	arrowColors := colorMap()
	contourColors := colorMap()

	arrows := plot.New()
	arrows.Title.Text = "in-plane spin"
	arrows.X.Label.Text = "i"
	arrows.Y.Label.Text = "j"
	arrows.Add(&quiver{f: f, colors: arrowColors})

	contour := plot.New()
	contour.Title.Text = "sz"
	contour.X.Label.Text = "i"
	contour.Y.Label.Text = "j"
	hm := plotter.NewHeatMap(zGrid{f: f}, contourColors.Palette(opt.levels))
	hm.Min, hm.Max = zMin, zMax
	contour.Add(hm)

	arrowBar := colorBar(arrowColors, 255, "sz")
	contourBar := colorBar(contourColors, opt.levels, "sz")

	if opt.title != "" {
		arrows.Title.Text = opt.title + ": " + arrows.Title.Text
		contour.Title.Text = opt.title + ": " + contour.Title.Text
	}

	width := dc.Max.X - dc.Min.X
	panels := []struct {
		p      *plot.Plot
		x0, x1 float64
	}{
		{p: arrows, x0: 0, x1: 0.4},
		{p: arrowBar, x0: 0.4, x1: 0.5},
		{p: contour, x0: 0.5, x1: 0.9},
		{p: contourBar, x0: 0.9, x1: 1},
	}
	for _, panel := range panels {
		left := vg.Length(panel.x0) * width
		right := vg.Length(panel.x1-1) * width
		panel.p.Draw(draw.Crop(dc, left, right, 0, 0))
	}
}

func colorMap() palette.ColorMap {
	cm := moreland.SmoothBlueRed()
	cm.SetMin(zMin)
	cm.SetMax(zMax)
	return cm
}

func colorBar(cm palette.ColorMap, colors int, label string) *plot.Plot {
	p := plot.New()
	p.HideX()
	p.Y.Label.Text = label
	p.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true, Colors: colors})
	return p
}

// zGrid is the sz component of a field as a plotter.GridXYZ.
type zGrid struct {
	f *mcsim.Field
}

func (g zGrid) Dims() (c, r int) {
	n := g.f.Dims()
	return n[0], n[1]
}
func (g zGrid) Z(c, r int) float64 { return g.f.At(c, r).Z }
func (g zGrid) X(c int) float64    { return float64(c) }
func (g zGrid) Y(r int) float64    { return float64(r) }

// quiver draws one arrow per site for the in-plane components of the spin.
// An arrow of unit in-plane length spans the distance between two sites.
type quiver struct {
	f      *mcsim.Field
	colors palette.ColorMap
}

func (q *quiver) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	n := q.f.Dims()
	for i := range n[0] {
		for j := range n[1] {
			s := q.f.At(i, j)
			clr, err := q.colors.At(math.Max(zMin, math.Min(zMax, s.Z)))
			if err != nil {
				panic(fmt.Sprintf("%+v", errors.Wrap(err, fmt.Sprintf("%d %d %#v", i, j, s))))
			}
			sty := draw.LineStyle{Color: clr, Width: vg.Points(1.2)}

			// Arrows pivot around the site.
			x0, y0 := trX(float64(i)-s.X/2), trY(float64(j)-s.Y/2)
			x1, y1 := trX(float64(i)+s.X/2), trY(float64(j)+s.Y/2)
			c.StrokeLine2(sty, x0, y0, x1, y1)

			// Arrow head.
			dx, dy := x1-x0, y1-y0
			length := vg.Length(math.Hypot(float64(dx), float64(dy)))
			if length == 0 {
				continue
			}
			head := length * 0.3
			ux, uy := dx/length, dy/length
			for _, side := range []vg.Length{1, -1} {
				hx := x1 - head*(ux*0.866-side*uy*0.5)
				hy := y1 - head*(uy*0.866+side*ux*0.5)
				c.StrokeLine2(sty, x1, y1, hx, hy)
			}
		}
	}
}

func (q *quiver) DataRange() (xmin, xmax, ymin, ymax float64) {
	n := q.f.Dims()
	return -0.5, float64(n[0]) - 0.5, -0.5, float64(n[1]) - 0.5
}
