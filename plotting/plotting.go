// Package plotting renders recorded runs as PNG figures.
package plotting

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarchlab/pmsmsim/loop"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ErrNoData is returned when there are no samples to draw.
var ErrNoData = errors.New("no samples to plot")

// Figure holds the layout of the rendered image.
type Figure struct {
	Title  string
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// DefaultFigure returns the figure layout used by the command line tool.
func DefaultFigure() Figure {
	return Figure{
		Title:  "FOC closed loop",
		Width:  8 * vg.Inch,
		Height: 6 * vg.Inch,
		DPI:    150,
	}
}

// WriteCurrents draws the three phase currents on top and the electrical
// angle below, and writes the result as a PNG file.
func (f Figure) WriteCurrents(samples []loop.Sample, filename string) error {
	if len(samples) == 0 {
		return ErrNoData
	}

	currents, err := currentPlot(samples, f.Title)
	if err != nil {
		return err
	}

	angle, err := anglePlot(samples)
	if err != nil {
		return err
	}

	c := vgimg.NewWith(
		vgimg.UseWH(f.Width, f.Height),
		vgimg.UseDPI(f.DPI),
	)
	dc := draw.New(c)

	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(8),
		PadY:      vg.Points(8),
	}

	canvases := plot.Align([][]*plot.Plot{{currents}, {angle}}, tiles, dc)
	currents.Draw(canvases[0][0])
	angle.Draw(canvases[1][0])

	return savePNG(c, filename)
}

func currentPlot(samples []loop.Sample, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "current (A)"
	p.Legend.Top = true

	series := []struct {
		name  string
		value func(s loop.Sample) float64
	}{
		{"ia", func(s loop.Sample) float64 { return s.Ia }},
		{"ib", func(s loop.Sample) float64 { return s.Ib }},
		{"ic", func(s loop.Sample) float64 { return s.Ic }},
	}

	for i, ser := range series {
		line, err := plotter.NewLine(points(samples, ser.value))
		if err != nil {
			return nil, err
		}

		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)

		p.Add(line)
		p.Legend.Add(ser.name, line)
	}

	p.Add(plotter.NewGrid())

	return p, nil
}

func anglePlot(samples []loop.Sample) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "theta_e (rad)"

	line, err := plotter.NewLine(
		points(samples, func(s loop.Sample) float64 { return s.ThetaE }))
	if err != nil {
		return nil, err
	}

	line.Color = plotutil.Color(3)
	p.Add(line, plotter.NewGrid())

	return p, nil
}

func points(samples []loop.Sample, value func(loop.Sample) float64) plotter.XYs {
	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = s.Time
		pts[i].Y = value(s)
	}

	return pts
}

func savePNG(c *vgimg.Canvas, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)

	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}

	return bw.Flush()
}
