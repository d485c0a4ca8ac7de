package report

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/imagesense/sense-bench/internal/evaluation"
)

// Cycled line colors, one per method.
var plotColors = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xbc, G: 0xbd, B: 0x22, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
}

// minVisibleBand suppresses band lines when the deviation is too small to
// matter visually.
const minVisibleBand = 0.01

// PrecisionPlot writes a precision-vs-k plot of every method's mean curve to
// a PNG file. When a method's confidence band is wide enough to see, dotted
// lines trace mean +/- band.
func PrecisionPlot(path string, s evaluation.Summary) error {
	p := plot.New()
	p.X.Label.Text = "Retrieved Images"
	p.Y.Label.Text = "Precision"
	p.Add(plotter.NewGrid())

	for mi, method := range s.Methods {
		col := plotColors[mi%len(plotColors)]
		curve := s.Curve[method]
		band := s.CurveBand[method]

		line, err := plotter.NewLine(curveXYs(curve, nil, 0))
		if err != nil {
			return err
		}
		line.Color = col
		p.Add(line)
		p.Legend.Add(method, line)

		maxBand := 0.0
		for _, b := range band {
			if b > maxBand {
				maxBand = b
			}
		}
		if maxBand <= minVisibleBand {
			continue
		}

		for _, sign := range []float64{1, -1} {
			edge, err := plotter.NewLine(curveXYs(curve, band, sign))
			if err != nil {
				return err
			}
			edge.Color = col
			edge.Width = vg.Points(0.5)
			edge.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
			p.Add(edge)
		}
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// curveXYs converts a curve to plot points, offset by sign*band when band is
// non-nil.
func curveXYs(curve, band []float64, sign float64) plotter.XYs {
	pts := make(plotter.XYs, len(curve))
	for i, y := range curve {
		if band != nil {
			y += sign * band[i]
		}
		pts[i].X = float64(i + 1)
		pts[i].Y = y
	}
	return pts
}
