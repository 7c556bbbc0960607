/*
Copyright © 2024 the slstr authors.
This file is part of slstr.

slstr is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

slstr is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with slstr.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package render draws maps of swath data.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/ctessum/geom"
	"github.com/ningaloo-research/slstr"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Options control how a map is drawn.
type Options struct {
	// Lon and Lat name the geolocation variables. They default to
	// "lon" and "lat".
	Lon, Lat string

	// Window limits the map to a longitude (X) and latitude (Y) range.
	// When nil the map covers every unmasked cell.
	Window *geom.Bounds

	// VMin and VMax are the values at the ends of the color scale.
	// Values outside the range take the end colors. When both are zero
	// the range of the data is used.
	VMin, VMax float64

	Title string

	// GridStep is the spacing of the grid lines in degrees. It
	// defaults to 5.
	GridStep float64
}

// ErrNoData is returned when no unmasked cell falls in the map window.
var ErrNoData = errors.New("render: no data to plot")

// Map draws values, which are located by the geolocation variables of
// ds, as colored cells on a longitude-latitude grid.
func Map(ds *slstr.Dataset, values *slstr.MaskedArray, opts Options) (*plot.Plot, error) {
	if opts.Lon == "" {
		opts.Lon = "lon"
	}
	if opts.Lat == "" {
		opts.Lat = "lat"
	}
	if opts.GridStep <= 0 {
		opts.GridStep = 5
	}
	lons, lats, err := ds.Geolocate(opts.Lon, opts.Lat, len(values.Elements))
	if err != nil {
		return nil, err
	}

	s := &swath{}
	for i, v := range values.Elements {
		if values.Mask[i] || math.IsNaN(lons[i]) || math.IsNaN(lats[i]) {
			continue
		}
		pt := geom.Point{X: lons[i], Y: lats[i]}
		if opts.Window != nil && !opts.Window.Overlaps(pt.Bounds()) {
			continue
		}
		s.xys = append(s.xys, plotter.XY{X: pt.X, Y: pt.Y})
		s.values = append(s.values, v)
	}
	if len(s.xys) == 0 {
		return nil, ErrNoData
	}

	vmin, vmax := opts.VMin, opts.VMax
	if vmin == 0 && vmax == 0 {
		vmin, vmax = minMax(s.values)
	}
	if vmax <= vmin {
		return nil, fmt.Errorf("render: invalid color range [%g, %g]", vmin, vmax)
	}
	s.cmap = moreland.SmoothBlueRed()
	s.cmap.SetMin(vmin)
	s.cmap.SetMax(vmax)

	p, err := plot.New()
	if err != nil {
		return nil, err
	}
	p.Title.Text = opts.Title
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	b := opts.Window
	if b == nil {
		b = geom.NewBounds()
		for _, xy := range s.xys {
			b.Extend(geom.Point{X: xy.X, Y: xy.Y}.Bounds())
		}
	}
	p.X.Min, p.X.Max = b.Min.X, b.Max.X
	p.Y.Min, p.Y.Max = b.Min.Y, b.Max.Y
	p.X.Tick.Marker = plot.ConstantTicks(ticks(b.Min.X, b.Max.X, opts.GridStep, "E", "W"))
	p.Y.Tick.Marker = plot.ConstantTicks(ticks(b.Min.Y, b.Max.Y, opts.GridStep, "N", "S"))

	g := plotter.NewGrid()
	g.Vertical.Color = color.Black
	g.Vertical.Width = vg.Points(0.5)
	g.Vertical.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	g.Horizontal = g.Vertical
	p.Add(s, g)

	logrus.WithFields(logrus.Fields{
		"cells": len(s.xys),
		"vmin":  vmin,
		"vmax":  vmax,
	}).Debug("render: drew map")
	return p, nil
}

// Save writes p to path in the format given by its extension
// (e.g. .png, .svg or .pdf).
func Save(p *plot.Plot, path string, width, height vg.Length) error {
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("render: saving %s: %v", path, err)
	}
	return nil
}

// swath is a plotter that draws one colored square per cell.
type swath struct {
	xys    plotter.XYs
	values []float64
	cmap   palette.ColorMap
}

// Plot implements the plot.Plotter interface.
func (s *swath) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for i, xy := range s.xys {
		v := math.Max(s.cmap.Min(), math.Min(s.cmap.Max(), s.values[i]))
		col, err := s.cmap.At(v)
		if err != nil {
			continue
		}
		c.DrawGlyph(draw.GlyphStyle{
			Color:  col,
			Radius: vg.Points(1.5),
			Shape:  draw.BoxGlyph{},
		}, vg.Point{X: trX(xy.X), Y: trY(xy.Y)})
	}
}

// DataRange implements the plot.DataRanger interface.
func (s *swath) DataRange() (xmin, xmax, ymin, ymax float64) {
	return plotter.XYRange(s.xys)
}

func minMax(v []float64) (float64, float64) {
	return floats.Min(v), floats.Max(v)
}

// ticks returns labeled ticks at multiples of step in [min, max].
// pos and neg are the hemisphere suffixes.
func ticks(min, max, step float64, pos, neg string) []plot.Tick {
	var o []plot.Tick
	for v := math.Ceil(min/step) * step; v <= max; v += step {
		o = append(o, plot.Tick{Value: v, Label: degrees(v, pos, neg)})
	}
	return o
}

func degrees(v float64, pos, neg string) string {
	switch {
	case v > 0:
		return fmt.Sprintf("%g°%s", v, pos)
	case v < 0:
		return fmt.Sprintf("%g°%s", -v, neg)
	}
	return "0°"
}
