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

package render

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ningaloo-research/slstr"
	"gonum.org/v1/plot/vg"
)

func testDataset() (*slstr.Dataset, *slstr.MaskedArray) {
	v := func(name string, values ...float64) *slstr.Variable {
		m := slstr.NewMaskedArray(2, 3)
		copy(m.Elements, values)
		return &slstr.Variable{Name: name, Dims: []string{"nj", "ni"}, Data: m}
	}
	ds := &slstr.Dataset{
		Dims: map[string]int{"nj": 2, "ni": 3},
		Vars: map[string]*slstr.Variable{
			"lon": v("lon", 113, 114, 115, 113, 114, 115),
			"lat": v("lat", -22, -22, -22, -23, -23, -23),
		},
	}
	sst := v("sst", 295, 296, 0, 297, 298, 299).Data
	sst.SetMasked(2)
	return ds, sst
}

func TestMap(t *testing.T) {
	ds, sst := testDataset()
	p, err := Map(ds, sst, Options{Title: "SST", VMin: 294, VMax: 300, GridStep: 1})
	if err != nil {
		t.Fatal(err)
	}
	if p.X.Min != 113 || p.X.Max != 115 || p.Y.Min != -23 || p.Y.Max != -22 {
		t.Errorf("axis range: x [%g, %g], y [%g, %g]", p.X.Min, p.X.Max, p.Y.Min, p.Y.Max)
	}
	ticks := p.X.Tick.Marker.Ticks(p.X.Min, p.X.Max)
	if len(ticks) != 3 || ticks[0].Label != "113°E" {
		t.Errorf("longitude ticks: %+v", ticks)
	}
	path := filepath.Join(t.TempDir(), "sst.png")
	if err := Save(p, path, 4*vg.Inch, 3*vg.Inch); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("image not written: %v", err)
	}
}

func TestMapWindow(t *testing.T) {
	ds, sst := testDataset()
	w := &geom.Bounds{Min: geom.Point{X: 110, Y: -25}, Max: geom.Point{X: 113.5, Y: -20}}
	p, err := Map(ds, sst, Options{Window: w})
	if err != nil {
		t.Fatal(err)
	}
	if p.X.Min != 110 || p.X.Max != 113.5 {
		t.Errorf("axis range should follow the window: [%g, %g]", p.X.Min, p.X.Max)
	}

	empty := &geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 1, Y: 1}}
	if _, err := Map(ds, sst, Options{Window: empty}); !errors.Is(err, ErrNoData) {
		t.Errorf("have %v, want ErrNoData", err)
	}
}

func TestMapErrors(t *testing.T) {
	ds, sst := testDataset()
	if _, err := Map(ds, sst, Options{Lon: "longitude"}); err == nil {
		t.Error("missing longitude should fail")
	}
	if _, err := Map(ds, sst, Options{VMin: 300, VMax: 290}); err == nil {
		t.Error("inverted color range should fail")
	}
	if _, err := Map(ds, slstr.NewMaskedArray(4), Options{}); err == nil {
		t.Error("mismatched geolocation should fail")
	}
}

func TestDegrees(t *testing.T) {
	for _, test := range []struct {
		v    float64
		want string
	}{
		{115, "115°E"}, {-22.5, "22.5°W"}, {0, "0°"},
	} {
		if have := degrees(test.v, "E", "W"); have != test.want {
			t.Errorf("%g: have %s, want %s", test.v, have, test.want)
		}
	}
}
