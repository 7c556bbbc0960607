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

package slstr

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ctessum/cdf"
)

// ncVar describes a variable written by writeNC.
type ncVar struct {
	name  string
	dims  []string
	data  interface{}
	attrs map[string]interface{}
}

// writeNC writes a NetCDF classic file. A dimension of length 0 is the
// record dimension; variables using it are written record by record.
func writeNC(t *testing.T, path string, dims []string, lengths []int, global map[string]interface{}, vars ...ncVar) {
	t.Helper()
	h := cdf.NewHeader(dims, lengths)
	for _, v := range vars {
		h.AddVariable(v.name, v.dims, v.data)
		for _, k := range sortedAttrs(v.attrs) {
			h.AddAttribute(v.name, k, v.attrs[k])
		}
	}
	for _, k := range sortedAttrs(global) {
		h.AddAttribute("", k, global[k])
	}
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	nc, err := cdf.Create(f, h)
	if err != nil {
		t.Fatal(err)
	}
	record := false
	for _, v := range vars {
		w := nc.Writer(v.name, nil, nil)
		if _, err := w.Write(v.data); err != nil && err != io.EOF {
			t.Fatalf("writing %s: %v", v.name, err)
		}
		record = record || h.IsRecordVariable(v.name)
	}
	if record {
		if err := cdf.UpdateNumRecs(f); err != nil {
			t.Fatal(err)
		}
	}
}

func sortedAttrs(m map[string]interface{}) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// fill is the _FillValue used by the fixtures for packed variables.
const fill = -32768

// l2pFixture writes a small SLSTR L2P-like file to dir. start is the
// value of the time variable in seconds since 1981. The longitudes of
// the swath are offset by lonOffset.
func l2pFixture(t *testing.T, dir, name string, start int32, lonOffset float32, dtime []int16) string {
	t.Helper()
	path := filepath.Join(dir, name)
	writeNC(t, path,
		[]string{"time", "nj", "ni"}, []int{1, 2, 3},
		map[string]interface{}{
			"title":      "SLSTR L2P fixture",
			"start_time": "20230101T000000Z",
		},
		ncVar{name: "time", dims: []string{"time"}, data: []int32{start},
			attrs: map[string]interface{}{"units": "seconds since 1981-01-01 00:00:00"}},
		ncVar{name: "lat", dims: []string{"nj", "ni"},
			data: []float32{-22, -22, -22, -23, -23, -23}},
		ncVar{name: "lon", dims: []string{"nj", "ni"},
			data: []float32{113 + lonOffset, 114 + lonOffset, 115 + lonOffset, 113 + lonOffset, 114 + lonOffset, 115 + lonOffset}},
		ncVar{name: "sea_surface_temperature", dims: []string{"time", "nj", "ni"},
			data: []int16{1000, 1100, fill, 1200, 1300, 1400},
			attrs: map[string]interface{}{
				"scale_factor": []float64{0.01},
				"add_offset":   []float64{273.15},
				"_FillValue":   []int16{fill},
				"units":        "kelvin",
			}},
		ncVar{name: "sst_dtime", dims: []string{"time", "nj", "ni"},
			data: dtime,
			attrs: map[string]interface{}{
				"scale_factor": []float32{0.25},
				"add_offset":   []float32{0},
				"_FillValue":   []int16{fill},
				"units":        "second",
			}},
		ncVar{name: "quality_level", dims: []string{"time", "nj", "ni"},
			data: []uint8{5, 4, 0, 3, 1, 4}},
	)
	return path
}

// secondsSince1981 is 2023-01-01T00:00:00Z in seconds since 1981-01-01.
const secondsSince1981 int32 = 1325376000
