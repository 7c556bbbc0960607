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
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/ctessum/geom"
)

func TestQualityOf(t *testing.T) {
	for level, want := range map[float64]Quality{
		5: QualityGood, 4: QualityGood, 3: QualityQuestionable, 2: QualityBad, 0: QualityBad,
	} {
		if have := QualityOf(level); have != want {
			t.Errorf("level %g: have %s, want %s", level, have, want)
		}
	}
}

func TestPoints(t *testing.T) {
	path := l2pFixture(t, t.TempDir(), "L2P.nc", secondsSince1981, 0, testDtime)
	ds, err := Open(path, OpenOptions{DecodeTimes: true, MaskAndScale: true})
	if err != nil {
		t.Fatal(err)
	}
	dt, err := CorrectTimeDelta(path, "sst_dtime")
	if err != nil {
		t.Fatal(err)
	}
	points, err := ds.Points("sea_surface_temperature", PointOptions{TimeDelta: dt})
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 5 {
		t.Fatalf("have %d points, want 5", len(points))
	}
	ref := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	want := DataPoint{
		ID:        3,
		Lat:       -23,
		Lng:       113,
		Value:     285.15,
		Timestamp: ref.Add(2 * time.Second),
		Quality:   QualityQuestionable,
	}
	have := points[2]
	if math.Abs(have.Value-want.Value) > 1e-9 {
		t.Errorf("point 2 value: have %g, want %g", have.Value, want.Value)
	}
	if !have.Timestamp.Equal(want.Timestamp) {
		t.Errorf("point 2 timestamp: have %v, want %v", have.Timestamp, want.Timestamp)
	}
	have.Value, have.Timestamp = want.Value, want.Timestamp
	if !reflect.DeepEqual(have, want) {
		t.Errorf("point 2: have %+v, want %+v", have, want)
	}
	if points[3].Quality != QualityBad {
		t.Errorf("point 3 quality: %s", points[3].Quality)
	}
	if !points[4].Timestamp.Equal(ref) {
		t.Errorf("a masked time delta should leave the reference time: %v", points[4].Timestamp)
	}
}

func TestPointsWindow(t *testing.T) {
	path := l2pFixture(t, t.TempDir(), "L2P.nc", secondsSince1981, 0, testDtime)
	ds, err := Open(path, OpenOptions{MaskAndScale: true})
	if err != nil {
		t.Fatal(err)
	}
	points, err := ds.Points("sea_surface_temperature", PointOptions{
		Window: &geom.Bounds{Min: geom.Point{X: 113.5, Y: -24}, Max: geom.Point{X: 115.5, Y: -21}},
	})
	if err != nil {
		t.Fatal(err)
	}
	var ids []int
	for _, p := range points {
		ids = append(ids, p.ID)
		// Without decoded times the start_time attribute is used.
		if !p.Timestamp.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("timestamp: %v", p.Timestamp)
		}
	}
	if !reflect.DeepEqual(ids, []int{1, 4, 5}) {
		t.Errorf("ids: have %v, want [1 4 5]", ids)
	}
}

func TestPointsErrors(t *testing.T) {
	path := l2pFixture(t, t.TempDir(), "L2P.nc", secondsSince1981, 0, testDtime)
	ds, err := Open(path, OpenOptions{MaskAndScale: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ds.Points("chlorophyll", PointOptions{}); err == nil {
		t.Error("missing variable should fail")
	}
	if _, err := ds.Points("sea_surface_temperature", PointOptions{Lon: "longitude"}); err == nil {
		t.Error("missing longitude should fail")
	}
	if _, err := ds.Points("time", PointOptions{}); err == nil {
		t.Error("mismatched geolocation should fail")
	}
	if _, err := ds.Points("sea_surface_temperature", PointOptions{TimeDelta: NewMaskedArray(2)}); err == nil {
		t.Error("mismatched time delta should fail")
	}
}

func TestGeolocateGrid(t *testing.T) {
	ds := &Dataset{Vars: map[string]*Variable{
		"lon": newTestVar("lon", []string{"lon"}, []int{3}, 110, 111, 112),
		"lat": newTestVar("lat", []string{"lat"}, []int{2}, -20, -21),
	}}
	lons, lats, err := ds.Geolocate("lon", "lat", 6)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lons, []float64{110, 111, 112, 110, 111, 112}) {
		t.Errorf("lons: %v", lons)
	}
	if !reflect.DeepEqual(lats, []float64{-20, -20, -20, -21, -21, -21}) {
		t.Errorf("lats: %v", lats)
	}
}

func TestGeolocateRepeated(t *testing.T) {
	ds := &Dataset{Vars: map[string]*Variable{
		"lon": newTestVar("lon", []string{"nj", "ni"}, []int{1, 2}, 110, 111),
		"lat": newTestVar("lat", []string{"nj", "ni"}, []int{1, 2}, -20, -21),
	}}
	lons, lats, err := ds.Geolocate("lon", "lat", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lons, []float64{110, 111, 110, 111}) {
		t.Errorf("lons: %v", lons)
	}
	if !reflect.DeepEqual(lats, []float64{-20, -21, -20, -21}) {
		t.Errorf("lats: %v", lats)
	}
	if _, _, err := ds.Geolocate("lon", "lat", 3); err == nil {
		t.Error("3 cells cannot repeat 2 locations")
	}
}

func TestDataFileWrite(t *testing.T) {
	f := NewDataFile("sst", []DataPoint{{ID: 1, Lat: -22, Lng: 113, Value: 300, Quality: QualityGood}})
	if f.Count != 1 || f.GeneratedAt == 0 {
		t.Errorf("data file: %+v", f)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	var have map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &have); err != nil {
		t.Fatal(err)
	}
	if have["parameter"] != "sst" || have["count"] != 1.0 {
		t.Errorf("json: %s", buf.String())
	}
	data := have["data"].([]interface{})
	if data[0].(map[string]interface{})["quality"] != "good" {
		t.Errorf("json: %s", buf.String())
	}

	empty := NewDataFile("sst", nil)
	buf.Reset()
	if err := empty.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"data": []`)) {
		t.Errorf("empty data should be an empty list: %s", buf.String())
	}
}
