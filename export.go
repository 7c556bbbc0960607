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
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ctessum/geom"
)

// Quality is the reliability class of a retrieved value.
type Quality string

// Quality classes derived from the quality_level variable.
const (
	QualityGood         Quality = "good"
	QualityQuestionable Quality = "questionable"
	QualityBad          Quality = "bad"
)

// QualityOf classifies a quality_level value: 4 and 5 are good, 3 is
// questionable and anything lower is bad.
func QualityOf(level float64) Quality {
	switch {
	case level >= 4:
		return QualityGood
	case level >= 3:
		return QualityQuestionable
	default:
		return QualityBad
	}
}

// DataPoint is a single located value.
type DataPoint struct {
	ID        int       `json:"id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Quality   Quality   `json:"quality,omitempty"`
}

// PointOptions control the conversion of a variable to points.
type PointOptions struct {
	// Lon and Lat name the geolocation variables. They default to
	// "lon" and "lat".
	Lon, Lat string

	// TimeDelta holds the offset in seconds of each cell from the
	// reference time, as returned by CorrectTimeDelta. It may be nil.
	TimeDelta *MaskedArray

	// Window limits the points to a longitude (X) and latitude (Y)
	// range. It may be nil.
	Window *geom.Bounds
}

// Geolocate returns the longitude and latitude of each of the n cells of
// a swath. lon and lat may either have n elements each or be the one
// dimensional axes of a regular grid with n cells. Swath geolocation
// covering a whole multiple of its own size is repeated, as for a
// variable that also spans a time dimension.
func (ds *Dataset) Geolocate(lon, lat string, n int) (lons, lats []float64, err error) {
	lonv, err := ds.Var(lon)
	if err != nil {
		return nil, nil, err
	}
	latv, err := ds.Var(lat)
	if err != nil {
		return nil, nil, err
	}
	nx, ny := len(lonv.Data.Elements), len(latv.Data.Elements)
	switch {
	case nx == n && ny == n:
		return lonv.Data.Elements, latv.Data.Elements, nil
	case len(lonv.Dims) == 1 && len(latv.Dims) == 1 && nx*ny == n:
		lons, lats = make([]float64, n), make([]float64, n)
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				lons[j*nx+i] = lonv.Data.Elements[i]
				lats[j*nx+i] = latv.Data.Elements[j]
			}
		}
		return lons, lats, nil
	case nx == ny && nx > 0 && n%nx == 0:
		lons, lats = make([]float64, n), make([]float64, n)
		for i := 0; i < n; i += nx {
			copy(lons[i:], lonv.Data.Elements)
			copy(lats[i:], latv.Data.Elements)
		}
		return lons, lats, nil
	}
	return nil, nil, fmt.Errorf("slstr: geolocation %s%v and %s%v do not match %d cells",
		lon, lonv.Data.Shape, lat, latv.Data.Shape, n)
}

// ReferenceTime returns the time that time deltas are relative to: the
// first value of the time variable, or else the start_time global
// attribute.
func (ds *Dataset) ReferenceTime() (time.Time, error) {
	if v, ok := ds.Vars["time"]; ok {
		for i, t := range v.Times {
			if !v.Data.Mask[i] {
				return t, nil
			}
		}
	}
	if s := attrString(ds.Attributes, "start_time"); s != "" {
		for _, layout := range []string{"20060102T150405Z", "20060102T150405", time.RFC3339Nano} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("slstr: invalid start_time %q", s)
	}
	return time.Time{}, fmt.Errorf("slstr: no reference time: %w", ErrVariableNotFound)
}

// Points converts the unmasked cells of variable to located points.
func (ds *Dataset) Points(variable string, opts PointOptions) ([]DataPoint, error) {
	if opts.Lon == "" {
		opts.Lon = "lon"
	}
	if opts.Lat == "" {
		opts.Lat = "lat"
	}
	v, err := ds.Var(variable)
	if err != nil {
		return nil, err
	}
	n := len(v.Data.Elements)
	lons, lats, err := ds.Geolocate(opts.Lon, opts.Lat, n)
	if err != nil {
		return nil, err
	}
	ref, err := ds.ReferenceTime()
	if err != nil {
		return nil, err
	}
	if opts.TimeDelta != nil && len(opts.TimeDelta.Elements) != n {
		return nil, fmt.Errorf("slstr: time delta has %d cells but %s has %d", len(opts.TimeDelta.Elements), variable, n)
	}
	var ql *Variable
	if q, ok := ds.Vars["quality_level"]; ok && len(q.Data.Elements) == n {
		ql = q
	}

	var o []DataPoint
	for i, val := range v.Data.Elements {
		if v.Data.Mask[i] || math.IsNaN(lons[i]) || math.IsNaN(lats[i]) {
			continue
		}
		if opts.Window != nil && !opts.Window.Overlaps(geom.Point{X: lons[i], Y: lats[i]}.Bounds()) {
			continue
		}
		p := DataPoint{
			ID:        i,
			Lat:       lats[i],
			Lng:       lons[i],
			Value:     val,
			Timestamp: ref,
		}
		if opts.TimeDelta != nil && !opts.TimeDelta.Mask[i] {
			p.Timestamp = ref.Add(time.Duration(math.Round(opts.TimeDelta.Elements[i] * float64(time.Second))))
		}
		if ql != nil && !ql.Data.Mask[i] {
			p.Quality = QualityOf(ql.Data.Elements[i])
		}
		o = append(o, p)
	}
	return o, nil
}

// DataFile is a collection of points for one parameter.
type DataFile struct {
	Parameter string `json:"parameter"`

	// GeneratedAt is in milliseconds since the Unix epoch.
	GeneratedAt int64       `json:"generatedAt"`
	Count       int         `json:"count"`
	Data        []DataPoint `json:"data"`
}

// NewDataFile returns a DataFile holding points.
func NewDataFile(parameter string, points []DataPoint) *DataFile {
	if points == nil {
		points = []DataPoint{}
	}
	return &DataFile{
		Parameter:   parameter,
		GeneratedAt: time.Now().UnixNano() / int64(time.Millisecond),
		Count:       len(points),
		Data:        points,
	}
}

// Write writes f to w as JSON.
func (f *DataFile) Write(w io.Writer) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(f); err != nil {
		return fmt.Errorf("slstr: writing data file: %v", err)
	}
	return nil
}
