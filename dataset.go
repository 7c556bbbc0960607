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
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// OpenOptions control how variable values are decoded when a file is
// opened.
type OpenOptions struct {
	// DecodeTimes converts variables with CF time units
	// ("<unit> since <reference>") to Times.
	DecodeTimes bool

	// MaskAndScale masks fill values and applies scale_factor and
	// add_offset. When false, values are returned as stored.
	MaskAndScale bool
}

// Variable is a named array and its metadata.
type Variable struct {
	Name       string
	Dims       []string
	Attributes map[string]interface{}

	// Encoding holds the packing attributes read from the file.
	Encoding Encoding

	Data *MaskedArray

	// Times holds the decoded times of a time variable, or nil.
	// Masked elements have a zero Time.
	Times []time.Time
}

// Dataset is the contents of one or more NetCDF files.
type Dataset struct {
	Dims       map[string]int
	Vars       map[string]*Variable
	Attributes map[string]interface{}

	// Sources lists the files the dataset was read from.
	Sources []string
}

// VarNames returns the names of the variables in ds in sorted order.
func (ds *Dataset) VarNames() []string {
	o := make([]string, 0, len(ds.Vars))
	for k := range ds.Vars {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// Var returns the named variable or an error wrapping
// ErrVariableNotFound.
func (ds *Dataset) Var(name string) (*Variable, error) {
	v, ok := ds.Vars[name]
	if !ok {
		return nil, fmt.Errorf("slstr: variable %s: %w", name, ErrVariableNotFound)
	}
	return v, nil
}

// Open reads every numeric variable in the NetCDF file at path.
// Both NetCDF classic and NetCDF-4 files are supported.
func Open(path string, opts OpenOptions) (*Dataset, error) {
	r, err := openNCF(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	ds := &Dataset{
		Dims:       make(map[string]int),
		Vars:       make(map[string]*Variable),
		Attributes: r.Attributes(),
		Sources:    []string{path},
	}
	for _, name := range r.Variables() {
		raw, err := r.Read(name)
		if errors.Is(err, errUnsupportedType) {
			logrus.WithFields(logrus.Fields{"file": path, "variable": name}).Debug("skipping non-numeric variable")
			continue
		} else if err != nil {
			return nil, err
		}
		v, err := newVariable(raw, opts)
		if err != nil {
			return nil, fmt.Errorf("slstr: %s: %v", path, err)
		}
		for i, d := range raw.dims {
			if l, ok := ds.Dims[d]; ok && l != raw.shape[i] {
				return nil, fmt.Errorf("slstr: %s: dimension %s has length %d in variable %s but %d elsewhere",
					path, d, raw.shape[i], name, l)
			}
			ds.Dims[d] = raw.shape[i]
		}
		ds.Vars[name] = v
	}
	return ds, nil
}

// readVariable reads a single variable from the file at path without
// decoding it.
func readVariable(path, name string) (*rawVariable, error) {
	r, err := openNCF(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Read(name)
}

func newVariable(raw *rawVariable, opts OpenOptions) (*Variable, error) {
	v := &Variable{
		Name:       raw.name,
		Dims:       raw.dims,
		Attributes: raw.attrs,
		Encoding:   EncodingOf(raw.attrs),
	}
	if opts.MaskAndScale {
		v.Data = v.Encoding.Decode(raw.shape, raw.values)
	} else {
		v.Data = NewMaskedArray(raw.shape...)
		copy(v.Data.Elements, raw.values)
	}
	if opts.DecodeTimes {
		if units := attrString(raw.attrs, "units"); strings.Contains(units, " since ") {
			t, err := decodeTimes(units, v.Data)
			if err != nil {
				return nil, fmt.Errorf("variable %s: %v", raw.name, err)
			}
			v.Times = t
		}
	}
	return v, nil
}

var timeUnits = map[string]time.Duration{
	"microseconds": time.Microsecond,
	"milliseconds": time.Millisecond,
	"seconds":      time.Second,
	"second":       time.Second,
	"secs":         time.Second,
	"s":            time.Second,
	"minutes":      time.Minute,
	"minute":       time.Minute,
	"hours":        time.Hour,
	"hour":         time.Hour,
	"days":         24 * time.Hour,
	"day":          24 * time.Hour,
}

var referenceLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimeUnits parses CF time units such as
// "seconds since 1981-01-01 00:00:00".
func parseTimeUnits(units string) (time.Duration, time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("invalid time units %q", units)
	}
	step, ok := timeUnits[strings.ToLower(strings.TrimSpace(parts[0]))]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("unsupported time unit %q", parts[0])
	}
	ref := strings.TrimSpace(parts[1])
	ref = strings.TrimSuffix(ref, " UTC")
	for _, layout := range referenceLayouts {
		t, err := time.Parse(layout, ref)
		if err == nil {
			return step, t.UTC(), nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("invalid reference time %q", ref)
}

func decodeTimes(units string, data *MaskedArray) ([]time.Time, error) {
	step, ref, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}
	o := make([]time.Time, len(data.Elements))
	for i, v := range data.Elements {
		if data.Mask[i] || math.IsNaN(v) {
			continue
		}
		o[i] = ref.Add(time.Duration(math.Round(v * float64(step))))
	}
	return o, nil
}
