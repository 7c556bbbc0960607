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
	"io"
	"os"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/ctessum/cdf"
)

const (
	magicClassic = 'C'
	magicHDF5    = 0x89
)

// errUnsupportedType is returned for variables whose values are not numeric.
var errUnsupportedType = errors.New("unsupported variable type")

// rawVariable holds the undecoded contents of a variable.
type rawVariable struct {
	name   string
	dims   []string
	shape  []int
	attrs  map[string]interface{}
	values []float64
}

// ncfReader reads variables from an open NetCDF file.
type ncfReader interface {
	Attributes() map[string]interface{}
	Variables() []string
	Read(name string) (*rawVariable, error)
	Close() error
}

// openNCF opens the file at path with the reader matching its format.
// The caller must close the returned reader.
func openNCF(path string) (ncfReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var magic [1]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("slstr: reading %s: %v", path, err)
	}
	switch magic[0] {
	case magicClassic:
		nc, err := cdf.Open(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("slstr: opening %s: %v", path, err)
		}
		return &classicFile{f: f, nc: nc}, nil
	case magicHDF5:
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
		g, err := netcdf.New(f) // g owns f from here on
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("slstr: opening %s: %v", path, err)
		}
		return &netcdf4File{g: g}, nil
	}
	f.Close()
	return nil, fmt.Errorf("slstr: opening %s: %w", path, ErrUnknownFormat)
}

// classicFile reads NetCDF classic (CDF-1 and CDF-2) files.
type classicFile struct {
	f  *os.File
	nc *cdf.File
}

func (c *classicFile) Close() error { return c.f.Close() }

func (c *classicFile) Variables() []string { return c.nc.Header.Variables() }

func (c *classicFile) Attributes() map[string]interface{} {
	return classicAttributes(c.nc.Header, "")
}

func classicAttributes(h *cdf.Header, v string) map[string]interface{} {
	o := make(map[string]interface{})
	for _, a := range h.Attributes(v) {
		o[a] = h.GetAttribute(v, a)
	}
	return o
}

func (c *classicFile) Read(name string) (*rawVariable, error) {
	h := c.nc.Header
	zero := h.ZeroValue(name, 0)
	if zero == nil {
		return nil, fmt.Errorf("slstr: reading %s: %w", name, ErrVariableNotFound)
	}
	if _, ok := zero.(string); ok {
		return nil, fmt.Errorf("slstr: reading %s: %w", name, errUnsupportedType)
	}
	lengths := h.Lengths(name)
	shape := make([]int, len(lengths))
	copy(shape, lengths)
	v := &rawVariable{
		name:  name,
		dims:  h.Dimensions(name),
		shape: shape,
		attrs: classicAttributes(h, name),
	}

	if !h.IsRecordVariable(name) {
		n := 1
		for _, l := range shape {
			n *= l
		}
		r := c.nc.Reader(name, nil, nil)
		buf := r.Zero(n)
		if _, err := r.Read(buf); err != nil && err != io.EOF && n > 0 {
			return nil, fmt.Errorf("slstr: reading netcdf variable %s: %v", name, err)
		}
		v.values = toFloat64(buf)
		return v, nil
	}

	// Record variables are read one record at a time.
	fi, err := c.f.Stat()
	if err != nil {
		return nil, err
	}
	nrec := int(h.NumRecs(fi.Size()))
	shape[0] = nrec
	perRec := 1
	for _, l := range shape[1:] {
		perRec *= l
	}
	v.values = make([]float64, 0, nrec*perRec)
	for rec := 0; rec < nrec; rec++ {
		begin, end := make([]int, len(shape)), make([]int, len(shape))
		begin[0], end[0] = rec, rec
		for i := 1; i < len(shape); i++ {
			end[i] = shape[i] - 1
		}
		r := c.nc.Reader(name, begin, end)
		buf := r.Zero(perRec)
		if _, err := r.Read(buf); err != nil && err != io.EOF {
			return nil, fmt.Errorf("slstr: reading netcdf variable %s record %d: %v", name, rec, err)
		}
		v.values = append(v.values, toFloat64(buf)...)
	}
	return v, nil
}

// toFloat64 converts a buffer filled by a cdf.Reader.
func toFloat64(buf interface{}) []float64 {
	switch b := buf.(type) {
	case []uint8:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o
	case []int16:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o
	case []int32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o
	case []float32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o
	case []float64:
		o := make([]float64, len(b))
		copy(o, b)
		return o
	}
	panic(fmt.Errorf("slstr: unsupported netcdf buffer type %T", buf))
}

// netcdf4File reads NetCDF-4 (HDF5) files.
type netcdf4File struct {
	g api.Group
}

func (n *netcdf4File) Close() error {
	n.g.Close()
	return nil
}

func (n *netcdf4File) Variables() []string { return n.g.ListVariables() }

func (n *netcdf4File) Attributes() map[string]interface{} {
	return attributeMap(n.g.Attributes())
}

func attributeMap(am api.AttributeMap) map[string]interface{} {
	o := make(map[string]interface{})
	if am == nil {
		return o
	}
	for _, k := range am.Keys() {
		v, _ := am.Get(k)
		o[k] = v
	}
	return o
}

func (n *netcdf4File) Read(name string) (*rawVariable, error) {
	vv, err := n.g.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("slstr: reading %s: %w (%v)", name, ErrVariableNotFound, err)
	}
	shape, values, err := flatten(vv.Values)
	if err != nil {
		return nil, fmt.Errorf("slstr: reading netcdf variable %s: %w", name, err)
	}
	dims := vv.Dimensions
	if len(dims) != len(shape) {
		// Variables without named dimensions get phony ones.
		dims = make([]string, len(shape))
		for i := range dims {
			dims[i] = fmt.Sprintf("%s_dim%d", name, i)
		}
	}
	return &rawVariable{
		name:   name,
		dims:   dims,
		shape:  shape,
		attrs:  attributeMap(vv.Attributes),
		values: values,
	}, nil
}

// flatten converts the nested slices returned for NetCDF-4 variables
// into a shape and a flat, row-major slice of values.
func flatten(v interface{}) ([]int, []float64, error) {
	rv := reflect.ValueOf(v)
	var shape []int
	for t := rv; t.Kind() == reflect.Slice; t = t.Index(0) {
		shape = append(shape, t.Len())
		if t.Len() == 0 {
			break
		}
	}
	n := 1
	for _, s := range shape {
		n *= s
	}
	out := make([]float64, 0, n)
	var walk func(x reflect.Value) error
	walk = func(x reflect.Value) error {
		switch x.Kind() {
		case reflect.Slice:
			for i := 0; i < x.Len(); i++ {
				if err := walk(x.Index(i)); err != nil {
					return err
				}
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out = append(out, float64(x.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out = append(out, float64(x.Uint()))
		case reflect.Float32, reflect.Float64:
			out = append(out, x.Float())
		default:
			return fmt.Errorf("%w: %s", errUnsupportedType, x.Type())
		}
		return nil
	}
	if err := walk(rv); err != nil {
		return nil, nil, err
	}
	if len(out) != n {
		return nil, nil, fmt.Errorf("ragged array: %d values for shape %v", len(out), shape)
	}
	return shape, out, nil
}
