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
	"sort"
	"time"
)

// Combine merges datasets read from separate files into one.
//
// When the inputs share a coordinate variable (a one-dimensional variable
// named after its dimension) whose values differ between them, the inputs
// are ordered by its first value and every variable spanning that
// dimension is concatenated along it. Inputs that lack such a variable
// contribute masked values. Other variables are merged; a variable that
// appears in more than one input must be identical in each, and shared
// dimensions must agree in length, or ErrConflict is returned.
func Combine(ds ...*Dataset) (*Dataset, error) {
	if len(ds) == 0 {
		return nil, errors.New("slstr: combine: no datasets")
	}
	inputs := make([]*Dataset, len(ds))
	copy(inputs, ds)

	dim := concatDim(inputs)
	if dim != "" {
		sort.SliceStable(inputs, func(i, j int) bool {
			return inputs[i].Vars[dim].Data.Elements[0] < inputs[j].Vars[dim].Data.Elements[0]
		})
	}

	o := &Dataset{
		Dims:       make(map[string]int),
		Vars:       make(map[string]*Variable),
		Attributes: make(map[string]interface{}),
	}
	for k, v := range inputs[0].Attributes {
		o.Attributes[k] = v
	}
	for _, d := range inputs {
		o.Sources = append(o.Sources, d.Sources...)
		for name, l := range d.Dims {
			if name == dim {
				o.Dims[name] += l
				continue
			}
			if ol, ok := o.Dims[name]; ok && ol != l {
				return nil, fmt.Errorf("slstr: combine: dimension %s has lengths %d and %d: %w", name, ol, l, ErrConflict)
			}
			o.Dims[name] = l
		}
	}

	names := make(map[string]bool)
	for _, d := range inputs {
		for name := range d.Vars {
			names[name] = true
		}
	}
	for name := range names {
		var v *Variable
		var err error
		if axis := dimIndex(firstVar(inputs, name).Dims, dim); dim != "" && axis >= 0 {
			v, err = concatVariable(inputs, name, dim, axis)
		} else {
			v, err = mergeVariable(inputs, name)
		}
		if err != nil {
			return nil, err
		}
		o.Vars[name] = v
	}
	return o, nil
}

// concatDim returns the name of a coordinate dimension shared by all
// inputs whose first coordinate value differs between them, or "".
func concatDim(inputs []*Dataset) string {
	if len(inputs) < 2 {
		return ""
	}
	var candidates []string
	for name, v := range inputs[0].Vars {
		if len(v.Dims) == 1 && v.Dims[0] == name {
			candidates = append(candidates, name)
		}
	}
	sort.Strings(candidates)
	for _, name := range candidates {
		ok := true
		first := make(map[float64]bool)
		for _, d := range inputs {
			v, has := d.Vars[name]
			if !has || len(v.Dims) != 1 || v.Dims[0] != name ||
				len(v.Data.Elements) == 0 || v.Data.Mask[0] {
				ok = false
				break
			}
			first[v.Data.Elements[0]] = true
		}
		if ok && len(first) == len(inputs) {
			return name
		}
	}
	return ""
}

func firstVar(inputs []*Dataset, name string) *Variable {
	for _, d := range inputs {
		if v, ok := d.Vars[name]; ok {
			return v
		}
	}
	return nil
}

func dimIndex(dims []string, dim string) int {
	for i, d := range dims {
		if d == dim {
			return i
		}
	}
	return -1
}

func copyVariable(v *Variable) *Variable {
	o := *v
	o.Dims = append([]string(nil), v.Dims...)
	o.Attributes = make(map[string]interface{}, len(v.Attributes))
	for k, a := range v.Attributes {
		o.Attributes[k] = a
	}
	o.Data = v.Data.Copy()
	if v.Times != nil {
		o.Times = append([]time.Time(nil), v.Times...)
	}
	return &o
}

func mergeVariable(inputs []*Dataset, name string) (*Variable, error) {
	var o *Variable
	for _, d := range inputs {
		v, ok := d.Vars[name]
		if !ok {
			continue
		}
		if o == nil {
			o = v
			continue
		}
		if !equalStrings(o.Dims, v.Dims) || !o.Data.Equal(v.Data) {
			return nil, fmt.Errorf("slstr: combine: variable %s differs between %v and %v: %w",
				name, o.Dims, v.Dims, ErrConflict)
		}
	}
	return copyVariable(o), nil
}

func concatVariable(inputs []*Dataset, name, dim string, axis int) (*Variable, error) {
	tmpl := firstVar(inputs, name)
	shape := make([]int, len(tmpl.Data.Shape))
	copy(shape, tmpl.Data.Shape)
	shape[axis] = 0
	var blocks []*Variable
	for _, d := range inputs {
		n := d.Dims[dim]
		v, ok := d.Vars[name]
		if !ok {
			// Missing from this input: fill with masked values.
			s := make([]int, len(tmpl.Data.Shape))
			copy(s, tmpl.Data.Shape)
			s[axis] = n
			m := NewMaskedArray(s...)
			for i := range m.Elements {
				m.SetMasked(i)
			}
			v = &Variable{Dims: tmpl.Dims, Data: m}
			if tmpl.Times != nil {
				v.Times = make([]time.Time, len(m.Elements))
			}
		}
		if !equalStrings(v.Dims, tmpl.Dims) {
			return nil, fmt.Errorf("slstr: combine: variable %s has dimensions %v and %v: %w",
				name, tmpl.Dims, v.Dims, ErrConflict)
		}
		for i, l := range v.Data.Shape {
			if i != axis && l != tmpl.Data.Shape[i] {
				return nil, fmt.Errorf("slstr: combine: variable %s has shapes %v and %v: %w",
					name, tmpl.Data.Shape, v.Data.Shape, ErrConflict)
			}
		}
		shape[axis] += v.Data.Shape[axis]
		blocks = append(blocks, v)
	}

	o := copyVariable(tmpl)
	o.Data = NewMaskedArray(shape...)
	if tmpl.Times != nil {
		o.Times = make([]time.Time, len(o.Data.Elements))
	}
	outer, inner := 1, 1
	for _, l := range shape[:axis] {
		outer *= l
	}
	for _, l := range shape[axis+1:] {
		inner *= l
	}
	off := 0
	for _, b := range blocks {
		n := b.Data.Shape[axis]
		for i := 0; i < outer; i++ {
			src := i * n * inner
			dst := (i*shape[axis] + off) * inner
			copy(o.Data.Elements[dst:dst+n*inner], b.Data.Elements[src:src+n*inner])
			copy(o.Data.Mask[dst:dst+n*inner], b.Data.Mask[src:src+n*inner])
			if o.Times != nil && b.Times != nil {
				copy(o.Times[dst:dst+n*inner], b.Times[src:src+n*inner])
			}
		}
		off += n
	}
	return o, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
