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
	"math"
	"reflect"

	"github.com/ctessum/sparse"
	"github.com/spf13/cast"
)

// MaskedArray is a dense array in which some elements may be missing.
// Missing elements have Mask set to true and hold NaN.
type MaskedArray struct {
	*sparse.DenseArray

	// Mask holds one entry per element; true means no data.
	Mask []bool
}

// NewMaskedArray returns a zeroed array of the given shape with no
// masked elements.
func NewMaskedArray(shape ...int) *MaskedArray {
	s := make([]int, len(shape))
	copy(s, shape)
	d := sparse.ZerosDense(s...)
	return &MaskedArray{DenseArray: d, Mask: make([]bool, len(d.Elements))}
}

// SetMasked marks the element at the given flat index as missing.
func (m *MaskedArray) SetMasked(i int) {
	m.Mask[i] = true
	m.Elements[i] = math.NaN()
}

// Masked returns whether the element at index is missing.
func (m *MaskedArray) Masked(index ...int) bool {
	return m.Mask[m.Index1d(index...)]
}

// Valid returns the number of elements that are not masked.
func (m *MaskedArray) Valid() int {
	n := 0
	for _, masked := range m.Mask {
		if !masked {
			n++
		}
	}
	return n
}

// Range returns the minimum and maximum of the unmasked elements.
// ok is false if every element is masked.
func (m *MaskedArray) Range() (min, max float64, ok bool) {
	min, max = math.Inf(1), math.Inf(-1)
	for i, v := range m.Elements {
		if m.Mask[i] {
			continue
		}
		ok = true
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max, ok
}

// Copy returns a deep copy of m.
func (m *MaskedArray) Copy() *MaskedArray {
	o := NewMaskedArray(m.Shape...)
	copy(o.Elements, m.Elements)
	copy(o.Mask, m.Mask)
	return o
}

// Equal returns whether m and o have the same shape, the same mask and
// the same unmasked values. Unmasked NaNs are equal to each other.
func (m *MaskedArray) Equal(o *MaskedArray) bool {
	if m == nil || o == nil {
		return m == o
	}
	if !reflect.DeepEqual(m.Shape, o.Shape) || len(m.Elements) != len(o.Elements) {
		return false
	}
	for i, v := range m.Elements {
		if m.Mask[i] != o.Mask[i] {
			return false
		}
		if m.Mask[i] || v == o.Elements[i] || (math.IsNaN(v) && math.IsNaN(o.Elements[i])) {
			continue
		}
		return false
	}
	return true
}

// Encoding holds the attributes used to pack floating point values into
// a smaller on-disk representation.
type Encoding struct {
	// ScaleFactor multiplies the packed value. It is 1 when the
	// scale_factor attribute is absent.
	ScaleFactor float64

	// AddOffset is added after scaling. It is 0 when the add_offset
	// attribute is absent.
	AddOffset float64

	// FillValue marks missing data in the packed values. It is only
	// meaningful when HasFill is true.
	FillValue float64
	HasFill   bool
}

// EncodingOf reads the packing attributes from attrs, using a scale factor
// of 1, an offset of 0 and no fill value for attributes that are absent.
// missing_value stands in for _FillValue when only it is present.
func EncodingOf(attrs map[string]interface{}) Encoding {
	e := Encoding{ScaleFactor: 1}
	if v, ok := attrFloat(attrs, "scale_factor"); ok {
		e.ScaleFactor = v
	}
	if v, ok := attrFloat(attrs, "add_offset"); ok {
		e.AddOffset = v
	}
	if v, ok := attrFloat(attrs, "_FillValue"); ok {
		e.FillValue, e.HasFill = v, true
	} else if v, ok := attrFloat(attrs, "missing_value"); ok {
		e.FillValue, e.HasFill = v, true
	}
	return e
}

// IsFill returns whether the packed value v equals the fill value.
func (e Encoding) IsFill(v float64) bool {
	if !e.HasFill {
		return false
	}
	if math.IsNaN(e.FillValue) {
		return math.IsNaN(v)
	}
	return v == e.FillValue
}

// Decode unpacks raw values of the given shape. Elements equal to the fill
// value are masked first; every other element becomes
// raw*ScaleFactor + AddOffset.
func (e Encoding) Decode(shape []int, raw []float64) *MaskedArray {
	o := NewMaskedArray(shape...)
	for i, v := range raw {
		if e.IsFill(v) {
			o.SetMasked(i)
			continue
		}
		o.Elements[i] = v*e.ScaleFactor + e.AddOffset
	}
	return o
}

// attrFloat returns the first value of a numeric attribute.
func attrFloat(attrs map[string]interface{}, name string) (float64, bool) {
	v, ok := attrs[name]
	if !ok || v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() == 0 {
			return 0, false
		}
		v = rv.Index(0).Interface()
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// attrString returns a text attribute, or "" if it is absent or not text.
func attrString(attrs map[string]interface{}, name string) string {
	switch v := attrs[name].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}
