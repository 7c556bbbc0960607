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
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultTimeDeltaVariable is the variable holding the offset of each
// pixel from the reference time of the product.
const DefaultTimeDeltaVariable = "sst_dtime"

// CorrectTimeDelta reads variable from the file at path as stored and
// converts it to physical units. Elements equal to _FillValue are masked;
// every other element becomes value*scale_factor + add_offset, where
// absent attributes default to a scale of 1 and an offset of 0.
// The result has the shape of the variable in the file.
func CorrectTimeDelta(path, variable string) (*MaskedArray, error) {
	raw, err := readVariable(path, variable)
	if err != nil {
		return nil, fmt.Errorf("slstr: correcting %s in %s: %w", variable, path, err)
	}

	enc := Encoding{ScaleFactor: 1}
	if v, ok := attrFloat(raw.attrs, "scale_factor"); ok {
		enc.ScaleFactor = v
	}
	if v, ok := attrFloat(raw.attrs, "add_offset"); ok {
		enc.AddOffset = v
	}
	if v, ok := attrFloat(raw.attrs, "_FillValue"); ok {
		enc.FillValue, enc.HasFill = v, true
	}

	fields := logrus.Fields{
		"file":         path,
		"variable":     variable,
		"scale_factor": enc.ScaleFactor,
		"add_offset":   enc.AddOffset,
	}
	if enc.HasFill {
		fields["_FillValue"] = enc.FillValue
	}
	logrus.WithFields(fields).Debug("correcting time delta")

	return enc.Decode(raw.shape, raw.values), nil
}
