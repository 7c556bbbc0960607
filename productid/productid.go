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

// Package productid decodes the fixed-width product identifiers used to name
// Sentinel-3 products, for example
//
//	S3A_SL_2_WST____20230101T014500_20230101T032600_20230102T141513_6059_094_117______MAR_O_NT_003.SEN3
//
// Decoding is purely syntactic: each field is a fixed number of characters
// followed by a one-character separator. Validate can be used afterwards to
// check the content of the fields.
package productid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrOutOfRange is returned when an identifier ends before all of its
// fields have been read.
var ErrOutOfRange = errors.New("identifier out of range")

// Names of the identifier fields.
const (
	MissionID               = "mission_id"
	DataSource              = "data_source"
	ProcessLevel            = "process_level"
	DataTypeID              = "data_type_id"
	SenseStartTime          = "sense_start_time"
	SenseStopTime           = "sense_stop_time"
	ProductCreateTime       = "product_create_time"
	SensingDurationSec      = "sensing_duration_sec"
	CycleNumberAtStart      = "cycle_number_at_start"
	OrbitNumber             = "orbit_number"
	FrameNumber             = "frame_number"
	ProductGeneratingCenter = "product_generating_center"
	SoftwarePlatformField   = "software_platform"
	TimelinessField         = "timeliness"
	BaselineCollection      = "baseline_collection"
)

// Separator separates the fields of an identifier. It is also used to pad
// fields that are shorter than their width.
const Separator = '_'

// TimeLayout is the layout of the three timestamps in an identifier.
const TimeLayout = "20060102T150405"

type field struct {
	name  string
	width int
}

// layout lists the identifier fields in order with the number of
// characters each one occupies.
var layout = [...]field{
	{MissionID, 3},
	{DataSource, 2},
	{ProcessLevel, 1},
	{DataTypeID, 6},
	{SenseStartTime, len(TimeLayout)},
	{SenseStopTime, len(TimeLayout)},
	{ProductCreateTime, len(TimeLayout)},
	{SensingDurationSec, 4},
	{CycleNumberAtStart, 3},
	{OrbitNumber, 3},
	{FrameNumber, 4},
	{ProductGeneratingCenter, 3},
	{SoftwarePlatformField, 1},
	{TimelinessField, 2},
	{BaselineCollection, 3},
}

// NumFields is the number of fields in an identifier.
const NumFields = len(layout)

// Len returns the minimum length of a decodable identifier: the widths of
// all fields plus the separators between them. A trailing separator or
// file extension is allowed but not required.
func Len() int {
	n := NumFields - 1
	for _, f := range layout {
		n += f.width
	}
	return n
}

// Width returns the width of the named field, or -1 if there is no such field.
func Width(name string) int {
	for _, f := range layout {
		if f.name == name {
			return f.width
		}
	}
	return -1
}

// Names returns the field names in identifier order.
func Names() []string {
	o := make([]string, NumFields)
	for i, f := range layout {
		o[i] = f.name
	}
	return o
}

// Identifier holds the decoded fields of a product identifier.
// It cannot be modified after decoding.
type Identifier struct {
	values [NumFields]string
}

// Decode splits id into its fields. Each field is read as the next
// fixed-width slice of id with any separator characters removed, after
// which one separator character is skipped. Decode returns an error
// wrapping ErrOutOfRange if id is too short to hold every field.
// The content of the fields is not checked; see Validate.
func Decode(id string) (*Identifier, error) {
	var o Identifier
	cur := 0
	for i, f := range layout {
		if cur+f.width > len(id) {
			return nil, fmt.Errorf("productid: decoding %s of %q (%d characters, need %d): %w",
				f.name, id, len(id), Len(), ErrOutOfRange)
		}
		slice := id[cur : cur+f.width]
		logrus.WithFields(logrus.Fields{"field": f.name, "slice": slice}).Debug("productid: consumed field")
		o.values[i] = strings.Replace(slice, string(Separator), "", -1)
		cur += f.width + 1
	}
	return &o, nil
}

// Get returns the value of the named field and whether the field exists.
func (id *Identifier) Get(name string) (string, bool) {
	for i, f := range layout {
		if f.name == name {
			return id.values[i], true
		}
	}
	return "", false
}

func (id *Identifier) get(name string) string {
	v, _ := id.Get(name)
	return v
}

// Field is a single named identifier field.
type Field struct {
	Name, Value string
}

// Fields returns the decoded fields in identifier order.
func (id *Identifier) Fields() []Field {
	o := make([]Field, NumFields)
	for i, f := range layout {
		o[i] = Field{Name: f.name, Value: id.values[i]}
	}
	return o
}

// Map returns the decoded fields keyed by field name. The map is a copy
// and may be modified by the caller.
func (id *Identifier) Map() map[string]string {
	o := make(map[string]string, NumFields)
	for i, f := range layout {
		o[f.name] = id.values[i]
	}
	return o
}

// String re-encodes the identifier, padding each field to its width
// with the separator character.
func (id *Identifier) String() string {
	var b strings.Builder
	for i, f := range layout {
		if i > 0 {
			b.WriteByte(Separator)
		}
		b.WriteString(id.values[i])
		for j := len(id.values[i]); j < f.width; j++ {
			b.WriteByte(Separator)
		}
	}
	return b.String()
}

// MissionID returns the mission field, for example "S3A", or "S3" for
// products combining both satellites.
func (id *Identifier) MissionID() string { return id.values[0] }

// DataSource returns the data source field, "SL" for SLSTR products.
func (id *Identifier) DataSource() string { return id.values[1] }

// ProcessLevel returns the processing level field.
func (id *Identifier) ProcessLevel() string { return id.values[2] }

// DataTypeID returns the data type field, for example "WST___".
func (id *Identifier) DataTypeID() string { return id.values[3] }

// SenseStartTime returns the sensing start time field in YYYYMMDDTHHMMSS form.
func (id *Identifier) SenseStartTime() string { return id.values[4] }

// SenseStopTime returns the sensing stop time field in YYYYMMDDTHHMMSS form.
func (id *Identifier) SenseStopTime() string { return id.values[5] }

// ProductCreateTime returns the product creation time field in
// YYYYMMDDTHHMMSS form.
func (id *Identifier) ProductCreateTime() string { return id.values[6] }

// SensingDurationSec returns the sensing duration field in seconds.
func (id *Identifier) SensingDurationSec() string { return id.values[7] }

// CycleNumberAtStart returns the cycle number at the start of sensing.
func (id *Identifier) CycleNumberAtStart() string { return id.values[8] }

// OrbitNumber returns the relative orbit number at the start of sensing.
func (id *Identifier) OrbitNumber() string { return id.values[9] }

// FrameNumber returns the frame along track coordinate, or "" for
// full-orbit products.
func (id *Identifier) FrameNumber() string { return id.values[10] }

// ProductGeneratingCenter returns the three letter generating centre code.
func (id *Identifier) ProductGeneratingCenter() string { return id.values[11] }

// SoftwarePlatform returns the single letter processing platform code.
func (id *Identifier) SoftwarePlatform() string { return id.values[12] }

// Timeliness returns the two letter timeliness code.
func (id *Identifier) Timeliness() string { return id.values[13] }

// BaselineCollection returns the processing baseline collection field.
func (id *Identifier) BaselineCollection() string { return id.values[14] }
