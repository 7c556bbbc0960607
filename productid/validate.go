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

package productid

import (
	"fmt"
	"strconv"
	"time"
	"unicode"
)

// ValidationError describes a field whose content does not match the
// identifier conventions.
type ValidationError struct {
	Field, Value, Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("productid: invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Validate checks the content of the decoded fields and returns the first
// problem it finds as a *ValidationError.
func (id *Identifier) Validate() error {
	if _, ok := missions[id.Mission()]; !ok {
		return &ValidationError{MissionID, id.MissionID(), "unknown mission"}
	}
	if !isUpper(id.DataSource()) || len(id.DataSource()) != Width(DataSource) {
		return &ValidationError{DataSource, id.DataSource(), "must be two upper-case letters"}
	}
	if l := id.ProcessLevel(); len(l) != 1 || l[0] < '0' || l[0] > '2' {
		return &ValidationError{ProcessLevel, l, "must be 0, 1 or 2"}
	}
	if id.DataTypeID() == "" {
		return &ValidationError{DataTypeID, id.DataTypeID(), "is empty"}
	}
	start, err := id.SensingStart()
	if err != nil {
		return err
	}
	stop, err := id.SensingStop()
	if err != nil {
		return err
	}
	if stop.Before(start) {
		return &ValidationError{SenseStopTime, id.SenseStopTime(), "is before the sensing start time"}
	}
	if _, err := id.Created(); err != nil {
		return err
	}
	for _, name := range []string{SensingDurationSec, CycleNumberAtStart, OrbitNumber} {
		if _, err := id.number(name); err != nil {
			return err
		}
	}
	// Frame numbers are blank for products that cover a whole dump.
	if id.FrameNumber() != "" {
		if _, err := id.number(FrameNumber); err != nil {
			return err
		}
	}
	if id.ProductGeneratingCenter() == "" {
		return &ValidationError{ProductGeneratingCenter, "", "is empty"}
	}
	if _, ok := platforms[id.Platform()]; !ok {
		return &ValidationError{SoftwarePlatformField, id.SoftwarePlatform(), "must be one of O, F, D or R"}
	}
	if _, ok := timeliness[id.TimelinessCode()]; !ok {
		return &ValidationError{TimelinessField, id.Timeliness(), "must be one of NR, ST or NT"}
	}
	if len(id.BaselineCollection()) != Width(BaselineCollection) {
		return &ValidationError{BaselineCollection, id.BaselineCollection(), "must be three characters"}
	}
	return nil
}

func isUpper(s string) bool {
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func (id *Identifier) time(name string) (time.Time, error) {
	v := id.get(name)
	t, err := time.Parse(TimeLayout, v)
	if err != nil {
		return time.Time{}, &ValidationError{name, v, "not a " + TimeLayout + " timestamp"}
	}
	return t, nil
}

func (id *Identifier) number(name string) (int, error) {
	v := id.get(name)
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &ValidationError{name, v, "not a number"}
	}
	return n, nil
}

// Mission returns the mission field as a Mission.
func (id *Identifier) Mission() Mission { return Mission(id.MissionID()) }

// Platform returns the software platform field as a SoftwarePlatform.
func (id *Identifier) Platform() SoftwarePlatform { return SoftwarePlatform(id.SoftwarePlatform()) }

// TimelinessCode returns the timeliness field as a Timeliness.
func (id *Identifier) TimelinessCode() Timeliness { return Timeliness(id.Timeliness()) }

// SensingStart returns the start of the sensing interval (UTC).
func (id *Identifier) SensingStart() (time.Time, error) { return id.time(SenseStartTime) }

// SensingStop returns the end of the sensing interval (UTC).
func (id *Identifier) SensingStop() (time.Time, error) { return id.time(SenseStopTime) }

// Created returns the product creation time (UTC).
func (id *Identifier) Created() (time.Time, error) { return id.time(ProductCreateTime) }

// Duration returns the length of the sensing interval.
func (id *Identifier) Duration() (time.Duration, error) {
	n, err := id.number(SensingDurationSec)
	return time.Duration(n) * time.Second, err
}

// Cycle returns the cycle number at the start of sensing.
func (id *Identifier) Cycle() (int, error) { return id.number(CycleNumberAtStart) }

// Orbit returns the relative orbit number.
func (id *Identifier) Orbit() (int, error) { return id.number(OrbitNumber) }

// Frame returns the frame number along the orbit.
func (id *Identifier) Frame() (int, error) { return id.number(FrameNumber) }
