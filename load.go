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
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
)

// LoadConfig holds the settings for loading a SAFE product directory.
type LoadConfig struct {
	// Pattern selects the data files within the directory.
	Pattern string

	// TimeDeltaVariable is the variable corrected by CorrectTimeDelta.
	TimeDeltaVariable string
}

// DefaultLoadConfig is the configuration used by LoadSAFE.
var DefaultLoadConfig = LoadConfig{
	Pattern:           "*.nc",
	TimeDeltaVariable: DefaultTimeDeltaVariable,
}

// LoadSAFE loads the product in the SAFE directory dir using
// DefaultLoadConfig.
func LoadSAFE(dir string) (*Dataset, *MaskedArray, error) {
	c := DefaultLoadConfig
	return c.Load(dir)
}

// Load loads the product in the SAFE directory dir. It returns the
// decoded dataset and the corrected time delta.
//
// A directory holding a single data file must contain the time delta
// variable. When there are several files they are combined, and so are
// the corrected time deltas. Elements from files without the variable
// are masked, so the result matches the shape of the combined dataset.
// The returned array is nil if no file has the variable.
func (c *LoadConfig) Load(dir string) (*Dataset, *MaskedArray, error) {
	fi, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("slstr: %s: %w", dir, ErrNotFound)
	} else if err != nil {
		return nil, nil, fmt.Errorf("slstr: %v", err)
	}
	if !fi.IsDir() {
		return nil, nil, fmt.Errorf("slstr: %s: %w", dir, ErrNotADirectory)
	}

	pattern := c.Pattern
	if pattern == "" {
		pattern = DefaultLoadConfig.Pattern
	}
	variable := c.TimeDeltaVariable
	if variable == "" {
		variable = DefaultLoadConfig.TimeDeltaVariable
	}

	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, nil, fmt.Errorf("slstr: listing %s: %v", dir, err)
	}
	sort.Strings(files)
	log := logrus.WithFields(logrus.Fields{"dir": dir, "files": len(files)})
	log.Info("loading SAFE directory")
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("slstr: %s: no files matching %s: %w", dir, pattern, ErrNoFilesFound)
	}

	opts := OpenOptions{DecodeTimes: true, MaskAndScale: true}
	if len(files) == 1 {
		log.Debug("opening single file")
		ds, err := Open(files[0], opts)
		if err != nil {
			return nil, nil, err
		}
		dt, err := CorrectTimeDelta(files[0], variable)
		if err != nil {
			return nil, nil, err
		}
		log.Info("finished loading")
		return ds, dt, nil
	}

	log.Debug("combining files by coordinates")
	datasets := make([]*Dataset, len(files))
	deltas := make([]*Dataset, len(files))
	found := false
	for i, f := range files {
		ds, err := Open(f, opts)
		if err != nil {
			return nil, nil, err
		}
		datasets[i] = ds

		// The corrected values are combined alongside the coordinates
		// of their file so they are ordered and padded the same way.
		// Files without the variable contribute coordinates only.
		d := &Dataset{
			Dims:    ds.Dims,
			Vars:    make(map[string]*Variable),
			Sources: ds.Sources,
		}
		for name, cv := range ds.Vars {
			if len(cv.Dims) == 1 && cv.Dims[0] == name {
				d.Vars[name] = cv
			}
		}
		deltas[i] = d
		v, ok := ds.Vars[variable]
		if !ok {
			log.WithField("file", f).Debugf("no %s variable", variable)
			continue
		}
		dt, err := CorrectTimeDelta(f, variable)
		if err != nil {
			return nil, nil, err
		}
		d.Vars[variable] = &Variable{Name: variable, Dims: v.Dims, Data: dt}
		found = true
	}
	ds, err := Combine(datasets...)
	if err != nil {
		return nil, nil, err
	}
	var dt *MaskedArray
	if found {
		cd, err := Combine(deltas...)
		if err != nil {
			return nil, nil, err
		}
		dt = cd.Vars[variable].Data
	}
	log.Info("finished loading")
	return ds, dt, nil
}
