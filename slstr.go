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

// Package slstr reads Sentinel-3 SLSTR sea surface temperature products.
//
// A product is delivered as a SAFE directory holding one or more NetCDF
// files. LoadSAFE reads every file in such a directory into a single
// in-memory Dataset and separately recomputes the per-pixel time offset
// variable (sst_dtime), whose packed encoding has to be undone by hand.
package slstr

import "errors"

// Version gives the version number.
const Version = "0.3.0"

var (
	// ErrNotFound is returned when a SAFE directory does not exist.
	ErrNotFound = errors.New("path does not exist")

	// ErrNotADirectory is returned when a SAFE path is not a directory.
	ErrNotADirectory = errors.New("path is not a directory")

	// ErrNoFilesFound is returned when a SAFE directory contains no data files.
	ErrNoFilesFound = errors.New("no data files found")

	// ErrVariableNotFound is returned when a requested variable is not in a file.
	ErrVariableNotFound = errors.New("variable not found")

	// ErrUnknownFormat is returned when a file is neither NetCDF classic
	// nor NetCDF-4.
	ErrUnknownFormat = errors.New("not a NetCDF classic or NetCDF-4 file")

	// ErrConflict is returned when files in a SAFE directory hold
	// different values for the same variable and cannot be combined.
	ErrConflict = errors.New("conflicting values")
)
