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

// Package datastore downloads Sentinel-3 products from the EUMETSAT
// Data Store and archives them to local or blob storage.
package datastore

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Credentials are the consumer key and secret of a Data Store API
// account.
type Credentials struct {
	Key, Secret string
}

// LoadCredentials reads credentials from the file at path. The consumer
// key is on the third line of the file and the consumer secret on the
// fourth; surrounding space is removed.
func LoadCredentials(path string) (Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("datastore: opening credentials: %w", err)
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() && len(lines) < 4 {
		lines = append(lines, strings.TrimSpace(s.Text()))
	}
	if err := s.Err(); err != nil {
		return Credentials{}, fmt.Errorf("datastore: reading credentials: %v", err)
	}
	if len(lines) < 4 {
		return Credentials{}, fmt.Errorf("datastore: credentials file %s has %d lines; the key and secret must be on lines 3 and 4", path, len(lines))
	}
	c := Credentials{Key: lines[2], Secret: lines[3]}
	if c.Key == "" || c.Secret == "" {
		return Credentials{}, fmt.Errorf("datastore: credentials file %s has an empty key or secret", path)
	}
	return c, nil
}
