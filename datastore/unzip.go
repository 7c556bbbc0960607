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

package datastore

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SAFEExt is the extension of Sentinel-3 product directories.
const SAFEExt = ".SEN3"

// unzip extracts the archive at src into dir and returns the name of the
// first top-level SAFE directory it contains, or "" if there is none.
func unzip(src, dir string) (string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return "", fmt.Errorf("datastore: opening product archive: %v", err)
	}
	defer r.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	var safe string
	for _, f := range r.File {
		name := filepath.FromSlash(f.Name)
		dst := filepath.Join(root, name)
		if dst != root && !strings.HasPrefix(dst, root+string(os.PathSeparator)) {
			return "", fmt.Errorf("datastore: archive entry %s is outside the destination", f.Name)
		}
		if top := strings.SplitN(filepath.ToSlash(name), "/", 2)[0]; safe == "" && strings.HasSuffix(top, SAFEExt) {
			safe = top
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dst, os.ModePerm); err != nil {
				return "", fmt.Errorf("datastore: extracting %s: %v", f.Name, err)
			}
			continue
		}
		if err := extract(f, dst); err != nil {
			return "", err
		}
	}
	return safe, nil
}

func extract(f *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("datastore: extracting %s: %v", f.Name, err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("datastore: extracting %s: %v", f.Name, err)
	}
	defer rc.Close()
	w, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("datastore: extracting %s: %v", f.Name, err)
	}
	if _, err := io.Copy(w, rc); err != nil {
		w.Close()
		return fmt.Errorf("datastore: extracting %s: %v", f.Name, err)
	}
	return w.Close()
}
