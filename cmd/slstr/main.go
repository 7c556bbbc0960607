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

// Command slstr is a command-line interface for working with Sentinel-3
// SLSTR sea surface temperature products.
package main

import (
	"fmt"
	"os"

	"github.com/ningaloo-research/slstr/slstrutil"
)

func main() {
	if err := slstrutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
