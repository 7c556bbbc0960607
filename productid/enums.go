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

// Mission identifies the satellite that acquired a product.
type Mission string

const (
	MissionSentinel3A Mission = "S3A"
	MissionSentinel3B Mission = "S3B"
	MissionSentinel3C Mission = "S3C"
	MissionSentinel3D Mission = "S3D"
	// MissionSentinel3 is used for products combining both satellites
	// ("S3_" in the identifier).
	MissionSentinel3 Mission = "S3"
)

var missions = map[Mission]string{
	MissionSentinel3A: "Sentinel-3A",
	MissionSentinel3B: "Sentinel-3B",
	MissionSentinel3C: "Sentinel-3C",
	MissionSentinel3D: "Sentinel-3D",
	MissionSentinel3:  "Sentinel-3",
}

// String returns the underlying string value.
func (m Mission) String() string { return string(m) }

// Description returns the satellite name, or "" for unknown missions.
func (m Mission) Description() string { return missions[m] }

// SoftwarePlatform is the processing platform that produced a product.
type SoftwarePlatform string

const (
	PlatformOperational SoftwarePlatform = "O"
	PlatformReference   SoftwarePlatform = "F"
	PlatformDevelopment SoftwarePlatform = "D"
	PlatformReprocessed SoftwarePlatform = "R"
)

var platforms = map[SoftwarePlatform]string{
	PlatformOperational: "operational",
	PlatformReference:   "reference",
	PlatformDevelopment: "development",
	PlatformReprocessed: "reprocessing",
}

// String returns the underlying string value.
func (p SoftwarePlatform) String() string { return string(p) }

// Description returns a human readable name, or "" for unknown platforms.
func (p SoftwarePlatform) Description() string { return platforms[p] }

// Timeliness is the timeliness of the processing workflow.
type Timeliness string

const (
	NearRealTime      Timeliness = "NR"
	ShortTimeCritical Timeliness = "ST"
	NonTimeCritical   Timeliness = "NT"
)

var timeliness = map[Timeliness]string{
	NearRealTime:      "near real-time",
	ShortTimeCritical: "short time-critical",
	NonTimeCritical:   "non time-critical",
}

// String returns the underlying string value.
func (t Timeliness) String() string { return string(t) }

// Description returns a human readable name, or "" for unknown values.
func (t Timeliness) Description() string { return timeliness[t] }

// Centers holds the known product generating centres.
var Centers = map[string]string{
	"MAR": "Marine Processing and Archiving Centre (EUMETSAT)",
	"LN3": "Land Surface Topography Mission Processing and Archiving Centre",
	"SVL": "Svalbard Satellite Core Ground Station",
}
