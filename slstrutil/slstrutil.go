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

// Package slstrutil contains the commands and configuration of the slstr
// command-line tool.
package slstrutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ctessum/geom"
	"github.com/ningaloo-research/slstr"
	"github.com/ningaloo-research/slstr/catalog"
	"github.com/ningaloo-research/slstr/datastore"
	"github.com/ningaloo-research/slstr/productid"
	"github.com/ningaloo-research/slstr/render"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/vg"
)

// Decode writes the fields of each product identifier to w. If validate
// is true the field contents are checked as well.
func Decode(w io.Writer, ids []string, validate bool) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for i, s := range ids {
		id, err := productid.Decode(s)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(tw)
		}
		for _, f := range id.Fields() {
			fmt.Fprintf(tw, "%s\t%s\n", f.Name, f.Value)
		}
		if validate {
			if err := id.Validate(); err != nil {
				fmt.Fprintf(tw, "invalid\t%v\n", err)
			} else {
				fmt.Fprintf(tw, "valid\t%s, %s\n", id.Mission().Description(), id.TimelinessCode().Description())
			}
		}
	}
	return tw.Flush()
}

// Load loads the product in dir and writes a summary of its variables
// and of the corrected time offsets to w.
func Load(w io.Writer, dir string, c *slstr.LoadConfig) error {
	ds, dt, err := c.Load(dir)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "files\t%d\n", len(ds.Sources))
	var dims []string
	for _, name := range sortedKeys(ds.Dims) {
		dims = append(dims, fmt.Sprintf("%s=%d", name, ds.Dims[name]))
	}
	fmt.Fprintf(tw, "dimensions\t%s\n", strings.Join(dims, " "))
	fmt.Fprintln(tw, "\nvariable\tdimensions\tvalid\tmin\tmax\tmean")
	for _, name := range ds.VarNames() {
		v := ds.Vars[name]
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\n", name, strings.Join(v.Dims, ","),
			v.Data.Valid(), len(v.Data.Elements), formatStats(v.Data))
	}
	if dt != nil {
		fmt.Fprintf(tw, "%s (corrected)\t%v\t%d/%d\t%s\n", c.TimeDeltaVariable, dt.Shape,
			dt.Valid(), len(dt.Elements), formatStats(dt))
	}
	return tw.Flush()
}

// formatStats returns the minimum, maximum and mean of the unmasked
// elements of m as tab-separated cells.
func formatStats(m *slstr.MaskedArray) string {
	min, max, ok := m.Range()
	if !ok {
		return "-\t-\t-"
	}
	vals := make([]float64, 0, len(m.Elements))
	for i, v := range m.Elements {
		if !m.Mask[i] {
			vals = append(vals, v)
		}
	}
	return fmt.Sprintf("%.6g\t%.6g\t%.6g", min, max, stat.Mean(vals, nil))
}

// PlotOptions are the settings of Plot.
type PlotOptions struct {
	Variable   string
	Window     *geom.Bounds
	VMin, VMax float64
	GridStep   float64
}

// values returns the named variable, or the corrected time offsets if
// variable is the time offset variable.
func values(ds *slstr.Dataset, dt *slstr.MaskedArray, c *slstr.LoadConfig, variable string) (*slstr.MaskedArray, error) {
	if variable == c.TimeDeltaVariable && dt != nil {
		return dt, nil
	}
	v, err := ds.Var(variable)
	if err != nil {
		return nil, err
	}
	return v.Data, nil
}

// Plot draws a map of a variable of the product in dir and saves it to
// out.
func Plot(dir, out string, c *slstr.LoadConfig, opts PlotOptions) error {
	ds, dt, err := c.Load(dir)
	if err != nil {
		return err
	}
	vals, err := values(ds, dt, c, opts.Variable)
	if err != nil {
		return err
	}
	title := opts.Variable
	if v, ok := ds.Vars[opts.Variable]; ok {
		if u := cast.ToString(v.Attributes["units"]); u != "" {
			title = fmt.Sprintf("%s (%s)", opts.Variable, u)
		}
	}
	p, err := render.Map(ds, vals, render.Options{
		Window:   opts.Window,
		VMin:     opts.VMin,
		VMax:     opts.VMax,
		Title:    title,
		GridStep: opts.GridStep,
	})
	if err != nil {
		return err
	}
	if err := render.Save(p, out, 8*vg.Inch, 6*vg.Inch); err != nil {
		return err
	}
	logrus.WithField("file", out).Info("saved map")
	return nil
}

// Export writes the unmasked cells of variable in the product in dir to
// w as a JSON data file.
func Export(w io.Writer, dir string, c *slstr.LoadConfig, variable string, window *geom.Bounds) error {
	ds, dt, err := c.Load(dir)
	if err != nil {
		return err
	}
	vals, err := values(ds, dt, c, variable)
	if err != nil {
		return err
	}
	if v, ok := ds.Vars[variable]; ok && v.Data != vals {
		// Export the corrected offsets rather than the stored ones.
		ds.Vars[variable] = &slstr.Variable{Name: v.Name, Dims: v.Dims, Attributes: v.Attributes, Data: vals}
	}
	points, err := ds.Points(variable, slstr.PointOptions{TimeDelta: dt, Window: window})
	if err != nil {
		return err
	}
	return slstr.NewDataFile(variable, points).Write(w)
}

// DownloadOptions are the settings of Download.
type DownloadOptions struct {
	Credentials string
	URL         string
	Dir         string

	// Archive and CatalogFile are skipped when empty.
	Archive     string
	CatalogFile string
}

// Download fetches the product at productURL and returns the path of the
// extracted SAFE directory.
func Download(ctx context.Context, productURL string, opts DownloadOptions) (string, error) {
	creds, err := datastore.LoadCredentials(opts.Credentials)
	if err != nil {
		return "", err
	}
	client := datastore.NewClient(creds)
	if opts.URL != "" {
		client.BaseURL = opts.URL
	}
	start := time.Now()
	safe, err := client.Download(ctx, productURL, opts.Dir)
	if err != nil {
		return "", err
	}
	logrus.WithFields(logrus.Fields{"safe": safe, "elapsed": time.Since(start)}).Info("downloaded product")

	if opts.Archive != "" {
		if err := datastore.Archive(ctx, opts.Archive, safe); err != nil {
			return "", err
		}
	}
	if opts.CatalogFile != "" {
		db, err := catalog.Open(opts.CatalogFile)
		if err != nil {
			return "", err
		}
		defer db.Close()
		if _, err := catalog.Scan(db, safe); err != nil {
			return "", err
		}
	}
	return safe, nil
}

// ListCatalog writes the products matching p to w.
func ListCatalog(w io.Writer, db *catalog.DB, p catalog.QueryParams) error {
	products, err := db.Query(p)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "mission\ttype\tlevel\ttimeliness\tsensing start\torbit\tpath")
	for _, pr := range products {
		start := "-"
		if !pr.SensingStart.IsZero() {
			start = pr.SensingStart.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", pr.Mission, pr.DataType, pr.Level,
			pr.Timeliness, start, pr.Orbit, pr.Path)
	}
	return tw.Flush()
}

// CatalogStats writes catalog statistics to w.
func CatalogStats(w io.Writer, db *catalog.DB) error {
	s, err := db.Stats()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "products\t%d\n", s.Total)
	for _, k := range sortedKeys(s.ByMission) {
		fmt.Fprintf(tw, "mission %s\t%d\n", k, s.ByMission[k])
	}
	for _, k := range sortedKeys(s.ByDataType) {
		fmt.Fprintf(tw, "type %s\t%d\n", k, s.ByDataType[k])
	}
	return tw.Flush()
}

// parseWindow parses a "minLon,maxLon,minLat,maxLat" region. An empty
// string gives a nil window.
func parseWindow(s string) (*geom.Bounds, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("slstr: window %q must have 4 comma-separated values", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := cast.ToFloat64E(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("slstr: window %q: %v", s, err)
		}
		v[i] = f
	}
	if v[0] > v[1] || v[2] > v[3] {
		return nil, fmt.Errorf("slstr: window %q has minimum greater than maximum", s)
	}
	return &geom.Bounds{
		Min: geom.Point{X: v[0], Y: v[2]},
		Max: geom.Point{X: v[1], Y: v[3]},
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
