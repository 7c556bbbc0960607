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

package slstrutil

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ningaloo-research/slstr"
	"github.com/ningaloo-research/slstr/catalog"
	"github.com/sirupsen/logrus"
)

const (
	wstA = "S3A_SL_2_WST____20230101T014500_20230101T032600_20230102T141513_6059_094_117______MAR_O_NT_003"
	wstB = "S3B_SL_2_WST____20230105T120000_20230105T134000_20230106T101010_6000_075_020______MAR_O_NT_003"
)

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Root.SetArgs(args)
	err := Root.Execute()
	return buf.String(), err
}

// product writes a SAFE directory holding one small L2P file and returns
// its path.
func product(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), wstA+".SEN3")
	if err := os.Mkdir(dir, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	const fill = -32768
	type ncVar struct {
		name  string
		dims  []string
		data  interface{}
		attrs map[string]interface{}
	}
	packed := func(scale, offset float64, units string) map[string]interface{} {
		return map[string]interface{}{
			"_FillValue":   []int16{fill},
			"add_offset":   []float64{offset},
			"scale_factor": []float64{scale},
			"units":        units,
		}
	}
	vars := []ncVar{
		{"time", []string{"time"}, []int32{1325376000},
			map[string]interface{}{"units": "seconds since 1981-01-01 00:00:00"}},
		{"lat", []string{"nj", "ni"}, []float32{-22, -22, -22, -23, -23, -23}, nil},
		{"lon", []string{"nj", "ni"}, []float32{113, 114, 115, 113, 114, 115}, nil},
		{"sea_surface_temperature", []string{"time", "nj", "ni"},
			[]int16{1000, 1100, fill, 1200, 1300, 1400}, packed(0.01, 273.15, "kelvin")},
		{"sst_dtime", []string{"time", "nj", "ni"},
			[]int16{0, 4, fill, 8, 12, fill}, packed(0.25, 0, "second")},
		{"quality_level", []string{"time", "nj", "ni"}, []uint8{5, 4, 0, 3, 1, 4}, nil},
	}
	h := cdf.NewHeader([]string{"time", "nj", "ni"}, []int{1, 2, 3})
	for _, v := range vars {
		h.AddVariable(v.name, v.dims, v.data)
		for _, k := range []string{"_FillValue", "add_offset", "scale_factor", "units"} {
			if a, ok := v.attrs[k]; ok {
				h.AddAttribute(v.name, k, a)
			}
		}
	}
	h.AddAttribute("", "start_time", "20230101T000000Z")
	h.Define()

	f, err := os.Create(filepath.Join(dir, "L2P.nc"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	nc, err := cdf.Create(f, h)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range vars {
		if _, err := nc.Writer(v.name, nil, nil).Write(v.data); err != nil && err != io.EOF {
			t.Fatalf("writing %s: %v", v.name, err)
		}
	}
	return dir
}

func TestVersion(t *testing.T) {
	Cfg.Set("config", "")
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if want := "slstr v" + slstr.Version + "\n"; out != want {
		t.Errorf("have %q, want %q", out, want)
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slstr.toml")
	if err := os.WriteFile(path, []byte("LogLevel = \"warn\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	defer logrus.SetLevel(logrus.InfoLevel)
	Cfg.Set("config", path)
	defer Cfg.Set("config", "")
	if _, err := run(t, "version"); err != nil {
		t.Fatal(err)
	}
	if logrus.GetLevel() != logrus.WarnLevel {
		t.Errorf("log level: %v", logrus.GetLevel())
	}

	Cfg.Set("config", filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := run(t, "version"); err == nil {
		t.Error("missing configuration file should fail")
	}

	Cfg.Set("config", "")
	Cfg.Set("LogLevel", "loud")
	defer Cfg.Set("LogLevel", "info")
	if _, err := run(t, "version"); err == nil {
		t.Error("invalid log level should fail")
	}
}

func TestDecode(t *testing.T) {
	Cfg.Set("config", "")
	Cfg.Set("validate", true)
	out, err := run(t, "decode", wstA, wstB)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"S3A", "S3B", "20230101T014500", "MAR", "valid"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
	if strings.Contains(out, "invalid") {
		t.Errorf("unexpected validation failure:\n%s", out)
	}

	bad := strings.Replace(wstA, "20230101T014500", "20231301T014500", 1)
	out, err = run(t, "decode", bad)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "invalid") {
		t.Errorf("bad month should fail validation:\n%s", out)
	}

	if _, err := run(t, "decode", "S3A_SL_2_WST"); err == nil {
		t.Error("short identifier should fail")
	}
	Cfg.Set("validate", false)
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in   string
		want *geom.Bounds
		err  bool
	}{
		{in: "", want: nil},
		{in: "  ", want: nil},
		{
			in:   "110, 120,-30,-20",
			want: &geom.Bounds{Min: geom.Point{X: 110, Y: -30}, Max: geom.Point{X: 120, Y: -20}},
		},
		{in: "110,120,-30", err: true},
		{in: "110,120,-30,x", err: true},
		{in: "120,110,-30,-20", err: true},
	}
	for _, test := range tests {
		have, err := parseWindow(test.in)
		if test.err {
			if err == nil {
				t.Errorf("%q: expected an error", test.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", test.in, err)
			continue
		}
		if (have == nil) != (test.want == nil) || (have != nil && *have != *test.want) {
			t.Errorf("%q: have %v, want %v", test.in, have, test.want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := product(t)
	Cfg.Set("config", "")
	Cfg.Set("Pattern", "*.nc")
	Cfg.Set("TimeDeltaVariable", "sst_dtime")
	out, err := run(t, "load", dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"files", "nj=2", "sea_surface_temperature", "5/6", "sst_dtime (corrected)", "4/6"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}

	if _, err := run(t, "load", filepath.Join(dir, "missing")); err == nil {
		t.Error("missing directory should fail")
	}
}

func readDataFile(t *testing.T, path string) *slstr.DataFile {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var f slstr.DataFile
	if err := json.Unmarshal(b, &f); err != nil {
		t.Fatal(err)
	}
	return &f
}

func TestExport(t *testing.T) {
	dir := product(t)
	out := filepath.Join(t.TempDir(), "sst.json")
	Cfg.Set("config", "")
	Cfg.Set("Pattern", "*.nc")
	Cfg.Set("TimeDeltaVariable", "sst_dtime")
	Cfg.Set("OutputFile", out)
	defer Cfg.Set("OutputFile", "")

	t.Run("all", func(t *testing.T) {
		Cfg.Set("Variable", "sea_surface_temperature")
		Cfg.Set("Window", "")
		if _, err := run(t, "export", dir); err != nil {
			t.Fatal(err)
		}
		f := readDataFile(t, out)
		if f.Parameter != "sea_surface_temperature" || f.Count != 5 || len(f.Data) != 5 {
			t.Errorf("parameter %q, count %d, %d points", f.Parameter, f.Count, len(f.Data))
		}
	})
	t.Run("window", func(t *testing.T) {
		Cfg.Set("Variable", "sea_surface_temperature")
		Cfg.Set("Window", "113.5,114.5,-23.5,-21.5")
		defer Cfg.Set("Window", "")
		if _, err := run(t, "export", dir); err != nil {
			t.Fatal(err)
		}
		f := readDataFile(t, out)
		if f.Count != 2 {
			t.Fatalf("count: %d", f.Count)
		}
		for _, p := range f.Data {
			if p.Lng != 114 {
				t.Errorf("point outside window: %+v", p)
			}
		}
	})
	t.Run("time delta", func(t *testing.T) {
		Cfg.Set("Variable", "sst_dtime")
		Cfg.Set("Window", "")
		if _, err := run(t, "export", dir); err != nil {
			t.Fatal(err)
		}
		f := readDataFile(t, out)
		if f.Count != 4 {
			t.Fatalf("count: %d", f.Count)
		}
		want := []float64{0, 1, 2, 3}
		for i, p := range f.Data {
			if p.Value != want[i] {
				t.Errorf("point %d: have %g, want %g", i, p.Value, want[i])
			}
		}
	})
	t.Run("bad window", func(t *testing.T) {
		Cfg.Set("Variable", "sea_surface_temperature")
		Cfg.Set("Window", "1,2")
		defer Cfg.Set("Window", "")
		if _, err := run(t, "export", dir); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestPlot(t *testing.T) {
	dir := product(t)
	out := filepath.Join(t.TempDir(), "sst.png")
	Cfg.Set("config", "")
	Cfg.Set("Pattern", "*.nc")
	Cfg.Set("TimeDeltaVariable", "sst_dtime")
	Cfg.Set("Variable", "sea_surface_temperature")
	Cfg.Set("Window", "")
	Cfg.Set("VMin", 0.0)
	Cfg.Set("VMax", 0.0)
	Cfg.Set("GridStep", 1.0)
	Cfg.Set("OutputFile", out)
	defer Cfg.Set("OutputFile", "")
	if _, err := run(t, "plot", dir); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() == 0 {
		t.Error("empty image")
	}

	Cfg.Set("Variable", "no_such_variable")
	if _, err := run(t, "plot", dir); err == nil {
		t.Error("missing variable should fail")
	}
}

func TestCatalog(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{wstA, wstB, "not_a_product"} {
		if err := os.MkdirAll(filepath.Join(root, "2023", name+".SEN3"), os.ModePerm); err != nil {
			t.Fatal(err)
		}
	}
	Cfg.Set("config", "")
	Cfg.Set("CatalogFile", filepath.Join(t.TempDir(), "catalog.db"))
	defer Cfg.Set("CatalogFile", "")

	out, err := run(t, "catalog", "scan", root)
	if err != nil {
		t.Fatal(err)
	}
	if out != "added 2 products\n" {
		t.Errorf("scan: %q", out)
	}

	Cfg.Set("Mission", "S3B")
	Cfg.Set("DataType", "")
	Cfg.Set("Limit", 0)
	out, err = run(t, "catalog", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2023-01-05T12:00:00Z") || strings.Contains(out, "2023-01-01T01:45:00Z") {
		t.Errorf("list:\n%s", out)
	}
	Cfg.Set("Mission", "")

	out, err = run(t, "catalog", "stats")
	if err != nil {
		t.Fatal(err)
	}
	norm := strings.Join(strings.Fields(out), " ")
	for _, s := range []string{"products 2", "mission S3A 1", "mission S3B 1"} {
		if !strings.Contains(norm, s) {
			t.Errorf("stats missing %q:\n%s", s, out)
		}
	}
}

func TestDownload(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"xfdumanifest.xml", "L2P.nc"} {
		w, err := zw.Create(wstA + ".SEN3/" + name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(name))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if key, secret, ok := r.BasicAuth(); !ok || key != "key" || secret != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})
	mux.HandleFunc("/products/p1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Write(buf.Bytes())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tmp := t.TempDir()
	creds := filepath.Join(tmp, "credentials.txt")
	if err := os.WriteFile(creds, []byte("EUMETSAT\nuser\nkey\nsecret\n"), 0600); err != nil {
		t.Fatal(err)
	}
	opts := DownloadOptions{
		Credentials: creds,
		URL:         srv.URL,
		Dir:         filepath.Join(tmp, "downloads"),
		Archive:     "file://" + filepath.Join(tmp, "archive"),
		CatalogFile: filepath.Join(tmp, "catalog.db"),
	}
	Cfg.Set("config", "")
	Cfg.Set("Credentials", opts.Credentials)
	Cfg.Set("DataStoreURL", opts.URL)
	Cfg.Set("DownloadDir", opts.Dir)
	Cfg.Set("Archive", opts.Archive)
	Cfg.Set("CatalogFile", opts.CatalogFile)
	defer func() {
		Cfg.Set("Archive", "")
		Cfg.Set("CatalogFile", "")
	}()

	out, err := run(t, "download", srv.URL+"/products/p1")
	if err != nil {
		t.Fatal(err)
	}
	safe := filepath.Join(opts.Dir, wstA+".SEN3")
	if out != safe+"\n" {
		t.Errorf("have %q, want %q", out, safe)
	}
	if _, err := os.Stat(filepath.Join(tmp, "archive", wstA+".SEN3", "L2P.nc")); err != nil {
		t.Errorf("archived copy: %v", err)
	}

	db, err := catalog.Open(opts.CatalogFile)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	products, err := db.Query(catalog.QueryParams{})
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 || products[0].Name != wstA || products[0].Path != safe {
		t.Errorf("catalog: %+v", products)
	}

	opts.Credentials = filepath.Join(tmp, "missing.txt")
	if _, err := Download(context.Background(), srv.URL+"/products/p1", opts); err == nil {
		t.Error("missing credentials should fail")
	}
}
