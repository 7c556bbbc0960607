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

package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ningaloo-research/slstr/productid"
)

const (
	wstA = "S3A_SL_2_WST____20230101T014500_20230101T032600_20230102T141513_6059_094_117______MAR_O_NT_003"
	wstB = "S3B_SL_2_WST____20230105T120000_20230105T134000_20230106T101010_6000_075_020______MAR_O_NT_003"
	rbtA = "S3A_SL_1_RBT____20221231T000000_20221231T001000_20221231T003000_0180_001_218_0123_MAR_O_NR_002"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insert(t *testing.T, db *DB, name, path string) {
	t.Helper()
	id, err := productid.Decode(name)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Insert(id, path); err != nil {
		t.Fatal(err)
	}
}

func TestInsertQuery(t *testing.T) {
	db := openTest(t)
	insert(t, db, wstB, "/data/b")
	insert(t, db, wstA, "/data/a")
	insert(t, db, rbtA, "/data/r")

	all, err := db.Query(QueryParams{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("have %d products, want 3", len(all))
	}
	// Ordered by sensing start.
	if all[0].Name != rbtA || all[1].Name != wstA || all[2].Name != wstB {
		t.Errorf("order: %s, %s, %s", all[0].Name, all[1].Name, all[2].Name)
	}
	a := all[1]
	if a.Mission != "S3A" || a.DataType != "WST" || a.Level != "2" || a.Timeliness != "NT" ||
		a.Center != "MAR" || a.Baseline != "003" || a.Orbit != "117" || a.Cycle != "094" {
		t.Errorf("product: %+v", a)
	}
	if !a.SensingStart.Equal(time.Date(2023, 1, 1, 1, 45, 0, 0, time.UTC)) {
		t.Errorf("sensing start: %v", a.SensingStart)
	}

	tests := []struct {
		name string
		p    QueryParams
		want int
	}{
		{name: "mission", p: QueryParams{Mission: "S3B"}, want: 1},
		{name: "data type", p: QueryParams{DataType: "WST"}, want: 2},
		{name: "since", p: QueryParams{Since: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}, want: 2},
		{name: "until", p: QueryParams{Until: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)}, want: 2},
		{name: "limit", p: QueryParams{Limit: 1}, want: 1},
		{name: "none", p: QueryParams{Mission: "S3C"}, want: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			have, err := db.Query(test.p)
			if err != nil {
				t.Fatal(err)
			}
			if len(have) != test.want {
				t.Errorf("have %d products, want %d", len(have), test.want)
			}
		})
	}
}

func TestInsertReplaces(t *testing.T) {
	db := openTest(t)
	insert(t, db, wstA, "/old")
	insert(t, db, wstA, "/new")
	all, err := db.Query(QueryParams{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Path != "/new" {
		t.Errorf("products: %+v", all)
	}
}

func TestStats(t *testing.T) {
	db := openTest(t)
	insert(t, db, wstA, "/a")
	insert(t, db, wstB, "/b")
	insert(t, db, rbtA, "/r")
	s, err := db.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if s.Total != 3 || s.ByMission["S3A"] != 2 || s.ByDataType["WST"] != 2 || s.ByDataType["RBT"] != 1 {
		t.Errorf("stats: %+v", s)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{
		filepath.Join("2023", "01", wstA+".SEN3", "sub.SEN3"),
		filepath.Join("2023", "01", wstB+".SEN3"),
		filepath.Join("2023", "bad", "S3A_SL_2_WST.SEN3"),
		filepath.Join("2023", "other"),
	} {
		if err := os.MkdirAll(filepath.Join(root, dir), os.ModePerm); err != nil {
			t.Fatal(err)
		}
	}
	db := openTest(t)
	n, err := Scan(db, root)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("have %d products added, want 2", n)
	}
	all, err := db.Query(QueryParams{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Path != filepath.Join(root, "2023", "01", wstA+".SEN3") {
		t.Errorf("products: %+v", all)
	}
	if _, err := Scan(db, filepath.Join(root, "missing")); err == nil {
		t.Error("missing root should fail")
	}
}
