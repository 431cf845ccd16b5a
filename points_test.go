package forestgis

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

const testDmsCsv = "Ponto;Latitude;Longitude;Altitude;SigmaLat;SigmaLon;SigmaAlt\n" +
	"P1;-25°30'0\";-54°36'0\";210.5;0.01;0.02;0.03\n" +
	"P2;-25º31'12'';-54º37'48'';;;;\n"

func TestReadPointRecords(t *testing.T) {
	in := filepath.Join(t.TempDir(), "pontos.csv")
	if err := os.WriteFile(in, []byte(testDmsCsv), 0o644); err != nil {
		t.Fatal(err)
	}
	recs, err := ReadPointRecords(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	want := PointRecord{Id: "P1", LatDms: `-25°30'0"`, LonDms: `-54°36'0"`, Alt: "210.5", SigmaLat: "0.01", SigmaLon: "0.02", SigmaAlt: "0.03"}
	if recs[0] != want {
		t.Fatalf("got %+v", recs[0])
	}
	if recs[1].Alt != "" || recs[1].LatDms != `-25º31'12''` {
		t.Fatalf("got %+v", recs[1])
	}
}

func TestReadPointRecordsTooFewColumns(t *testing.T) {
	in := filepath.Join(t.TempDir(), "pontos.csv")
	if err := os.WriteFile(in, []byte("a;b\n1;2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPointRecords(in); !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
}

func TestConvertDmsFile(t *testing.T) {
	g := newTestToolbox(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "pontos.csv")
	if err := os.WriteFile(in, []byte(testDmsCsv), 0o644); err != nil {
		t.Fatal(err)
	}
	kmlCsv, utmCsv, err := g.ConvertDmsFile(in, "")
	if err != nil {
		t.Fatal(err)
	}
	if kmlCsv != filepath.Join(dir, KML_COORDS_CSV) || utmCsv != filepath.Join(dir, UTM_COORDS_CSV) {
		t.Fatalf("outputs %s, %s", kmlCsv, utmCsv)
	}

	kt, err := ReadTable(kmlCsv, 0)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := kt.Require(FIELD_POINT, FIELD_LATITUDE, FIELD_LONGITUDE, FIELD_ALTITUDE)
	if err != nil {
		t.Fatal(err)
	}
	wants := []struct {
		id       string
		lat, lon float64
		alt      string
	}{
		{"P1", -25.5, -54.6, "210.5"},
		{"P2", -(25 + 31.0/60 + 12.0/3600), -(54 + 37.0/60 + 48.0/3600), ""},
	}
	for i, w := range wants {
		r := kt.Rows[i]
		lat, _ := strconv.ParseFloat(Cell(r, idx[1]), 64)
		lon, _ := strconv.ParseFloat(Cell(r, idx[2]), 64)
		if Cell(r, idx[0]) != w.id || math.Abs(lat-w.lat) > 1e-9 || math.Abs(lon-w.lon) > 1e-9 || Cell(r, idx[3]) != w.alt {
			t.Fatalf("#%d: decimal row = %v", i, r)
		}
	}

	ut, err := ReadTable(utmCsv, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(ut.Rows) != 2 || Cell(ut.Rows[0], ut.Index("utm_zone")) != "21" || Cell(ut.Rows[0], ut.Index("utm_hemisphere")) != HEMISPHERE_SOUTH {
		t.Fatalf("utm rows = %v", ut.Rows)
	}
}

func TestConvertDmsFileMalformed(t *testing.T) {
	g := newTestToolbox(t)
	in := filepath.Join(t.TempDir(), "pontos.csv")
	if err := os.WriteFile(in, []byte("id;lat;lon\nP1;25.5;-54°36'0\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := g.ConvertDmsFile(in, "")
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Value != "25.5" {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestUtmEpsgCodes(t *testing.T) {
	pts := []UTMPoint{
		{Zone: 21, Hemisphere: HEMISPHERE_SOUTH},
		{Zone: 22, Hemisphere: HEMISPHERE_SOUTH},
		{Zone: 21, Hemisphere: HEMISPHERE_SOUTH},
		{Zone: 31, Hemisphere: HEMISPHERE_NORTH},
	}
	if c := utmEpsgCodes(pts); len(c) != 3 || c[0] != 32721 || c[1] != 32722 || c[2] != 32631 {
		t.Fatalf("codes = %v", c)
	}
}
