package forestgis

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestReadTable(t *testing.T) {
	tts := []struct {
		name    string
		data    []byte
		sep     rune
		header  []string
		firstRw []string
	}{
		{"comma", []byte("a,b,c\n1,2,3\n"), ',', []string{"a", "b", "c"}, []string{"1", "2", "3"}},
		{"semicolon", []byte("a;b;c\n1,5;2;3\n"), ';', []string{"a", "b", "c"}, []string{"1,5", "2", "3"}},
		{"bom", append([]byte("\xef\xbb\xbf"), "ponto;alt\r\nP1;10\r\n"...), ';', []string{"ponto", "alt"}, []string{"P1", "10"}},
		{"ragged", []byte("a,b\n1\n"), ',', []string{"a", "b"}, []string{"1"}},
		{"padded header", []byte(" a , b\n1,2\n"), ',', []string{"a", "b"}, []string{"1", "2"}},
	}
	for i, tt := range tts {
		tb, err := ReadTable(writeTestFile(t, tt.name+".csv", tt.data), 0)
		if err != nil {
			t.Fatalf("#%d %s: %v", i, tt.name, err)
		}
		if tb.Sep != tt.sep || !reflect.DeepEqual(tb.Header, tt.header) || !reflect.DeepEqual(tb.Rows[0], tt.firstRw) {
			t.Fatalf("#%d %s: got sep %q header %v row %v", i, tt.name, tb.Sep, tb.Header, tb.Rows[0])
		}
	}
}

func TestReadTableExplicitSep(t *testing.T) {
	// 首行逗号多于分号，但指定了分号
	tb, err := ReadTable(writeTestFile(t, "x.csv", []byte("a,x;b\n1;2\n")), SEP_SEMICOLON)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tb.Header, []string{"a,x", "b"}) {
		t.Fatalf("header %v", tb.Header)
	}
}

func TestReadTableLatin1(t *testing.T) {
	// "coordenação;altitude\nP1;10\n"，重复多行便于编码检测
	line := []byte("coordena\xe7\xe3o;altitude\n")
	var data []byte
	data = append(data, line...)
	for i := 0; i < 20; i++ {
		data = append(data, []byte("Ponto de observa\xe7\xe3o na regi\xe3o;10\n")...)
	}
	tb, err := ReadTable(writeTestFile(t, "latin1.csv", data), 0)
	if err != nil {
		t.Fatal(err)
	}
	if tb.Encoding == "UTF-8" {
		t.Fatal("invalid utf-8 input must go through detection")
	}
	if tb.Sep != ';' || len(tb.Header) != 2 || tb.Header[1] != "altitude" {
		t.Fatalf("got sep %q header %v", tb.Sep, tb.Header)
	}
}

func TestReadTableErrors(t *testing.T) {
	if _, err := ReadTable(filepath.Join(t.TempDir(), "missing.csv"), 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := ReadTable(writeTestFile(t, "empty.csv", nil), 0); !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("expected ErrEmptyTable, got %v", err)
	}
}

func TestTableRequire(t *testing.T) {
	tb := Table{Header: []string{"ponto", "latitude", "longitude"}}
	idx, err := tb.Require("longitude", "ponto")
	if err != nil || !reflect.DeepEqual(idx, []int{2, 0}) {
		t.Fatalf("idx %v, err %v", idx, err)
	}
	if _, err = tb.Require("ponto", "alt"); !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
}

func TestCell(t *testing.T) {
	row := []string{" a ", "b"}
	if Cell(row, 0) != "a" || Cell(row, 2) != "" || Cell(row, -1) != "" {
		t.Fatal("unexpected cell values")
	}
}
