package utils

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

var errTestNotFound = errors.New("not found")

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGetUniqSubDir(t *testing.T) {
	parent := t.TempDir()
	a, err := GetUniqSubDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GetUniqSubDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	if a == b || filepath.Dir(a) != parent {
		t.Fatalf("%s, %s", a, b)
	}
	if fi, err := os.Stat(a); err != nil || !fi.IsDir() {
		t.Fatalf("%s not created: %v", a, err)
	}
}

func TestGetFilenameWithoutExt(t *testing.T) {
	if n := GetFilenameWithoutExt("/a/b/talhoes.v2.shp"); n != "talhoes.v2" {
		t.Fatal(n)
	}
}

func TestCheckExists(t *testing.T) {
	dir := t.TempDir()
	if err := CheckExists(dir, errTestNotFound); err != nil {
		t.Fatal(err)
	}
	if err := CheckExists(filepath.Join(dir, "x"), errTestNotFound); !errors.Is(err, errTestNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestListFilesByExt(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.shp", "A.SHP", "c.shx", "d.tif", "sub/e.shp"} {
		touch(t, filepath.Join(dir, n), "x")
	}
	files, err := ListFilesByExt(dir, ".shp")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "A.SHP"), filepath.Join(dir, "b.shp")}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
}

func TestMoveAndRemoveShapefile(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		touch(t, filepath.Join(src, "a"+ext), ext)
	}
	touch(t, filepath.Join(src, "other.shp"), "keep")
	if err := MoveShapefile(filepath.Join(src, "a.shp"), filepath.Join(dst, "b.shp")); err != nil {
		t.Fatal(err)
	}
	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		data, err := os.ReadFile(filepath.Join(dst, "b"+ext))
		if err != nil || string(data) != ext {
			t.Fatalf("b%s: %q %v", ext, data, err)
		}
		if _, err = os.Stat(filepath.Join(src, "a"+ext)); err == nil {
			t.Fatalf("a%s still in src", ext)
		}
	}
	if err := RemoveShapefile(filepath.Join(dst, "b.shp")); err != nil {
		t.Fatal(err)
	}
	if entries, _ := os.ReadDir(dst); len(entries) != 0 {
		t.Fatalf("left over: %v", entries)
	}
	// 不存在时忽略
	if err := RemoveShapefile(filepath.Join(dst, "b.shp")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(src, "other.shp")); err != nil {
		t.Fatal(err)
	}
}

func TestZipDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "P1.kml"), "one")
	touch(t, filepath.Join(dir, "sub", "P2.kml"), "two")
	zipPath := filepath.Join(t.TempDir(), "out.zip")
	n, err := ZipDir(dir, zipPath)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("n = %d", n)
	}
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	got := map[string]string{}
	var names []string
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		got[f.Name] = string(data)
		names = append(names, f.Name)
	}
	sort.Strings(names)
	if !reflect.DeepEqual(names, []string{"P1.kml", "sub/P2.kml"}) || got["P1.kml"] != "one" || got["sub/P2.kml"] != "two" {
		t.Fatalf("zip content %v", got)
	}
}

func TestZipDirEmpty(t *testing.T) {
	if _, err := ZipDir(t.TempDir(), filepath.Join(t.TempDir(), "x.zip")); !errors.Is(err, ErrEmptyDir) {
		t.Fatalf("expected ErrEmptyDir, got %v", err)
	}
}
