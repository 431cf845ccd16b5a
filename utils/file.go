package utils

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyDir = errors.New("nothing to zip in dir")
)

// shp文件组的各附属文件扩展名
var shpSidecars = []string{".shp", ".shx", ".dbf", ".prj", ".cpg", ".qix", ".sbn", ".sbx"}

func GetUniqSubDir(parentPath string) (path string, err error) {
	if parentPath == "" {
		parentPath = os.TempDir()
	}
	path = filepath.Join(parentPath, uuid.NewString())
	err = os.Mkdir(path, os.ModePerm)
	return
}

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 文件或目录不存在时返回包装后的notFound错误
func CheckExists(path string, notFound error) (err error) {
	if _, e := os.Stat(path); e != nil {
		if errors.Is(e, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", notFound, path)
		} else {
			err = e
		}
	}
	return
}

// 列出目录下指定扩展名的文件（不递归，扩展名不区分大小写，按文件名排序）
func ListFilesByExt(dir, ext string) (files []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return
}

// 移动shp文件组（.shp/.shx/.dbf/.prj等）到dst（dst为目标.shp路径）
func MoveShapefile(src, dst string) (err error) {
	srcPrefix := strings.TrimSuffix(src, filepath.Ext(src))
	dstPrefix := strings.TrimSuffix(dst, filepath.Ext(dst))
	for _, ext := range shpSidecars {
		if _, e := os.Stat(srcPrefix + ext); e != nil {
			continue
		}
		if err = os.Rename(srcPrefix+ext, dstPrefix+ext); err != nil {
			return
		}
	}
	return
}

// 删除shp文件组，文件不存在时忽略
func RemoveShapefile(shp string) (err error) {
	prefix := strings.TrimSuffix(shp, filepath.Ext(shp))
	for _, ext := range shpSidecars {
		if e := os.Remove(prefix + ext); e != nil && !errors.Is(e, fs.ErrNotExist) {
			return e
		}
	}
	return
}

// 将目录内的文件打包为zip（不含目录本身），目录为空时返回ErrEmptyDir
func ZipDir(dir, zipPath string) (n int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	if len(entries) == 0 {
		err = ErrEmptyDir
		return
	}
	out, err := os.Create(zipPath)
	if err != nil {
		return
	}
	defer func() {
		if e := out.Close(); err == nil {
			err = e
		}
	}()
	zw := zip.NewWriter(out)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, e error) error {
		if e != nil {
			return e
		}
		if d.IsDir() {
			return nil
		}
		rel, e := filepath.Rel(dir, path)
		if e != nil {
			return e
		}
		w, e := zw.Create(filepath.ToSlash(rel))
		if e != nil {
			return e
		}
		f, e := os.Open(path)
		if e != nil {
			return e
		}
		defer f.Close()
		if _, e = io.Copy(w, f); e != nil {
			return e
		}
		n++
		return nil
	})
	if err != nil {
		zw.Close()
		return
	}
	err = zw.Close()
	return
}
