package forestgis

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/forestgis/log"
	"github.com/wgdzlh/forestgis/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// 判断两个坐标系描述是否相同。
// 描述可为EPSG编码（int）、任意坐标系定义字符串、DatasetCRS或已解析的gdal.SpatialReference。
// 先直接比较，不同时再解析为坐标系对象比较（IsSame、EPSG编码、proj4串）；无法解析的描述视为不同。
func (g *GdalToolbox) SameCRS(a, b any) bool {
	if directEqual(a, b) {
		return true
	}
	ra, err := g.toRef(a)
	if err != nil {
		log.Warn(g.logTag+"crs not comparable", zap.Any("crs", a), zap.Error(err))
		return false
	}
	rb, err := g.toRef(b)
	if err != nil {
		log.Warn(g.logTag+"crs not comparable", zap.Any("crs", b), zap.Error(err))
		return false
	}
	if ra.IsSame(rb) {
		return true
	}
	if ca := identifyEpsg(ra); ca != 0 && ca == identifyEpsg(rb) {
		return true
	}
	pa, ea := ra.ToProj4()
	pb, eb := rb.ToProj4()
	return ea == nil && eb == nil && pa != "" && normalizeDef(pa) == normalizeDef(pb)
}

var errUnsupportedCRS = errors.New("unsupported crs descriptor")

func (g *GdalToolbox) toRef(d any) (ref gdal.SpatialReference, err error) {
	switch v := d.(type) {
	case int:
		return g.getSridRef(v)
	case string:
		return g.getRef(v)
	case DatasetCRS:
		if v.Err != nil {
			err = v.Err
			return
		}
		return g.getRef(v.CRS)
	case gdal.SpatialReference:
		ref = v
	case *gdal.SpatialReference:
		if v == nil {
			err = errUnsupportedCRS
			return
		}
		ref = *v
	default:
		err = fmt.Errorf("%w: %T", errUnsupportedCRS, d)
	}
	return
}

func directEqual(a, b any) bool {
	switch va := a.(type) {
	case int:
		vb, ok := b.(int)
		return ok && va == vb
	case string:
		vb, ok := b.(string)
		return ok && va != "" && normalizeDef(va) == normalizeDef(vb)
	case DatasetCRS:
		vb, ok := b.(DatasetCRS)
		return ok && va.Err == nil && vb.Err == nil && va.CRS != "" && normalizeDef(va.CRS) == normalizeDef(vb.CRS)
	case gdal.SpatialReference:
		vb, ok := b.(gdal.SpatialReference)
		return ok && va == vb
	}
	return false
}

// 坐标系的EPSG编码，无权威信息时尝试自动识别（在副本上进行）
func identifyEpsg(ref gdal.SpatialReference) (code int) {
	if code = epsgOfRef(ref); code != 0 {
		return
	}
	c := ref.Clone()
	defer c.Destroy()
	if c.AutoIdentifyEPSG() == nil {
		code = epsgOfRef(c)
	}
	return
}

func normalizeDef(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// 以第一个可读的矢量数据坐标系为基准，检查其余矢量和栅格数据的坐标系是否一致
func (g *GdalToolbox) CheckCompatibility(vectors, rasters []DatasetCRS) (rep CompatReport, err error) {
	refIdx := -1
	for i, v := range vectors {
		if v.Err == nil {
			refIdx = i
			break
		}
	}
	if refIdx < 0 {
		err = ErrNoVectorDataset
		return
	}
	ref := vectors[refIdx]
	rep.ReferenceFile = ref.Path
	rep.ReferenceCRS = ref.CRS
	classify := func(ds []DatasetCRS, skip int, mismatch *[]CRSEntry, checked *int) {
		for i, d := range ds {
			if i == skip {
				continue
			}
			if d.Err != nil {
				rep.Failed = append(rep.Failed, FailedEntry{File: d.Path, Error: d.Err.Error()})
				log.Warn(g.logTag+"dataset failed to open", zap.String("file", d.Path), zap.Error(d.Err))
				continue
			}
			*checked++
			if !g.SameCRS(ref, d) {
				*mismatch = append(*mismatch, CRSEntry{File: d.Path, CRS: d.CRS})
				log.Info(g.logTag+"crs mismatch", zap.String("kind", string(d.Kind)), zap.String("file", d.Path), zap.String("crs", d.CRS))
			}
		}
	}
	classify(vectors, refIdx, &rep.VectorMismatch, &rep.CheckedVectors)
	classify(rasters, -1, &rep.RasterMismatch, &rep.CheckedRasters)
	log.Info(g.logTag+"crs compatibility checked", zap.String("reference", rep.ReferenceFile), zap.String("referenceCrs", rep.ReferenceCRS),
		zap.Int("vectors", rep.CheckedVectors), zap.Int("rasters", rep.CheckedRasters),
		zap.Int("vectorMismatch", len(rep.VectorMismatch)), zap.Int("rasterMismatch", len(rep.RasterMismatch)),
		zap.Int("failed", len(rep.Failed)))
	return
}

// 扫描目录下的shp和tif，读取坐标系并检查一致性
func (g *GdalToolbox) CheckFolderCRS(dir string) (rep CompatReport, err error) {
	shps, err := utils.ListFilesByExt(dir, FILE_EXT_SHP)
	if err != nil {
		return
	}
	tifs, err := utils.ListFilesByExt(dir, FILE_EXT_TIF)
	if err != nil {
		return
	}
	vectors := make([]DatasetCRS, len(shps))
	for i, p := range shps {
		vectors[i] = DatasetCRS{Path: p, Kind: KindVector}
		vectors[i].CRS, vectors[i].Err = g.GetShapefileCRS(p)
	}
	rasters := make([]DatasetCRS, len(tifs))
	for i, p := range tifs {
		rasters[i] = DatasetCRS{Path: p, Kind: KindRaster}
		rasters[i].CRS, rasters[i].Err = g.GetRasterCRS(p)
	}
	return g.CheckCompatibility(vectors, rasters)
}

// 输出可读的检查摘要
func (r CompatReport) Summary(w io.Writer) (err error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Reference file: %s\n", filepath.Base(r.ReferenceFile))
	fmt.Fprintf(&sb, "Reference CRS: %s\n", r.ReferenceCRS)
	writeEntries := func(title string, es []CRSEntry) {
		fmt.Fprintf(&sb, "%s (%d):\n", title, len(es))
		for _, e := range es {
			fmt.Fprintf(&sb, "  - %s: %s\n", filepath.Base(e.File), e.CRS)
		}
	}
	writeEntries("Vector files with different CRS", r.VectorMismatch)
	writeEntries("Raster files with different CRS", r.RasterMismatch)
	fmt.Fprintf(&sb, "Files that failed to open (%d):\n", len(r.Failed))
	for _, f := range r.Failed {
		fmt.Fprintf(&sb, "  - %s: %s\n", filepath.Base(f.File), f.Error)
	}
	if r.Compatible() {
		sb.WriteString("All datasets share the reference CRS.\n")
	}
	_, err = io.WriteString(w, sb.String())
	return
}

func (r CompatReport) Compatible() bool {
	return len(r.VectorMismatch) == 0 && len(r.RasterMismatch) == 0 && len(r.Failed) == 0
}

// 将检查结果写为YAML文件
func (r CompatReport) WriteYAML(path string) (err error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return
	}
	err = os.WriteFile(path, data, 0o644)
	return
}
