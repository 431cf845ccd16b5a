package forestgis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/forestgis/log"
	"github.com/wgdzlh/forestgis/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

func openVector(path, driverName string, update bool) (ds gdal.DataSource, layer gdal.Layer, err error) {
	if err = utils.CheckExists(path, ErrNotFound); err != nil {
		return
	}
	flag := 0
	if update {
		flag = 1
	}
	ds, ok := gdal.OGRDriverByName(driverName).Open(path, flag)
	if !ok {
		err = fmt.Errorf("%w: %s", ErrGdalDriverOpen, path)
		return
	}
	if ds.LayerCount() == 0 {
		ds.Destroy()
		err = fmt.Errorf("%w: %s has no layer", ErrGdalDriverOpen, path)
		return
	}
	layer = ds.LayerByIndex(0)
	return
}

func fieldNames(def gdal.FeatureDefinition) (names []string) {
	n := def.FieldCount()
	names = make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = def.FieldDefinition(i).Name()
	}
	return
}

func quoteSQLString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteSQLIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (g *GdalToolbox) vectorTranslate(out, src string, opts []string) (err error) {
	sds, err := gdal.OpenEx(src, gdal.OFVector, nil, nil, nil)
	if err != nil {
		log.Error(g.logTag+"open vector error", zap.String("src", src), zap.Error(err))
		return
	}
	defer sds.Close()
	dds, err := gdal.VectorTranslate(out, []gdal.Dataset{sds}, opts)
	if err != nil {
		log.Error(g.logTag+"VectorTranslate failed", zap.String("src", src), zap.String("out", out), zap.Strings("opts", opts), zap.Error(err))
		return
	}
	dds.Close() // 生成转换后的文件
	return
}

// 原地转换整个shp文件的坐标系（先输出到临时目录，再替换原文件）
func (g *GdalToolbox) ReprojectShapefile(shp string, tSrid int) (out string, err error) {
	out = shp
	wkt, err := g.GetShapefileCRS(shp)
	if err != nil {
		return
	}
	if g.SameCRS(wkt, tSrid) {
		log.Info(g.logTag+"shp already in target crs", zap.String("shp", shp), zap.Int("srid", tSrid))
		return
	}
	tmpDir, err := utils.GetUniqSubDir(g.tmpDir)
	if err != nil {
		return
	}
	defer os.RemoveAll(tmpDir)
	log.Info(g.logTag+"start reproject shp", zap.String("shp", shp), zap.Int("srid", tSrid))
	sds, err := gdal.OpenEx(shp, gdal.OFVector, nil, nil, nil)
	if err != nil {
		log.Error(g.logTag+"open shp error", zap.Error(err))
		return
	}
	tmp := filepath.Join(tmpDir, filepath.Base(shp))
	dds, err := gdal.VectorTranslate(tmp, []gdal.Dataset{sds}, []string{"-t_srs", fmt.Sprintf("EPSG:%d", tSrid), "-lco", ENCODING_OPTION})
	if err != nil {
		log.Error(g.logTag+"VectorTranslate failed", zap.Error(err))
		sds.Close()
		return
	}
	dds.Close() // 生成转换后的shp文件
	if e := sds.Driver().DeleteDataset(shp); e != nil {
		log.Info(g.logTag+"delete old shp failed", zap.Error(e))
	}
	sds.Close()
	if err = utils.MoveShapefile(tmp, shp); err != nil {
		return
	}
	log.Info(g.logTag+"end reproject shp", zap.String("shp", out), zap.Int("srid", tSrid))
	return
}

// 按字段值筛选shp中的要素，输出包含全部筛选要素的shp及每个值各自的shp
func (g *GdalToolbox) FilterFeatures(shp, field string, values []string, outDir string) (outs []string, err error) {
	ds, layer, err := openVector(shp, SHP_DRIVER_NAME, false)
	if err != nil {
		return
	}
	def := layer.Definition()
	fieldIdx := def.FieldIndex(field)
	if fieldIdx < 0 {
		err = fmt.Errorf(ErrColumnMissingTemplate, ErrMissingColumns, []string{field}, fieldNames(def))
		ds.Destroy()
		return
	}
	var (
		counts  = make(map[string]int, len(values))
		feature *gdal.Feature
		total   int
	)
	for _, v := range values {
		counts[v] = 0
	}
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		v := feature.FieldAsString(fieldIdx)
		if n, ok := counts[v]; ok {
			counts[v] = n + 1
			total++
		}
		feature.Destroy()
	}
	ds.Destroy()
	if total == 0 {
		err = fmt.Errorf("%w: %s in %v", ErrNoFeatures, field, values)
		return
	}
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(shp), FILTERED_DIR)
	}
	if err = os.MkdirAll(outDir, os.ModePerm); err != nil {
		return
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteSQLString(v)
	}
	where := fmt.Sprintf("%s IN (%s)", quoteSQLIdent(field), strings.Join(quoted, ","))
	out := filepath.Join(outDir, FILTERED_SHP)
	opts := []string{"-f", SHP_DRIVER_NAME, "-where", where, "-lco", ENCODING_OPTION, "-overwrite"}
	if err = g.vectorTranslate(out, shp, opts); err != nil {
		return
	}
	outs = append(outs, out)
	log.Info(g.logTag+"filtered shp created", zap.String("shp", out), zap.Int("features", total))
	for _, v := range values {
		if counts[v] == 0 {
			log.Warn(g.logTag+"value not found in field", zap.String("field", field), zap.String("value", v))
			continue
		}
		out = filepath.Join(outDir, v+FILE_EXT_SHP)
		where = fmt.Sprintf("%s = %s", quoteSQLIdent(field), quoteSQLString(v))
		opts = []string{"-f", SHP_DRIVER_NAME, "-where", where, "-lco", ENCODING_OPTION, "-overwrite"}
		if err = g.vectorTranslate(out, shp, opts); err != nil {
			return
		}
		outs = append(outs, out)
		log.Info(g.logTag+"value shp created", zap.String("shp", out), zap.Int("features", counts[v]))
	}
	return
}

// 合并目录下所有shp为一个shp（增加source_file字段记录来源），坐标系统一为第一个shp的坐标系，并打包输出目录
func (g *GdalToolbox) MergeShapefiles(dir string) (out, zipPath string, err error) {
	if err = utils.CheckExists(dir, ErrNotFound); err != nil {
		return
	}
	shps, err := utils.ListFilesByExt(dir, FILE_EXT_SHP)
	if err != nil {
		return
	}
	if len(shps) == 0 {
		err = fmt.Errorf("%w: %s", ErrNoShapefile, dir)
		return
	}
	outDir := filepath.Join(dir, MERGED_DIR)
	if err = os.MkdirAll(outDir, os.ModePerm); err != nil {
		return
	}
	refWkt, err := g.GetShapefileCRS(shps[0])
	if err != nil {
		return
	}
	out = filepath.Join(outDir, MERGED_SHP)
	log.Info(g.logTag+"start merge shp", zap.Int("count", len(shps)), zap.String("out", out))
	for i, shp := range shps {
		base := filepath.Base(shp)
		sql := fmt.Sprintf("SELECT *, %s AS %s FROM %s", quoteSQLString(base), FIELD_SOURCE_FILE,
			quoteSQLIdent(utils.GetFilenameWithoutExt(shp)))
		opts := []string{"-dialect", "SQLite", "-sql", sql, "-nln", MERGED_DIR, "-t_srs", refWkt}
		if i == 0 {
			opts = append(opts, "-f", SHP_DRIVER_NAME, "-lco", ENCODING_OPTION, "-overwrite")
		} else {
			opts = append(opts, "-update", "-addfields")
		}
		if err = g.vectorTranslate(out, shp, opts); err != nil {
			return
		}
		log.Info(g.logTag+"shp merged", zap.String("shp", base))
	}
	zipPath = filepath.Join(dir, MERGED_ZIP)
	if _, err = utils.ZipDir(outDir, zipPath); err != nil {
		return
	}
	log.Info(g.logTag+"end merge shp", zap.String("out", out), zap.String("zip", zipPath))
	return
}

// 复制KML的第一个图层为shp，并将Name字段统一设为文件名
func (g *GdalToolbox) KmlToShapefile(kml, shp string) (err error) {
	sds, sLayer, err := openVector(kml, KML_DRIVER_NAME, false)
	if err != nil {
		return
	}
	defer sds.Destroy()
	ref := sLayer.SpatialReference()
	if wkt, _ := ref.ToWKT(); wkt == "" {
		if ref, err = g.getSridRef(UNIVERSAL_SRID); err != nil {
			return
		}
	}
	sDef := sLayer.Definition()
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	if err = utils.RemoveShapefile(shp); err != nil {
		return
	}
	ds, ok := driver.Create(shp, nil)
	if !ok {
		err = fmt.Errorf("%w: %s", ErrGdalDriverCreate, shp)
		return
	}
	defer ds.Destroy() // 生成shp文件 + 释放资源
	layer := ds.CreateLayer(utils.GetFilenameWithoutExt(shp), ref, sDef.GeometryType(), []string{ENCODING_OPTION})
	// shp字段名最长10个字符，按创建顺序记录源字段到目标字段的下标映射
	fieldMap := make([]int, sDef.FieldCount())
	for i := range fieldMap {
		before := layer.Definition().FieldCount()
		if err = layer.CreateField(sDef.FieldDefinition(i), true); err != nil {
			return
		}
		fieldMap[i] = -1
		if n := layer.Definition().FieldCount(); n > before {
			fieldMap[i] = n - 1
		}
	}
	def := layer.Definition()
	if def.FieldIndex(FIELD_NAME) < 0 {
		fd := gdal.CreateFieldDefinition(FIELD_NAME, gdal.FT_String)
		fd.SetWidth(254)
		err = layer.CreateField(fd, false)
		fd.Destroy()
		if err != nil {
			return
		}
		def = layer.Definition()
	}
	var (
		name    = utils.GetFilenameWithoutExt(kml)
		nameIdx = def.FieldIndex(FIELD_NAME)
		sf      *gdal.Feature
		feature gdal.Feature
		cnt     int
		e       error
	)
	for {
		if sf = sLayer.NextFeature(); sf == nil {
			break
		}
		feature = def.Create()
		if e = feature.SetFromWithMap(*sf, 1, fieldMap); e != nil {
			log.Error(g.logTag+"err in copy feature", zap.Int64("fid", sf.FID()), zap.Error(e))
		} else {
			feature.SetFieldString(nameIdx, name)
			if e = layer.Create(feature); e != nil {
				log.Error(g.logTag+"err in create feature of layer", zap.Error(e))
			} else {
				cnt++
			}
		}
		feature.Destroy()
		sf.Destroy()
	}
	log.Info(g.logTag+"kml converted to shp", zap.String("kml", kml), zap.String("shp", shp), zap.Int("features", cnt))
	return
}

func (g *GdalToolbox) ShapefileToKml(shp, kml string) (err error) {
	err = g.vectorTranslate(kml, shp, []string{"-f", KML_DRIVER_NAME, "-overwrite"})
	if err == nil {
		log.Info(g.logTag+"shp converted to kml", zap.String("shp", shp), zap.String("kml", kml))
	}
	return
}

// 转换目录下所有KML为shp（输出至shapefiles/），所有shp为KML（输出至kmls/），并分别打包
func (g *GdalToolbox) ConvertFolder(base string) (shps, kmls []string, err error) {
	if err = os.MkdirAll(base, os.ModePerm); err != nil {
		return
	}
	kmlDir := filepath.Join(base, KML_FOLDER)
	shpDir := filepath.Join(base, SHP_FOLDER)
	for _, d := range []string{kmlDir, shpDir} {
		if err = os.MkdirAll(d, os.ModePerm); err != nil {
			return
		}
	}
	kmlFiles, err := utils.ListFilesByExt(base, FILE_EXT_KML)
	if err != nil {
		return
	}
	log.Info(g.logTag+"kml files found", zap.Int("count", len(kmlFiles)))
	for _, kml := range kmlFiles {
		out := filepath.Join(shpDir, utils.GetFilenameWithoutExt(kml)+FILE_EXT_SHP)
		if err = g.KmlToShapefile(kml, out); err != nil {
			return
		}
		shps = append(shps, out)
	}
	if len(kmlFiles) > 0 {
		g.zipFolder(shpDir, filepath.Join(base, SHP_FOLDER_ZIP))
	}
	shpFiles, err := utils.ListFilesByExt(base, FILE_EXT_SHP)
	if err != nil {
		return
	}
	log.Info(g.logTag+"shp files found", zap.Int("count", len(shpFiles)))
	for _, shp := range shpFiles {
		out := filepath.Join(kmlDir, utils.GetFilenameWithoutExt(shp)+FILE_EXT_KML)
		if err = g.ShapefileToKml(shp, out); err != nil {
			return
		}
		kmls = append(kmls, out)
	}
	if len(shpFiles) > 0 {
		g.zipFolder(kmlDir, filepath.Join(base, KML_FOLDER_ZIP))
	}
	return
}

func (g *GdalToolbox) zipFolder(dir, zipPath string) {
	n, err := utils.ZipDir(dir, zipPath)
	if err != nil {
		log.Warn(g.logTag+"zip folder skipped", zap.String("dir", dir), zap.Error(err))
		return
	}
	log.Info(g.logTag+"folder zipped", zap.String("dir", dir), zap.String("zip", zipPath), zap.Int("files", n))
}
