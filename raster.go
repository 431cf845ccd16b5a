package forestgis

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/wgdzlh/forestgis/log"
	"github.com/wgdzlh/forestgis/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

var zonalStatsHeader = []string{"shapefile", "raster", "polygon_id", "min", "max", "mean", "median"}

// 单波段栅格（第一波段）
type raster struct {
	ds       gdal.Dataset
	band     gdal.RasterBand
	gt       [6]float64
	xSize    int
	ySize    int
	nodata   float64
	hasNoVal bool
	wkt      string
}

func (g *GdalToolbox) openRaster(tif string) (r *raster, err error) {
	if err = utils.CheckExists(tif, ErrNotFound); err != nil {
		return
	}
	ds, err := gdal.Open(tif, gdal.ReadOnly)
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s", ErrInvalidTif, tif)
		return
	}
	if ds.RasterCount() < 1 {
		ds.Close()
		err = fmt.Errorf("%w: %s has no band", ErrInvalidTif, tif)
		return
	}
	r = &raster{
		ds:    ds,
		band:  ds.RasterBand(1),
		gt:    ds.GeoTransform(),
		xSize: ds.RasterXSize(),
		ySize: ds.RasterYSize(),
		wkt:   ds.Projection(),
	}
	if r.gt[2] != 0 || r.gt[4] != 0 {
		ds.Close()
		err = fmt.Errorf("%w: %s is rotated", ErrInvalidTif, tif)
		return
	}
	r.nodata, r.hasNoVal = r.band.NoDataValue()
	log.Info(g.logTag+"read tif band", zap.String("tif", tif), zap.Int("width", r.xSize), zap.Int("height", r.ySize),
		zap.Float64s("geoTransform", r.gt[:]), zap.Bool("hasNodata", r.hasNoVal))
	return
}

func (r *raster) Close() {
	r.ds.Close()
}

// 面要素外包框对应的像元窗口[c0,c1)×[r0,r1)，与栅格无交集时ok为false
func (r *raster) window(env gdal.Envelope) (c0, r0, c1, r1 int, ok bool) {
	cMin := (env.MinX() - r.gt[0]) / r.gt[1]
	cMax := (env.MaxX() - r.gt[0]) / r.gt[1]
	rMin := (env.MaxY() - r.gt[3]) / r.gt[5]
	rMax := (env.MinY() - r.gt[3]) / r.gt[5]
	if cMin > cMax {
		cMin, cMax = cMax, cMin
	}
	if rMin > rMax {
		rMin, rMax = rMax, rMin
	}
	c0 = clampInt(int(math.Floor(cMin)), 0, r.xSize)
	c1 = clampInt(int(math.Ceil(cMax)), 0, r.xSize)
	r0 = clampInt(int(math.Floor(rMin)), 0, r.ySize)
	r1 = clampInt(int(math.Ceil(rMax)), 0, r.ySize)
	ok = c1 > c0 && r1 > r0
	return
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (r *raster) valid(v float64) bool {
	return !math.IsNaN(v) && !(r.hasNoVal && v == r.nodata)
}

// 统计像元中心落在面内的有效像元值
func (r *raster) cellsIn(geo gdal.Geometry) (vals []float64, err error) {
	c0, r0, c1, r1, ok := r.window(geo.Envelope())
	if !ok {
		return
	}
	w, h := c1-c0, r1-r0
	buf := make([]float64, w*h)
	if err = r.band.IO(gdal.Read, c0, r0, w, h, buf, w, h, 0, 0); err != nil {
		err = fmt.Errorf("%w: %v", ErrTifReadFailed, err)
		return
	}
	pt := gdal.Create(gdal.GT_Point)
	defer pt.Destroy()
	for y := 0; y < h; y++ {
		cy := r.gt[3] + (float64(r0+y)+0.5)*r.gt[5]
		for x := 0; x < w; x++ {
			v := buf[y*w+x]
			if !r.valid(v) {
				continue
			}
			pt.SetPoint2D(0, r.gt[0]+(float64(c0+x)+0.5)*r.gt[1], cy)
			if geo.Contains(pt) {
				vals = append(vals, v)
			}
		}
	}
	return
}

// 计算最小值、最大值、均值、中位数（偶数个时取中间两值均值），空集合均为NaN
func ComputeStats(vals []float64) (min, max, mean, median float64) {
	n := len(vals)
	if n == 0 {
		nan := math.NaN()
		return nan, nan, nan, nan
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	min, max = sorted[0], sorted[n-1]
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean = sum / float64(n)
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return
}

// 计算shp中每个面要素在tif上的分区统计（polygon_id按读取顺序从1开始）
func (g *GdalToolbox) ZonalStats(shp, tif string) (ret []ZonalStat, err error) {
	r, err := g.openRaster(tif)
	if err != nil {
		return
	}
	defer r.Close()
	ds, layer, err := openVector(shp, SHP_DRIVER_NAME, false)
	if err != nil {
		return
	}
	defer ds.Destroy()
	var tRef gdal.SpatialReference
	reproject := false
	if r.wkt != "" {
		if shpWkt, _ := layer.SpatialReference().ToWKT(); shpWkt != "" && !g.SameCRS(shpWkt, r.wkt) {
			if tRef, err = g.getRef(r.wkt); err != nil {
				return
			}
			reproject = true
			log.Info(g.logTag+"reproject polygons to raster crs", zap.String("shp", shp), zap.String("tif", tif))
		}
	}
	var (
		shpName = filepath.Base(shp)
		tifName = filepath.Base(tif)
		feature *gdal.Feature
		vals    []float64
		id      int
	)
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		id++
		if vals, err = g.polygonCells(r, feature, tRef, reproject); err != nil {
			log.Error(g.logTag+"zonal stats of polygon failed", zap.Int("polygon", id), zap.Error(err))
			return
		}
		st := ZonalStat{Shapefile: shpName, Raster: tifName, PolygonId: id, Count: len(vals)}
		st.Min, st.Max, st.Mean, st.Median = ComputeStats(vals)
		ret = append(ret, st)
	}
	log.Info(g.logTag+"zonal stats done", zap.String("shp", shpName), zap.String("tif", tifName), zap.Int("polygons", id))
	return
}

// 读取要素面内的有效像元值，必要时先将面转换到栅格坐标系
func (g *GdalToolbox) polygonCells(r *raster, feature *gdal.Feature, tRef gdal.SpatialReference, reproject bool) (vals []float64, err error) {
	gc := []destroyable{feature}
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	src := feature.Geometry()
	// 无几何或空几何的要素不含像元，统计结果为空
	if src == (gdal.Geometry{}) || src.IsEmpty() {
		log.Warn(g.logTag+"polygon without geometry", zap.Int64("fid", feature.FID()))
		return
	}
	geo := src.Clone()
	gc = append(gc, geo)
	if reproject {
		if err = geo.TransformTo(tRef); err != nil {
			return
		}
	}
	return r.cellsIn(geo)
}

// 对shpDir下每个shp与tifDir下每个tif计算分区统计
func (g *GdalToolbox) ZonalStatistics(shpDir, tifDir string) (ret []ZonalStat, err error) {
	for _, d := range []string{shpDir, tifDir} {
		if err = utils.CheckExists(d, ErrNotFound); err != nil {
			return
		}
	}
	shps, err := utils.ListFilesByExt(shpDir, FILE_EXT_SHP)
	if err != nil {
		return
	}
	tifs, err := utils.ListFilesByExt(tifDir, FILE_EXT_TIF)
	if err != nil {
		return
	}
	log.Info(g.logTag+"start zonal statistics", zap.Int("shps", len(shps)), zap.Int("tifs", len(tifs)))
	var stats []ZonalStat
	for i, shp := range shps {
		for j, tif := range tifs {
			if stats, err = g.ZonalStats(shp, tif); err != nil {
				return
			}
			ret = append(ret, stats...)
			log.Debug(g.logTag+"zonal progress", zap.Int("shp", i+1), zap.Int("tif", j+1))
		}
	}
	return
}

// 写出分区统计结果（NaN输出为空）
func WriteZonalStats(path string, stats []ZonalStat) error {
	rows := make([][]string, len(stats))
	for i, s := range stats {
		rows[i] = []string{s.Shapefile, s.Raster, strconv.Itoa(s.PolygonId),
			utils.FloatToStr(s.Min), utils.FloatToStr(s.Max), utils.FloatToStr(s.Mean), utils.FloatToStr(s.Median)}
	}
	return WriteTable(path, zonalStatsHeader, rows)
}
