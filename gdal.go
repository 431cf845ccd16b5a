package forestgis

import (
	"fmt"
	"strings"
	"sync"

	"github.com/wgdzlh/forestgis/log"
	"github.com/wgdzlh/forestgis/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

type GdalToolbox struct {
	refMap map[string]gdal.SpatialReference
	ctMap  map[ctKey]gdal.CoordinateTransform
	rLock  sync.Mutex
	tLock  sync.Mutex
	tmpDir string
	logTag string
}

// 由GDAL库C语言创建的内存对象，需要手动调用Destroy回收
type destroyable interface {
	Destroy()
}

// 初始化GDAL工具箱，tmpDir为可选的临时目录路径（未提供的话为系统临时目录）
func NewGdalToolbox(tmpDir ...string) *GdalToolbox {
	g := &GdalToolbox{
		refMap: map[string]gdal.SpatialReference{},
		ctMap:  map[ctKey]gdal.CoordinateTransform{},
		logTag: "GdalToolbox:",
	}
	if len(tmpDir) > 0 && tmpDir[0] != "" {
		g.tmpDir = tmpDir[0]
	}
	return g
}

// 释放缓存的坐标系及坐标转换对象
func (g *GdalToolbox) Close() {
	g.tLock.Lock()
	for k, ct := range g.ctMap {
		ct.Destroy()
		delete(g.ctMap, k)
	}
	g.tLock.Unlock()
	g.rLock.Lock()
	for k, ref := range g.refMap {
		ref.Destroy()
		delete(g.refMap, k)
	}
	g.rLock.Unlock()
}

// 获取srid对应的坐标系（可复用，故无需回收）
func (g *GdalToolbox) getSridRef(srid int) (ref gdal.SpatialReference, err error) {
	return g.getRef(fmt.Sprintf("EPSG:%d", srid))
}

// 获取任意定义（EPSG:xxxx、proj字符串、WKT等）对应的坐标系（可复用，故无需回收）
func (g *GdalToolbox) getRef(def string) (ref gdal.SpatialReference, err error) {
	def = strings.TrimSpace(def)
	if def == "" {
		err = ErrInvalidCRS
		return
	}
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[def]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if e := ref.SetFromUserInput(def); e != nil {
		log.Error(g.logTag+"set ref from definition failed", zap.String("def", def), zap.Error(e))
		ref.Destroy()
		err = fmt.Errorf("%w: %s", ErrInvalidCRS, def)
		return
	}
	// 数据轴次序固定为(经度,纬度)（传统GIS坐标序），否则坐标转换时可能出现次序倒置
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[def] = ref
	return
}

// 获取shp的坐标系WKT
func (g *GdalToolbox) GetShapefileCRS(shp string) (wkt string, err error) {
	if err = utils.CheckExists(shp, ErrNotFound); err != nil {
		return
	}
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = fmt.Errorf("%w: %s", ErrGdalDriverOpen, shp)
		return
	}
	defer ds.Destroy()
	if ds.LayerCount() == 0 {
		err = fmt.Errorf("%w: %s", ErrVoidCRS, shp)
		return
	}
	wkt, _ = ds.LayerByIndex(0).SpatialReference().ToWKT()
	if wkt == "" {
		err = fmt.Errorf("%w: %s", ErrVoidCRS, shp)
		return
	}
	log.Debug(g.logTag+"got crs of shp", zap.String("shp", shp), zap.String("wkt", wkt))
	return
}

// 获取栅格（tif）的坐标系WKT
func (g *GdalToolbox) GetRasterCRS(tif string) (wkt string, err error) {
	if err = utils.CheckExists(tif, ErrNotFound); err != nil {
		return
	}
	ds, err := gdal.Open(tif, gdal.ReadOnly)
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s", ErrInvalidTif, tif)
		return
	}
	defer ds.Close()
	if wkt = ds.Projection(); wkt == "" {
		err = fmt.Errorf("%w: %s", ErrVoidCRS, tif)
		return
	}
	log.Debug(g.logTag+"got crs of tif", zap.String("tif", tif), zap.String("wkt", wkt))
	return
}

// 获取坐标系的EPSG编码（无法识别时为0）
func (g *GdalToolbox) EpsgOf(def string) (code int) {
	ref, err := g.getRef(def)
	if err != nil {
		return
	}
	return epsgOfRef(ref)
}

func epsgOfRef(ref gdal.SpatialReference) (code int) {
	node := "GEOGCS"
	if ref.IsProjected() {
		node = "PROJCS"
	}
	if ref.AuthorityName(node) != "EPSG" {
		return
	}
	code = utils.StrToInt(ref.AuthorityCode(node))
	return
}
