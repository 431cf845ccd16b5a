package forestgis

import (
	"fmt"

	"github.com/wgdzlh/forestgis/log"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

type ctKey struct {
	zone    int
	south   bool
	inverse bool
}

// 获取WGS84经纬度与UTM分带之间的坐标转换（可复用，故无需回收）
func (g *GdalToolbox) getUTMTransform(zone int, hemisphere string, inverse bool) (ct gdal.CoordinateTransform, err error) {
	key := ctKey{zone: zone, south: hemisphere == HEMISPHERE_SOUTH, inverse: inverse}
	if ct, ok := g.ctMap[key]; ok {
		return ct, nil
	}
	geoRef, err := g.getSridRef(UNIVERSAL_SRID)
	if err != nil {
		return
	}
	utmRef, err := g.getRef(UTMProj4(zone, hemisphere))
	if err != nil {
		return
	}
	if inverse {
		ct = gdal.CreateCoordinateTransform(utmRef, geoRef)
	} else {
		ct = gdal.CreateCoordinateTransform(geoRef, utmRef)
	}
	g.ctMap[key] = ct
	return
}

func (g *GdalToolbox) transformPoint(zone int, hemisphere string, inverse bool, x, y float64) (tx, ty float64, err error) {
	g.tLock.Lock()
	defer g.tLock.Unlock()
	ct, err := g.getUTMTransform(zone, hemisphere, inverse)
	if err != nil {
		return
	}
	xs, ys, zs := []float64{x}, []float64{y}, []float64{0}
	if !ct.Transform(1, xs, ys, zs) {
		log.Error(g.logTag+"utm transform failed", zap.Int("zone", zone), zap.String("hemisphere", hemisphere),
			zap.Bool("inverse", inverse), zap.Float64("x", x), zap.Float64("y", y))
		err = fmt.Errorf("%w: (%f, %f) zone %d %s", ErrGdalTransform, x, y, zone, hemisphere)
		return
	}
	tx, ty = xs[0], ys[0]
	return
}

// 将WGS84经纬度投影为UTM坐标，分带由经度决定，南北半球由纬度决定
func (g *GdalToolbox) ToUTM(lat, lon float64) (p UTMPoint, err error) {
	p.Zone = UTMZone(lon)
	p.Hemisphere = Hemisphere(lat)
	p.Easting, p.Northing, err = g.transformPoint(p.Zone, p.Hemisphere, false, lon, lat)
	return
}

// ToUTM的逆变换
func (g *GdalToolbox) FromUTM(zone int, hemisphere string, easting, northing float64) (lat, lon float64, err error) {
	lon, lat, err = g.transformPoint(zone, hemisphere, true, easting, northing)
	return
}

func (g *GdalToolbox) ProjectPoint(p DecimalPoint) (u UTMPoint, err error) {
	if u, err = g.ToUTM(p.Lat, p.Lon); err != nil {
		return
	}
	u.Id, u.Alt = p.Id, p.Alt
	return
}
