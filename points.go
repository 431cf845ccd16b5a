package forestgis

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/wgdzlh/forestgis/log"
	"github.com/wgdzlh/forestgis/utils"

	"go.uber.org/zap"
)

// DMS坐标文件的列（按位置），至少需要前三列
var PointColumns = []string{"point_id", "lat_dms", "lon_dms", "altitude", "sigma_lat", "sigma_lon", "sigma_alt"}

const minPointColumns = 3

var (
	kmlCoordsHeader = []string{FIELD_POINT, FIELD_LATITUDE, FIELD_LONGITUDE, FIELD_ALTITUDE}
	utmCoordsHeader = []string{FIELD_POINT, "utm_zone", "utm_hemisphere", "utm_easting", "utm_northing", FIELD_ALTITUDE}
)

// 读取DMS坐标文件（自动检测编码与分隔符），列按位置对应PointColumns
func ReadPointRecords(path string) (recs []PointRecord, err error) {
	t, err := ReadTable(path, 0)
	if err != nil {
		return
	}
	if len(t.Header) < minPointColumns {
		err = fmt.Errorf(ErrColumnMissingTemplate, ErrMissingColumns, PointColumns, t.Header)
		return
	}
	recs = make([]PointRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		recs = append(recs, PointRecord{
			Id:       Cell(row, 0),
			LatDms:   Cell(row, 1),
			LonDms:   Cell(row, 2),
			Alt:      Cell(row, 3),
			SigmaLat: Cell(row, 4),
			SigmaLon: Cell(row, 5),
			SigmaAlt: Cell(row, 6),
		})
	}
	return
}

// 将DMS坐标转换为十进制度及UTM坐标，遇到格式错误的坐标即终止
func (g *GdalToolbox) ConvertPoints(recs []PointRecord) (dec []DecimalPoint, utm []UTMPoint, err error) {
	dec = make([]DecimalPoint, len(recs))
	utm = make([]UTMPoint, len(recs))
	for i, r := range recs {
		if dec[i], err = r.ToDecimal(); err != nil {
			log.Error(g.logTag+"parse dms failed", zap.String("point", r.Id), zap.Error(err))
			return
		}
		if utm[i], err = g.ProjectPoint(dec[i]); err != nil {
			return
		}
	}
	return
}

// 转换DMS坐标文件，输出十进制度（供KML使用）和UTM两个csv文件；outDir为空时输出到输入文件所在目录
func (g *GdalToolbox) ConvertDmsFile(path, outDir string) (kmlCsv, utmCsv string, err error) {
	log.Info(g.logTag+"start convert dms file", zap.String("path", path))
	recs, err := ReadPointRecords(path)
	if err != nil {
		return
	}
	dec, utm, err := g.ConvertPoints(recs)
	if err != nil {
		return
	}
	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	kmlCsv = filepath.Join(outDir, KML_COORDS_CSV)
	utmCsv = filepath.Join(outDir, UTM_COORDS_CSV)
	rows := make([][]string, len(dec))
	for i, p := range dec {
		rows[i] = []string{p.Id, utils.FloatToStr(p.Lat), utils.FloatToStr(p.Lon), p.Alt}
	}
	if err = WriteTable(kmlCsv, kmlCoordsHeader, rows); err != nil {
		return
	}
	for i, p := range utm {
		rows[i] = []string{p.Id, strconv.Itoa(p.Zone), p.Hemisphere, utils.FloatToStr(p.Easting), utils.FloatToStr(p.Northing), p.Alt}
	}
	if err = WriteTable(utmCsv, utmCoordsHeader, rows); err != nil {
		return
	}
	log.Info(g.logTag+"end convert dms file", zap.Int("points", len(recs)), zap.Ints("utmEpsg", utmEpsgCodes(utm)),
		zap.String("kmlCsv", kmlCsv), zap.String("utmCsv", utmCsv))
	return
}

// 点集所涉及的UTM分带EPSG编码（按出现顺序去重）
func utmEpsgCodes(pts []UTMPoint) (codes []int) {
	seen := map[int]bool{}
	for _, p := range pts {
		if c := UTMEpsg(p.Zone, p.Hemisphere); !seen[c] {
			seen[c] = true
			codes = append(codes, c)
		}
	}
	return
}
