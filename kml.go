package forestgis

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wgdzlh/forestgis/log"
	"github.com/wgdzlh/forestgis/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

var kmlPointColumns = []string{FIELD_POINT, FIELD_LATITUDE, FIELD_LONGITUDE, FIELD_ALTITUDE}

// 单点KML的描述文字
func AltitudeDescription(alt string) string {
	if alt = strings.TrimSpace(alt); alt == "" {
		return NoAltitudeDescription
	}
	return fmt.Sprintf(AltitudeDescTemplate, alt)
}

// 将单个点写为KML文件
func (g *GdalToolbox) WritePointKml(path string, p DecimalPoint) (err error) {
	ref, err := g.getSridRef(UNIVERSAL_SRID)
	if err != nil {
		return
	}
	if _, e := os.Stat(path); e == nil {
		if err = os.Remove(path); err != nil {
			return
		}
	}
	ds, ok := gdal.OGRDriverByName(KML_DRIVER_NAME).Create(path, nil)
	if !ok {
		err = fmt.Errorf("%w: %s", ErrGdalDriverCreate, path)
		return
	}
	defer ds.Destroy() // 生成kml文件 + 释放资源
	layer := ds.CreateLayer(p.Id, ref, gdal.GT_Point, nil)
	for _, name := range []string{FIELD_NAME, FIELD_DESCRIPTION} {
		if layer.Definition().FieldIndex(name) >= 0 {
			continue
		}
		fd := gdal.CreateFieldDefinition(name, gdal.FT_String)
		err = layer.CreateField(fd, false)
		fd.Destroy()
		if err != nil {
			return
		}
	}
	def := layer.Definition()
	feature := def.Create()
	defer feature.Destroy()
	feature.SetFieldString(def.FieldIndex(FIELD_NAME), p.Id)
	feature.SetFieldString(def.FieldIndex(FIELD_DESCRIPTION), AltitudeDescription(p.Alt))
	geo := gdal.Create(gdal.GT_Point)
	geo.SetPoint2D(0, p.Lon, p.Lat)
	if err = feature.SetGeometryDirectly(geo); err != nil {
		log.Error(g.logTag+"err in set geom of feature", zap.Error(err))
		return
	}
	if err = layer.Create(feature); err != nil {
		log.Error(g.logTag+"err in create feature of layer", zap.Error(err))
	}
	return
}

func parsePointRow(row []string, idx []int) (p DecimalPoint, err error) {
	p.Id = Cell(row, idx[0])
	if p.Id == "" {
		err = fmt.Errorf("empty %s", FIELD_POINT)
		return
	}
	if p.Lat, err = strconv.ParseFloat(Cell(row, idx[1]), 64); err != nil {
		return
	}
	if p.Lon, err = strconv.ParseFloat(Cell(row, idx[2]), 64); err != nil {
		return
	}
	p.Alt = Cell(row, idx[3])
	return
}

// 按十进制度坐标文件为每个点生成单独的KML文件，逐点记录日志，单点失败不影响其余点，最后打包输出目录。
// outDir、logFile为空时分别使用输入文件目录下的kml_points及generate_kml_points.log
func (g *GdalToolbox) GenerateKmlPoints(csvPath, outDir, logFile string) (ok, failed int, zipPath string, err error) {
	if err = utils.CheckExists(csvPath, ErrNotFound); err != nil {
		return
	}
	baseDir := filepath.Dir(csvPath)
	if outDir == "" {
		outDir = filepath.Join(baseDir, KML_POINTS_DIR)
	}
	if logFile == "" {
		logFile = filepath.Join(baseDir, KML_POINTS_LOG)
	}
	if err = os.MkdirAll(outDir, os.ModePerm); err != nil {
		return
	}
	rl, err := log.OpenRunLog(logFile)
	if err != nil {
		return
	}
	defer rl.Close()
	rl.Log("=== Início do processamento ===")
	rl.Log("Arquivo de entrada: " + csvPath)

	t, err := ReadTable(csvPath, 0)
	if err != nil {
		rl.Log("ERRO: " + err.Error())
		return
	}
	rl.Log("Encoding detectado: " + t.Encoding)
	rl.Log(fmt.Sprintf("Separador detectado: '%c'", t.Sep))
	idx, err := t.Require(kmlPointColumns...)
	if err != nil {
		rl.Log("ERRO: " + err.Error())
		return
	}
	rl.Log(fmt.Sprintf("Colunas detectadas: %v", t.Header))
	rl.Log("Gerando KMLs na pasta: " + outDir)

	for i, row := range t.Rows {
		p, e := parsePointRow(row, idx)
		if e == nil {
			e = g.WritePointKml(filepath.Join(outDir, p.Id+FILE_EXT_KML), p)
		}
		if e != nil {
			failed++
			name := Cell(row, idx[0])
			if name == "" {
				name = "sem_nome"
			}
			rl.Log(fmt.Sprintf("ERRO em %s: %v", name, e))
			log.Warn(g.logTag+"kml point failed", zap.Int("row", i+1), zap.String("point", name), zap.Error(e))
			continue
		}
		ok++
		rl.Log("SUCESSO: " + p.Id + FILE_EXT_KML)
	}

	zipPath = filepath.Join(baseDir, KML_POINTS_ZIP)
	if _, e := utils.ZipDir(outDir, zipPath); e != nil {
		log.Warn(g.logTag+"zip kml points failed", zap.String("dir", outDir), zap.Error(e))
		rl.Log("ERRO na compactação: " + e.Error())
		zipPath = ""
	} else {
		rl.Log("Compactação concluída: " + zipPath)
	}
	rl.Log(fmt.Sprintf("KMLs gerados: %d | Falhas: %d", ok, failed))
	rl.Log("=== Fim do processamento ===")
	log.Info(g.logTag+"kml points generated", zap.Int("ok", ok), zap.Int("failed", failed), zap.String("log", logFile))
	return
}
