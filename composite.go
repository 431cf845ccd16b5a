package forestgis

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/wgdzlh/forestgis/log"
	"github.com/wgdzlh/forestgis/utils"

	"go.uber.org/zap"
)

// 读取组合样本输入（分号分隔，需含classe、preditoras、median列）
func ReadSampleRows(path string) (rows []SampleRow, err error) {
	t, err := ReadTable(path, SEP_SEMICOLON)
	if err != nil {
		return
	}
	idx, err := t.Require(FIELD_CLASS, FIELD_PREDICTOR, FIELD_MEDIAN)
	if err != nil {
		return
	}
	rows = make([]SampleRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = SampleRow{Class: Cell(r, idx[0]), Predictor: Cell(r, idx[1])}
		if rows[i].Median, err = utils.StrToFloatOrNaN(Cell(r, idx[2])); err != nil {
			err = fmt.Errorf("row %d: %s: %w", i+2, FIELD_MEDIAN, err)
			return
		}
	}
	return
}

// 将n个元素划分为k块的各块长度，前n%k块多一个元素
func SplitSizes(n, k int) []int {
	sizes := make([]int, k)
	for i := range sizes {
		sizes[i] = n / k
		if i < n%k {
			sizes[i]++
		}
	}
	return sizes
}

func meanSkipNaN(vs []float64) float64 {
	var (
		sum float64
		cnt int
	)
	for _, v := range vs {
		if !math.IsNaN(v) {
			sum += v
			cnt++
		}
	}
	if cnt == 0 {
		return math.NaN()
	}
	return sum / float64(cnt)
}

func uniqueInOrder(rows []SampleRow, key func(SampleRow) string) (keys []string) {
	seen := map[string]struct{}{}
	for _, r := range rows {
		k := key(r)
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return
}

// 生成组合样本：每个类别、每个预测变量的行随机打乱（固定种子）后分为n块，
// 第i块median的均值作为该类别第i个组合样本的该预测变量值
func GenerateCompositeSamples(rows []SampleRow, n int, seed int64) (samples []CompositeSample, predictors []string) {
	if n <= 0 {
		n = DEFAULT_COMPOSITES
	}
	classes := uniqueInOrder(rows, func(r SampleRow) string { return r.Class })
	predictors = uniqueInOrder(rows, func(r SampleRow) string { return r.Predictor })
	samples = make([]CompositeSample, 0, len(classes)*n)
	for _, class := range classes {
		base := len(samples)
		for i := 0; i < n; i++ {
			samples = append(samples, CompositeSample{SampleId: i + 1, Class: class, Values: map[string]float64{}})
		}
		for _, pred := range predictors {
			var vals []float64
			for _, r := range rows {
				if r.Class == class && r.Predictor == pred {
					vals = append(vals, r.Median)
				}
			}
			rnd := rand.New(rand.NewSource(seed))
			rnd.Shuffle(len(vals), func(i, j int) { vals[i], vals[j] = vals[j], vals[i] })
			off := 0
			for i, size := range SplitSizes(len(vals), n) {
				samples[base+i].Values[pred] = meanSkipNaN(vals[off : off+size])
				off += size
			}
		}
	}
	sort.Strings(predictors)
	return
}

// 写出宽表：amostra_id,classe,<按名称排序的预测变量>
func WriteCompositeSamples(path string, samples []CompositeSample, predictors []string) error {
	header := append([]string{FIELD_SAMPLE_ID, FIELD_CLASS}, predictors...)
	rows := make([][]string, len(samples))
	for i, s := range samples {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(s.SampleId), s.Class)
		for _, p := range predictors {
			v, ok := s.Values[p]
			if !ok {
				v = math.NaN()
			}
			row = append(row, utils.FloatToStr(v))
		}
		rows[i] = row
	}
	return WriteTable(path, header, rows)
}

// 读取输入文件生成组合样本，输出至输入文件所在目录
func CompositeSamplesFile(path string, n int, seed int64) (out string, err error) {
	rows, err := ReadSampleRows(path)
	if err != nil {
		return
	}
	samples, preds := GenerateCompositeSamples(rows, n, seed)
	out = filepath.Join(filepath.Dir(path), COMPOSITE_CSV)
	if err = WriteCompositeSamples(out, samples, preds); err != nil {
		return
	}
	log.Info("composite samples generated", zap.Int("rows", len(rows)), zap.Int("samples", len(samples)),
		zap.Strings("predictors", preds), zap.String("out", out))
	return
}
