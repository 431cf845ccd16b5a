package forestgis

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/wgdzlh/forestgis/log"
	"github.com/wgdzlh/forestgis/utils"

	"go.uber.org/zap"
)

// 分隔符文本表格（首行为表头）
type Table struct {
	Encoding string
	Sep      rune
	Header   []string
	Rows     [][]string
}

// 读取分隔符文本文件，sep为0时按首行自动推断分隔符；编码自动检测
func ReadTable(path string, sep rune) (t Table, err error) {
	if err = utils.CheckExists(path, ErrNotFound); err != nil {
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	t.Encoding = detectEncoding(raw)
	data, err := utils.ToUtf8(raw, t.Encoding)
	if err != nil {
		return
	}
	t.Sep = sep
	if t.Sep == 0 {
		t.Sep = utils.DetectSeparator(utils.FirstLine(data))
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = t.Sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		err = fmt.Errorf("read %s: %w", path, err)
		return
	}
	if len(records) == 0 {
		err = fmt.Errorf("%w: %s", ErrEmptyTable, path)
		return
	}
	t.Header = make([]string, len(records[0]))
	for i, h := range records[0] {
		t.Header[i] = strings.TrimSpace(h)
	}
	t.Rows = records[1:]
	log.Info("read table", zap.String("path", path), zap.String("encoding", t.Encoding),
		zap.String("sep", string(t.Sep)), zap.Strings("columns", t.Header), zap.Int("rows", len(t.Rows)))
	return
}

func detectEncoding(raw []byte) string {
	if utf8.Valid(raw) {
		return utils.UTF_8
	}
	sample := raw
	if len(sample) > SNIFF_SIZE {
		sample = sample[:SNIFF_SIZE]
	}
	return utils.DetectEncoding(sample, DEFAULT_ENC)
}

func (t Table) Index(col string) int {
	for i, h := range t.Header {
		if h == col {
			return i
		}
	}
	return -1
}

// 获取必需列的下标，缺失时返回ErrMissingColumns
func (t Table) Require(cols ...string) (idx []int, err error) {
	if miss := utils.Missing(t.Header, cols); len(miss) > 0 {
		err = fmt.Errorf(ErrColumnMissingTemplate, ErrMissingColumns, cols, t.Header)
		return
	}
	idx = make([]int, len(cols))
	for i, c := range cols {
		idx[i] = t.Index(c)
	}
	return
}

// 取行中的字段，越界时为空串
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// 写出逗号分隔的UTF-8文本
func WriteTable(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer func() {
		if e := f.Close(); err == nil {
			err = e
		}
	}()
	w := csv.NewWriter(f)
	if err = w.Write(header); err != nil {
		return
	}
	if err = w.WriteAll(rows); err != nil {
		return
	}
	log.Info("table written", zap.String("path", path), zap.Int("rows", len(rows)))
	return
}
