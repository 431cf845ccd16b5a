package utils

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	UTF8  = "UTF8"
	UTF_8 = "UTF-8"
)

func StrToInt(s string) int {
	if s == "" {
		return 0
	}
	i, _ := strconv.Atoi(s)
	return i
}

// 解析浮点数，空串返回NaN
func StrToFloatOrNaN(s string) (f float64, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		f = math.NaN()
		return
	}
	f, err = strconv.ParseFloat(s, 64)
	return
}

// 格式化浮点数，NaN输出为空串
func FloatToStr(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// 返回group中缺失的sub元素
func Missing(group, sub []string) (miss []string) {
	set := make(map[string]struct{}, len(group))
	for _, a := range group {
		set[a] = struct{}{}
	}
	for _, s := range sub {
		if _, ok := set[s]; !ok {
			miss = append(miss, s)
		}
	}
	return
}

// 按字节统计特征检测文本编码，失败时返回fallback
func DetectEncoding(sample []byte, fallback string) string {
	if len(sample) == 0 {
		return fallback
	}
	ret, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || ret == nil || ret.Charset == "" {
		return fallback
	}
	return ret.Charset
}

// 根据首行中分号与逗号的数量推断分隔符
func DetectSeparator(firstLine string) rune {
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}

// 获取编码对应的解码器，未知编码按UTF-8处理（并去除BOM）
func GetDecoder(enc string) *encoding.Decoder {
	switch strings.ToUpper(enc) {
	case "", UTF8, UTF_8, "ASCII", "US-ASCII":
		return unicode.UTF8BOM.NewDecoder()
	}
	e, err := htmlindex.Get(enc)
	if err != nil {
		// chardet给出的名称如GB-18030，htmlindex中为gb18030
		e, err = htmlindex.Get(strings.ReplaceAll(enc, "-", ""))
	}
	if err != nil || e == nil {
		return unicode.UTF8BOM.NewDecoder()
	}
	return e.NewDecoder()
}

// 将任意编码的文本转为UTF-8
func ToUtf8Reader(r io.Reader, enc string) io.Reader {
	return transform.NewReader(r, GetDecoder(enc))
}

func ToUtf8(s []byte, enc string) (d []byte, e error) {
	d, e = io.ReadAll(ToUtf8Reader(bytes.NewReader(s), enc))
	return
}

// 获取文本首行（不含换行）
func FirstLine(s []byte) string {
	if i := bytes.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(string(s), "\r")
}
