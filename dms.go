package forestgis

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	dmsPattern    = regexp.MustCompile(`^(-?\d+)°(\d+)'([\d.]+)"`)
	dmsNormalizer = strings.NewReplacer("º", "°", "''", `"`)
)

// 规范化DMS符号：º转°，''转"，末尾单独的'视为秒符号
func NormalizeDms(s string) string {
	s = strings.TrimSpace(dmsNormalizer.Replace(s))
	if strings.HasSuffix(s, "'") && !strings.HasSuffix(s, `"`) {
		s = s[:len(s)-1] + `"`
	}
	return s
}

// 将D°M'S"格式字符串转为十进制度，符号取自度数部分
func ParseDms(s string) (deg float64, err error) {
	norm := NormalizeDms(s)
	m := dmsPattern.FindStringSubmatch(norm)
	if m == nil {
		err = &FormatError{Value: s}
		return
	}
	var parts [3]float64
	for i := range parts {
		if parts[i], err = strconv.ParseFloat(m[i+1], 64); err != nil {
			err = &FormatError{Value: s}
			return
		}
	}
	sign := 1.0
	if parts[0] < 0 {
		sign = -1
	}
	deg = sign * (math.Abs(parts[0]) + parts[1]/60 + parts[2]/3600)
	return
}

// 分别解析纬度、经度
func ParseDmsPair(latDms, lonDms string) (lat, lon float64, err error) {
	if lat, err = ParseDms(latDms); err != nil {
		return
	}
	lon, err = ParseDms(lonDms)
	return
}

func (r PointRecord) ToDecimal() (p DecimalPoint, err error) {
	p.Id, p.Alt = r.Id, r.Alt
	p.Lat, p.Lon, err = ParseDmsPair(r.LatDms, r.LonDms)
	return
}
