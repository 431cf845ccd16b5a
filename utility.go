package forestgis

import (
	"fmt"
	"math"
)

const (
	utmZoneWidth = 6
	utmMaxZone   = 60
)

// 由经度计算UTM分带号：(经度+180)/6 取整 + 1，限定在1~60
func UTMZone(lon float64) int {
	zone := int(math.Floor((lon+180)/utmZoneWidth)) + 1
	if zone < 1 {
		zone = 1
	} else if zone > utmMaxZone {
		zone = utmMaxZone
	}
	return zone
}

func Hemisphere(lat float64) string {
	if lat >= 0 {
		return HEMISPHERE_NORTH
	}
	return HEMISPHERE_SOUTH
}

func UTMProj4(zone int, hemisphere string) string {
	south := ""
	if hemisphere == HEMISPHERE_SOUTH {
		south = " +south"
	}
	return fmt.Sprintf(UTM_PROJ4_TEMPLATE, zone, south)
}

// UTM分带对应的EPSG编码（WGS84：北半球326xx，南半球327xx）
func UTMEpsg(zone int, hemisphere string) int {
	if hemisphere == HEMISPHERE_SOUTH {
		return 32700 + zone
	}
	return 32600 + zone
}
