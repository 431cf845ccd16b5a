package forestgis

import (
	"errors"
	"strconv"
)

var (
	ErrGdalDriverCreate = errors.New("gdal driver create err")
	ErrGdalDriverOpen   = errors.New("gdal driver open err")
	ErrVoidCRS          = errors.New("gdal dataset with void crs")
	ErrInvalidCRS       = errors.New("invalid crs definition")
	ErrGdalTransform    = errors.New("gdal coordinate transform failed")
	ErrNotFound         = errors.New("not found")
	ErrMissingColumns   = errors.New("missing required columns")
	ErrNoFeatures       = errors.New("no feature matches the given values")
	ErrNoShapefile      = errors.New("no shp in dir")
	ErrNoVectorDataset  = errors.New("no readable vector dataset for crs reference")
	ErrEmptyTable       = errors.New("empty table")
	ErrInvalidTif       = errors.New("invalid tif")
	ErrTifReadFailed    = errors.New("tif read failed")
)

// DMS坐标字符串格式错误
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return "invalid DMS format: " + strconv.Quote(e.Value)
}
