package forestgis

// DMS坐标点记录
type PointRecord struct {
	Id       string
	LatDms   string
	LonDms   string
	Alt      string // 原样保留，可为空
	SigmaLat string
	SigmaLon string
	SigmaAlt string
}

// 十进制度坐标
type DecimalPoint struct {
	Id  string
	Lat float64
	Lon float64
	Alt string
}

type UTMPoint struct {
	Id         string
	Zone       int
	Hemisphere string // north/south
	Easting    float64
	Northing   float64
	Alt        string
}

type DatasetKind string

const (
	KindVector DatasetKind = "vector"
	KindRaster DatasetKind = "raster"
)

// 数据集的坐标系信息
type DatasetCRS struct {
	Path string
	Kind DatasetKind
	CRS  string // WKT
	Err  error  // 打开失败时的错误
}

type CRSEntry struct {
	File string `yaml:"file"`
	CRS  string `yaml:"crs"`
}

type FailedEntry struct {
	File  string `yaml:"file"`
	Error string `yaml:"error"`
}

// 坐标系一致性检查结果
type CompatReport struct {
	ReferenceFile  string        `yaml:"reference_file"`
	ReferenceCRS   string        `yaml:"reference_crs"`
	VectorMismatch []CRSEntry    `yaml:"vector_mismatch"`
	RasterMismatch []CRSEntry    `yaml:"raster_mismatch"`
	Failed         []FailedEntry `yaml:"failed"`
	CheckedVectors int           `yaml:"checked_vectors"`
	CheckedRasters int           `yaml:"checked_rasters"`
}

// 单个面要素在单个栅格上的分区统计
type ZonalStat struct {
	Shapefile string
	Raster    string
	PolygonId int
	Count     int
	Min       float64
	Max       float64
	Mean      float64
	Median    float64
}

// 组合样本输入行
type SampleRow struct {
	Class     string
	Predictor string
	Median    float64
}

// 宽表格式的组合样本
type CompositeSample struct {
	SampleId int
	Class    string
	Values   map[string]float64 // predictor -> 均值
}
