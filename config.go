package forestgis

const (
	FILE_EXT_SHP  = ".shp"
	FILE_EXT_TIF  = ".tif"
	FILE_EXT_KML  = ".kml"
	FILE_EXT_CSV  = ".csv"
	FILE_EXT_ZIP  = ".zip"
	FILE_EXT_YAML = ".yaml"

	SHAPE_ENCODING  = "UTF-8"
	SHP_DRIVER_NAME = "ESRI Shapefile"
	KML_DRIVER_NAME = "KML"
	ENCODING_OPTION = "ENCODING=" + SHAPE_ENCODING
	UNIVERSAL_SRID  = 4326
	REPROJECT_SRID  = 32721 // WGS 84 / UTM zone 21S

	UTM_PROJ4_TEMPLATE = "+proj=utm +zone=%d%s +datum=WGS84 +units=m +no_defs"
	HEMISPHERE_NORTH   = "north"
	HEMISPHERE_SOUTH   = "south"

	SEP_COMMA     = ','
	SEP_SEMICOLON = ';'
	DEFAULT_ENC   = "utf-8"
	SNIFF_SIZE    = 4096

	// 输出文件名
	KML_COORDS_CSV     = "coordenadas_para_kml.csv"
	UTM_COORDS_CSV     = "coordenadas_utm.csv"
	KML_POINTS_DIR     = "kml_points"
	KML_POINTS_LOG     = "generate_kml_points.log"
	KML_POINTS_ZIP     = "kml_individuais.zip"
	KML_FOLDER         = "kmls"
	SHP_FOLDER         = "shapefiles"
	KML_FOLDER_ZIP     = "kml_convertidos.zip"
	SHP_FOLDER_ZIP     = "shapefiles_convertidos.zip"
	ZONAL_STATS_CSV    = "estatisticas_zonais.csv"
	FILTERED_DIR       = "filtrados"
	FILTERED_SHP       = "feicoes_filtradas.shp"
	MERGED_DIR         = "shapefile_unificado"
	MERGED_SHP         = MERGED_DIR + FILE_EXT_SHP
	MERGED_ZIP         = MERGED_DIR + FILE_EXT_ZIP
	COMPOSITE_CSV      = "amostras_compostas_wide.csv"
	DEFAULT_COMPOSITES = 15
	DEFAULT_SEED       = 42

	// 字段名
	FIELD_POINT       = "ponto"
	FIELD_LATITUDE    = "latitude"
	FIELD_LONGITUDE   = "longitude"
	FIELD_ALTITUDE    = "alt"
	FIELD_NAME        = "Name"
	FIELD_DESCRIPTION = "Description"
	FIELD_SOURCE_FILE = "source_file"
	FIELD_CLASS       = "classe"
	FIELD_PREDICTOR   = "preditoras"
	FIELD_MEDIAN      = "median"
	FIELD_SAMPLE_ID   = "amostra_id"

	ErrColumnMissingTemplate = "%w: %v (available: %v)"
	NoAltitudeDescription    = "Sem altitude informada"
	AltitudeDescTemplate     = "Altitude: %s m"
)
