package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wgdzlh/forestgis"
	"github.com/wgdzlh/forestgis/log"
)

var (
	rootCmd = &cobra.Command{
		Use:               "forestgis",
		Short:             "Geospatial helpers for forestry field work (CRS, DMS/UTM, KML, shapefiles, zonal stats).",
		PersistentPreRunE: setup,
		SilenceUsage:      true,
	}
	flagConfig   string
	flagLogLevel string
	flagOutDir   string
	flagLogFile  string
	flagReport   string
	flagField    string
	flagValues   []string
	flagSamples  int
	flagSeed     int64
	flagEPSG     int
	flagZonalOut string
	flagTifDir   string

	cfg *Config
	tb  *forestgis.GdalToolbox
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default ./forestgis.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")

	crsCmd := &cobra.Command{
		Use:   "crs <file.shp|file.tif>...",
		Short: "print the CRS of shapefiles and rasters",
		Args:  cobra.MinimumNArgs(1),
		RunE:  crsCommand,
	}
	rootCmd.AddCommand(crsCmd)

	checkCmd := &cobra.Command{
		Use:   "check-crs <dir>",
		Short: "check that every shapefile and raster in a folder shares the first shapefile's CRS",
		Args:  cobra.ExactArgs(1),
		RunE:  checkCRSCommand,
	}
	checkCmd.Flags().StringVar(&flagReport, "report", "", "also write the report as YAML to this path")
	rootCmd.AddCommand(checkCmd)

	dmsCmd := &cobra.Command{
		Use:   "dms2utm <points.csv>",
		Short: "convert DMS coordinates to decimal degrees and UTM",
		Args:  cobra.ExactArgs(1),
		RunE:  dmsCommand,
	}
	dmsCmd.Flags().StringVarP(&flagOutDir, "outdir", "o", "", "output directory (default: input directory)")
	rootCmd.AddCommand(dmsCmd)

	kmlPointsCmd := &cobra.Command{
		Use:   "kml-points <points.csv>",
		Short: "generate one KML file per point",
		Args:  cobra.ExactArgs(1),
		RunE:  kmlPointsCommand,
	}
	kmlPointsCmd.Flags().StringVarP(&flagOutDir, "outdir", "o", "", "output directory (default: <input dir>/"+forestgis.KML_POINTS_DIR+")")
	kmlPointsCmd.Flags().StringVar(&flagLogFile, "log-file", "", "run log (default: <input dir>/"+forestgis.KML_POINTS_LOG+")")
	rootCmd.AddCommand(kmlPointsCmd)

	convertCmd := &cobra.Command{
		Use:   "convert <dir>",
		Short: "convert every KML in a folder to shapefile and every shapefile to KML",
		Args:  cobra.ExactArgs(1),
		RunE:  convertCommand,
	}
	rootCmd.AddCommand(convertCmd)

	zonalCmd := &cobra.Command{
		Use:   "zonal <shp-dir>",
		Short: "zonal statistics (min, max, mean, median) of every polygon over every raster",
		Args:  cobra.ExactArgs(1),
		RunE:  zonalCommand,
	}
	zonalCmd.Flags().StringVar(&flagTifDir, "tif-dir", "", "raster directory (required)")
	zonalCmd.Flags().StringVarP(&flagZonalOut, "out", "o", "", "output csv (default: <parent of shp-dir>/"+forestgis.ZONAL_STATS_CSV+")")
	_ = zonalCmd.MarkFlagRequired("tif-dir")
	rootCmd.AddCommand(zonalCmd)

	filterCmd := &cobra.Command{
		Use:   "filter <file.shp>",
		Short: "export features whose field matches the given values",
		Args:  cobra.ExactArgs(1),
		RunE:  filterCommand,
	}
	filterCmd.Flags().StringVar(&flagField, "field", "", "attribute field (default from config)")
	filterCmd.Flags().StringSliceVar(&flagValues, "values", nil, "values to keep (default from config)")
	filterCmd.Flags().StringVarP(&flagOutDir, "outdir", "o", "", "output directory (default: <shp dir>/"+forestgis.FILTERED_DIR+")")
	rootCmd.AddCommand(filterCmd)

	mergeCmd := &cobra.Command{
		Use:   "merge <dir>",
		Short: "merge every shapefile in a folder into one",
		Args:  cobra.ExactArgs(1),
		RunE:  mergeCommand,
	}
	rootCmd.AddCommand(mergeCmd)

	reprojectCmd := &cobra.Command{
		Use:   "reproject <file.shp>",
		Short: "reproject a shapefile in place",
		Args:  cobra.ExactArgs(1),
		RunE:  reprojectCommand,
	}
	reprojectCmd.Flags().IntVar(&flagEPSG, "epsg", 0, "target EPSG code (default from config, 32721)")
	rootCmd.AddCommand(reprojectCmd)

	compositeCmd := &cobra.Command{
		Use:   "composite <samples.csv>",
		Short: "generate composite sample averages per class",
		Args:  cobra.ExactArgs(1),
		RunE:  compositeCommand,
	}
	compositeCmd.Flags().IntVarP(&flagSamples, "samples", "n", 0, "composite samples per class (default from config, 15)")
	compositeCmd.Flags().Int64Var(&flagSeed, "seed", 0, "shuffle seed (default from config, 42)")
	rootCmd.AddCommand(compositeCmd)
}

func setup(cmd *cobra.Command, args []string) (err error) {
	if cfg, err = LoadConfig(flagConfig); err != nil {
		return
	}
	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if err = log.SetLevel(level); err != nil {
		return
	}
	tb = forestgis.NewGdalToolbox(cfg.TmpDir)
	return
}

func crsCommand(cmd *cobra.Command, args []string) error {
	for _, p := range args {
		var (
			wkt string
			err error
		)
		if strings.EqualFold(filepath.Ext(p), forestgis.FILE_EXT_SHP) {
			wkt, err = tb.GetShapefileCRS(p)
		} else {
			wkt, err = tb.GetRasterCRS(p)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s (EPSG:%d)\n%s\n", p, tb.EpsgOf(wkt), wkt)
	}
	return nil
}

func checkCRSCommand(cmd *cobra.Command, args []string) error {
	rep, err := tb.CheckFolderCRS(args[0])
	if err != nil {
		return err
	}
	if err = rep.Summary(os.Stdout); err != nil {
		return err
	}
	if flagReport != "" {
		if err = rep.WriteYAML(flagReport); err != nil {
			return err
		}
		log.Info("crs report written", zap.String("path", flagReport))
	}
	return nil
}

func dmsCommand(cmd *cobra.Command, args []string) error {
	kmlCsv, utmCsv, err := tb.ConvertDmsFile(args[0], flagOutDir)
	if err != nil {
		return err
	}
	fmt.Printf("decimal degrees: %s\nutm: %s\n", kmlCsv, utmCsv)
	return nil
}

func kmlPointsCommand(cmd *cobra.Command, args []string) error {
	ok, failed, zipPath, err := tb.GenerateKmlPoints(args[0], flagOutDir, flagLogFile)
	if err != nil {
		return err
	}
	fmt.Printf("kml files: %d, failures: %d, archive: %s\n", ok, failed, zipPath)
	return nil
}

func convertCommand(cmd *cobra.Command, args []string) error {
	shps, kmls, err := tb.ConvertFolder(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("kml -> shp: %d, shp -> kml: %d\n", len(shps), len(kmls))
	return nil
}

func zonalCommand(cmd *cobra.Command, args []string) error {
	stats, err := tb.ZonalStatistics(args[0], flagTifDir)
	if err != nil {
		return err
	}
	out := flagZonalOut
	if out == "" {
		out = filepath.Join(filepath.Dir(filepath.Clean(args[0])), forestgis.ZONAL_STATS_CSV)
	}
	if err = forestgis.WriteZonalStats(out, stats); err != nil {
		return err
	}
	fmt.Printf("zonal statistics: %s (%d rows)\n", out, len(stats))
	return nil
}

func filterCommand(cmd *cobra.Command, args []string) error {
	field, values := cfg.Filter.Field, cfg.Filter.Values
	if flagField != "" {
		field = flagField
	}
	if len(flagValues) > 0 {
		values = flagValues
	}
	outs, err := tb.FilterFeatures(args[0], field, values, flagOutDir)
	if err != nil {
		return err
	}
	for _, o := range outs {
		fmt.Println(o)
	}
	return nil
}

func mergeCommand(cmd *cobra.Command, args []string) error {
	out, zipPath, err := tb.MergeShapefiles(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("merged: %s\narchive: %s\n", out, zipPath)
	return nil
}

func reprojectCommand(cmd *cobra.Command, args []string) error {
	epsg := cfg.Reproject.EPSG
	if flagEPSG > 0 {
		epsg = flagEPSG
	}
	out, err := tb.ReprojectShapefile(args[0], epsg)
	if err != nil {
		return err
	}
	fmt.Printf("%s -> EPSG:%d\n", out, epsg)
	return nil
}

func compositeCommand(cmd *cobra.Command, args []string) error {
	n, seed := cfg.Composite.Samples, cfg.Composite.Seed
	if flagSamples > 0 {
		n = flagSamples
	}
	if cmd.Flags().Changed("seed") {
		seed = flagSeed
	}
	out, err := forestgis.CompositeSamplesFile(args[0], n, seed)
	if err != nil {
		return err
	}
	fmt.Printf("composite samples: %s\n", out)
	return nil
}

func main() {
	err := rootCmd.Execute()
	if tb != nil {
		tb.Close()
	}
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}
