package main

import (
	"errors"
	"strings"

	"github.com/wgdzlh/forestgis"

	"github.com/spf13/viper"
)

// Config 命令行运行参数，可由配置文件或 FORESTGIS_* 环境变量覆盖
type Config struct {
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	TmpDir string `mapstructure:"tmp_dir"`
	Filter struct {
		Field  string   `mapstructure:"field"`
		Values []string `mapstructure:"values"`
	} `mapstructure:"filter"`
	Composite struct {
		Samples int   `mapstructure:"samples"`
		Seed    int64 `mapstructure:"seed"`
	} `mapstructure:"composite"`
	Reproject struct {
		EPSG int `mapstructure:"epsg"`
	} `mapstructure:"reproject"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("tmp_dir", "")
	v.SetDefault("filter.field", "CD_TALHAO")
	v.SetDefault("filter.values", []string{"011M"})
	v.SetDefault("composite.samples", forestgis.DEFAULT_COMPOSITES)
	v.SetDefault("composite.seed", forestgis.DEFAULT_SEED)
	v.SetDefault("reproject.epsg", forestgis.REPROJECT_SRID)
}

// 读取配置：可选的配置文件（默认./forestgis.yaml）及FORESTGIS_*环境变量覆盖
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FORESTGIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("forestgis")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
