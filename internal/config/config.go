package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hydromonitoring/wain-terminal/internal/database"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Overlay OverlayConfig `mapstructure:"overlay"`
	Export  ExportConfig  `mapstructure:"export"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type DataConfig struct {
	DatasetURL string `mapstructure:"dataset_url"`
	DBPath     string `mapstructure:"db_path"`
}

type OverlayConfig struct {
	CountryURL     string        `mapstructure:"country_url"`
	BasinURL       string        `mapstructure:"basin_url"`
	StationURL     string        `mapstructure:"station_url"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	BasinShapefile string        `mapstructure:"basin_shapefile"`
	BasinNameField string        `mapstructure:"basin_name_field"`
}

type ExportConfig struct {
	Dir           string `mapstructure:"dir"`
	ReportBaseURL string `mapstructure:"report_base_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from an optional .env file, an optional config
// file and WAIN_ environment variables. path overrides the config file
// search when non-empty.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()

	// Defaults
	v.SetDefault("data.dataset_url", "https://saran-sir.s3.ap-south-1.amazonaws.com/wain_stations.csv")
	v.SetDefault("data.db_path", database.DBPath())
	v.SetDefault("overlay.country_url", "https://saran-sir.s3.ap-south-1.amazonaws.com/india_boundary_line.geojson")
	v.SetDefault("overlay.basin_url", "https://saran-sir.s3.ap-south-1.amazonaws.com/basins/{basin}.geojson")
	v.SetDefault("overlay.station_url", "https://saran-sir.s3.ap-south-1.amazonaws.com/shapefiles/{id}.geojson")
	v.SetDefault("overlay.fetch_timeout", 20*time.Second)
	v.SetDefault("overlay.user_agent", "wain-terminal/1.0")
	v.SetDefault("overlay.basin_shapefile", "")
	v.SetDefault("overlay.basin_name_field", "BASIN_NAME")
	v.SetDefault("export.dir", "exports")
	v.SetDefault("export.report_base_url", "https://hydromonitoring.github.io/wain-reports")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "data/wain-terminal.log")
	v.SetDefault("metrics.addr", "")

	// Config file (optional)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: WAIN_OVERLAY_FETCH_TIMEOUT → overlay.fetch_timeout
	v.SetEnvPrefix("WAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Data.DatasetURL == "" {
		errs = append(errs, "data.dataset_url is required")
	}
	if c.Data.DBPath == "" {
		errs = append(errs, "data.db_path is required")
	}
	if !validURL(c.Overlay.CountryURL) {
		errs = append(errs, fmt.Sprintf("overlay.country_url must be an absolute URL, got %q", c.Overlay.CountryURL))
	}
	if c.Overlay.BasinShapefile == "" && !strings.Contains(c.Overlay.BasinURL, "{basin}") {
		errs = append(errs, "overlay.basin_url must contain {basin} unless overlay.basin_shapefile is set")
	}
	if !strings.Contains(c.Overlay.StationURL, "{id}") {
		errs = append(errs, "overlay.station_url must contain {id}")
	}
	if c.Overlay.FetchTimeout <= 0 {
		errs = append(errs, "overlay.fetch_timeout must be positive")
	}
	if c.Overlay.BasinShapefile != "" && c.Overlay.BasinNameField == "" {
		errs = append(errs, "overlay.basin_name_field is required with overlay.basin_shapefile")
	}
	if c.Export.Dir == "" {
		errs = append(errs, "export.dir is required")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
