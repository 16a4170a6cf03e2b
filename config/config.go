package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Catalog    CatalogConfig
	Extraction ExtractionConfig
	Classify   ClassifyConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig holds catalog store and builder configuration.
// SourceFiles are ranked highest priority first; the builder fills gaps from
// later files but never overwrites earlier ones.
type CatalogConfig struct {
	DBPath      string   `mapstructure:"db_path"`
	SourceFiles []string `mapstructure:"source_files"`
	SearchLimit int      `mapstructure:"search_limit"`
}

// ExtractionConfig holds configuration for the external extraction service
type ExtractionConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerMinute int           `mapstructure:"rate_per_minute"`
}

// ClassifyConfig holds the health-classification thresholds. Macro ranges are
// inclusive percentage bounds of total energy.
type ClassifyConfig struct {
	HighSugarG    float64 `mapstructure:"high_sugar_g"`
	HighFatG      float64 `mapstructure:"high_fat_g"`
	HighSatFatG   float64 `mapstructure:"high_sat_fat_g"`
	LowFiberG     float64 `mapstructure:"low_fiber_g"`
	HighSodiumMg  float64 `mapstructure:"high_sodium_mg"`
	CarbPctMin    float64 `mapstructure:"carb_pct_min"`
	CarbPctMax    float64 `mapstructure:"carb_pct_max"`
	FatPctMin     float64 `mapstructure:"fat_pct_min"`
	FatPctMax     float64 `mapstructure:"fat_pct_max"`
	ProteinPctMin float64 `mapstructure:"protein_pct_min"`
	ProteinPctMax float64 `mapstructure:"protein_pct_max"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mealsense/")

	// Environment variable settings: MEALSENSE_CATALOG_DB_PATH overrides
	// catalog.db_path, and so on.
	v.SetEnvPrefix("MEALSENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Catalog defaults
	v.SetDefault("catalog.db_path", "data/build/catalog.db")
	v.SetDefault("catalog.source_files", []string{
		"data/curated/local_additions.json",
		"data/build/foods.usda.json",
		"data/build/foods.openfoodfacts.json",
	})
	v.SetDefault("catalog.search_limit", 20)

	// Extraction defaults
	v.SetDefault("extraction.base_url", "http://localhost:8600")
	v.SetDefault("extraction.timeout", "30s")
	v.SetDefault("extraction.rate_per_minute", 60)

	// Classification defaults: absolute thresholds per meal, plus the
	// acceptable macro-energy split (carb 45-65%, fat 20-35%, protein 10-35%)
	v.SetDefault("classify.high_sugar_g", 20.0)
	v.SetDefault("classify.high_fat_g", 17.0)
	v.SetDefault("classify.high_sat_fat_g", 6.0)
	v.SetDefault("classify.low_fiber_g", 3.0)
	v.SetDefault("classify.high_sodium_mg", 600.0)
	v.SetDefault("classify.carb_pct_min", 45.0)
	v.SetDefault("classify.carb_pct_max", 65.0)
	v.SetDefault("classify.fat_pct_min", 20.0)
	v.SetDefault("classify.fat_pct_max", 35.0)
	v.SetDefault("classify.protein_pct_min", 10.0)
	v.SetDefault("classify.protein_pct_max", 35.0)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Catalog.DBPath == "" {
		return fmt.Errorf("catalog db path is required (set MEALSENSE_CATALOG_DB_PATH)")
	}

	if config.Catalog.SearchLimit <= 0 {
		return fmt.Errorf("catalog search limit must be positive, got: %d", config.Catalog.SearchLimit)
	}

	if config.Extraction.RatePerMinute <= 0 {
		return fmt.Errorf("extraction rate must be positive, got: %d", config.Extraction.RatePerMinute)
	}

	type macroRange struct {
		name     string
		min, max float64
	}
	c := config.Classify
	for _, r := range []macroRange{
		{"carb", c.CarbPctMin, c.CarbPctMax},
		{"fat", c.FatPctMin, c.FatPctMax},
		{"protein", c.ProteinPctMin, c.ProteinPctMax},
	} {
		if r.min < 0 || r.max > 100 || r.min > r.max {
			return fmt.Errorf("%s macro range [%.1f, %.1f] is not a valid percentage range", r.name, r.min, r.max)
		}
	}

	return nil
}
