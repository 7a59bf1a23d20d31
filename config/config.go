// Package config loads the import tuning values from an optional sitebook.yaml
// and SITEBOOK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"sitebook/importer"
)

// Config holds all application configuration
type Config struct {
	Import ImportConfig `mapstructure:"import"`
}

// ImportConfig holds the BOQ importer knobs. The Bolsover layout constants
// are crude and tuned per deployment.
type ImportConfig struct {
	// AutoThreshold is the item count the smart parser must exceed.
	AutoThreshold        int     `mapstructure:"auto_threshold"`
	DefaultMarginPercent float64 `mapstructure:"default_margin_percent"`
	CostFactor           float64 `mapstructure:"cost_factor"`
	MaxUploadMB          int64   `mapstructure:"max_upload_mb"`
	HeaderScanRows       int     `mapstructure:"header_scan_rows"`
	FallbackDataRow      int     `mapstructure:"fallback_data_row"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{Import: ImportConfig{
		AutoThreshold:        importer.DefaultAutoThreshold,
		DefaultMarginPercent: 25,
		CostFactor:           importer.BolsoverBOQv1.CostFactor,
		MaxUploadMB:          20,
		HeaderScanRows:       importer.BolsoverBOQv1.HeaderScanRows,
		FallbackDataRow:      importer.BolsoverBOQv1.FallbackDataRow,
	}}
}

// Load loads configuration from file and environment variables
func Load(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("sitebook")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvPrefix("SITEBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Import.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid import config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default().Import
	v.SetDefault("import.auto_threshold", d.AutoThreshold)
	v.SetDefault("import.default_margin_percent", d.DefaultMarginPercent)
	v.SetDefault("import.cost_factor", d.CostFactor)
	v.SetDefault("import.max_upload_mb", d.MaxUploadMB)
	v.SetDefault("import.header_scan_rows", d.HeaderScanRows)
	v.SetDefault("import.fallback_data_row", d.FallbackDataRow)
}

// Validate rejects values that would make the parser misbehave.
func (c ImportConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AutoThreshold, validation.Min(0)),
		validation.Field(&c.DefaultMarginPercent, validation.Min(0.0)),
		validation.Field(&c.CostFactor, validation.Required, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MaxUploadMB, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.HeaderScanRows, validation.Required, validation.Min(1)),
		validation.Field(&c.FallbackDataRow, validation.Min(0)),
	)
}

// Profile returns the Bolsover profile with the configured overrides applied.
func (c ImportConfig) Profile() importer.FormatProfile {
	p := importer.BolsoverBOQv1
	p.CostFactor = c.CostFactor
	p.HeaderScanRows = c.HeaderScanRows
	p.FallbackDataRow = c.FallbackDataRow
	return p
}

// MaxUploadBytes is the multipart size limit.
func (c ImportConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
