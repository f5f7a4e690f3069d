// Package config loads qtrend settings from defaults, config files, a .env
// file and QTREND_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable qtrend reads.
const EnvPrefix = "QTREND"

// FileNames are the config files looked up in the config directory, in order.
var FileNames = []string{".qtrendrc.json", ".qtrendrc.yaml", ".qtrendrc.yml"}

// Config represents the qtrend configuration
type Config struct {
	Exclude        []string       `mapstructure:"exclude" json:"exclude,omitempty"`
	FollowSymlinks bool           `mapstructure:"followSymlinks" json:"followSymlinks"`
	Format         string         `mapstructure:"format" json:"format" validate:"oneof=console json markdown"`
	Output         string         `mapstructure:"output" json:"output,omitempty"`
	FailOn         string         `mapstructure:"failOn" json:"failOn" validate:"oneof=fail warning"`
	Quiet          bool           `mapstructure:"quiet" json:"quiet"`
	Verbose        bool           `mapstructure:"verbose" json:"verbose"`
	LogLevel       string         `mapstructure:"logLevel" json:"logLevel" validate:"oneof=debug info warn error"`
	LogFormat      string         `mapstructure:"logFormat" json:"logFormat" validate:"oneof=console json"`
	Baseline       BaselineConfig `mapstructure:"baseline" json:"baseline"`
	Schemas        SchemaConfig   `mapstructure:"schemas" json:"schemas"`
}

// BaselineConfig locates the accepted-warning baseline.
type BaselineConfig struct {
	Path string `mapstructure:"path" json:"path" validate:"required"`
}

// SchemaConfig toggles CUE schema validation of scored records.
type SchemaConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`
}

// LoadConfig loads configuration from various sources. Config files and the
// .env file are looked up in dir ("" means the working directory). A .env
// value never overrides a variable already set in the environment.
func LoadConfig(dir string) (*Config, error) {
	viper.SetDefault("format", "console")
	viper.SetDefault("failOn", "fail")
	viper.SetDefault("followSymlinks", false)
	viper.SetDefault("quiet", false)
	viper.SetDefault("verbose", false)
	viper.SetDefault("logLevel", "warn")
	viper.SetDefault("logFormat", "console")
	viper.SetDefault("baseline.path", ".qtrendbaseline.json")
	viper.SetDefault("schemas.enabled", true)

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	for _, name := range FileNames {
		viper.SetConfigFile(filepath.Join(dir, name))
		if err := viper.ReadInConfig(); err == nil {
			break
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	err := validate.Struct(config)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("invalid %s: %v. Must be one of: %s", fieldName(fe), fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required":
		return fmt.Errorf("%s is required", fieldName(fe))
	default:
		return fmt.Errorf("invalid %s: %v", fieldName(fe), fe.Value())
	}
}

// fieldName renders a struct namespace as a config key: Config.Baseline.Path -> baseline.path.
func fieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")[1:]
	for i, p := range parts {
		parts[i] = strings.ToLower(p[:1]) + p[1:]
	}
	return strings.Join(parts, ".")
}

// SaveConfig saves the current configuration to a file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
