// Package config resolves qb settings from flags, QB_* environment
// variables, an optional config file and built-in defaults, in that order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/querybuilder/internal/catalog"
	"github.com/roach88/querybuilder/internal/logger"
	"github.com/roach88/querybuilder/internal/querytree"
)

// EnvPrefix is prepended to every setting key to form its environment
// variable, e.g. QB_LOG_LEVEL.
const EnvPrefix = "QB"

// Id strategies.
const (
	IDsUUID     = "uuid"
	IDsSequence = "sequence"
)

// Setting keys. Flags use the same names with dashes.
const (
	KeyCatalog   = "catalog"
	KeyLogLevel  = "log_level"
	KeyLogFormat = "log_format"
	KeyIDs       = "ids"
	KeyIDPrefix  = "id_prefix"
)

// ErrInvalidSettings is returned when a resolved setting is out of range.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds the resolved configuration.
type Settings struct {
	// Catalog is a path to a .cue, .yaml or .yml field catalog.
	// Empty selects the built-in catalog.
	Catalog   string `mapstructure:"catalog"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	IDs       string `mapstructure:"ids"`
	IDPrefix  string `mapstructure:"id_prefix"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Settings {
	return Settings{
		LogLevel:  logger.LogLevelWarn,
		LogFormat: logger.ConsoleLoggingFormat,
		IDs:       IDsUUID,
		IDPrefix:  querytree.DefaultSequencePrefix,
	}
}

// Options controls where Load looks.
type Options struct {
	// File is an explicit config file. It must exist when set.
	File string

	// SearchPaths are searched for qb.yaml, qb.toml or qb.json when File is
	// empty. Nil selects the working directory and the user config dir.
	SearchPaths []string

	// Flags, when set, override every other source for flags the user
	// actually passed.
	Flags *pflag.FlagSet
}

// Load resolves Settings.
func Load(opts Options) (*Settings, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault(KeyCatalog, d.Catalog)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyIDs, d.IDs)
	v.SetDefault(KeyIDPrefix, d.IDPrefix)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := readConfigFile(v, opts); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for _, key := range []string{KeyCatalog, KeyLogLevel, KeyLogFormat, KeyIDs, KeyIDPrefix} {
			if f := opts.Flags.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func readConfigFile(v *viper.Viper, opts Options) error {
	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", opts.File, err)
		}
		return nil
	}

	v.SetConfigName("qb")
	paths := opts.SearchPaths
	if paths == nil {
		paths = []string{"."}
		if dir, err := os.UserConfigDir(); err == nil {
			paths = append(paths, filepath.Join(dir, "querybuilder"))
		}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// flagName maps a setting key to its flag name: log_level -> log-level.
func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Validate checks enumerated settings.
func (s *Settings) Validate() error {
	if !slices.Contains([]string{IDsUUID, IDsSequence}, s.IDs) {
		return fmt.Errorf("%w: ids must be %q or %q, got %q", ErrInvalidSettings, IDsUUID, IDsSequence, s.IDs)
	}
	if !slices.Contains([]string{logger.ConsoleLoggingFormat, logger.JSONLoggingFormat}, s.LogFormat) {
		return fmt.Errorf("%w: log_format must be %q or %q, got %q",
			ErrInvalidSettings, logger.ConsoleLoggingFormat, logger.JSONLoggingFormat, s.LogFormat)
	}
	return nil
}

// NewIDGenerator returns the id source selected by IDs.
func (s *Settings) NewIDGenerator() querytree.IDGenerator {
	if s.IDs == IDsSequence {
		return querytree.NewSequenceGenerator(s.IDPrefix)
	}
	return querytree.UUIDGenerator{}
}

// LoadCatalog loads the configured catalog, or returns the built-in one.
func (s *Settings) LoadCatalog() (*catalog.Catalog, error) {
	if s.Catalog == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(s.Catalog)
}
