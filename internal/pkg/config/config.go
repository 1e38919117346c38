package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const currentVersion = 1

// Config holds grcat's own preferences. Rule files are separate; they use
// the grc format and are located with FindRuleFile.
type Config struct {
	Version       int            `yaml:"version"`
	ColorMode     *string        `yaml:"color_mode,omitempty"`
	SearchPaths   *[]string      `yaml:"search_paths,omitempty"`
	MatchTimeout  *time.Duration `yaml:"match_timeout,omitempty"`
	AllowCommands *bool          `yaml:"allow_commands,omitempty"`
}

var DefaultConfig = Config{
	Version:       currentVersion,
	ColorMode:     ptr("auto"),
	SearchPaths:   nil, // computed by DefaultSearchPaths at lookup time
	MatchTimeout:  ptr(2 * time.Second),
	AllowCommands: ptr(true),
}

func GetDefaultConfigFilepath() string {
	return filepath.Join(xdg.ConfigHome, "grcat", "config.yaml")
}

// ReadConfigFile loads the preferences at path, filling unset fields from
// dflt. A missing file yields dflt.
func ReadConfigFile(path string, dflt *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("opening config file %q: %v", path, err)
		}
		return dflt, nil
	}

	cfg := new(Config)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding config file %q: %w", path, err)
	}
	if cfg.Version > currentVersion {
		return nil, fmt.Errorf("config file %q has version %d, this grcat only knows up to %d", path, cfg.Version, currentVersion)
	}
	return cfg.populateEmpty(dflt), nil
}

func (cfg Config) populateEmpty(other *Config) *Config {
	out := *(&cfg)
	if out.Version == 0 {
		out.Version = other.Version
	}
	if out.ColorMode == nil && other.ColorMode != nil {
		out.ColorMode = other.ColorMode
	}
	if out.SearchPaths == nil && other.SearchPaths != nil {
		out.SearchPaths = other.SearchPaths
	}
	if out.MatchTimeout == nil && other.MatchTimeout != nil {
		out.MatchTimeout = other.MatchTimeout
	}
	if out.AllowCommands == nil && other.AllowCommands != nil {
		out.AllowCommands = other.AllowCommands
	}
	return &out
}

type ColorMode int

const (
	ColorModeOff ColorMode = iota
	ColorModeOn
	ColorModeAuto
)

func GrokColorMode(colorMode string) (ColorMode, error) {
	switch strings.ToLower(colorMode) {
	case "on", "always", "force", "true", "yes", "1":
		return ColorModeOn, nil
	case "off", "never", "false", "no", "0":
		return ColorModeOff, nil
	case "auto", "tty", "maybe", "":
		return ColorModeAuto, nil
	default:
		return ColorModeAuto, fmt.Errorf("'%s' is not a color mode (try 'on', 'off' or 'auto')", colorMode)
	}
}

func ptr[T any](v T) *T {
	return &v
}
