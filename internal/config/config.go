package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/audiolibrelab/jamroll/internal/alarm"
	"github.com/audiolibrelab/jamroll/internal/randomizer"
	"github.com/audiolibrelab/jamroll/internal/timer"
	"github.com/spf13/viper"
)

var ErrProfileNotFound = errors.New("configuration profile not found")

type GlobalsConfig struct {
	CatalogFile string       `mapstructure:"catalog_file" yaml:"catalog_file"`
	Alarm       AlarmConfig  `mapstructure:"alarm" yaml:"alarm"`
	Server      ServerConfig `mapstructure:"server" yaml:"server"`
}

type RootConfig struct {
	ActiveConfig string             `mapstructure:"active_config" yaml:"active_config"`
	Globals      *GlobalsConfig     `mapstructure:"globals,omitempty" yaml:"globals,omitempty"`
	Configs      map[string]*Config `mapstructure:"configs" yaml:"configs"`
}

// Config is one resolved profile. Pointer fields distinguish "not set" from
// an explicit zero so profiles can inherit from the default profile.
type Config struct {
	Timer       TimerConfig          `mapstructure:"timer" yaml:"timer"`
	Randomize   RandomizeConfig      `mapstructure:"randomize" yaml:"randomize"`
	Settings    *randomizer.Settings `mapstructure:"settings,omitempty" yaml:"settings,omitempty"`
	Alarm       AlarmConfig          `mapstructure:"alarm" yaml:"alarm"`
	Server      ServerConfig         `mapstructure:"server" yaml:"server"`
	CatalogFile string               `mapstructure:"catalog_file" yaml:"catalog_file,omitempty"`

	// Profile is the name the config was resolved from
	Profile string `mapstructure:"-" yaml:"-"`
}

type TimerConfig struct {
	DefaultSelection     string `mapstructure:"default_selection" yaml:"default_selection"` // minutes or "Random"
	RandomMinutes        []int  `mapstructure:"random_minutes" yaml:"random_minutes"`
	AutoStartOnRandomize *bool  `mapstructure:"auto_start_on_randomize" yaml:"auto_start_on_randomize"`
}

type RandomizeConfig struct {
	EffectProbability *float64 `mapstructure:"effect_probability" yaml:"effect_probability"`
	ExcludeZeroCount  *bool    `mapstructure:"exclude_zero_count" yaml:"exclude_zero_count"`
	Seed              uint64   `mapstructure:"seed" yaml:"seed,omitempty"` // 0 = time seeded
}

type AlarmConfig struct {
	File   string `mapstructure:"file" yaml:"file,omitempty"`
	Player string `mapstructure:"player" yaml:"player,omitempty"` // "auto", "mpv", "ffplay", "vlc", "aplay"
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port,omitempty"`
}

// DefaultPath is used when --config is not given
func DefaultPath() string {
	return os.ExpandEnv("$HOME/.config/jamroll.yaml")
}

// Defaults returns the built-in configuration every profile falls back to
func Defaults() *Config {
	autoStart := true
	probability := randomizer.DefaultEffectProbability
	excludeZero := false

	return &Config{
		Timer: TimerConfig{
			DefaultSelection:     strconv.Itoa(timer.DefaultMinutes),
			RandomMinutes:        append([]int(nil), timer.DefaultRandomMinutes...),
			AutoStartOnRandomize: &autoStart,
		},
		Randomize: RandomizeConfig{
			EffectProbability: &probability,
			ExcludeZeroCount:  &excludeZero,
		},
		Settings: &randomizer.Settings{},
		Alarm:    AlarmConfig{Player: "auto"},
		Server:   ServerConfig{Port: "8080"},
		Profile:  "default",
	}
}

// LoadWithProfile resolves a profile from configFile. A missing file yields
// the built-in defaults; JAMROLL_* environment variables still apply.
func LoadWithProfile(configFile, profile string) (*Config, error) {
	rootConfig, err := ValidateConfigurationFormat(configFile)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Determine which config to use
	configName := profile
	if configName == "" {
		configName = rootConfig.ActiveConfig
	}
	if configName == "" {
		configName = "default"
	}
	// viper lowercases map keys, so profile names are case-insensitive
	configName = strings.ToLower(configName)

	selectedConfig := Defaults()

	if defaultProfile, exists := rootConfig.Configs["default"]; exists {
		selectedConfig = mergeConfigs(selectedConfig, defaultProfile)
	}

	if configName != "default" {
		selectedProfile, exists := rootConfig.Configs[configName]
		if !exists {
			return nil, fmt.Errorf("profile '%s': %w", configName, ErrProfileNotFound)
		}
		selectedConfig = mergeConfigs(selectedConfig, selectedProfile)
	}
	selectedConfig.Profile = configName

	// Global settings take priority over profile values
	if g := rootConfig.Globals; g != nil {
		if g.CatalogFile != "" {
			selectedConfig.CatalogFile = g.CatalogFile
		}
		if g.Alarm.File != "" {
			selectedConfig.Alarm.File = g.Alarm.File
		}
		if g.Alarm.Player != "" {
			selectedConfig.Alarm.Player = g.Alarm.Player
		}
		if g.Server.Port != "" {
			selectedConfig.Server.Port = g.Server.Port
		}
	}

	selectedConfig.CatalogFile = expandPath(selectedConfig.CatalogFile)
	selectedConfig.Alarm.File = expandPath(selectedConfig.Alarm.File)

	if err := validateConfig(selectedConfig, "config '"+configName+"'"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return selectedConfig, nil
}

// UpdateActiveConfig updates the active_config field in the config file
func UpdateActiveConfig(configFile, newActiveConfig string) error {
	if configFile == "" {
		return fmt.Errorf("no config file specified")
	}

	// Create a new viper instance to avoid interfering with the global one
	v := viper.New()
	v.SetConfigFile(configFile)

	// Read current config
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	name := strings.ToLower(newActiveConfig)
	if name != "default" && !v.IsSet("configs."+name) {
		return fmt.Errorf("profile '%s': %w", newActiveConfig, ErrProfileNotFound)
	}

	v.Set("active_config", name)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("error writing config file %s: %w", configFile, err)
	}

	return nil
}

// ListProfiles returns the profile names defined in configFile
func ListProfiles(configFile string) ([]string, error) {
	rootConfig, err := ValidateConfigurationFormat(configFile)
	if err != nil {
		return nil, err
	}
	names := []string{"default"}
	for name := range rootConfig.Configs {
		if name != "default" {
			names = append(names, name)
		}
	}
	return names, nil
}

// ValidateConfigurationFormat reads and validates the root configuration.
// A missing file is not an error.
func ValidateConfigurationFormat(configFile string) (*RootConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set environment variable prefix
	v.SetEnvPrefix("JAMROLL")
	v.AutomaticEnv()
	_ = v.BindEnv("active_config", "JAMROLL_PROFILE")
	_ = v.BindEnv("globals.catalog_file", "JAMROLL_CATALOG")
	_ = v.BindEnv("globals.alarm.file", "JAMROLL_ALARM_FILE")
	_ = v.BindEnv("globals.alarm.player", "JAMROLL_ALARM_PLAYER")
	_ = v.BindEnv("globals.server.port", "JAMROLL_PORT")

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			v.SetConfigFile(configFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error accessing config file %s: %w", configFile, err)
		}
	}

	var rootConfig RootConfig
	if err := v.Unmarshal(&rootConfig); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	for name, profile := range rootConfig.Configs {
		if profile == nil {
			return nil, fmt.Errorf("config '%s' is empty", name)
		}
		if err := validateConfig(profile, "config '"+name+"'"); err != nil {
			return nil, err
		}
	}

	if rootConfig.Globals != nil {
		if err := validateAlarm(rootConfig.Globals.Alarm, "globals"); err != nil {
			return nil, err
		}
		if err := validatePort(rootConfig.Globals.Server.Port, "globals"); err != nil {
			return nil, err
		}
	}

	return &rootConfig, nil
}

// mergeConfigs overlays the values set in profile onto base
func mergeConfigs(base, profile *Config) *Config {
	result := *base
	if base.Settings != nil {
		settings := *base.Settings
		result.Settings = &settings
	}
	result.Timer.RandomMinutes = append([]int(nil), base.Timer.RandomMinutes...)

	if profile == nil {
		return &result
	}

	if profile.Timer.DefaultSelection != "" {
		result.Timer.DefaultSelection = profile.Timer.DefaultSelection
	}
	if len(profile.Timer.RandomMinutes) > 0 {
		result.Timer.RandomMinutes = append([]int(nil), profile.Timer.RandomMinutes...)
	}
	if profile.Timer.AutoStartOnRandomize != nil {
		result.Timer.AutoStartOnRandomize = profile.Timer.AutoStartOnRandomize
	}

	if profile.Randomize.EffectProbability != nil {
		result.Randomize.EffectProbability = profile.Randomize.EffectProbability
	}
	if profile.Randomize.ExcludeZeroCount != nil {
		result.Randomize.ExcludeZeroCount = profile.Randomize.ExcludeZeroCount
	}
	if profile.Randomize.Seed != 0 {
		result.Randomize.Seed = profile.Randomize.Seed
	}

	// Settings are a unit: a profile that lists any toggle replaces them all
	if profile.Settings != nil {
		settings := *profile.Settings
		result.Settings = &settings
	}

	if profile.Alarm.File != "" {
		result.Alarm.File = profile.Alarm.File
	}
	if profile.Alarm.Player != "" {
		result.Alarm.Player = profile.Alarm.Player
	}
	if profile.Server.Port != "" {
		result.Server.Port = profile.Server.Port
	}
	if profile.CatalogFile != "" {
		result.CatalogFile = profile.CatalogFile
	}

	return &result
}

func validateConfig(cfg *Config, prefix string) error {
	if sel := cfg.Timer.DefaultSelection; sel != "" && !timer.Selection(sel).IsRandom() {
		n, err := strconv.Atoi(strings.TrimSpace(sel))
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: timer.default_selection must be a positive number of minutes or 'Random', got: %s", prefix, sel)
		}
	}

	for i, m := range cfg.Timer.RandomMinutes {
		if m <= 0 {
			return fmt.Errorf("%s: timer.random_minutes[%d] must be > 0, got: %d", prefix, i, m)
		}
	}

	if p := cfg.Randomize.EffectProbability; p != nil && (*p < 0 || *p > 1) {
		return fmt.Errorf("%s: randomize.effect_probability must be between 0 and 1, got: %.2f", prefix, *p)
	}

	if err := validateAlarm(cfg.Alarm, prefix); err != nil {
		return err
	}
	return validatePort(cfg.Server.Port, prefix)
}

func validateAlarm(a AlarmConfig, prefix string) error {
	if a.Player == "" || a.Player == "auto" {
		return nil
	}
	for _, p := range alarm.Players {
		if a.Player == p {
			return nil
		}
	}
	return fmt.Errorf("%s: alarm.player must be 'auto' or one of %s, got: %s", prefix, strings.Join(alarm.Players, ", "), a.Player)
}

func validatePort(port, prefix string) error {
	if port == "" {
		return nil
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("%s: server.port must be a valid TCP port, got: %s", prefix, port)
	}
	return nil
}

// DefaultSelection returns the timer selector value a fresh session starts with
func (c *Config) DefaultSelection() timer.Selection {
	if c.Timer.DefaultSelection == "" {
		return timer.SelectionFromMinutes(timer.DefaultMinutes)
	}
	return timer.Selection(c.Timer.DefaultSelection)
}

// DefaultSettings returns the toggles a fresh session starts with
func (c *Config) DefaultSettings() randomizer.Settings {
	if c.Settings == nil {
		return randomizer.Settings{}
	}
	return *c.Settings
}

// EngineOptions converts the randomize section into engine options
func (c *Config) EngineOptions() randomizer.Options {
	opts := randomizer.DefaultOptions()
	if c.Randomize.EffectProbability != nil {
		opts.EffectProbability = *c.Randomize.EffectProbability
	}
	if c.Randomize.ExcludeZeroCount != nil {
		opts.ExcludeZeroCount = *c.Randomize.ExcludeZeroCount
	}
	if c.Timer.AutoStartOnRandomize != nil {
		opts.AutoStartOnRandomize = *c.Timer.AutoStartOnRandomize
	}
	if len(c.Timer.RandomMinutes) > 0 {
		opts.RandomMinutes = append([]int(nil), c.Timer.RandomMinutes...)
	}
	return opts
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
