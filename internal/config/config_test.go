package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/audiolibrelab/jamroll/internal/randomizer"
	"github.com/audiolibrelab/jamroll/internal/timer"
)

func TestMergeConfigs_SelectionAndFallback(t *testing.T) {
	base := Defaults()

	autoStart := false
	probability := 0.25
	profile := &Config{
		Timer: TimerConfig{
			DefaultSelection:     "Random",
			AutoStartOnRandomize: &autoStart,
		},
		Randomize: RandomizeConfig{
			EffectProbability: &probability,
		},
		Settings: &randomizer.Settings{Theme: true},
	}

	result := mergeConfigs(base, profile)

	if result.Timer.DefaultSelection != "Random" {
		t.Errorf("Expected selection 'Random', got %s", result.Timer.DefaultSelection)
	}
	if *result.Timer.AutoStartOnRandomize {
		t.Errorf("Expected auto start to be overridden to false")
	}
	if *result.Randomize.EffectProbability != 0.25 {
		t.Errorf("Expected effect probability 0.25, got %.2f", *result.Randomize.EffectProbability)
	}

	// Inherited values
	if *result.Randomize.ExcludeZeroCount {
		t.Errorf("Expected exclude zero count to be inherited as false")
	}
	if len(result.Timer.RandomMinutes) != len(timer.DefaultRandomMinutes) {
		t.Errorf("Expected random minutes to be inherited, got %v", result.Timer.RandomMinutes)
	}
	if result.Server.Port != "8080" {
		t.Errorf("Expected port 8080 to be inherited, got %s", result.Server.Port)
	}
	if result.Alarm.Player != "auto" {
		t.Errorf("Expected alarm player 'auto' to be inherited, got %s", result.Alarm.Player)
	}

	if !result.Settings.Theme || result.Settings.Mix {
		t.Errorf("Expected profile settings to replace defaults, got %+v", *result.Settings)
	}
}

func TestMergeConfigs_DoesNotAliasBase(t *testing.T) {
	base := Defaults()
	result := mergeConfigs(base, &Config{})

	result.Settings.Mix = true
	result.Timer.RandomMinutes[0] = 999

	if base.Settings.Mix {
		t.Errorf("Merging must copy settings")
	}
	if base.Timer.RandomMinutes[0] == 999 {
		t.Errorf("Merging must copy random minutes")
	}
}

func TestMergeConfigs_NilProfile(t *testing.T) {
	result := mergeConfigs(Defaults(), nil)
	if result.Timer.DefaultSelection != "15" {
		t.Errorf("Expected default selection '15', got %s", result.Timer.DefaultSelection)
	}
}

func TestLoadWithProfile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithProfile(filepath.Join(t.TempDir(), "absent.yaml"), "")
	if err != nil {
		t.Fatalf("Expected no error for missing file, got: %v", err)
	}
	if cfg.Profile != "default" {
		t.Errorf("Expected profile 'default', got %s", cfg.Profile)
	}
	if cfg.DefaultSelection() != "15" {
		t.Errorf("Expected default selection 15, got %s", cfg.DefaultSelection())
	}
	opts := cfg.EngineOptions()
	if opts.EffectProbability != 0.5 || !opts.AutoStartOnRandomize || opts.ExcludeZeroCount {
		t.Errorf("Unexpected engine options: %+v", opts)
	}
}

func TestLoadWithProfile_ActiveProfile(t *testing.T) {
	content := `
active_config: sprint

globals:
  server:
    port: "9090"

configs:
  default:
    timer:
      default_selection: "30"
      random_minutes: [15, 30]
    settings:
      theme: true
      mix: true
  sprint:
    timer:
      default_selection: "1"
      auto_start_on_randomize: false
    randomize:
      exclude_zero_count: true
      seed: 42
    alarm:
      player: mpv
`
	configFile := createTempConfig(t, content)

	cfg, err := LoadWithProfile(configFile, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Profile != "sprint" {
		t.Errorf("Expected active profile 'sprint', got %s", cfg.Profile)
	}
	if cfg.DefaultSelection() != "1" {
		t.Errorf("Expected selection '1', got %s", cfg.DefaultSelection())
	}
	if got := cfg.Timer.RandomMinutes; len(got) != 2 || got[1] != 30 {
		t.Errorf("Expected random minutes inherited from default profile, got %v", got)
	}
	if settings := cfg.DefaultSettings(); !settings.Theme || !settings.Mix || settings.Arrangement {
		t.Errorf("Expected settings inherited from default profile, got %+v", settings)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Expected global port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Alarm.Player != "mpv" {
		t.Errorf("Expected alarm player mpv, got %s", cfg.Alarm.Player)
	}
	if cfg.Randomize.Seed != 42 {
		t.Errorf("Expected seed 42, got %d", cfg.Randomize.Seed)
	}

	opts := cfg.EngineOptions()
	if opts.AutoStartOnRandomize {
		t.Errorf("Expected auto start disabled")
	}
	if !opts.ExcludeZeroCount {
		t.Errorf("Expected zero count excluded")
	}

	// Explicit profile wins over active_config
	cfg, err = LoadWithProfile(configFile, "default")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.DefaultSelection() != "30" {
		t.Errorf("Expected selection '30' for default profile, got %s", cfg.DefaultSelection())
	}
}

func TestLoadWithProfile_UnknownProfile(t *testing.T) {
	configFile := createTempConfig(t, "configs:\n  default:\n    timer:\n      default_selection: \"15\"\n")

	_, err := LoadWithProfile(configFile, "missing")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got: %v", err)
	}
}

func TestLoadWithProfile_EnvOverridesPort(t *testing.T) {
	t.Setenv("JAMROLL_PORT", "7000")

	cfg, err := LoadWithProfile(filepath.Join(t.TempDir(), "absent.yaml"), "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Errorf("Expected port from environment, got %s", cfg.Server.Port)
	}
}

func TestValidateConfigurationFormat_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad selection",
			content: "configs:\n  default:\n    timer:\n      default_selection: soon\n",
			wantErr: "default_selection",
		},
		{
			name:    "non positive random minutes",
			content: "configs:\n  default:\n    timer:\n      random_minutes: [15, 0]\n",
			wantErr: "random_minutes[1]",
		},
		{
			name:    "probability out of range",
			content: "configs:\n  default:\n    randomize:\n      effect_probability: 1.5\n",
			wantErr: "effect_probability",
		},
		{
			name:    "unknown player",
			content: "globals:\n  alarm:\n    player: winamp\n",
			wantErr: "alarm.player",
		},
		{
			name:    "bad port",
			content: "configs:\n  default:\n    server:\n      port: http\n",
			wantErr: "server.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := createTempConfig(t, tt.content)
			_, err := ValidateConfigurationFormat(configFile)
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestUpdateActiveConfig(t *testing.T) {
	configFile := createTempConfig(t, "active_config: default\nconfigs:\n  focus:\n    timer:\n      default_selection: \"45\"\n")

	if err := UpdateActiveConfig(configFile, "focus"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	cfg, err := LoadWithProfile(configFile, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Profile != "focus" || cfg.DefaultSelection() != "45" {
		t.Errorf("Expected focus profile with 45 minutes, got %s / %s", cfg.Profile, cfg.DefaultSelection())
	}

	if err := UpdateActiveConfig(configFile, "nope"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got: %v", err)
	}
	if err := UpdateActiveConfig("", "focus"); err == nil {
		t.Errorf("Expected error for empty config path")
	}
}

func TestProfileNamesIgnoreCase(t *testing.T) {
	configFile := createTempConfig(t, "active_config: default\nconfigs:\n  Sprint:\n    timer:\n      default_selection: \"30\"\n")

	cfg, err := LoadWithProfile(configFile, "Sprint")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Profile != "sprint" || cfg.DefaultSelection() != "30" {
		t.Errorf("Expected sprint profile with 30 minutes, got %s / %s", cfg.Profile, cfg.DefaultSelection())
	}

	if err := UpdateActiveConfig(configFile, "Sprint"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	cfg, err = LoadWithProfile(configFile, "")
	if err != nil {
		t.Fatalf("Expected config to load after switching profile, got: %v", err)
	}
	if cfg.Profile != "sprint" {
		t.Errorf("Expected active profile sprint, got %s", cfg.Profile)
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	if !strings.Contains(string(data), "active_config: sprint") {
		t.Errorf("Expected lowercased active_config in file, got:\n%s", data)
	}
}

func TestListProfiles(t *testing.T) {
	configFile := createTempConfig(t, "configs:\n  default: {}\n  focus:\n    timer:\n      default_selection: \"45\"\n")

	names, err := ListProfiles(configFile)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(names) != 2 || names[0] != "default" || names[1] != "focus" {
		t.Errorf("Expected [default focus], got %v", names)
	}
}

func createTempConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "jamroll-test.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return configFile
}
