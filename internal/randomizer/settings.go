package randomizer

// Settings are the session toggles that decide which prompts are rolled and
// whether the timer is armed on randomize.
type Settings struct {
	TimeConstraint bool `json:"timeConstraint" yaml:"time_constraint" mapstructure:"time_constraint"`
	// UseConstraint is kept for compatibility with older clients; it gates nothing.
	UseConstraint bool `json:"useConstraint" yaml:"use_constraint" mapstructure:"use_constraint"`
	Theme         bool `json:"theme" yaml:"theme" mapstructure:"theme"`
	Arrangement   bool `json:"arrangement" yaml:"arrangement" mapstructure:"arrangement"`
	SoundDesign   bool `json:"soundDesign" yaml:"sound_design" mapstructure:"sound_design"`
	Mix           bool `json:"mix" yaml:"mix" mapstructure:"mix"`
}

// SettingNames lists the toggle names accepted by Set
func SettingNames() []string {
	return []string{"timeConstraint", "useConstraint", "theme", "arrangement", "soundDesign", "mix"}
}

// Set changes a toggle by name. Unknown names are ignored and reported as false.
func (s *Settings) Set(name string, on bool) bool {
	switch name {
	case "timeConstraint":
		s.TimeConstraint = on
	case "useConstraint":
		s.UseConstraint = on
	case "theme":
		s.Theme = on
	case "arrangement":
		s.Arrangement = on
	case "soundDesign":
		s.SoundDesign = on
	case "mix":
		s.Mix = on
	default:
		return false
	}
	return true
}

// Prompts are the auxiliary creative suggestions produced by a randomize
type Prompts struct {
	Theme       string `json:"theme"`
	Arrangement string `json:"arrangement"`
	SoundDesign string `json:"soundDesign"`
	Mix         string `json:"mix"`
	Tempo       string `json:"tempo"`
	Quote       string `json:"quote"`
}
