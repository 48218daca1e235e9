package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/audiolibrelab/jamroll/internal/catalog"
	"github.com/audiolibrelab/jamroll/internal/config"
	"github.com/audiolibrelab/jamroll/internal/field"
	"github.com/audiolibrelab/jamroll/internal/session"
	"github.com/audiolibrelab/jamroll/internal/timer"
	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"
)

var rollCmd = &cobra.Command{
	Use:   "roll",
	Short: "Roll a random production setup",
	Long: `Roll every unlocked field once and print the result.

Pin fields with --lock key=value (repeatable). Field keys are the ones listed
by 'jamroll catalog', e.g. daw, synthInstrument, randomPresetInstrumentCount.`,
	Example: `  jamroll roll --lock daw=Reaper --theme --mix
  jamroll roll --time --duration Random -o yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		sess := newRollSession(cfg, cat)
		defer sess.Close()

		if err := applyRollFlags(cmd, sess); err != nil {
			return err
		}

		snap := sess.Randomize()

		output, _ := cmd.Flags().GetString("output")
		switch output {
		case "yaml":
			out, err := yaml.Marshal(rollOutputFrom(snap))
			if err != nil {
				return fmt.Errorf("error marshaling roll: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
		case "", "text":
			printRoll(cmd.OutOrStdout(), cat, snap)
		default:
			return fmt.Errorf("unknown output format '%s' (expected text or yaml)", output)
		}
		return nil
	},
}

func init() {
	addRollFlags(rollCmd)
}

// newRollSession builds a one-shot session. The countdown never auto-starts
// because the session ends when the roll is printed; 'jamroll timer' runs it.
func newRollSession(c *config.Config, cat *catalog.Catalog) *session.Session {
	rollCfg := *c
	autoStart := false
	rollCfg.Timer.AutoStartOnRandomize = &autoStart
	return session.NewFactory(&rollCfg, cat).New("cli", nil, nil)
}

func addRollFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("lock", "l", nil, "lock a field to a value (key=value, repeatable)")
	cmd.Flags().Bool("theme", false, "roll a theme prompt")
	cmd.Flags().Bool("arrangement", false, "roll an arrangement prompt")
	cmd.Flags().Bool("sound-design", false, "roll a sound design prompt")
	cmd.Flags().Bool("mix", false, "roll a mix prompt")
	cmd.Flags().Bool("time", false, "arm the session timer")
	cmd.Flags().StringP("duration", "d", "", "timer duration in minutes or 'Random' (overrides config)")
	cmd.Flags().StringP("output", "o", "text", "output format: text or yaml")
}

// applyRollFlags pushes locks, toggles and the duration onto a fresh session.
// Toggles not given on the command line keep the profile defaults.
func applyRollFlags(cmd *cobra.Command, sess *session.Session) error {
	locks, _ := cmd.Flags().GetStringArray("lock")
	for _, l := range locks {
		key, value, ok := strings.Cut(l, "=")
		if !ok {
			return fmt.Errorf("invalid --lock '%s': expected key=value", l)
		}
		k, known := field.ParseKey(key)
		if !known {
			return fmt.Errorf("unknown field '%s'", key)
		}
		if value != "" && !sess.Catalog().Contains(k, value) {
			return fmt.Errorf("'%s' is not an option for %s (run 'jamroll catalog %s')", value, key, key)
		}
		sess.SetSelected(key, value)
		sess.ToggleLock(key)
	}

	toggles := map[string]string{
		"theme":        "theme",
		"arrangement":  "arrangement",
		"sound-design": "soundDesign",
		"mix":          "mix",
		"time":         "timeConstraint",
	}
	for flag, name := range toggles {
		if cmd.Flags().Changed(flag) {
			on, _ := cmd.Flags().GetBool(flag)
			sess.SetSetting(name, on)
		}
	}

	if duration, _ := cmd.Flags().GetString("duration"); duration != "" {
		sess.SelectDuration(timer.Selection(duration))
	}
	return nil
}

type rollOutput struct {
	Fields   map[string]string `yaml:"fields"`
	Locked   []string          `yaml:"locked,omitempty"`
	Prompts  map[string]string `yaml:"prompts"`
	Duration string            `yaml:"duration,omitempty"`
}

func rollOutputFrom(snap session.Snapshot) rollOutput {
	out := rollOutput{
		Fields:  make(map[string]string),
		Prompts: make(map[string]string),
	}
	for _, name := range snap.Visible {
		f := snap.Fields[name]
		out.Fields[name] = f.Selected
		if f.Locked {
			out.Locked = append(out.Locked, name)
		}
	}
	for name, value := range promptLines(snap) {
		out.Prompts[name] = value
	}
	if snap.Settings.TimeConstraint {
		out.Duration = snap.Timer.Display
	}
	return out
}

func promptLines(snap session.Snapshot) map[string]string {
	lines := map[string]string{
		"tempo": snap.Prompts.Tempo,
		"quote": snap.Prompts.Quote,
	}
	optional := map[string]string{
		"theme":       snap.Prompts.Theme,
		"arrangement": snap.Prompts.Arrangement,
		"soundDesign": snap.Prompts.SoundDesign,
		"mix":         snap.Prompts.Mix,
	}
	for name, value := range optional {
		if value != "" {
			lines[name] = value
		}
	}
	return lines
}

func printRoll(w io.Writer, cat *catalog.Catalog, snap session.Snapshot) {
	for _, name := range snap.Visible {
		key, _ := field.ParseKey(name)
		f := snap.Fields[name]

		value := f.Selected
		if value == "" {
			value = "-"
		}
		lock := ""
		if f.Locked {
			lock = " [locked]"
		}
		fmt.Fprintf(w, "%-26s %s%s\n", key.Title()+":", value, lock)
		if hint := cat.Hint(key, f.Selected); hint != "" {
			fmt.Fprintf(w, "%-26s %s\n", "", hint)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-26s %s\n", "Tempo:", snap.Prompts.Tempo)
	for _, p := range []struct{ title, value string }{
		{"Theme:", snap.Prompts.Theme},
		{"Arrangement:", snap.Prompts.Arrangement},
		{"Sound design:", snap.Prompts.SoundDesign},
		{"Mix:", snap.Prompts.Mix},
	} {
		if p.value != "" {
			fmt.Fprintf(w, "%-26s %s\n", p.title, p.value)
		}
	}
	if snap.Settings.TimeConstraint {
		fmt.Fprintf(w, "%-26s %s (run 'jamroll timer %s' to start it)\n", "Time limit:", snap.Timer.Display, snap.Selection)
	}
	if snap.Prompts.Quote != "" {
		fmt.Fprintf(w, "\n\"%s\"\n", snap.Prompts.Quote)
	}
}
