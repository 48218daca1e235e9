package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/audiolibrelab/jamroll/internal/field"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [field]",
	Short: "List the options each field is rolled from",
	Long: `Without arguments, list every field key with its title and option count.
With a field key, list that field's options and their hints.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()

		if len(args) == 0 {
			fmt.Fprintln(w, "KEY\tTITLE\tOPTIONS")
			for _, k := range field.Keys() {
				fmt.Fprintf(w, "%s\t%s\t%d\n", k, k.Title(), len(cat.Options(k)))
			}
			fmt.Fprintf(w, "\nPrompts: %d themes, %d arrangement, %d sound design, %d mix, %d quotes\n",
				len(cat.Themes), len(cat.ArrangementIdeas), len(cat.SoundDesignIdeas), len(cat.MixIdeas), len(cat.Quotes))
			return nil
		}

		key, ok := field.ParseKey(args[0])
		if !ok {
			return fmt.Errorf("unknown field '%s' (run 'jamroll catalog' for the list)", args[0])
		}
		for _, opt := range cat.Options(key) {
			fmt.Fprintf(w, "%s\t%s\n", opt.Name, opt.Hint)
		}
		return nil
	},
}
