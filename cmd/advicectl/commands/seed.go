// AngelaMos | 2026
// seed.go

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/persona-advice/internal/seed"
)

var extraPersonas []string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert reference roles, personas and tags",
	Long: `Insert the roles, personas and tags an empty deployment needs.
Existing rows are left untouched, so seeding is safe to repeat.

Examples:
  advicectl seed
  advicectl seed --persona "Grumpy Cat" --persona Sherlock`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // process exits next

		data := seed.Defaults(cfg.Advice.DefaultPersona)
		data.Personas = append(data.Personas, extraPersonas...)

		res, err := seed.Run(cmd.Context(), db, data)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"seeded %d roles, %d personas, %d tags\n",
			res.Roles, res.Personas, res.Tags)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringArrayVar(&extraPersonas, "persona", nil, "additional persona to create (repeatable)")
}
