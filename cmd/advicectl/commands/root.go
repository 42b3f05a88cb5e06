// AngelaMos | 2026
// root.go

package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/carterperez-dev/persona-advice/internal/config"
	"github.com/carterperez-dev/persona-advice/internal/core"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "advicectl",
	Short: "Operator tooling for the persona advice API",
	Long: `advicectl manages the persona advice database.

Commands:
  migrate up|down|version  - manage the embedded schema
  seed                     - insert roles, personas and tags`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := godotenv.Load(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
}

// Execute runs the root command, cancelling its context on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
}

// connect loads configuration and opens the database it names.
func connect(ctx context.Context) (*config.Config, *core.Database, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	return cfg, db, nil
}
