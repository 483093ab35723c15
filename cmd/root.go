package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorbot/internal/config"
	"github.com/abhisek/tutorbot/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tutorbot",
	Short: "Python tutoring bot",
	Long: "tutorbot places learners with a short assessment, sends them a daily Python\n" +
		"question at their level and grades the answers with an LLM.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("env-file")
		required := cmd.Flags().Changed("env-file")
		return config.LoadEnvFile(path, required)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot(cmd)
	},
}

// ExecuteContext runs the root command. Cancelling ctx stops a running bot.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides TUTORBOT_DB env var)")
	rootCmd.PersistentFlags().String("env-file", ".env", "File of environment variables to load if present")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then TUTORBOT_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	p, _ := cmd.Flags().GetString("db")
	if p == "" {
		p = cfg.DBPath
	}
	if p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore loads the environment config and opens the database.
func openStore(cmd *cobra.Command) (*store.Store, config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, config.Config{}, err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("open database: %w", err)
	}
	return st, cfg, nil
}
