package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorbot/internal/grader"
	"github.com/abhisek/tutorbot/internal/llm"
	"github.com/abhisek/tutorbot/internal/logger"
)

var gradeCmd = &cobra.Command{
	Use:   "grade <question> <answer>",
	Short: "Grade one answer with the configured LLM provider",
	Long:  "Sends one question and answer to the grader and prints the verdict.\nUseful for checking provider credentials.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		log, err := logger.New(cfg.LogMode, "")
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		provider, llmCfg, err := llm.NewProviderFromEnv(ctx, s.EventRepo(), log)
		if err != nil {
			return fmt.Errorf("LLM provider not configured: %w", err)
		}

		gcfg := grader.DefaultConfig()
		gcfg.Timeout = cfg.GradeTimeout
		g := grader.New(provider, gcfg, log, nil)

		verdict, err := g.Grade(llm.WithPurpose(ctx, grader.PurposeGradeTask), args[0], args[1])
		fmt.Printf("%s (%s/%s)\n", verdict, llmCfg.Provider, llmCfg.Model())
		if err != nil {
			fmt.Println("reason:", err)
		}
		return nil
	},
}
