package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the built-in practice questions into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.QuestionRepo().Seed(cmd.Context(), seedQuestions())
		if err != nil {
			return fmt.Errorf("seed questions: %w", err)
		}
		fmt.Printf("Added %d questions (%d already present).\n", n, len(seedQuestions())-n)
		return nil
	},
}
