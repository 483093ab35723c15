package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorbot/internal/level"
	"github.com/abhisek/tutorbot/internal/store"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Manage the practice question bank",
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List practice questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		lvlFlag, _ := cmd.Flags().GetString("level")

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		qs, err := s.QuestionRepo().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}

		var filter level.Level
		if lvlFlag != "" {
			if filter, err = level.Parse(lvlFlag); err != nil {
				return err
			}
		}

		shown := 0
		for _, q := range qs {
			if filter != "" && q.Level != filter {
				continue
			}
			fmt.Printf("%4d  %-12s  %s\n", q.ID, q.Level, q.Text)
			shown++
		}
		if shown == 0 {
			fmt.Println("No questions available.")
		}
		return nil
	},
}

var questionsAddCmd = &cobra.Command{
	Use:   "add <level> <question...>",
	Short: "Add a practice question",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := level.Parse(args[0])
		if err != nil {
			return err
		}
		text := strings.TrimSpace(strings.Join(args[1:], " "))

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		added, err := s.QuestionRepo().Insert(cmd.Context(), text, lvl)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
		if !added {
			return fmt.Errorf("question already exists: %q", text)
		}
		fmt.Printf("Question added: '%s' with level: %s\n", text, lvl)
		return nil
	},
}

var questionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a practice question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		err = s.QuestionRepo().Delete(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("question %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		fmt.Printf("The question with id %d is deleted.\n", id)
		return nil
	},
}

func init() {
	questionsListCmd.Flags().StringP("level", "l", "", "Only show one level (beginner, intermediate, advanced)")

	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsAddCmd)
	questionsCmd.AddCommand(questionsDeleteCmd)
}
