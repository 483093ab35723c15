package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Show a learner's graded answers, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user ID %q: %w", args[0], err)
		}
		limit, _ := cmd.Flags().GetInt("limit")

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if u, err := s.UserRepo().Get(ctx, userID); err != nil {
			return fmt.Errorf("get user: %w", err)
		} else if u != nil {
			fmt.Printf("%s: %s, score %d, joined %s\n\n",
				u.Name, u.Level, u.Score, u.JoinTime.Local().Format("2006-01-02"))
		}

		recs, err := s.AnswerRepo().ListByUser(ctx, userID, limit)
		if err != nil {
			return fmt.Errorf("list answers: %w", err)
		}
		if len(recs) == 0 {
			fmt.Println("No answers recorded.")
			return nil
		}

		fmt.Printf("%-19s  %-10s  %-2s  %-40s  %s\n", "Timestamp", "Flow", "OK", "Question", "Answer")
		fmt.Println(strings.Repeat("─", 100))
		for _, r := range recs {
			ok := "✗"
			if r.Correct {
				ok = "✓"
			}
			fmt.Printf("%-19s  %-10s  %-2s  %-40s  %s\n",
				r.Timestamp.Local().Format("2006-01-02 15:04:05"),
				r.Flow, ok, truncate(r.Question, 40), truncate(oneLine(r.Answer), 40))
		}
		return nil
	},
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of answers to show")
}
