package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the learners with the highest scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		users, err := s.UserRepo().Top(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query leaderboard: %w", err)
		}
		if len(users) == 0 {
			fmt.Println("No learners yet.")
			return nil
		}

		fmt.Printf("%-4s  %-14s  %-20s  %-12s  %5s  %s\n", "#", "User ID", "Name", "Level", "Score", "Every")
		fmt.Println(strings.Repeat("─", 72))
		for i, u := range users {
			pending := ""
			if u.HasPendingTask() {
				pending = "  (task pending)"
			}
			fmt.Printf("%-4d  %-14d  %-20s  %-12s  %5d  %dh%s\n",
				i+1, u.ID, truncate(u.Name, 20), u.Level, u.Score, u.TaskInterval, pending)
		}
		return nil
	},
}

func init() {
	leaderboardCmd.Flags().IntP("limit", "n", 10, "Number of learners to show")
}
