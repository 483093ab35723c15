package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/tutorbot/internal/console"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the tutor in the terminal",
	Long: "Opens a terminal chat as one local learner. The daily-task sweep runs\n" +
		"for that learner only, so tasks arrive in the window.",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetInt64("user-id")
		name, _ := cmd.Flags().GetString("name")
		logPath, _ := cmd.Flags().GetString("log-file")
		admin, _ := cmd.Flags().GetBool("admin")
		if name == "" {
			name = os.Getenv("USER")
		}

		rt, err := openServices(cmd, logPath)
		if err != nil {
			return err
		}
		defer rt.Close()
		if admin {
			rt.cfg.Admins[userID] = true
		}

		msgr := console.NewMessenger()
		b := rt.newBot(msgr)
		sched := rt.newScheduler(b, func(id int64) bool { return id == userID })

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer cancel()
			return console.Run(ctx, b, msgr, console.Identity{UserID: userID, Name: name})
		})
		g.Go(func() error { return sched.Run(ctx) })
		return g.Wait()
	},
}

func init() {
	chatCmd.Flags().Int64("user-id", 1, "Learner id to chat as")
	chatCmd.Flags().String("name", "", "Display name (defaults to $USER)")
	chatCmd.Flags().String("log-file", filepath.Join(os.TempDir(), "tutorbot-chat.log"), "Where to write logs while the chat screen is open")
	chatCmd.Flags().Bool("admin", false, "Allow question bank commands in this chat")
}
