package cmd

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/tutorbot/internal/telegram"
)

// runBot serves learners on Telegram. Polling, the daily-task sweep and
// the optional metrics server share one context; the first failure stops
// them all.
func runBot(cmd *cobra.Command) error {
	rt, err := openServices(cmd, "")
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.cfg.Validate(); err != nil {
		return err
	}

	client, err := telegram.New(rt.cfg.BotToken, telegram.Options{}, rt.log)
	if err != nil {
		return err
	}
	b := rt.newBot(client)
	sched := rt.newScheduler(b, nil)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return client.Run(ctx, b) })
	g.Go(func() error { return sched.Run(ctx) })
	if rt.cfg.MetricsAddr != "" {
		g.Go(func() error { return rt.serveMetrics(ctx, rt.cfg.MetricsAddr) })
	}

	rt.log.Info("tutorbot running", "bot", client.Username(), "admins", len(rt.cfg.Admins))
	err = g.Wait()
	rt.log.Info("tutorbot stopped")
	return err
}
