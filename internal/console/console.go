// Package console is a terminal chat transport for the bot. It lets one
// local learner talk to the tutor without Telegram.
package console

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
)

// Run shows the chat screen until the learner quits or ctx is cancelled.
// Replies reach the screen through msgr, which must be the Messenger the
// handler was built with.
func Run(ctx context.Context, h Handler, msgr *Messenger, who Identity) error {
	if who.Name == "" {
		who.Name = "learner"
	}
	p := tea.NewProgram(newModel(ctx, h, who), tea.WithContext(ctx))
	msgr.Attach(p)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}
