package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillprobe/internal/app"
	"github.com/abhisek/skillprobe/internal/session"
)

// runApp builds dependencies and launches the TUI. Logs are discarded
// unless --log-file is set, since the TUI owns the terminal.
func runApp(cmd *cobra.Command, topic string) error {
	svc, err := buildServices(cmd, io.Discard)
	if err != nil {
		return err
	}
	defer svc.Close()

	budget := svc.cfg.Assessment.MaxQuestions
	if n, _ := cmd.Flags().GetInt("questions"); n > 0 {
		budget = n
	}
	flow := session.NewFlow("", svc.deps, session.Config{MaxQuestions: budget})

	return app.Run(app.Options{
		Flow:    flow,
		Journal: svc.store.EventRepo(),
		Topic:   topic,
	})
}
