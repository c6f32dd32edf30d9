package main

import (
	"github.com/spf13/cobra"

	"github.com/krystian-booker/ArcSight-sub000/pkg/console"
	"github.com/krystian-booker/ArcSight-sub000/pkg/events"
	"github.com/krystian-booker/ArcSight-sub000/pkg/session"
	"github.com/krystian-booker/ArcSight-sub000/pkg/settings"
)

func NewConsoleCommand() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Serve the console REST API for the web frontend",
		Long: `Serve the console REST API. The web frontend drives the same calibration
session controller as the interactive CLI, and receives step transitions and
status messages over an SSE stream at /api/events.`,
		GroupID: gBasic,
		RunE: func(_ *cobra.Command, _ []string) error {
			hub := events.NewEventHub()
			store := settings.NewStore(settingsPath)
			device := deviceClient()
			ctrl := session.NewController(device, store, hub)
			return console.New(ctrl, device, hub).Run(listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:5801", "address to serve the console API on")
	return cmd
}
