package cmd

import (
	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/tanmay/quizdeck/internal/app"
	"github.com/tanmay/quizdeck/internal/router"
	"github.com/tanmay/quizdeck/internal/screens/home"
)

var resultsCmd = &cobra.Command{
	Use:   "results [session-id]",
	Short: "Browse past session results",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, cleanup, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		focus := ""
		if len(args) > 0 {
			focus = args[0]
		}

		homeScreen := home.New(deps)
		return app.Run(homeScreen, func() tea.Msg {
			return router.PushScreenMsg{Screen: homeScreen.ResultsScreen(focus)}
		})
	},
}
