package cmd

import (
	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/tanmay/quizdeck/internal/app"
	session "github.com/tanmay/quizdeck/internal/exam"
	"github.com/tanmay/quizdeck/internal/router"
	"github.com/tanmay/quizdeck/internal/screens/home"
)

var examCmd = &cobra.Command{
	Use:   "exam",
	Short: "Start a timed exam immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		return launchSession(cmd, session.TimedExam())
	},
}

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start an adaptive practice session immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		return launchSession(cmd, session.AdaptivePractice())
	},
}

// launchSession runs the TUI with home at the bottom of the stack and the
// session screen already pushed, so finishing the session lands on the menu.
func launchSession(cmd *cobra.Command, caps session.Capabilities) error {
	deps, cleanup, err := buildDeps(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	homeScreen := home.New(deps)
	return app.Run(homeScreen, func() tea.Msg {
		return router.PushScreenMsg{Screen: homeScreen.SessionScreen(caps)}
	})
}
