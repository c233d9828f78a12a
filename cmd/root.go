// Package cmd wires configuration, logging, the local store and the API
// client into the TUI screens.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tanmay/quizdeck/internal/app"
	"github.com/tanmay/quizdeck/internal/screens/home"
)

var rootCmd = &cobra.Command{
	Use:   "quizdeck",
	Short: "Terminal exam and practice client",
	Long:  "Quizdeck — a terminal client for timed exams and adaptive practice sessions against a quiz backend.",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, cleanup, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		return app.Run(home.New(deps))
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("server", "", "Backend base URL (default http://localhost:8000)")
	pf.String("user", "", "Student username")
	pf.String("subject", "", "Subject to practice or be examined on")
	pf.Int("questions", 0, "Question budget per session")
	pf.Int("minutes", 0, "Session time limit in minutes")
	pf.Duration("http-timeout", 0, "HTTP request timeout")
	pf.String("db", "", "Path to the local SQLite database (overrides QUIZDECK_DB)")
	pf.String("log-file", "", "Log file path")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(examCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}
