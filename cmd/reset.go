package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tanmay/quizdeck/internal/config"
	"github.com/tanmay/quizdeck/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the cached identity mapping",
	Long:  "Clears the locally cached identity so the next history lookup probes the backend from scratch. Useful after the backend reassigns student ids.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		path := cfg.DBPath
		if path == "" {
			path, err = store.DefaultDBPath()
			if err != nil {
				return err
			}
		}

		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("open local store: %w", err)
		}
		defer st.Close()

		if err := st.IdentityCache().Clear(context.Background()); err != nil {
			return fmt.Errorf("clear cached identity: %w", err)
		}
		fmt.Println("Cached identity cleared.")
		return nil
	},
}
