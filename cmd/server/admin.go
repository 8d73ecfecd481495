package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/movie-rental/internal/config"
	"github.com/iliyamo/movie-rental/internal/service"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative tasks",
}

// promoteCmd is the only way to elevate an existing account.
var promoteCmd = &cobra.Command{
	Use:   "promote <userName>",
	Short: "Grant the administrator role to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.StoreDriver == config.StoreMemory {
			return fmt.Errorf("promote needs a persistent store; STORE_DRIVER is %q", cfg.StoreDriver)
		}
		// Promotion never touches the denylist.
		cfg.RevocationBackend = config.RevocationMySQL
		logger := newLogger(cfg)
		st, err := openStores(cmd.Context(), cfg, nil, logger)
		if err != nil {
			return err
		}
		defer st.close()

		accounts := service.NewAccounts(service.Deps{
			Movies:      st.movies,
			Users:       st.users,
			Revocations: st.revocations,
			Logger:      logger,
		}, service.AccountOptions{})
		if err := accounts.Promote(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now an administrator\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(promoteCmd)
}
