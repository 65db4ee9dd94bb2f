package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copy the trigger tables into a timestamped backup directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loggerFromViper()
			if err != nil {
				return err
			}
			store, err := loadStore(cmd.Context(), logger)
			if err != nil {
				return err
			}
			res, err := backupManagerFromViper(store, logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "backup: %s\n", res.Dir)
			_, _ = fmt.Fprintf(out, "files: %d\n", res.Copied())
			for _, dir := range res.Pruned {
				_, _ = fmt.Fprintf(out, "pruned: %s\n", dir)
			}
			return nil
		},
	}
}
