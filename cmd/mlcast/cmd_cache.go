package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/cache"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/projectconfig"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the remote object cache",
		Long: `Manage the remote object cache.

When enabled, objects read from s3://, az:// and gs:// datasets are kept on
local disk so repeated validations of the same published archive do not
download it again.`,
	}

	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	var cacheDir string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the remote object cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := projectconfig.Load(configDir)
			if err != nil {
				return err
			}
			dir := stringSetting(cmd, "cache-dir", cacheDir, cfg.Cache.Dir)

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving cache directory: %w", err)
			}
			if err := cache.New(absDir).Clear(); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", absDir) //nolint:errcheck
			return nil
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", projectconfig.DefaultCacheDir, "Cache directory to clear")

	return cmd
}
