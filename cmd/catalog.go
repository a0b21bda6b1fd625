package cmd

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/quran-assets/assetsync/cmd/internal/flags"
	"github.com/quran-assets/assetsync/internal/catalog"
	"github.com/quran-assets/assetsync/internal/lfs"
)

func newCatalogCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "catalog <job>",
		Short: "List the assets of a job without fetching them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			jobs, err := selectJobs(cfg, args)
			if err != nil {
				return err
			}

			cat, err := catalog.Build(jobs[0])
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err}
			}
			tracked, err := lfs.NewMatcher(jobs[0].LFS.Patterns)
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err}
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("#", "Category", "Source", "URL", "Path", "LFS")
			for i, asset := range cat.Assets {
				_ = table.Append([]string{
					strconv.Itoa(i + 1),
					string(asset.Category),
					asset.Source,
					asset.SourceURL,
					asset.LocalPath,
					strconv.FormatBool(tracked.Tracks(asset.LocalPath)),
				})
			}
			return table.Render()
		},
	}

	flags.AddConfigFlag(cmd.Flags(), &configFile)
	return cmd
}
