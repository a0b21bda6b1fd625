package cmd

import (
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/quran-assets/assetsync/cmd/internal/flags"
	"github.com/quran-assets/assetsync/internal/catalog"
)

func newJobsCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List the configured jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Job", "Assets", "Catalog", "LFS", "Stage", "Overwrite")
			for _, job := range cfg.SortedJobs() {
				cat, err := catalog.Build(job)
				if err != nil {
					return &ExitError{Code: ExitUsage, Err: err}
				}
				_ = table.Append([]string{
					job.Name,
					strconv.Itoa(cat.Len()),
					cat.Summary(),
					strings.Join(job.LFS.Patterns, " "),
					string(job.Stage),
					string(job.Overwrite),
				})
			}
			return table.Render()
		},
	}

	flags.AddConfigFlag(cmd.Flags(), &configFile)
	return cmd
}
