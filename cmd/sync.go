package cmd

import (
	"cmp"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/quran-assets/assetsync/cmd/internal/flags"
	"github.com/quran-assets/assetsync/internal/catalog"
	"github.com/quran-assets/assetsync/internal/config"
	"github.com/quran-assets/assetsync/internal/gitsync"
	"github.com/quran-assets/assetsync/internal/metrics"
	"github.com/quran-assets/assetsync/internal/progress"
	"github.com/quran-assets/assetsync/internal/service"
	pkgsync "github.com/quran-assets/assetsync/pkg/sync"
)

type syncParams struct {
	configFile      string
	repoDir         string
	force           bool
	noPublish       bool
	progress        bool
	metricsTextfile string
}

func newSyncCommand(root *rootParams) *cobra.Command {
	var params syncParams

	cmd := &cobra.Command{
		Use:   "sync [job...]",
		Short: "Fetch assets and publish changes",
		Long: `Fetch every asset of the given jobs (all jobs when none are named) into the
working tree and, when anything changed, commit, rebase and push the result.

Exit status: 0 on success or when nothing changed, 1 when a forced resync
fetched nothing, 2 when a git step failed, 3 on configuration errors.

` + config.EnvironmentUsage(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, root, params, args)
		},
	}

	flags.AddConfigFlag(cmd.Flags(), &params.configFile)
	flags.AddRepoDirFlag(cmd.Flags(), &params.repoDir)
	cmd.Flags().BoolVar(&params.force, "force", false, "wipe the output directories and re-download every asset")
	cmd.Flags().BoolVar(&params.noPublish, "no-publish", false, "write assets to the working tree without touching git")
	cmd.Flags().BoolVar(&params.progress, "progress", false, "show a progress bar while fetching")
	cmd.Flags().StringVar(&params.metricsTextfile, "metrics-textfile", "", "write prometheus metrics to this file when done")

	return cmd
}

func runSync(cmd *cobra.Command, root *rootParams, params syncParams, args []string) error {
	log := root.logger()

	cfg, err := loadConfig(params.configFile)
	if err != nil {
		return err
	}
	jobs, err := selectJobs(cfg, args)
	if err != nil {
		return err
	}

	env, err := config.LoadEnvironment()
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	repoDir, err := filepath.Abs(params.repoDir)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	var tokens pkgsync.TokenProvider
	switch {
	case env.GitHubApp():
		tokens = &gitsync.GitHubApp{
			IntegrationID:  env.AppID,
			InstallationID: env.InstallationID,
			PrivateKeyFile: env.PrivateKeyFile,
			BaseURL:        env.APIURL,
		}
	case env.Token != "":
		tokens = gitsync.StaticToken(env.Token)
	}

	var reports []*service.Report
	code := ExitOK
	for _, job := range jobs {
		sj := service.NewSyncJob(repoDir, job, log).
			WithForce(params.force).
			WithPublish(!params.noPublish)

		if !params.noPublish {
			sj.WithPublisher(gitsync.NewPublisher(repoDir).
				WithLogger(log.With("job", job.Name)).
				WithRemote(cfg.Publish.Remote).
				WithRepository(cmp.Or(env.ServerURL, cfg.Publish.ServerURL), env.Repository).
				WithBranch(env.Branch()).
				WithTokenProvider(tokens))
		}

		if params.progress {
			if cat, err := catalog.Build(job); err == nil {
				sj.WithProgress(progress.New(cmd.ErrOrStderr(), cat.Len(), job.Name))
			}
		}

		report, _ := sj.Execute(cmd.Context())
		reports = append(reports, report)
		code = max(code, report.ExitCode())
	}

	printReports(cmd.OutOrStdout(), reports)

	if params.metricsTextfile != "" {
		if err := metrics.WriteTextfile(params.metricsTextfile); err != nil {
			log.Warnf("failed to write metrics textfile: %v", err)
		}
	}

	if code != ExitOK {
		return &ExitError{Code: code}
	}
	return nil
}

func printReports(w io.Writer, reports []*service.Report) {
	table := tablewriter.NewWriter(w)
	table.Header("Job", "State", "Total", "Changed", "Unchanged", "Failed", "Bytes")
	for _, r := range reports {
		_ = table.Append([]string{
			r.Job,
			r.State.String(),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Changed),
			strconv.Itoa(r.Unchanged),
			strconv.Itoa(r.Failed),
			strconv.FormatInt(r.Bytes, 10),
		})
	}
	_ = table.Render()

	for _, r := range reports {
		if r.Err != nil {
			fmt.Fprintf(w, "%s: %v\n", r.Job, r.Err)
		}
	}
}
