package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"igfunnel/pkg/config"
	"igfunnel/pkg/funnel"
	"igfunnel/pkg/jobs"
	"igfunnel/pkg/logger"
	"igfunnel/pkg/runstore"
	"igfunnel/pkg/scrapeapi"
	"igfunnel/pkg/seeds"
	"igfunnel/pkg/sink"
)

var (
	runNiche       string
	runAccounts    int
	runPosts       int
	runOutput      string
	runCommentMode string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full funnel for a niche",
	Example: `  igfunnel run --niche fitness
  igfunnel run --niche cooking --accounts 5 --posts 24
  igfunnel run --niche fitness --comment-mode job`,
	RunE: runFunnel,
}

func init() {
	runCmd.Flags().StringVarP(&runNiche, "niche", "n", "", "niche to run (required)")
	runCmd.Flags().IntVarP(&runAccounts, "accounts", "a", 0, "max seed accounts to use")
	runCmd.Flags().IntVarP(&runPosts, "posts", "p", 0, "posts to request per account")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output base directory")
	runCmd.Flags().StringVar(&runCommentMode, "comment-mode", "", "comment extraction mode (api or job)")
	runCmd.MarkFlagRequired("niche")
	rootCmd.AddCommand(runCmd)
}

func runFunnel(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile, map[string]interface{}{
		"niche":        runNiche,
		"accounts":     runAccounts,
		"posts":        runPosts,
		"output":       runOutput,
		"comment-mode": runCommentMode,
		"log-level":    logLevel,
	})
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seedList, err := seeds.Load(cfg.Funnel.SeedsFile)
	if err != nil {
		return err
	}
	usernames, err := seedList.Niche(cfg.Funnel.Niche, cfg.Funnel.MaxAccounts)
	if err != nil {
		return err
	}

	runDir, err := sink.NextRunDir(cfg.Output.BaseDirectory)
	if err != nil {
		return err
	}
	writer, err := sink.NewCSVWriter(runDir, log)
	if err != nil {
		return err
	}

	store, err := runstore.Open(cfg.Output.DatabaseFile)
	if err != nil {
		return err
	}
	defer store.Close()

	runID, err := store.BeginRun(cfg.Funnel.Niche)
	if err != nil {
		return err
	}

	client := scrapeapi.NewClient(&cfg.API, log)
	fetcher := scrapeapi.NewFetcher(client, &cfg.API, log)

	var jobRunner funnel.JobRunner
	if cfg.Funnel.CommentMode == config.CommentModeJob {
		jobRunner = jobs.NewClient(&cfg.Jobs, log)
	}

	pipeline := funnel.New(funnel.Options{
		Seeds:    usernames,
		Cfg:      cfg.Funnel,
		JobCfg:   cfg.Jobs,
		Fetcher:  fetcher,
		Jobs:     jobRunner,
		Sink:     writer,
		Recorder: store,
		RunID:    runID,
		Logger:   log,
	})

	log.InfoWithFields("starting funnel run", map[string]interface{}{
		"run_id": runID,
		"niche":  cfg.Funnel.Niche,
		"seeds":  len(usernames),
		"output": runDir,
	})

	summary, err := pipeline.Run(ctx)
	if err != nil {
		store.FinishRun(runID, runstore.StatusFailed)
		return err
	}
	store.FinishRun(runID, runstore.StatusCompleted)

	fmt.Printf("\nFunnel run %s complete\n", runID)
	for _, stage := range summary.Stages {
		fmt.Printf("  %-20s in=%-5d out=%-5d dropped=%d\n",
			stage.Stage, stage.Input, stage.Survivors, stage.Dropped)
	}
	if summary.Stopped != "" {
		fmt.Printf("  stopped early at %s (no survivors)\n", summary.Stopped)
	}
	fmt.Printf("  outputs: %s\n", runDir)
	return nil
}
