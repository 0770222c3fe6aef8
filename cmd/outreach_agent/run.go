package main

import (
	"fmt"
	"io"

	"github.com/jonathan/outreach-agent/internal/observability"
	"github.com/jonathan/outreach-agent/internal/pipeline"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full outreach pipeline",
	Long: "Extract job postings from careers-page text, look up portfolio links for each posting and " +
		"draft one cold email per posting. A failure on one posting does not stop the others.",
	RunE: runPipeline,
}

var (
	runInputFile  string
	runOutputFile string
)

func init() {
	runCmd.Flags().StringVarP(&runInputFile, "in", "i", "", "Path to page text or HTML (- for stdin)")
	runCmd.Flags().StringVarP(&runOutputFile, "out", "o", "", "Write the result as JSON to this file")
	runCmd.Flags().IntVar(&flagValues.Concurrency, "concurrency", 0, "Postings drafted in parallel (default 1)")
	runCmd.Flags().IntVar(&flagValues.Retries, "retries", 0, "Retries on transient provider errors")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	text, err := readInput(runInputFile, cmd.InOrStdin(), a.log)
	if err != nil {
		return err
	}

	client, err := a.outreachClient(cmd.Context())
	if err != nil {
		return err
	}
	store, err := a.portfolioStore(cmd.Context())
	if err != nil {
		return err
	}

	runner := pipeline.New(client, store, pipeline.Options{
		Concurrency: a.cfg.Concurrency,
		Retries:     a.cfg.Retries,
		Logger:      a.log,
		OnProgress:  progressPrinter(cmd.ErrOrStderr(), a.cfg.Verbose),
	})

	result, err := runner.Run(cmd.Context(), text)
	if err != nil {
		return err
	}

	if runOutputFile != "" {
		if err := writeJSON(runOutputFile, cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		printer := observability.NewPrinter(cmd.OutOrStdout())
		printer.PrintJobs(result.Jobs)
		for i, d := range result.Drafts {
			printer.PrintDraft(i, d)
		}
	}
	observability.NewPrinter(cmd.ErrOrStderr()).PrintSummary(len(result.Drafts), result.Failed())

	if failed := result.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d drafts failed", failed, len(result.Drafts))
	}
	return nil
}

func progressPrinter(w io.Writer, verbose bool) pipeline.ProgressCallback {
	if !verbose {
		return nil
	}
	return func(e pipeline.ProgressEvent) {
		_, _ = fmt.Fprintf(w, "[%s] %s\n", e.Step, e.Message)
	}
}
