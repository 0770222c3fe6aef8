package main

import (
	"github.com/jonathan/outreach-agent/internal/observability"
	"github.com/spf13/cobra"
)

var extractJobsCmd = &cobra.Command{
	Use:   "extract-jobs",
	Short: "Extract structured job postings from careers-page text",
	Long: "Extract job postings from a cleaned careers-page text or HTML file. The model output is " +
		"recovered into a JSON array of {role, experience, skills, description} objects.",
	RunE: runExtractJobs,
}

var (
	extractInputFile  string
	extractOutputFile string
	extractPretty     bool
)

func init() {
	extractJobsCmd.Flags().StringVarP(&extractInputFile, "in", "i", "", "Path to page text or HTML (- for stdin)")
	extractJobsCmd.Flags().StringVarP(&extractOutputFile, "out", "o", "", "Path to output JSON file (default stdout)")
	extractJobsCmd.Flags().BoolVar(&extractPretty, "pretty", false, "Print a human-readable summary instead of JSON")

	rootCmd.AddCommand(extractJobsCmd)
}

func runExtractJobs(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	text, err := readInput(extractInputFile, cmd.InOrStdin(), a.log)
	if err != nil {
		return err
	}

	client, err := a.outreachClient(cmd.Context())
	if err != nil {
		return err
	}

	jobs, err := client.ExtractJobs(cmd.Context(), text)
	if err != nil {
		return err
	}

	if extractPretty {
		observability.NewPrinter(cmd.OutOrStdout()).PrintJobs(jobs)
		return nil
	}
	return writeJSON(extractOutputFile, cmd.OutOrStdout(), jobs)
}
