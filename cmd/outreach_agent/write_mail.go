package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/outreach-agent/internal/types"
	"github.com/spf13/cobra"
)

var writeMailCmd = &cobra.Command{
	Use:   "write-mail",
	Short: "Draft a cold email for one job posting",
	Long: "Draft a cold outreach email for a job posting JSON file. Portfolio links are looked up " +
		"from the posting's skills unless --no-links is set.",
	RunE: runWriteMail,
}

var (
	mailJobFile string
	mailNoLinks bool
)

func init() {
	writeMailCmd.Flags().StringVarP(&mailJobFile, "job", "j", "", "Path to a job posting JSON object (required)")
	writeMailCmd.Flags().BoolVar(&mailNoLinks, "no-links", false, "Draft without portfolio links")
	_ = writeMailCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(writeMailCmd)
}

func runWriteMail(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(mailJobFile)
	if err != nil {
		return fmt.Errorf("failed to read job file: %w", err)
	}

	var job types.JobPosting
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("failed to parse job file: %w", err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	client, err := a.outreachClient(cmd.Context())
	if err != nil {
		return err
	}

	var links types.LinkQueryResult
	if !mailNoLinks {
		store, err := a.portfolioStore(cmd.Context())
		if err != nil {
			return err
		}
		links, err = store.QueryLinks(cmd.Context(), job.Skills)
		if err != nil {
			return err
		}
	}

	email, err := client.WriteMail(cmd.Context(), job, links)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), email)
	return err
}
