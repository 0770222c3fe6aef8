package main

import (
	"github.com/jonathan/outreach-agent/internal/observability"
	"github.com/jonathan/outreach-agent/internal/types"
	"github.com/spf13/cobra"
)

var queryLinksCmd = &cobra.Command{
	Use:   "query-links [skill...]",
	Short: "Find portfolio links matching skills",
	Long:  "Query the portfolio for the entries closest to each skill. Skills may also be given as one comma-separated argument.",
	RunE:  runQueryLinks,
}

var queryLinksJSON bool

func init() {
	queryLinksCmd.Flags().BoolVar(&queryLinksJSON, "json", false, "Print the raw result as JSON")
	rootCmd.AddCommand(queryLinksCmd)
}

func runQueryLinks(cmd *cobra.Command, args []string) error {
	var skills []string
	for _, arg := range args {
		skills = append(skills, types.SplitList(arg)...)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	store, err := a.portfolioStore(cmd.Context())
	if err != nil {
		return err
	}

	result, err := store.QueryLinks(cmd.Context(), skills)
	if err != nil {
		return err
	}

	if queryLinksJSON {
		return writeJSON("", cmd.OutOrStdout(), result)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintLinks(skills, result)
	return nil
}
