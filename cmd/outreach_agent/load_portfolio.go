package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loadPortfolioCmd = &cobra.Command{
	Use:   "load-portfolio",
	Short: "Load the portfolio table into the vector store",
	Long:  "Load the portfolio CSV into the vector store. Does nothing if the collection already holds entries.",
	RunE:  runLoadPortfolio,
}

func init() {
	rootCmd.AddCommand(loadPortfolioCmd)
}

func runLoadPortfolio(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	store, err := a.portfolioStore(cmd.Context())
	if err != nil {
		return err
	}

	count, err := a.index.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count portfolio entries: %w", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Portfolio ready: %d entries in collection %q (%d rows in %s)\n",
		count, a.cfg.Collection, len(store.Entries()), a.cfg.SourcePath)
	return err
}
