// Package main provides the entry point for the outreach agent CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "outreach_agent",
	Short: "Cold outreach email generator",
	Long: "Outreach agent extracts job postings from careers-page text, matches them against a portfolio " +
		"of past work and drafts a cold email per posting.",
	SilenceUsage: true,
}

var (
	configPath  string
	apiKeyFlag  string
	verboseFlag bool
	flagValues  config.Config // persistent flag values, merged over the config file
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	pf.StringVar(&apiKeyFlag, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	pf.StringVar(&flagValues.Model, "model", "", "Model name for the standard tier")
	pf.StringVar(&flagValues.SourcePath, "portfolio", "", "Path to the portfolio CSV (default resource/my_portfolio.csv)")
	pf.StringVar(&flagValues.PersistDir, "persist-dir", "", "Vector store directory (default vectorstore)")
	pf.StringVar(&flagValues.Backend, "backend", "", "Vector store backend: sqlite, postgres or qdrant")
	pf.StringVar(&flagValues.DatabaseURL, "db-url", "", "PostgreSQL URL for the postgres backend (or DATABASE_URL)")
	pf.StringVar(&flagValues.QdrantAddr, "qdrant-addr", "", "Qdrant gRPC address for the qdrant backend")
	pf.StringVar(&flagValues.Embedder, "embedder", "", "Embedding provider: gemini or hashing")
	pf.IntVar(&flagValues.ResultsPerSkill, "results-per-skill", 0, "Portfolio matches returned per skill (default 2)")
	pf.BoolVar(&flagValues.Strict, "strict", false, "Validate extracted jobs against the JSON schema")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
