package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jonathan/outreach-agent/internal/ingestion"
)

// readInput returns cleaned text from a file, or from stdin when path is "-"
func readInput(path string, stdin io.Reader, log *slog.Logger) (string, error) {
	if path == "" {
		return "", fmt.Errorf("--in is required (use - for stdin)")
	}

	var (
		text string
		meta *ingestion.Metadata
	)
	if path == "-" {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		format := ingestion.DetectFormat("", content)
		if text, err = ingestion.Ingest(content, format); err != nil {
			return "", err
		}
		meta = ingestion.NewMetadata(text, "stdin", format)
	} else {
		var err error
		if text, meta, err = ingestion.IngestFromFile(path); err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
	}

	log.Debug("input ingested", "page", meta)
	return text, nil
}

// writeJSON writes v as indented JSON to path, or to w when path is empty
func writeJSON(path string, w io.Writer, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if path == "" {
		_, err = fmt.Fprintln(w, string(jsonBytes))
		return err
	}
	if err := os.WriteFile(path, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
