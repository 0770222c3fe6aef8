package portfolio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/jonathan/outreach-agent/internal/types"
)

// Column headers of the source table, matched case-insensitively
const (
	ColumnTechStack = "Techstack"
	ColumnLinks     = "Links"
)

// ReadTable reads the portfolio CSV at path
func ReadTable(path string) ([]types.PortfolioEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &StoreError{Op: "open", Path: path, Cause: err}
	}
	defer func() { _ = f.Close() }()

	entries, err := parseTable(f)
	if err != nil {
		return nil, &StoreError{Op: "read", Path: path, Cause: err}
	}
	return entries, nil
}

func parseTable(r io.Reader) ([]types.PortfolioEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty table: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	techCol, linksCol := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch {
		case strings.EqualFold(name, ColumnTechStack):
			techCol = i
		case strings.EqualFold(name, ColumnLinks):
			linksCol = i
		}
	}
	if techCol < 0 {
		return nil, fmt.Errorf("missing column %q", ColumnTechStack)
	}
	if linksCol < 0 {
		return nil, fmt.Errorf("missing column %q", ColumnLinks)
	}

	var entries []types.PortfolioEntry
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}

		tech := field(record, techCol)
		links := SplitLinks(field(record, linksCol))
		if tech == "" && len(links) == 0 {
			continue
		}
		entries = append(entries, types.PortfolioEntry{TechStack: tech, Links: links})
	}
	return entries, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// SplitLinks splits a links cell on commas and whitespace
func SplitLinks(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
