// Package ingestion reads already-scraped careers-page content and reduces it
// to the cleaned text the extraction step expects.
package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	spaceRun     = regexp.MustCompile(`\s+`)
	blankLineRun = regexp.MustCompile(`\n\n\n+`)
	urlPattern   = regexp.MustCompile(`https?://\S+`)
)

// Input formats
const (
	FormatText = "text"
	FormatHTML = "html"
)

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	// 1. Normalize line endings (CRLF → LF)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	// 2. Clean each line
	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	// 3. Max 2 consecutive newlines, trimmed
	result := strings.Join(cleanedLines, "\n")
	result = blankLineRun.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// StripURLs removes http(s) URLs. Careers pages are full of tracking links
// that only cost prompt space.
func StripURLs(content string) string {
	return urlPattern.ReplaceAllString(content, "")
}

// cleanLine cleans a single line while preserving structure
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	// Markdown headings lose their indentation
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	// Bullets keep their indentation and content as-is
	indent := len(line) - len(trimmed)
	if isBulletLine(trimmed) {
		return strings.Repeat(" ", indent) + trimmed
	}

	content := spaceRun.ReplaceAllString(strings.TrimSpace(line), " ")
	return strings.Repeat(" ", indent) + content
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "• ") || strings.HasPrefix(trimmed, "· ")
}

// DetectFormat guesses whether content is HTML from the file extension,
// falling back to sniffing the first non-blank bytes.
func DetectFormat(path string, content []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return FormatHTML
	case ".txt", ".md":
		return FormatText
	}
	head := strings.ToLower(strings.TrimSpace(string(content[:min(len(content), 512)])))
	if strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") {
		return FormatHTML
	}
	return FormatText
}

// Ingest cleans raw content of the given format
func Ingest(content []byte, format string) (string, error) {
	text := string(content)
	if format == FormatHTML {
		var err error
		text, err = HTMLToText(text)
		if err != nil {
			return "", err
		}
	}
	return CleanText(text), nil
}

// IngestFromFile reads a text or HTML file, cleans it, and returns cleaned text with metadata
func IngestFromFile(path string) (string, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	format := DetectFormat(path, content)
	cleanedText, err := Ingest(content, format)
	if err != nil {
		return "", nil, fmt.Errorf("failed to ingest %s: %w", path, err)
	}

	metadata := NewMetadata(cleanedText, path, format)
	return cleanedText, metadata, nil
}
