package ingestion

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelector matches page chrome that never carries job content
const noiseSelector = "nav, footer, header, script, style, noscript, svg, form, iframe, " +
	".ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup"

// blockSelector matches elements whose text should start on a new line
const blockSelector = "p, div, li, br, tr, section, article, h1, h2, h3, h4, h5, h6"

// CareersSelectors returns selectors for the main content of careers pages,
// most specific first.
func CareersSelectors() []string {
	return []string{
		".careers",
		"#careers",
		".jobs",
		"#jobs",
		".job-listings",
		".openings",
		"[data-testid='job-list']",
		"main",
		"article",
		".content",
		"#content",
	}
}

// HTMLToText parses a saved careers page and returns its main text, one
// block element per line. Falls back to the body when no selector matches.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()
	doc.Find(blockSelector).AppendHtml("\n")

	var mainContent *goquery.Selection
	for _, selector := range CareersSelectors() {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return cleanWhitespace(mainContent.Text()), nil
}

// cleanWhitespace trims every line and drops the empty ones
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
