// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/outreach-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 8
)

// Printer handles formatted output for human-readable mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads s to exactly width runes
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		runes := []rune(s)
		return string(runes[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-n)
}

// PrintJobs outputs a summary of each extracted job posting
func (p *Printer) PrintJobs(jobs []types.JobPosting) {
	if len(jobs) == 0 {
		p.printBox("Job Postings", "No job postings found")
		return
	}

	var sb strings.Builder
	for i, job := range jobs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, job.Role))
		if job.Experience != "" {
			sb.WriteString(fmt.Sprintf("   Experience: %s\n", job.Experience))
		}
		if len(job.Skills) > 0 {
			sb.WriteString(fmt.Sprintf("   Skills:     %s\n", joinLimited(job.Skills, maxItemsToShow)))
		}
	}
	p.printBox(fmt.Sprintf("Job Postings (%d)", len(jobs)), strings.TrimRight(sb.String(), "\n"))
}

// PrintLinks outputs the portfolio links found per skill
func (p *Printer) PrintLinks(skills []string, result types.LinkQueryResult) {
	var sb strings.Builder
	for i, set := range result {
		skill := fmt.Sprintf("#%d", i+1)
		if i < len(skills) {
			skill = skills[i]
		}
		sb.WriteString(skill + ":\n")
		if len(set) == 0 {
			sb.WriteString("  (no matches)\n")
		}
		for _, meta := range set {
			sb.WriteString(fmt.Sprintf("  • %s\n", meta[types.MetadataKeyLinks]))
		}
	}
	if sb.Len() == 0 {
		sb.WriteString("No skills to match")
	}
	p.printBox("Portfolio Links", strings.TrimRight(sb.String(), "\n"))
}

// PrintDraft outputs one pipeline draft. The email body is printed in full,
// outside the box, so it can be copied.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintDraft(index int, draft types.Draft) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Role:  %s\n", draft.Job.Role))
	links := draft.Links.Links()
	sb.WriteString(fmt.Sprintf("Links: %d\n", len(links)))
	for _, link := range links {
		sb.WriteString(fmt.Sprintf("  • %s\n", link))
	}
	if draft.Err != "" {
		sb.WriteString(fmt.Sprintf("Error: %s\n", draft.Err))
	}
	p.printBox(fmt.Sprintf("Draft %d", index+1), strings.TrimRight(sb.String(), "\n"))

	if draft.Email != "" {
		fmt.Fprintf(p.out, "\n%s\n\n", strings.TrimSpace(draft.Email))
	}
}

// PrintSummary outputs the final counts of a run
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSummary(total, failed int) {
	fmt.Fprintf(p.out, "Drafted %d of %d emails", total-failed, total)
	if failed > 0 {
		fmt.Fprintf(p.out, " (%d failed)", failed)
	}
	fmt.Fprintln(p.out)
}

func joinLimited(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:limit], ", ") + fmt.Sprintf(" ... and %d more", len(items)-limit)
}
