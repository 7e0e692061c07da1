// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/med-zino/cvmatch/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
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
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintResumeProfile outputs a human-readable summary of the analyzed CV.
func (p *Printer) PrintResumeProfile(profile *types.ResumeProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder

	if len(profile.Skills) > 0 {
		sb.WriteString("Skills:\n")
		count := min(len(profile.Skills), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", profile.Skills[i]))
		}
		if len(profile.Skills) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.Skills)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(profile.Experience) > 0 {
		sb.WriteString("Experience:\n")
		count := min(len(profile.Experience), 3)
		for i := 0; i < count; i++ {
			entry := profile.Experience[i]
			sb.WriteString(fmt.Sprintf("  • %s at %s", entry.Title, entry.Company))
			if entry.Duration != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", entry.Duration))
			}
			sb.WriteString("\n")
		}
		if len(profile.Experience) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.Experience)-3))
		}
		sb.WriteString("\n")
	}

	if len(profile.Education) > 0 {
		sb.WriteString("Education:\n")
		count := min(len(profile.Education), 3)
		for i := 0; i < count; i++ {
			entry := profile.Education[i]
			sb.WriteString(fmt.Sprintf("  • %s, %s\n", entry.Degree, entry.Institution))
		}
		if len(profile.Education) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.Education)-3))
		}
		sb.WriteString("\n")
	}

	if len(profile.Languages) > 0 {
		langs := strings.Join(profile.Languages, ", ")
		if len(langs) > 45 {
			langs = langs[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("Languages: %s\n", langs))
	}

	p.printBox("CV ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMatches outputs the top ranked job matches with scores and skills.
func (p *Printer) PrintMatches(matches []types.MatchResult) {
	if len(matches) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total jobs ranked: %d\n\n", len(matches)))

	count := min(len(matches), maxItemsToShow)
	for i := 0; i < count; i++ {
		match := matches[i]
		title := match.Title
		if len(title) > 45 {
			title = title[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, title))
		sb.WriteString(fmt.Sprintf("    %s  Score: %d\n", match.Company, match.Score))
		if len(match.SkillsMatch) > 0 {
			skills := strings.Join(match.SkillsMatch, ", ")
			if len(skills) > 40 {
				skills = skills[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf("    Skills: %s\n", skills))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(matches) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more matches", len(matches)-maxItemsToShow))
	}

	p.printBox("TOP JOB MATCHES", sb.String())
}

// PrintReport outputs the final run summary.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintReport(report *types.MatchReport) {
	if report == nil {
		return
	}

	if len(report.JobMatches) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO MATCHES FOUND")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Jobs found:   %d\n", report.Meta.TotalJobsFound))
	sb.WriteString(fmt.Sprintf("Jobs ranked:  %d\n", report.Meta.MatchedJobs))
	sb.WriteString(fmt.Sprintf("Processed at: %s", report.Meta.ProcessedAt))

	p.printBox("RUN SUMMARY", sb.String())
}
