package usecase

import (
	"fmt"
	"strings"

	"ArticleEnhancer/internal/domain"
)

// FormatBatchReport renders a plain-text summary for notifications.
func FormatBatchReport(report domain.BatchReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Enhancement batch finished\nProcessed: %d\nSucceeded: %d\nSkipped: %d\n",
		report.Processed, report.Succeeded, report.Failed())

	for _, outcome := range report.Skipped {
		fmt.Fprintf(&b, "- %s: %s\n", outcome.Title, outcome.Reason)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatHarvestReports renders one line per harvested site.
func FormatHarvestReports(reports []domain.HarvestReport) string {
	var b strings.Builder
	b.WriteString("Harvest finished")
	for _, r := range reports {
		fmt.Fprintf(&b, "\n- %s: last page %d, discovered %d, created %d, duplicates %d, discarded %d",
			r.Site, r.LastPage, r.Discovered, r.Created, r.Duplicates, r.Discarded)
	}
	return b.String()
}
