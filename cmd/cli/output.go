package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/kurihiro0119/msg-ingest/internal/domain"
	"github.com/kurihiro0119/msg-ingest/internal/source"
)

// outcomeDetail formats the secondary line shown for a record
func outcomeDetail(record domain.OutcomeRecord) string {
	if record.OK() {
		return "Success - Issue ID: " + record.IssueID
	}
	return "Error: " + record.ErrorMessage
}

func renderResults(w io.Writer, result domain.BatchResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Status", "Detail"})
	table.SetAutoWrapText(false)
	for _, record := range result.Records {
		table.Append([]string{
			record.FileName,
			string(record.Status),
			tableDetail(record),
		})
	}
	table.Render()
}

func tableDetail(record domain.OutcomeRecord) string {
	if record.OK() {
		return "Issue ID: " + record.IssueID
	}
	return "Error: " + record.ErrorMessage
}

func printSelection(w io.Writer, sel *source.Selection, ext string) {
	if len(sel.Files) == 0 {
		fmt.Fprintf(w, "No %s files selected (%d other files skipped)\n", ext, len(sel.Skipped))
		return
	}

	fmt.Fprintf(w, "Folder: %s\n", sel.Folder)
	fmt.Fprintf(w, "Selected Files (%d):\n", len(sel.Files))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "File"})
	for i, name := range sel.Names() {
		table.Append([]string{fmt.Sprintf("%d", i+1), name})
	}
	table.Render()

	if len(sel.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped %d files without the %s extension\n", len(sel.Skipped), ext)
	}
}
