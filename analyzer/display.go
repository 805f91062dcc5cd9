package analyzer

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
)

var statusStyles = map[Status]lipgloss.Style{
	StatusOptimized: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
	StatusUnchanged: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	StatusSkipped:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
}

func renderStatus(s Status, color bool) string {
	style, ok := statusStyles[s]
	if !color || !ok {
		return string(s)
	}
	return style.Render(string(s))
}

// PrintSummary writes a table of the files a run touched followed by the
// totals. Unchanged and skipped files are only counted unless verbose is set.
func PrintSummary(w io.Writer, report *Report, verbose, color bool) {
	if report.Totals.Files == 0 {
		fmt.Fprintf(w, "No compiled modules found in %s\n", report.Root)
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Package", "Status", "Bytes in", "Bytes out"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	for _, f := range report.Files {
		if !verbose && (f.Status == StatusUnchanged || f.Status == StatusSkipped) {
			continue
		}
		table.Append([]string{
			f.Path,
			f.Package,
			renderStatus(f.Status, color),
			strconv.Itoa(f.BytesIn),
			strconv.Itoa(f.BytesOut),
		})
	}

	t := report.Totals
	table.SetFooter([]string{
		fmt.Sprintf("%d files", t.Files),
		"",
		fmt.Sprintf("%d optimized", t.Optimized),
		strconv.Itoa(t.BytesIn),
		strconv.Itoa(t.BytesOut),
	})
	table.Render()

	fmt.Fprintf(w, "\n%d optimized, %d unchanged, %d skipped, %d failed\n",
		t.Optimized, t.Unchanged, t.Skipped, t.Failed)
}
