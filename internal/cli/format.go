package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/harun/oracle/pkg/session"
)

const (
	statusColumnWidth = 9
	modelColumnWidth  = 10

	createdLayout = "2006-01-02 15:04:05.000"
	isoLayout     = "2006-01-02T15:04:05.000Z"
)

// formatStatusLine renders one listing row:
// created | status | model | id
func formatStatusLine(rec *session.Record) string {
	status := string(rec.Status)
	if status == "" {
		status = "unknown"
	}
	model := rec.Model
	if model == "" {
		model = "n/a"
	}
	return fmt.Sprintf("%s | %-*s | %-*s | %s",
		rec.CreatedAt.UTC().Format(createdLayout),
		statusColumnWidth, status,
		modelColumnWidth, model,
		rec.ID)
}

func formatHours(hours float64) string {
	return strconv.FormatFloat(hours, 'f', -1, 64)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func writeStatusExamples(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage Examples")
	fmt.Fprintln(w, "  oracle status --hours 72 --limit 50")
	fmt.Fprintln(w, "    Show 72h of history capped at 50 entries.")
	fmt.Fprintln(w, "  oracle status clear --hours 168")
	fmt.Fprintln(w, "    Delete sessions older than 7 days (use --all to wipe everything).")
	fmt.Fprintln(w, "  oracle session <session-id>")
	fmt.Fprintln(w, "    Attach to a specific running/completed session to stream its output.")
}
