// package formatter renders duplicate reports and plans as plain text, Markdown or CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/dupx/internal/models"
	"github.com/desertthunder/dupx/internal/shared"
)

// Format selects a report rendering.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// FormatFromPath picks a format from the file extension, defaulting to text.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatText
	}
}

// Report is the outcome of resolving one playlist.
type Report struct {
	Playlist models.Playlist
	Scanned  int
	Groups   []models.DuplicateGroup
	Remove   []string
	Keep     []string
}

// Extra counts copies beyond the first in every group.
func (r *Report) Extra() int {
	n := 0
	for _, g := range r.Groups {
		n += g.Extra()
	}
	return n
}

func artists(k models.UniqueTrackKey) string {
	return strings.Join(k.ArtistNames(), ", ")
}

// WriteGroups prints one line per duplicated group.
func WriteGroups(w io.Writer, groups []models.DuplicateGroup) error {
	for _, g := range groups {
		line := fmt.Sprintf("* %s (%s) [%s] x%d", g.Key.Name, artists(g.Key), shared.FormatDuration(g.Key.Duration), g.Count)
		if !g.Actionable() {
			line += " (local only, left untouched)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// ReportToText renders a report as plain text.
func ReportToText(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s (%s)\n", r.Playlist.Name, r.Playlist.ID))
	buf.WriteString(fmt.Sprintf("Tracks scanned: %d\n", r.Scanned))
	buf.WriteString(fmt.Sprintf("Duplicate groups: %d (%d extra copies)\n\n", len(r.Groups), r.Extra()))

	if len(r.Groups) == 0 {
		buf.WriteString("No duplicates.\n")
		return buf.Bytes(), nil
	}

	if err := WriteGroups(&buf, r.Groups); err != nil {
		return nil, err
	}
	buf.WriteString(fmt.Sprintf("\nRemove: %d ids\nRe-add: %d ids\n", len(r.Remove), len(r.Keep)))
	return buf.Bytes(), nil
}

// ReportToMarkdown renders a report as a Markdown document with a group table.
func ReportToMarkdown(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Duplicates in %s\n\n", r.Playlist.Name))
	buf.WriteString(fmt.Sprintf("**Playlist**: `%s`\n", r.Playlist.ID))
	if r.Playlist.Owner != "" {
		buf.WriteString(fmt.Sprintf("**Owner**: %s\n", r.Playlist.Owner))
	}
	buf.WriteString(fmt.Sprintf("**Tracks scanned**: %d\n", r.Scanned))
	buf.WriteString(fmt.Sprintf("**Duplicate groups**: %d\n\n", len(r.Groups)))

	if len(r.Groups) == 0 {
		buf.WriteString("No duplicates.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("## Groups\n\n")
	buf.WriteString("| # | Title | Artists | Duration | Copies | Kept ID |\n")
	buf.WriteString("|---|-------|---------|----------|--------|---------|\n")
	for i, g := range r.Groups {
		kept := "-"
		if g.Actionable() {
			kept = "`" + g.IDs[0] + "`"
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %d | %s |\n",
			i+1, escapeCell(g.Key.Name), escapeCell(artists(g.Key)), shared.FormatDuration(g.Key.Duration), g.Count, kept))
	}
	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ReportToCSV converts a report to CSV with columns: Title, Artists, Duration, Copies, IDs, Kept
func ReportToCSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Title", "Artists", "Duration", "Copies", "IDs", "Kept"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, g := range r.Groups {
		kept := ""
		if g.Actionable() {
			kept = g.IDs[0]
		}
		record := []string{
			g.Key.Name,
			artists(g.Key),
			strconv.Itoa(g.Key.Duration),
			strconv.Itoa(g.Count),
			strings.Join(g.IDs, " "),
			kept,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// Render dispatches on format.
func Render(r *Report, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ReportToCSV(r)
	case FormatMarkdown:
		return ReportToMarkdown(r)
	case FormatText, "":
		return ReportToText(r)
	default:
		return nil, fmt.Errorf("%w: report format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteReport writes a report in the format implied by path's extension.
//
// Defaults to {playlist.ID}_duplicates.txt as the filename.
func WriteReport(r *Report, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_duplicates.txt", r.Playlist.ID)
	}

	data, err := Render(r, FormatFromPath(path))
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// PlanToText describes a plan, as shown by --dry-run and the plans command.
func PlanToText(plan *models.Plan) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Plan %s [%s]\n", plan.PlanID, plan.Status))
	buf.WriteString(fmt.Sprintf("  playlist: %s (%s)\n", plan.PlaylistName, plan.PlaylistID))
	buf.WriteString(fmt.Sprintf("  remove:   %d ids\n", len(plan.RemoveIDs)))
	if plan.Added > 0 && plan.Added < len(plan.KeepIDs) {
		buf.WriteString(fmt.Sprintf("  re-add:   %d ids (%d done)\n", len(plan.KeepIDs), plan.Added))
	} else {
		buf.WriteString(fmt.Sprintf("  re-add:   %d ids\n", len(plan.KeepIDs)))
	}
	if !plan.Created.IsZero() {
		buf.WriteString(fmt.Sprintf("  created:  %s\n", plan.Created.Local().Format("2006-01-02 15:04:05")))
	}
	if plan.LastError != "" {
		buf.WriteString(fmt.Sprintf("  error:    %s\n", plan.LastError))
	}
	return buf.Bytes()
}

// WritePlans prints every plan, or a notice when there are none.
func WritePlans(w io.Writer, plans []*models.Plan) error {
	if len(plans) == 0 {
		_, err := fmt.Fprintln(w, "No plans.")
		return err
	}
	for _, p := range plans {
		if _, err := w.Write(PlanToText(p)); err != nil {
			return err
		}
	}
	return nil
}
