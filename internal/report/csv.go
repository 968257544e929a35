package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sevigo/diff-warden/internal/core"
)

// CSVHeader is the column order of WriteCSV, matching the finding's JSON field names.
var CSVHeader = []string{
	"file", "category", "snippet", "title", "issue",
	"recommendation", "weakness_id", "priority", "line_number",
}

// WriteCSV writes the findings to path, replacing any existing file.
func WriteCSV(path string, list []core.Finding) error {
	fp, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(fp)
	if err := w.Write(CSVHeader); err != nil {
		fp.Close()
		return err
	}
	for _, f := range list {
		line := ""
		if f.LineNumber != nil {
			line = strconv.Itoa(*f.LineNumber)
		}
		record := []string{
			f.File, f.Category, f.Snippet, f.Title, f.Issue,
			f.Recommendation, f.WeaknessID, strconv.Itoa(f.Priority), line,
		}
		if err := w.Write(record); err != nil {
			fp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return fp.Close()
}
