// Package report writes extracted articles to an Excel workbook.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/fedestu/RPA-Challenge/logger"
	"github.com/fedestu/RPA-Challenge/newsfeed"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the articles.
const SheetName = "News"

// Columns is the header row, in column order.
var Columns = []string{
	"title",
	"date",
	"description",
	"picture_filename",
	"search_phrase_count",
	"contains_money",
}

// Writer creates news_data_<date>.xlsx files in a directory.
type Writer struct {
	dir string
	log logger.Logger
}

// NewWriter returns a writer for dir. The directory is created on the first
// write.
func NewWriter(dir string, log logger.Logger) *Writer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Writer{dir: dir, log: log}
}

// Path returns the report path for day.
func (w *Writer) Path(day time.Time) string {
	return filepath.Join(w.dir, "news_data_"+day.Format(newsfeed.DateLayout)+".xlsx")
}

// Write stores records, in order, under the report path of day and returns
// that path. An existing report for the same day is replaced. The header row
// is bold and centred and every column is as wide as its longest value plus
// two.
func (w *Writer) Write(day time.Time, records []newsfeed.ArticleRecord) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := w.Path(day)
	w.log.Info("creating excel report", logger.String("path", path), logger.Int("rows", len(records)))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return "", fmt.Errorf("failed to name sheet: %w", err)
	}

	widths := make([]int, len(Columns))
	for i, h := range Columns {
		if err := setCell(f, i+1, 1, h); err != nil {
			return "", err
		}
		widths[i] = utf8.RuneCountInString(h)
	}

	for r, record := range records {
		for i, v := range rowValues(record) {
			if err := setCell(f, i+1, r+2, v); err != nil {
				return "", err
			}
			widths[i] = max(widths[i], displayLength(v))
		}
	}

	if err := styleHeader(f); err != nil {
		return "", err
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return "", fmt.Errorf("failed to name column: %w", err)
		}
		if err := f.SetColWidth(SheetName, col, col, float64(width+2)); err != nil {
			return "", fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	w.log.Info("excel report created successfully", logger.String("path", path))
	return path, nil
}

func rowValues(r newsfeed.ArticleRecord) []any {
	return []any{
		r.Title,
		r.Date(),
		r.Description,
		r.ImageFilename,
		r.SearchPhraseCount,
		r.ContainsMoney,
	}
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to name cell: %w", err)
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}

func styleHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(len(Columns), 1)
	if err != nil {
		return fmt.Errorf("failed to name cell: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

// displayLength is the number of characters of v as rendered in the sheet.
func displayLength(v any) int {
	switch v := v.(type) {
	case string:
		return utf8.RuneCountInString(v)
	case int:
		return len(strconv.Itoa(v))
	case bool:
		if v {
			return len("TRUE")
		}
		return len("FALSE")
	default:
		return utf8.RuneCountInString(fmt.Sprint(v))
	}
}
