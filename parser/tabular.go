package parser

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TabularParser handles CSV, XLSX, and XLS files with one algorithm: the
// header row determines column names, and each data row becomes one
// section titled "Row N" whose content is the "col: value"-joined fields
// with empty cells omitted.
type TabularParser struct{}

func (p *TabularParser) SupportedFormats() []string { return []string{"csv", "xlsx", "xls"} }

func (p *TabularParser) Parse(ctx context.Context, path string) (*ParsedDocument, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	var rows [][]string
	var err error
	switch ext {
	case "csv":
		rows, err = readCSVRows(path)
	default:
		rows, err = readExcelRows(path)
	}
	if err != nil {
		return &ParsedDocument{Confidence: 0, FileType: ext, Warnings: []string{err.Error()}}, nil
	}
	if len(rows) == 0 {
		return &ParsedDocument{Confidence: 1.0, FileType: ext}, nil
	}

	header := rows[0]
	doc := &ParsedDocument{
		FileType:   ext,
		Confidence: 1.0,
		Metadata: map[string]string{
			"columns":      strings.Join(header, ","),
			"row_count":    strconv.Itoa(len(rows) - 1),
			"column_count": strconv.Itoa(len(header)),
		},
	}

	var raw strings.Builder
	for i, row := range rows[1:] {
		title := fmt.Sprintf("Row %d", i+1)
		var content strings.Builder
		for col, value := range row {
			if col >= len(header) || strings.TrimSpace(value) == "" {
				continue
			}
			content.WriteString(header[col])
			content.WriteString(": ")
			content.WriteString(value)
			content.WriteString("\n")
		}
		start := raw.Len()
		raw.WriteString(title + "\n")
		raw.WriteString(content.String())
		raw.WriteString("\n")
		end := raw.Len()

		doc.Sections = append(doc.Sections, ParsedSection{
			Title:       title,
			Content:     strings.TrimRight(content.String(), "\n"),
			Level:       1,
			StartOffset: start,
			EndOffset:   end,
			Path:        title,
		})
	}
	doc.RawText = raw.String()

	return doc, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	return f.GetRows(sheets[0])
}
