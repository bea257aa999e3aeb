// Package output formats a ranked article batch for the three external
// shapes spec.md §6 names (structured, tabular, xlsx), generalizing the
// teacher's output.Formatter interface (internal/output/formatter.go) —
// there an LLM-driven HTML/Markdown renderer, here a set of plain
// structural transforms with no model call, since the result must be
// stable and mechanically reproducible.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/soochol/litsearch-mcp/internal/article"
	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
)

// Format selects which Formatter Resolve returns.
type Format string

const (
	FormatStructured Format = "structured"
	FormatTabular    Format = "tabular"
	FormatXLSX       Format = "xlsx"
)

// Formatter renders a ranked batch into a byte payload plus its MIME type.
type Formatter interface {
	Format(articles []article.UnifiedArticle) ([]byte, string, error)
}

// Resolve looks up the Formatter for a format name, defaulting to
// structured when the name is empty (unset output.format).
func Resolve(format string) (Formatter, error) {
	switch Format(format) {
	case "", FormatStructured:
		return StructuredFormatter{}, nil
	case FormatTabular:
		return TabularFormatter{}, nil
	case FormatXLSX:
		return XLSXFormatter{}, nil
	default:
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "unknown output format: "+format)
	}
}

// record is the flat, column-shaped projection every formatter builds
// from a UnifiedArticle before rendering it.
type record struct {
	PrimaryID  string
	Title      string
	Journal    string
	Year       string
	Authors    string
	Citations  string
	OpenAccess string
}

func toRecord(a article.UnifiedArticle) record {
	year := "unknown"
	if !a.PublicationDate.Unknown() {
		year = strconv.Itoa(a.PublicationDate.Year)
	}
	citations := ""
	if a.Metrics.CitationCount != nil {
		citations = strconv.Itoa(*a.Metrics.CitationCount)
	}
	names := make([]string, 0, len(a.Authors))
	for _, au := range a.Authors {
		names = append(names, au.Name)
	}
	openAccess := "no"
	if a.HasOpenAccessLink() {
		openAccess = "yes"
	}
	return record{
		PrimaryID:  a.PrimaryID(),
		Title:      a.Title,
		Journal:    a.Journal,
		Year:       year,
		Authors:    strings.Join(names, "; "),
		Citations:  citations,
		OpenAccess: openAccess,
	}
}

func (r record) cells() []string {
	return []string{r.PrimaryID, r.Title, r.Journal, r.Year, r.Authors, r.Citations, r.OpenAccess}
}

// StructuredFormatter renders the full UnifiedArticle batch as indented
// JSON — the machine-readable shape downstream tool callers parse.
type StructuredFormatter struct{}

func (StructuredFormatter) Format(articles []article.UnifiedArticle) ([]byte, string, error) {
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return nil, "", litsearcherr.Wrap(litsearcherr.Internal, "marshal structured output", err)
	}
	return data, "application/json", nil
}

// TabularFormatter renders a fixed-width, human-readable column table —
// the format a person reading tool output in a terminal sees.
type TabularFormatter struct{}

var tabularColumns = []string{"ID", "Title", "Journal", "Year", "Authors", "Citations", "OA"}

func (TabularFormatter) Format(articles []article.UnifiedArticle) ([]byte, string, error) {
	records := make([]record, len(articles))
	for i, a := range articles {
		records[i] = toRecord(a)
	}

	var buf bytes.Buffer
	widths := columnWidths(records)
	writeRow(&buf, tabularColumns, widths)
	writeSeparator(&buf, widths)
	for _, r := range records {
		writeRow(&buf, r.cells(), widths)
	}
	return buf.Bytes(), "text/plain", nil
}

func columnWidths(records []record) []int {
	widths := make([]int, len(tabularColumns))
	for i, h := range tabularColumns {
		widths[i] = len(h)
	}
	for _, r := range records {
		for i, c := range r.cells() {
			if len(c) > widths[i] {
				widths[i] = len(c)
			}
			if widths[i] > 40 {
				widths[i] = 40
			}
		}
	}
	return widths
}

func writeRow(buf *bytes.Buffer, cells []string, widths []int) {
	for i, c := range cells {
		if len(c) > widths[i] {
			c = c[:widths[i]-1] + "…"
		}
		fmt.Fprintf(buf, "%-*s  ", widths[i], c)
	}
	buf.WriteByte('\n')
}

func writeSeparator(buf *bytes.Buffer, widths []int) {
	for _, w := range widths {
		buf.WriteString(strings.Repeat("-", w))
		buf.WriteString("  ")
	}
	buf.WriteByte('\n')
}

// XLSXFormatter renders the batch as a single-sheet spreadsheet via
// excelize, generalizing the teacher's read-side XLSX handling
// (internal/extract/office.go's extractXLSX) to the write direction.
type XLSXFormatter struct{}

const xlsxSheet = "Articles"

func (XLSXFormatter) Format(articles []article.UnifiedArticle) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, "", litsearcherr.Wrap(litsearcherr.Internal, "rename xlsx sheet", err)
	}

	for i, h := range tabularColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(xlsxSheet, cell, h); err != nil {
			return nil, "", litsearcherr.Wrap(litsearcherr.Internal, "write xlsx header", err)
		}
	}

	for row, a := range articles {
		r := toRecord(a)
		cells := r.cells()
		for col, v := range cells {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(xlsxSheet, cell, v); err != nil {
				return nil, "", litsearcherr.Wrap(litsearcherr.Internal, "write xlsx cell", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", litsearcherr.Wrap(litsearcherr.Internal, "render xlsx", err)
	}
	return buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
}
