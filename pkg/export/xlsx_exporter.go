package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the title on row 1, headers on row 2 and the grid below,
// merging spanned cells.
func (e *XLSXExporter) Render(data Dataset, sheetName string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	if sheetName == "" {
		sheetName = "Timetable"
	}
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	lastCol := colName(len(data.Headers) - 1)
	f.SetColWidth(sheetName, "A", "A", 10)
	if len(data.Headers) > 1 {
		f.SetColWidth(sheetName, "B", lastCol, 28)
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 13},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 10, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	bodyStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border: []excelize.Border{
			{Type: "left", Color: "#BFBFBF", Style: 1},
			{Type: "right", Color: "#BFBFBF", Style: 1},
			{Type: "top", Color: "#BFBFBF", Style: 1},
			{Type: "bottom", Color: "#BFBFBF", Style: 1},
		},
	})

	title := data.Title
	if title == "" {
		title = sheetName
	}
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", cell(lastCol, 1))
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	for i, header := range data.Headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), header)
	}
	f.SetCellStyle(sheetName, "A2", cell(lastCol, 2), headerStyle)

	for rowIdx := range data.Rows {
		row := rowIdx + 3
		for col, value := range data.Record(rowIdx) {
			if value == "" {
				continue
			}
			f.SetCellValue(sheetName, cell(colName(col), row), value)
		}
		f.SetRowHeight(sheetName, row, 42)
	}
	if len(data.Rows) > 0 {
		f.SetCellStyle(sheetName, "A3", cell(lastCol, len(data.Rows)+2), bodyStyle)
	}

	for _, span := range data.Spans {
		if span.Width <= 1 || span.Column+span.Width > len(data.Headers) {
			continue
		}
		row := span.Row + 3
		start := cell(colName(span.Column), row)
		end := cell(colName(span.Column+span.Width-1), row)
		if err := f.MergeCell(sheetName, start, end); err != nil {
			return nil, fmt.Errorf("merge %s:%s: %w", start, end, err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
