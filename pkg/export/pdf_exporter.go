package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin     = 10.0
	pdfFirstCol   = 22.0
	pdfLineHeight = 4.0
)

// PDFExporter renders datasets into a landscape timetable grid.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and a grid body.
// Spanned cells are drawn merged across their columns.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	if title == "" {
		title = data.Title
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, 12, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	widths := columnWidths(len(data.Headers), pageW-2*pdfMargin)
	spans := data.SpanIndex()

	drawHeader := func() {
		pdf.SetFont("Arial", "B", 8)
		pdf.SetFillColor(230, 236, 245)
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], 8, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 7)
	}

	pdf.AddPage()
	if title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 9, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
		pdf.Ln(2)
	}
	drawHeader()

	for rowIdx := range data.Rows {
		record := data.Record(rowIdx)
		cells := make([]pdfCell, 0, len(record))
		for col := 0; col < len(record); col++ {
			width := widths[col]
			covered := 1
			if w, ok := spans[rowIdx][col]; ok && col+w <= len(record) {
				for extra := 1; extra < w; extra++ {
					width += widths[col+extra]
				}
				covered = w
			}
			lines := pdf.SplitLines([]byte(tr(record[col])), width-2)
			cells = append(cells, pdfCell{width: width, lines: lines})
			col += covered - 1
		}

		height := 8.0
		for _, cell := range cells {
			if h := float64(len(cell.lines))*pdfLineHeight + 2; h > height {
				height = h
			}
		}
		if pdf.GetY()+height > pageH-pdfMargin {
			pdf.AddPage()
			drawHeader()
		}

		x, y := pdf.GetXY()
		for i, cell := range cells {
			pdf.Rect(x, y, cell.width, height, "D")
			for lineIdx, line := range cell.lines {
				pdf.SetXY(x+1, y+1+float64(lineIdx)*pdfLineHeight)
				align := "L"
				if i == 0 {
					align = "C"
				}
				pdf.CellFormat(cell.width-2, pdfLineHeight, string(line), "", 0, align, false, 0, "")
			}
			x += cell.width
		}
		pdf.SetXY(pdfMargin, y+height)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfCell struct {
	width float64
	lines [][]byte
}

func columnWidths(count int, total float64) []float64 {
	widths := make([]float64, count)
	if count == 1 {
		widths[0] = total
		return widths
	}
	first := pdfFirstCol
	if first > total/2 {
		first = total / 2
	}
	rest := (total - first) / float64(count-1)
	widths[0] = first
	for i := 1; i < count; i++ {
		widths[i] = rest
	}
	return widths
}
