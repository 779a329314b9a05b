package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/kwan3217/globetrotter/internal/ingest"
)

// SavePDF renders the import summaries into a PDF document. Each file gets
// a summary block, a per-packet count table and a QR code carrying the
// file's identity for cross-checking against the archive.
func SavePDF(sums []*ingest.Summary, out string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Import Report", false)
	pdf.SetAuthor("globetrotter", false)
	pdf.SetCreator("globetrotter", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, "Import Report")
	for i, sum := range sums {
		if sum == nil {
			continue
		}
		addFileSection(pdf, i, sum)
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addFileSection(pdf *gofpdf.Fpdf, index int, sum *ingest.Summary) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, sum.File)
	pdf.Ln(8)

	if sum.Skipped {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "Already imported; skipped.", "", "L", false)
		pdf.Ln(4)
		return
	}

	addIdentityQR(pdf, index, sum)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Bytes", value: strconv.FormatInt(sum.Bytes, 10)},
		{label: "Frames", value: strconv.FormatInt(sum.Frames, 10)},
		{label: "Drops", value: strconv.FormatInt(sum.Drops, 10)},
		{label: "Unrecognized", value: strconv.FormatInt(sum.Unrecognized, 10)},
		{label: "SHA-256", value: sum.SHA256},
	}
	for _, item := range items {
		pdf.CellFormat(40, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	addCountsSection(pdf, sum)
}

func addIdentityQR(pdf *gofpdf.Fpdf, index int, sum *ingest.Summary) {
	png, err := FileIdentityQR(sum.File, sum.SHA256, 256)
	if err != nil {
		return
	}
	name := fmt.Sprintf("qr-%d", index)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	x, y := pdf.GetX(), pdf.GetY()
	pdf.ImageOptions(name, 160, y, 30, 30, false, opts, 0, "")
	pdf.SetXY(x, y)
}

func addCountsSection(pdf *gofpdf.Fpdf, sum *ingest.Summary) {
	headers := []string{"Protocol", "Packet", "Records"}
	widths := []float64{36, 90, 28}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	lineHeight := 5.0
	for _, key := range sum.SortedCounts() {
		protocol, packet, _ := strings.Cut(key, "/")
		values := []string{
			protocol,
			packet,
			strconv.FormatInt(sum.Counts[key], 10),
		}
		renderTableRow(pdf, widths, values, lineHeight)
	}
	pdf.Ln(6)
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		lines := pdf.SplitText(text, widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		cellText := strings.Join(lines, "\n")
		pdf.MultiCell(widths[i], lineHeight, cellText, "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}
