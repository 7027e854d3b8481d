package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/tester"
)

// WritePDF renders the report as a one-page A4 PDF to path.
func WritePDF(path string, m Meta, rep *tester.Report, runErr error) error {
	data, err := GeneratePDF(m, rep, runErr)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GeneratePDF renders the report as a PDF in memory.
func GeneratePDF(m Meta, rep *tester.Report, runErr error) ([]byte, error) {
	var out bytes.Buffer
	if err := EncodePDF(&out, m, rep, runErr); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// EncodePDF writes the PDF document to w.
func EncodePDF(w io.Writer, m Meta, rep *tester.Report, runErr error) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(titleOf(m), true)
	pdf.SetCreator("ictest", true)
	if !m.When.IsZero() {
		pdf.SetCreationDate(m.When)
	}
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, titleOf(m), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if h := heading(m, rep); h != "" {
		pdf.CellFormat(0, 6, h, "", 1, "L", false, 0, "")
	}
	if !m.When.IsZero() {
		pdf.CellFormat(0, 6, m.When.Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	for _, l := range Lines(rep, runErr) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 6, l.Label, "", 0, "L", false, 0, "")
		if l.Fail {
			pdf.SetTextColor(200, 0, 0)
		}
		font := "Helvetica"
		if l.Label == "Sent" || l.Label == "Received" {
			font = "Courier"
		}
		pdf.SetFont(font, "", 10)
		pdf.MultiCell(0, 6, l.Value, "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}

	if rep != nil {
		if dbg := rep.DebugText(); dbg != "" {
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, 6, "Debug output", "", 1, "L", false, 0, "")
			pdf.SetFont("Courier", "", 9)
			pdf.MultiCell(0, 5, dbg, "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: generate PDF: %w", err)
	}
	return nil
}

func titleOf(m Meta) string {
	if t := strings.TrimSpace(m.Title); t != "" {
		return "IC test report: " + t
	}
	return "IC test report"
}
