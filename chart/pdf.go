package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
)

const BundleFile = "analysis_report.pdf"

// Bundle writes an A4 PDF holding the text report followed by one image per page.
func Bundle(path string, report []byte, images []string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Crypto & Tech Stock Analysis", true)
	pdf.SetCreationDate(time.Now())
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)

	pdf.AddPage()
	pdf.SetFont("Courier", "", 8)
	pdf.MultiCell(0, 3.5, string(report), "", "L", false)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	for _, img := range images {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, filepath.Base(img), "", 1, "L", false, 0, "")
		pdf.ImageOptions(img, left, pdf.GetY()+2, pageW-left-right, 0, false,
			fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
