package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mandolyte/mdtopdf"
)

// PDFOptions controls the page layout of a converted report.
type PDFOptions struct {
	Landscape bool
	Dark      bool
}

// ConvertToPDF renders the Markdown report at markdownPath into a PDF with the same
// base name in the same directory, and returns the absolute PDF path.
func ConvertToPDF(markdownPath string, opts PDFOptions) (string, error) {
	if filepath.Ext(markdownPath) != ".md" {
		return "", fmt.Errorf("report must be a .md file: %s", markdownPath)
	}

	content, err := os.ReadFile(markdownPath)
	if err != nil {
		return "", fmt.Errorf("os.ReadFile(%s) > %w", markdownPath, err)
	}

	orientation := "P"
	if opts.Landscape {
		orientation = "L"
	}
	theme := mdtopdf.LIGHT
	if opts.Dark {
		theme = mdtopdf.DARK
	}

	pdfPath := strings.TrimSuffix(markdownPath, ".md") + ".pdf"
	renderer := mdtopdf.NewPdfRenderer(orientation, "A4", pdfPath, "", nil, theme)
	if err := renderer.Process(content); err != nil {
		return "", fmt.Errorf("render %s: %w", pdfPath, err)
	}

	if absPath, err := filepath.Abs(pdfPath); err == nil {
		return absPath, nil
	}
	return pdfPath, nil
}
