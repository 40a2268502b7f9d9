// Package export renders stored reports into downloadable documents.
package export

import (
	"errors"
	"fmt"

	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const reportTitle = "Business Risk Report"

var ErrUnsupportedFormat = errors.New("unsupported export format")

const (
	FormatMarkdown = "md"
	FormatPDF      = "pdf"
)

// Renderer turns a report into a document.
type Renderer interface {
	Render(report *models.Report) ([]byte, error)
	ContentType() string
	FileExtension() string
}

// Factory builds renderers by format name.
type Factory struct {
	pdfFontPath string
}

// NewFactory returns a Factory. pdfFontPath optionally points at a UTF-8 TTF
// font used for PDF output; without it PDFs fall back to the core Arial font.
func NewFactory(pdfFontPath string) *Factory {
	return &Factory{pdfFontPath: pdfFontPath}
}

func (f *Factory) Create(format string) (Renderer, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownRenderer(), nil
	case FormatPDF:
		return NewPDFRenderer(f.pdfFontPath), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func title(r *models.Report) string {
	if r.BusinessName == "" {
		return reportTitle
	}
	return reportTitle + ": " + r.BusinessName
}

func methodNames(ms []models.AnalysisMethod) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = string(m)
	}
	return out
}
