package export

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the family name registered for a UTF-8 font.
	pdfFontName = "ReportSans"
)

type PDFRenderer struct {
	fontPath string
}

func NewPDFRenderer(fontPath string) *PDFRenderer {
	return &PDFRenderer{fontPath: fontPath}
}

func (pr *PDFRenderer) Render(r *models.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title(r), true)
	pdf.AddPage()

	fontName := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if pr.fontPath != "" {
		if _, err := os.Stat(pr.fontPath); err == nil {
			pdf.AddUTF8Font(pdfFontName, "", pr.fontPath)
			pdf.AddUTF8Font(pdfFontName, "B", pr.fontPath)
			fontName = pdfFontName
			tr = func(s string) string { return s }
		}
	}

	pdf.SetFont(fontName, "B", 18)
	pdf.MultiCell(0, 9, tr(title(r)), "", "", false)
	pdf.Ln(2)

	pdf.SetFont(fontName, "", 11)
	meta := []string{
		"Category: " + r.Category.Name,
		"Analysis methods: " + strings.Join(methodNames(r.Methods), ", "),
		fmt.Sprintf("Overall risk: %s (grade %s, %.2f/100)", r.RiskLevel, r.RiskGrade, r.OverallScore),
		"Generated: " + r.GeneratedAt.Format("2006-01-02 15:04 MST"),
	}
	for _, line := range meta {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}

	section(pdf, fontName, tr, "Executive Summary")
	_, lineHeight := pdf.GetFontSize()
	pdf.MultiCell(0, lineHeight*1.5, tr(strings.TrimSpace(r.ExecutiveSummary)), "", "", false)

	section(pdf, fontName, tr, "Risks")
	for _, it := range r.Items {
		pdf.SetFont(fontName, "B", 11)
		head := fmt.Sprintf("%d. %s (RPN %d = O%d x S%d x D%d)", it.Rank, it.Description, it.RPN, it.Occurrence, it.Severity, it.Detection)
		pdf.MultiCell(0, 6, tr(head), "", "", false)
		pdf.SetFont(fontName, "", 10)
		if it.Method != "" {
			pdf.MultiCell(0, 5, tr("Method: "+string(it.Method)), "", "", false)
		}
		if it.Recommendation != "" {
			pdf.MultiCell(0, 5, tr("Recommendation: "+it.Recommendation), "", "", false)
		}
		pdf.Ln(2)
	}

	if len(r.MethodResults) > 0 {
		section(pdf, fontName, tr, "Analysis by Method")
		for _, mr := range r.MethodResults {
			pdf.SetFont(fontName, "B", 12)
			pdf.MultiCell(0, 7, tr(string(mr.Method)), "", "", false)
			pdf.SetFont(fontName, "", 10)
			if mr.Insights != "" {
				pdf.MultiCell(0, 5, tr(strings.TrimSpace(mr.Insights)), "", "", false)
			}
			for _, f := range mr.KeyFindings {
				pdf.MultiCell(0, 5, tr("- "+f), "", "", false)
			}
			for _, it := range mr.Risks {
				pdf.MultiCell(0, 5, tr(fmt.Sprintf("- Risk #%d: %s (RPN %d)", it.Rank, it.Description, it.RPN)), "", "", false)
			}
			pdf.Ln(2)
		}
	}

	if len(r.Recommendations) > 0 {
		section(pdf, fontName, tr, "Recommendations")
		for i, rec := range r.Recommendations {
			pdf.SetFont(fontName, "B", 11)
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. [%s] %s: %s", i+1, rec.Priority, rec.Category, rec.Action)), "", "", false)
			pdf.SetFont(fontName, "", 10)
			if rec.ExpectedImpact != "" {
				pdf.MultiCell(0, 5, tr("Expected impact: "+rec.ExpectedImpact), "", "", false)
			}
			pdf.MultiCell(0, 5, tr("Difficulty: "+rec.Difficulty), "", "", false)
			pdf.Ln(1)
		}
	}

	if l := r.Loss; l != nil {
		section(pdf, fontName, tr, "Expected Loss")
		lines := []string{
			fmt.Sprintf("Investment: %d", l.Investment),
			fmt.Sprintf("CAPEX / OPEX: %.0f / %.0f", l.Capex, l.Opex),
			fmt.Sprintf("Total expected loss: %.0f", l.TotalExpectedLoss),
		}
		for _, c := range l.CostBreakdown {
			lines = append(lines, fmt.Sprintf("  %s: %.0f%% (%.0f)", c.Item, c.Ratio*100, c.Amount))
		}
		for _, line := range lines {
			pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (pr *PDFRenderer) ContentType() string {
	return pdfContentType
}

func (pr *PDFRenderer) FileExtension() string {
	return pdfFileExtension
}

func section(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, heading string) {
	pdf.Ln(4)
	pdf.SetFont(fontName, "B", 14)
	pdf.CellFormat(0, 8, tr(heading), "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 11)
}
