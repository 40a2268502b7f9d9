package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownRenderer struct{}

func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

func (mr *MarkdownRenderer) Render(r *models.Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title(r))
	fmt.Fprintf(&buf, "- **Category:** %s\n", r.Category.Name)
	fmt.Fprintf(&buf, "- **Analysis methods:** %s\n", strings.Join(methodNames(r.Methods), ", "))
	fmt.Fprintf(&buf, "- **Overall risk:** %s (grade %s, %.2f/100)\n", r.RiskLevel, r.RiskGrade, r.OverallScore)
	fmt.Fprintf(&buf, "- **Generated:** %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"))

	buf.WriteString("## Executive Summary\n\n")
	buf.WriteString(strings.TrimSpace(r.ExecutiveSummary))
	buf.WriteString("\n\n## Risks\n\n")
	buf.WriteString("| # | Risk | Method | O | S | D | RPN | Recommendation |\n")
	buf.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, it := range r.Items {
		fmt.Fprintf(&buf, "| %d | %s | %s | %d | %d | %d | %d | %s |\n",
			it.Rank, cell(it.Description), cell(string(it.Method)),
			it.Occurrence, it.Severity, it.Detection, it.RPN, cell(it.Recommendation))
	}

	if len(r.MethodResults) > 0 {
		buf.WriteString("\n## Analysis by Method\n")
		for _, mr := range r.MethodResults {
			fmt.Fprintf(&buf, "\n### %s\n\n", mr.Method)
			if mr.Insights != "" {
				fmt.Fprintf(&buf, "%s\n\n", strings.TrimSpace(mr.Insights))
			}
			for _, f := range mr.KeyFindings {
				fmt.Fprintf(&buf, "- %s\n", f)
			}
			for _, it := range mr.Risks {
				fmt.Fprintf(&buf, "- Risk #%d: %s (RPN %d = O%d x S%d x D%d)\n",
					it.Rank, it.Description, it.RPN, it.Occurrence, it.Severity, it.Detection)
			}
		}
	}

	if len(r.Recommendations) > 0 {
		buf.WriteString("\n## Recommendations\n\n")
		buf.WriteString("| Priority | Area | Action | Expected impact | Difficulty |\n")
		buf.WriteString("|---|---|---|---|---|\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s |\n",
				cell(rec.Priority), cell(rec.Category), cell(rec.Action), cell(rec.ExpectedImpact), cell(rec.Difficulty))
		}
	}

	if l := r.Loss; l != nil {
		buf.WriteString("\n## Expected Loss\n\n")
		fmt.Fprintf(&buf, "- **Investment:** %d\n", l.Investment)
		fmt.Fprintf(&buf, "- **CAPEX / OPEX:** %.0f / %.0f\n", l.Capex, l.Opex)
		fmt.Fprintf(&buf, "- **Total expected loss:** %.0f\n\n", l.TotalExpectedLoss)

		buf.WriteString("| Cost item | Share | Amount |\n|---|---|---|\n")
		for _, c := range l.CostBreakdown {
			fmt.Fprintf(&buf, "| %s | %.0f%% | %.0f |\n", cell(c.Item), c.Ratio*100, c.Amount)
		}
		buf.WriteString("\n| Risk | RPN | Probability | Expected loss |\n|---|---|---|---|\n")
		for _, rl := range l.ByRisk {
			fmt.Fprintf(&buf, "| %s | %d | %.1f%% | %.0f |\n", cell(rl.Description), rl.RPN, rl.Probability*100, rl.ExpectedLoss)
		}
	}

	return buf.Bytes(), nil
}

func (mr *MarkdownRenderer) ContentType() string {
	return markdownContentType
}

func (mr *MarkdownRenderer) FileExtension() string {
	return markdownFileExtension
}

// cell keeps a value on one table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
