package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/hiereval/internal/model"
)

// Renderer writes reports as JSON, Markdown and a console summary
type Renderer struct {
	perClass bool
}

// NewRenderer creates a renderer. perClass adds the per-class table to Markdown.
func NewRenderer(perClass bool) *Renderer {
	return &Renderer{perClass: perClass}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown formats the report as Markdown
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Evaluation: %s\n\n", report.Experiment)
	fmt.Fprintf(&b, "- **Dataset:** %s\n", report.Dataset)
	if report.Source != "" {
		fmt.Fprintf(&b, "- **Predictions:** `%s`\n", report.Source)
	}
	fmt.Fprintf(&b, "- **Examples:** %d\n", report.Examples)
	fmt.Fprintf(&b, "- **Beta:** %g\n", report.Beta)
	fmt.Fprintf(&b, "- **Evaluated:** %s\n\n", report.EvaluatedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("## Metrics\n\n")
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	values := report.Metrics.AsMap()
	for _, name := range model.MetricNames {
		fmt.Fprintf(&b, "| %s | %.4f |\n", name, values[name])
	}
	b.WriteString("\n")

	h := report.Hierarchical
	b.WriteString("## Hierarchical\n\n")
	fmt.Fprintf(&b, "- hP = %d / %d = %.4f\n", h.TruePositives, h.PredictedPositives, h.Precision)
	fmt.Fprintf(&b, "- hR = %d / %d = %.4f\n", h.TruePositives, h.TruthPositives, h.Recall)
	fmt.Fprintf(&b, "- hF(β=%g) = %.4f\n\n", h.Beta, h.FBeta)

	if len(report.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, s := range report.Signals {
			fmt.Fprintf(&b, "- %s **%s**: %s\n", severityIcon(s.Severity), s.Type, s.Description)
			if formula, ok := s.Data["formula"].(string); ok {
				fmt.Fprintf(&b, "  - formula: `%s`\n", formula)
			}
		}
		b.WriteString("\n")
	}

	if r.perClass && len(report.Flat.Classes) > 0 {
		b.WriteString("## Per class\n\n")
		b.WriteString("| Class | Precision | Recall | F1 | Support | Predicted |\n|---|---:|---:|---:|---:|---:|\n")
		for _, c := range report.Flat.Classes {
			fmt.Fprintf(&b, "| %s | %.4f | %.4f | %.4f | %d | %d |\n",
				escapeCell(c.Label), c.Precision, c.Recall, c.F1, c.Support, c.Predicted)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderSummary prints a short console summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	m := report.Metrics
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  %s  (%s, %d examples)\n", report.Experiment, report.Dataset, report.Examples)
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  weighted_prec: %.4f\n", m.WeightedPrecision)
	fmt.Fprintf(w, "  weighted_rec:  %.4f\n", m.WeightedRecall)
	fmt.Fprintf(w, "  weighted_f1:   %.4f\n", m.WeightedF1)
	fmt.Fprintf(w, "  macro_f1:      %.4f\n", m.MacroF1)
	fmt.Fprintf(w, "  h_f1:          %.4f\n", m.HierarchicalF1)
	for _, s := range report.Signals {
		if s.Severity != model.SeverityInfo {
			fmt.Fprintf(w, "  %s %s\n", severityIcon(s.Severity), s.Description)
		}
	}
	fmt.Fprintf(w, "\n")
}

func severityIcon(s model.SignalSeverity) string {
	switch s {
	case model.SeverityCritical:
		return "✗"
	case model.SeverityWarning:
		return "⚠"
	default:
		return "ℹ"
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
