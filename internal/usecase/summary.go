package usecase

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/millscan/backend/internal/domain"
)

// Row statuses in the summary tables. Compliance against specification
// limits is never asserted here; requirement strings like "<0.25%" would
// need a numeric-range parser before any verdict could be honest.
const (
	statusReported = "Reported"
	statusPartial  = "Partial data"
	statusNoData   = "No data"
)

type summaryRow struct {
	Name        string
	Requirement string
	Values      []string
	Status      string
}

type summaryTable struct {
	Title      string
	ProductIDs []string
	Rows       []summaryRow
}

type summaryData struct {
	SupplierName string
	SupplierRows [][2]string
	MaterialRows [][2]string
	MaterialName string
	Standard     string
	Chemical     *summaryTable
	Mechanical   *summaryTable
	MissingProps []string
	Coverage     domain.CompletenessReport
}

var summaryTemplate = template.Must(template.New("summary").Parse(`<h1>Mill Test Certificate Analysis Report</h1>
<div class="supplier-info">
<h2>Supplier &amp; Certificate Information</h2>
<table class="data-table">
<tr><th>Supplier Name</th><td>{{.SupplierName}}</td></tr>
{{- range .SupplierRows}}
<tr><th>{{index . 0}}</th><td>{{index . 1}}</td></tr>
{{- end}}
{{- range .MaterialRows}}
<tr><th>{{index . 0}}</th><td>{{index . 1}}</td></tr>
{{- end}}
</table>
</div>
<p>This report analyzes a mill test certificate for {{.MaterialName}}{{if .Standard}} tested against the {{.Standard}} standard{{end}}.
It summarizes which specification requirements and observed values were extracted from the document.
Numeric compliance of observed values against specification limits is not assessed.</p>
{{- if .Chemical}}
<div class="section">
<h2>1. Chemical Composition (%)</h2>
<table class="data-table">
<tr><th>Element</th><th>Specification Requirement</th>{{range .Chemical.ProductIDs}}<th>{{.}}</th>{{end}}<th>Status</th></tr>
{{- range .Chemical.Rows}}
<tr><td>{{.Name}}</td><td>{{.Requirement}}</td>{{range .Values}}<td>{{.}}</td>{{end}}<td>{{.Status}}</td></tr>
{{- end}}
</table>
</div>
{{- end}}
{{- if .Mechanical}}
<div class="section">
<h2>2. Mechanical Properties</h2>
<table class="data-table">
<tr><th>Property</th><th>Specification Requirement</th>{{range .Mechanical.ProductIDs}}<th>{{.}}</th>{{end}}<th>Status</th></tr>
{{- range .Mechanical.Rows}}
<tr><td>{{.Name}}</td><td>{{.Requirement}}</td>{{range .Values}}<td>{{.}}</td>{{end}}<td>{{.Status}}</td></tr>
{{- end}}
</table>
{{- if .MissingProps}}
<p class="note">No observed values were extracted for: {{range $i, $p := .MissingProps}}{{if $i}}, {{end}}{{$p}}{{end}}. These cannot be verified from this certificate.</p>
{{- end}}
</div>
{{- end}}
<div class="conclusion">
<h2>Data Coverage</h2>
<p>Overall extraction completeness: {{.Coverage.Overall}}/100 ({{.Coverage.Level}}).</p>
{{- if .Coverage.Reasons}}
<ul>
{{- range .Coverage.Reasons}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
</div>`))

// RenderSummary renders the narrative HTML report for a record. Tabular
// sections are expected in grouped shape (see ToGroupedShape); sections in
// any other shape are omitted from the report.
func RenderSummary(rec *domain.StructuredRecord, report domain.CompletenessReport) (string, error) {
	if rec == nil {
		rec = &domain.StructuredRecord{}
	}

	data := summaryData{
		SupplierName: stringField(rec.SupplierInfo, "name", "Unknown Supplier"),
		MaterialName: stringField(rec.MaterialInfo, "material_name", "Steel Material"),
		Standard:     stringField(rec.MaterialInfo, "standard", ""),
		Coverage:     report,
	}

	for _, field := range []struct{ key, label string }{
		{"website", "Website"},
		{"address", "Address"},
		{"contact", "Contact"},
	} {
		if v := stringField(rec.SupplierInfo, field.key, ""); v != "" {
			data.SupplierRows = append(data.SupplierRows, [2]string{field.label, v})
		}
	}
	for _, field := range []struct{ key, label string }{
		{"material_name", "Material"},
		{"alloy", "Alloy"},
		{"temper", "Temper"},
		{"standard", "Specification Standard"},
		{"grade", "Grade"},
		{"heat_number", "Heat Number"},
		{"certificate_number", "Certificate Number"},
		{"date", "Date"},
	} {
		if v := stringField(rec.MaterialInfo, field.key, ""); v != "" {
			data.MaterialRows = append(data.MaterialRows, [2]string{field.label, v})
		}
	}

	data.Chemical = buildSummaryTable(rec.ChemicalComposition)
	if data.Mechanical = buildSummaryTable(rec.MechanicalProperties); data.Mechanical != nil {
		for _, row := range data.Mechanical.Rows {
			if row.Status == statusNoData {
				data.MissingProps = append(data.MissingProps, row.Name)
			}
		}
	}

	var b strings.Builder
	if err := summaryTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func buildSummaryTable(s *domain.TableSection) *summaryTable {
	if s == nil || s.Shape != domain.ShapeGrouped || len(s.ReqKeys) == 0 {
		return nil
	}

	table := &summaryTable{}
	for _, product := range s.Products {
		table.ProductIDs = append(table.ProductIDs, product.ProductID)
	}

	for _, key := range s.ReqKeys {
		row := summaryRow{
			Name:        key,
			Requirement: formatValue(s.Requirements[key]),
		}
		present := 0
		for _, product := range s.Products {
			if product.Values != nil {
				if v, ok := product.Values[key]; ok && v != nil {
					row.Values = append(row.Values, formatValue(v))
					present++
					continue
				}
			}
			row.Values = append(row.Values, "-")
		}
		switch {
		case len(s.Products) == 0 || present == 0:
			row.Status = statusNoData
		case present < len(s.Products):
			row.Status = statusPartial
		default:
			row.Status = statusReported
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func stringField(m map[string]any, key, fallback string) string {
	if m != nil {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}

func formatValue(v any) string {
	if v == nil {
		return "-"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
