package usecase

import (
	"math"

	"github.com/millscan/backend/internal/domain"
)

// Quality levels for the overall completeness score.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// Section weights for the overall score.
const (
	weightSupplier   = 0.2
	weightMaterial   = 0.3
	weightChemical   = 0.3
	weightMechanical = 0.2
)

// Per-entry points when sizing a tabular section. Mechanical certificates
// carry far fewer properties than chemical ones carry elements, so each
// mechanical entry counts double.
const (
	pointsPerElement  = 10
	pointsPerProperty = 20
	pointsPerProduct  = 20
	pointsPerField    = 20
)

// Score computes the completeness report for a record. It is deterministic,
// has no side effects, and never fails: missing or malformed sections simply
// contribute zero along with an explanatory reason.
func Score(rec *domain.StructuredRecord) domain.CompletenessReport {
	report := domain.CompletenessReport{Reasons: []string{}}
	if rec == nil {
		rec = &domain.StructuredRecord{}
	}

	if len(rec.SupplierInfo) > 0 {
		report.SupplierInfo = capped(float64(len(rec.SupplierInfo)) * pointsPerField)
	} else {
		report.Reasons = append(report.Reasons, "no supplier information extracted")
	}

	if len(rec.MaterialInfo) > 0 {
		report.MaterialInfo = capped(float64(len(rec.MaterialInfo)) * pointsPerField)
	} else {
		report.Reasons = append(report.Reasons, "no material information extracted")
	}

	report.ChemicalComposition = scoreTable(rec.ChemicalComposition, pointsPerElement,
		"no chemical composition extracted", &report.Reasons)
	report.MechanicalProperties = scoreTable(rec.MechanicalProperties, pointsPerProperty,
		"no mechanical properties extracted", &report.Reasons)

	overall := report.SupplierInfo*weightSupplier +
		report.MaterialInfo*weightMaterial +
		report.ChemicalComposition*weightChemical +
		report.MechanicalProperties*weightMechanical
	report.Overall = int(math.Round(overall))

	switch {
	case report.Overall >= 80:
		report.Level = LevelHigh
	case report.Overall >= 50:
		report.Level = LevelMedium
	default:
		report.Level = LevelLow
	}

	if report.Level != LevelHigh && len(report.Reasons) == 0 {
		report.Reasons = append(report.Reasons, "incomplete extraction")
	}
	return report
}

// scoreTable sizes one tabular section. Grouped sections average requirement
// coverage against product presence; every other shape scores on entry count.
func scoreTable(s *domain.TableSection, perEntry float64, emptyReason string, reasons *[]string) float64 {
	if s == nil {
		*reasons = append(*reasons, emptyReason)
		return 0
	}

	var score float64
	switch s.Shape {
	case domain.ShapeGrouped:
		reqScore := capped(float64(len(s.Requirements)) * perEntry)
		productScore := capped(float64(len(s.Products)) * pointsPerProduct)
		score = (reqScore + productScore) / 2
	case domain.ShapeArray:
		score = capped(float64(len(s.Series)) * perEntry)
	case domain.ShapeList:
		score = capped(float64(len(s.Items)) * perEntry)
	default:
		score = capped(float64(len(s.Fields)) * perEntry)
	}

	if score == 0 {
		*reasons = append(*reasons, emptyReason)
	}
	return score
}

func capped(v float64) float64 {
	return math.Min(100, v)
}
