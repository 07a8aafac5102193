package usecase

import (
	"testing"

	"github.com/millscan/backend/internal/domain"
)

func TestScore(t *testing.T) {
	t.Run("empty record scores zero with reasons", func(t *testing.T) {
		report := Score(&domain.StructuredRecord{})
		if report.Overall != 0 {
			t.Errorf("Overall = %d, want 0", report.Overall)
		}
		if report.Level != LevelLow {
			t.Errorf("Level = %v, want low", report.Level)
		}
		if len(report.Reasons) != 4 {
			t.Errorf("Reasons = %v, want one per missing section", report.Reasons)
		}
	})

	t.Run("nil record behaves like empty", func(t *testing.T) {
		report := Score(nil)
		if report.Overall != 0 || report.Level != LevelLow {
			t.Errorf("report = %+v", report)
		}
	})

	t.Run("field sections score twenty points each capped at 100", func(t *testing.T) {
		rec := &domain.StructuredRecord{
			SupplierInfo: map[string]any{"name": "Acme", "address": "x", "contact": "y"},
			MaterialInfo: map[string]any{
				"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6,
			},
		}
		report := Score(rec)
		if report.SupplierInfo != 60 {
			t.Errorf("SupplierInfo = %v, want 60", report.SupplierInfo)
		}
		if report.MaterialInfo != 100 {
			t.Errorf("MaterialInfo = %v, want 100", report.MaterialInfo)
		}
	})

	t.Run("grouped table averages requirements and products", func(t *testing.T) {
		section := mustSection(t,
			`{"requirements":{"C":"x","Mn":"x","Si":"x","P":"x","S":"x"},"products":[{"product_id":"P1","values":{}},{"product_id":"P2","values":{}}]}`)
		rec := &domain.StructuredRecord{ChemicalComposition: section}
		report := Score(rec)
		// 5 requirements x10 = 50, 2 products x20 = 40, averaged = 45
		if report.ChemicalComposition != 45 {
			t.Errorf("ChemicalComposition = %v, want 45", report.ChemicalComposition)
		}
	})

	t.Run("grouped table saturates at full coverage", func(t *testing.T) {
		section := mustSection(t,
			`{"requirements":{"a":1,"b":1,"c":1,"d":1,"e":1,"f":1,"g":1,"h":1,"i":1,"j":1},"products":[{"product_id":"P1"},{"product_id":"P2"},{"product_id":"P3"},{"product_id":"P4"},{"product_id":"P5"}]}`)
		rec := &domain.StructuredRecord{ChemicalComposition: section}
		report := Score(rec)
		if report.ChemicalComposition != 100 {
			t.Errorf("ChemicalComposition = %v, want 100", report.ChemicalComposition)
		}
	})

	t.Run("array tables score per entry", func(t *testing.T) {
		rec := &domain.StructuredRecord{
			ChemicalComposition:  mustSection(t, `{"C":["x"],"Mn":["x"],"Si":["x"]}`),
			MechanicalProperties: mustSection(t, `{"Yield Strength":["x"],"Tensile Strength":["x"]}`),
		}
		report := Score(rec)
		if report.ChemicalComposition != 30 {
			t.Errorf("ChemicalComposition = %v, want 30", report.ChemicalComposition)
		}
		if report.MechanicalProperties != 40 {
			t.Errorf("MechanicalProperties = %v, want 40", report.MechanicalProperties)
		}
	})

	t.Run("missing mechanical section is reported", func(t *testing.T) {
		rec := &domain.StructuredRecord{
			SupplierInfo:        map[string]any{"name": "Acme"},
			ChemicalComposition: mustSection(t, `{"C":["x"]}`),
		}
		report := Score(rec)
		if report.MechanicalProperties != 0 {
			t.Errorf("MechanicalProperties = %v, want 0", report.MechanicalProperties)
		}
		found := false
		for _, r := range report.Reasons {
			if r == "no mechanical properties extracted" {
				found = true
			}
		}
		if !found {
			t.Errorf("Reasons = %v, missing mechanical reason", report.Reasons)
		}
	})

	t.Run("weighted overall and levels", func(t *testing.T) {
		full := &domain.StructuredRecord{
			SupplierInfo: map[string]any{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5},
			MaterialInfo: map[string]any{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5},
			ChemicalComposition: mustSection(t,
				`{"a":[1],"b":[1],"c":[1],"d":[1],"e":[1],"f":[1],"g":[1],"h":[1],"i":[1],"j":[1]}`),
			MechanicalProperties: mustSection(t, `{"a":[1],"b":[1],"c":[1],"d":[1],"e":[1]}`),
		}
		report := Score(full)
		if report.Overall != 100 {
			t.Errorf("Overall = %d, want 100", report.Overall)
		}
		if report.Level != LevelHigh {
			t.Errorf("Level = %v, want high", report.Level)
		}
		if len(report.Reasons) != 0 {
			t.Errorf("Reasons = %v, want none", report.Reasons)
		}

		partial := &domain.StructuredRecord{
			SupplierInfo:        map[string]any{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5},
			MaterialInfo:        map[string]any{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5},
			ChemicalComposition: mustSection(t, `{"a":[1],"b":[1],"c":[1],"d":[1],"e":[1]}`),
		}
		// 100*0.2 + 100*0.3 + 50*0.3 + 0*0.2 = 65
		report = Score(partial)
		if report.Overall != 65 {
			t.Errorf("Overall = %d, want 65", report.Overall)
		}
		if report.Level != LevelMedium {
			t.Errorf("Level = %v, want medium", report.Level)
		}
	})

	t.Run("generic reason when below high with none recorded", func(t *testing.T) {
		rec := &domain.StructuredRecord{
			SupplierInfo: map[string]any{"a": 1},
			MaterialInfo: map[string]any{"a": 1},
			ChemicalComposition: mustSection(t,
				`{"a":[1],"b":[1]}`),
			MechanicalProperties: mustSection(t, `{"a":[1]}`),
		}
		report := Score(rec)
		if report.Level == LevelHigh {
			t.Fatalf("Overall = %d, expected below high", report.Overall)
		}
		if len(report.Reasons) != 1 || report.Reasons[0] != "incomplete extraction" {
			t.Errorf("Reasons = %v, want [incomplete extraction]", report.Reasons)
		}
	})
}
