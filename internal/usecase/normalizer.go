package usecase

import (
	"fmt"

	"github.com/millscan/backend/internal/domain"
)

// fallbackProductID is used when material_info carries no product_id.
const fallbackProductID = "Product 1"

// ProductIDs returns the ordered product identifiers for a record, sourced
// from material_info.product_id. A plain string becomes a single-element
// list; a list is used as-is; anything else falls back to one synthetic id.
func ProductIDs(rec *domain.StructuredRecord) []string {
	if rec == nil || rec.MaterialInfo == nil {
		return []string{fallbackProductID}
	}

	switch v := rec.MaterialInfo["product_id"].(type) {
	case string:
		if v != "" {
			return []string{v}
		}
	case []any:
		ids := make([]string, 0, len(v))
		for _, id := range v {
			ids = append(ids, fmt.Sprintf("%v", id))
		}
		if len(ids) > 0 {
			return ids
		}
	case []string:
		if len(v) > 0 {
			return append([]string(nil), v...)
		}
	}
	return []string{fallbackProductID}
}

// ToArrayShape converts both tabular sections of a record to the array-based
// shape (name -> [requirement, v1..vN]). It is pure and idempotent: sections
// already in array shape, flat lists, and unrecognized maps pass through
// unchanged.
func ToArrayShape(rec *domain.StructuredRecord) *domain.StructuredRecord {
	if rec == nil {
		return nil
	}
	out := *rec
	out.ChemicalComposition = toArraySection(rec.ChemicalComposition)
	out.MechanicalProperties = toArraySection(rec.MechanicalProperties)
	return &out
}

// ToGroupedShape converts both tabular sections of a record to the
// requirements/products shape for the given ordered product ids. When
// productIDs is nil they are sourced from the record itself. Pure and
// idempotent; grouped sections only get their values maps ensured.
func ToGroupedShape(rec *domain.StructuredRecord, productIDs []string) *domain.StructuredRecord {
	if rec == nil {
		return nil
	}
	if productIDs == nil {
		productIDs = ProductIDs(rec)
	}
	out := *rec
	out.ChemicalComposition = toGroupedSection(rec.ChemicalComposition, productIDs)
	out.MechanicalProperties = toGroupedSection(rec.MechanicalProperties, productIDs)
	return &out
}

func toArraySection(s *domain.TableSection) *domain.TableSection {
	if s == nil {
		return nil
	}
	if s.Shape != domain.ShapeGrouped {
		return s.Clone()
	}

	out := &domain.TableSection{
		Shape:  domain.ShapeArray,
		Keys:   append([]string(nil), s.ReqKeys...),
		Series: make(map[string][]any, len(s.ReqKeys)),
	}
	for _, key := range s.ReqKeys {
		series := make([]any, 0, len(s.Products)+1)
		series = append(series, s.Requirements[key])
		for _, product := range s.Products {
			if product.Values != nil {
				if v, ok := product.Values[key]; ok {
					series = append(series, v)
					continue
				}
			}
			series = append(series, nil)
		}
		out.Series[key] = series
	}
	return out
}

func toGroupedSection(s *domain.TableSection, productIDs []string) *domain.TableSection {
	if s == nil {
		return nil
	}

	switch s.Shape {
	case domain.ShapeGrouped:
		// Already grouped; only guarantee every product has a values map.
		out := s.Clone()
		for i := range out.Products {
			if out.Products[i].Values == nil {
				out.Products[i].Values = make(map[string]any)
			}
		}
		return out
	case domain.ShapeArray:
		// handled below
	default:
		return s.Clone()
	}

	out := &domain.TableSection{
		Shape:        domain.ShapeGrouped,
		ReqKeys:      make([]string, 0, len(s.Keys)),
		Requirements: make(map[string]any, len(s.Keys)),
		Products:     make([]domain.ProductValues, len(productIDs)),
	}
	for i, id := range productIDs {
		out.Products[i] = domain.ProductValues{
			ProductID: id,
			Values:    make(map[string]any),
		}
	}

	for _, key := range s.Keys {
		series := s.Series[key]
		if len(series) == 0 {
			continue
		}
		out.ReqKeys = append(out.ReqKeys, key)
		out.Requirements[key] = series[0]

		for i := 1; i < len(series); i++ {
			if i-1 >= len(out.Products) {
				break
			}
			if series[i] != nil {
				out.Products[i-1].Values[key] = series[i]
			}
		}
	}
	return out
}
