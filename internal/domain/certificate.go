package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TableShape identifies which of the two wire representations a tabular
// section (chemical composition or mechanical properties) arrived in.
// The shape is resolved exactly once, when the section is decoded.
type TableShape int

const (
	// ShapeUnknown is a map section that is neither array-based nor grouped.
	ShapeUnknown TableShape = iota

	// ShapeArray maps element/property name to an ordered list where index 0
	// is the specification requirement and indices 1..N are the observed
	// values for products 1..N (missing values are null).
	ShapeArray

	// ShapeGrouped is the {"requirements": {...}, "products": [...]} form.
	ShapeGrouped

	// ShapeList is a flat list of entries, seen in some older extractions.
	ShapeList
)

// ProductValues holds the observed values for one physical product/batch.
type ProductValues struct {
	ProductID string         `json:"product_id"`
	Values    map[string]any `json:"values"`
}

// TableSection is a chemical-composition or mechanical-properties table.
// Only the fields for the resolved Shape are populated. Key order from the
// source document is preserved in Keys/ReqKeys so conversions never reorder
// elements.
type TableSection struct {
	Shape TableShape

	// ShapeArray / ShapeUnknown
	Keys   []string
	Series map[string][]any
	Fields map[string]any

	// ShapeGrouped
	ReqKeys      []string
	Requirements map[string]any
	Products     []ProductValues

	// ShapeList
	Items []any
}

// StructuredRecord is the structured view of one test certificate as
// returned by the LLM, in either wire shape.
type StructuredRecord struct {
	SupplierInfo         map[string]any `json:"supplier_info,omitempty"`
	MaterialInfo         map[string]any `json:"material_info,omitempty"`
	ChemicalComposition  *TableSection  `json:"chemical_composition,omitempty"`
	MechanicalProperties *TableSection  `json:"mechanical_properties,omitempty"`
	AdditionalInfo       map[string]any `json:"additional_info,omitempty"`
}

// parseOrderedObject decodes a JSON object keeping the order in which keys
// appear. Duplicate keys keep their first position but the last value.
func parseOrderedObject(data []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var keys []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", kt)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = raw
	}
	return keys, values, nil
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

// UnmarshalJSON resolves the section shape once at decode time.
func (s *TableSection) UnmarshalJSON(data []byte) error {
	*s = TableSection{}

	switch firstNonSpace(data) {
	case '[':
		var items []any
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		s.Shape = ShapeList
		s.Items = items
		return nil
	case '{':
		// handled below
	default:
		return fmt.Errorf("table section must be an object or array")
	}

	keys, raw, err := parseOrderedObject(data)
	if err != nil {
		return err
	}

	if isGrouped(keys) {
		return s.decodeGrouped(raw)
	}

	// Array shape when every key maps to an ordered sequence.
	allLists := len(keys) > 0
	for _, k := range keys {
		if firstNonSpace(raw[k]) != '[' {
			allLists = false
			break
		}
	}
	if allLists {
		s.Shape = ShapeArray
		s.Keys = keys
		s.Series = make(map[string][]any, len(keys))
		for _, k := range keys {
			var vals []any
			if err := json.Unmarshal(raw[k], &vals); err != nil {
				return err
			}
			s.Series[k] = vals
		}
		return nil
	}

	s.Shape = ShapeUnknown
	s.Keys = keys
	s.Fields = make(map[string]any, len(keys))
	for _, k := range keys {
		var v any
		if err := json.Unmarshal(raw[k], &v); err != nil {
			return err
		}
		s.Fields[k] = v
	}
	return nil
}

func isGrouped(keys []string) bool {
	if len(keys) != 2 {
		return false
	}
	return (keys[0] == "requirements" && keys[1] == "products") ||
		(keys[0] == "products" && keys[1] == "requirements")
}

func (s *TableSection) decodeGrouped(raw map[string]json.RawMessage) error {
	s.Shape = ShapeGrouped
	s.Requirements = make(map[string]any)

	if r, ok := raw["requirements"]; ok && firstNonSpace(r) == '{' {
		reqKeys, reqRaw, err := parseOrderedObject(r)
		if err != nil {
			return err
		}
		s.ReqKeys = reqKeys
		for _, k := range reqKeys {
			var v any
			if err := json.Unmarshal(reqRaw[k], &v); err != nil {
				return err
			}
			s.Requirements[k] = v
		}
	}

	if p, ok := raw["products"]; ok && firstNonSpace(p) == '[' {
		if err := json.Unmarshal(p, &s.Products); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON writes the section back out in its resolved shape, keeping
// the captured key order.
func (s *TableSection) MarshalJSON() ([]byte, error) {
	switch s.Shape {
	case ShapeList:
		return json.Marshal(s.Items)
	case ShapeGrouped:
		var buf bytes.Buffer
		buf.WriteString(`{"requirements":`)
		if err := writeOrderedObject(&buf, s.ReqKeys, func(k string) any { return s.Requirements[k] }); err != nil {
			return nil, err
		}
		buf.WriteString(`,"products":`)
		products := s.Products
		if products == nil {
			products = []ProductValues{}
		}
		pb, err := json.Marshal(products)
		if err != nil {
			return nil, err
		}
		buf.Write(pb)
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case ShapeArray:
		var buf bytes.Buffer
		if err := writeOrderedObject(&buf, s.Keys, func(k string) any { return s.Series[k] }); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		if err := writeOrderedObject(&buf, s.Keys, func(k string) any { return s.Fields[k] }); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

func writeOrderedObject(buf *bytes.Buffer, keys []string, value func(string) any) error {
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(value(k))
		if err != nil {
			return err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return nil
}

// ParseStructuredRecord decodes LLM output into a StructuredRecord.
// Sections of an unexpected type are dropped rather than failing the whole
// record; the completeness scorer reports them as gaps.
func ParseStructuredRecord(data []byte) (*StructuredRecord, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	rec := &StructuredRecord{}
	decodeMap := func(key string) map[string]any {
		raw, ok := top[key]
		if !ok || firstNonSpace(raw) != '{' {
			return nil
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil
		}
		return m
	}
	decodeTable := func(key string) *TableSection {
		raw, ok := top[key]
		if !ok {
			return nil
		}
		var sec TableSection
		if err := json.Unmarshal(raw, &sec); err != nil {
			return nil
		}
		return &sec
	}

	rec.SupplierInfo = decodeMap("supplier_info")
	rec.MaterialInfo = decodeMap("material_info")
	rec.ChemicalComposition = decodeTable("chemical_composition")
	rec.MechanicalProperties = decodeTable("mechanical_properties")
	rec.AdditionalInfo = decodeMap("additional_info")
	return rec, nil
}

// Clone returns a deep copy of the section through a marshal round trip.
func (s *TableSection) Clone() *TableSection {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var out TableSection
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return &out
}
