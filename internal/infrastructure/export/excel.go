package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/millscan/backend/internal/domain"
)

// Sheet names in the exported workbook.
const (
	sheetCertificate = "Certificate"
	sheetChemical    = "Chemical Composition"
	sheetMechanical  = "Mechanical Properties"
)

// Workbook renders a structured record as an XLSX workbook. Tabular
// sections are expected in grouped shape; sections in any other shape (or
// absent) simply skip their sheet.
func Workbook(rec *domain.StructuredRecord) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("nothing to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeCertificateSheet(f, rec); err != nil {
		return nil, err
	}
	if err := writeTableSheet(f, sheetChemical, "Element", rec.ChemicalComposition); err != nil {
		return nil, err
	}
	if err := writeTableSheet(f, sheetMechanical, "Property", rec.MechanicalProperties); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCertificateSheet(f *excelize.File, rec *domain.StructuredRecord) error {
	if err := f.SetSheetName("Sheet1", sheetCertificate); err != nil {
		return err
	}

	write := func(row int, col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheetCertificate, cell, v)
	}

	row := 1
	writeSection := func(title string, fields map[string]any) {
		if len(fields) == 0 {
			return
		}
		write(row, 1, title)
		row++
		for _, key := range sortedKeys(fields) {
			write(row, 1, key)
			write(row, 2, fmt.Sprintf("%v", fields[key]))
			row++
		}
		row++ // blank spacer line
	}

	writeSection("Supplier Information", rec.SupplierInfo)
	writeSection("Material Information", rec.MaterialInfo)
	writeSection("Additional Information", rec.AdditionalInfo)

	_ = f.SetColWidth(sheetCertificate, "A", "A", 28)
	_ = f.SetColWidth(sheetCertificate, "B", "B", 48)
	return nil
}

func writeTableSheet(f *excelize.File, sheet, nameHeader string, s *domain.TableSection) error {
	if s == nil || s.Shape != domain.ShapeGrouped || len(s.ReqKeys) == 0 {
		return nil
	}

	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	write := func(row, col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	write(1, 1, nameHeader)
	write(1, 2, "Specification Requirement")
	for i, product := range s.Products {
		write(1, 3+i, product.ProductID)
	}

	for r, key := range s.ReqKeys {
		row := r + 2
		write(row, 1, key)
		write(row, 2, fmt.Sprintf("%v", s.Requirements[key]))
		for i, product := range s.Products {
			value := "-"
			if product.Values != nil {
				if v, ok := product.Values[key]; ok && v != nil {
					value = fmt.Sprintf("%v", v)
				}
			}
			write(row, 3+i, value)
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 24)
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
