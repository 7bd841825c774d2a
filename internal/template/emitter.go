package template

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/habitra/import-server-go/internal/errors"
	"github.com/habitra/import-server-go/internal/mapping"
)

// Variant selects which template layout to generate.
type Variant string

const (
	// VariantStandard is the full canonical template with an example row
	// and an instructions sheet.
	VariantStandard Variant = "standard"
	// VariantCompat is a reduced header set matching the layout exported
	// by a widely used third-party administration tool.
	VariantCompat Variant = "compat"
)

const dataSheet = "Apartamente"

// exampleRow illustrates the accepted value conventions, one cell per
// Registry entry in order.
var exampleRow = []any{
	"1", "apartament", "A", 2, 52.40, 2, 3, 1.25,
	"123456-C1-U7", "Popescu Ion", "ion.popescu@example.com", "+40721000000",
	"CR-2041", 128.5, "CC-2042", 96.0,
}

// compatColumns is the reduced layout. Labels match the third-party
// export verbatim so users can re-upload those files unchanged.
var compatColumns = []struct {
	Field mapping.Field
	Label string
}{
	{mapping.FieldUnitNumber, "Nr. ap."},
	{mapping.FieldArea, "Suprafata"},
	{mapping.FieldOwnershipQuota, "Cota parte"},
	{mapping.FieldOwnerName, "Proprietar"},
	{mapping.FieldOwnerEmail, "Email"},
}

// ParseVariant maps the query-parameter value to a Variant. Empty input
// defaults to the standard template.
func ParseVariant(raw string) (Variant, error) {
	switch raw {
	case "", string(VariantStandard):
		return VariantStandard, nil
	case string(VariantCompat):
		return VariantCompat, nil
	default:
		return "", apperrors.InvalidInput("variant", "must be standard or compat")
	}
}

// Generate renders the requested template variant and returns the xlsx
// bytes together with a download filename.
func Generate(variant Variant) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, dataSheet); err != nil {
		return nil, "", apperrors.Internal("Failed to build template")
	}

	var err error
	switch variant {
	case VariantCompat:
		err = writeCompat(f)
	default:
		err = writeStandard(f)
	}
	if err != nil {
		return nil, "", apperrors.Internal("Failed to build template")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", apperrors.Internal("Failed to build template")
	}

	name := fmt.Sprintf("model-import-apartamente-%s.xlsx", variant)
	return buf.Bytes(), name, nil
}

func writeStandard(f *excelize.File) error {
	for i, spec := range mapping.Registry {
		if err := setCell(f, dataSheet, i+1, 1, spec.Label); err != nil {
			return err
		}
	}
	for i, value := range exampleRow {
		if err := setCell(f, dataSheet, i+1, 2, value); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(dataSheet, "A", columnName(len(mapping.Registry)), 22); err != nil {
		return err
	}
	return writeInstructions(f)
}

func writeCompat(f *excelize.File) error {
	for i, col := range compatColumns {
		if err := setCell(f, dataSheet, i+1, 1, col.Label); err != nil {
			return err
		}
	}
	return f.SetColWidth(dataSheet, "A", columnName(len(compatColumns)), 18)
}

var instructions = [][]any{
	{"Instructiuni de completare"},
	{},
	{"Camp", "Obligatoriu", "Observatii"},
	{"Nr. apartament", "DA", "Identificator unic per asociatie; duplicatele blocheaza importul."},
	{"Tip unitate", "NU", "Valori acceptate: apartament, garsoniera, spatiu comercial, garaj, boxa."},
	{"Suprafata utila (mp)", "NU", "Numar pozitiv; se accepta atat virgula cat si punct ca separator zecimal (52,4 sau 52.4)."},
	{"Cota parte (%)", "NU", "Intre 0 si 100; suma pe tot fisierul trebuie sa fie 100 (toleranta 0,1)."},
	{"Numar persoane", "NU", "Numar intreg; implicit 1 daca lipseste."},
	{"Email proprietar", "NU", "Adresa valida; folosit pentru invitatii in aplicatie."},
	{"Telefon proprietar", "NU", "Format international, ex. +40721000000."},
	{"Index apa rece / calda", "NU", "Citirea curenta a contorului, numar cu zecimale."},
	{},
	{"Randurile fara numar de apartament sunt ignorate la import."},
}

func writeInstructions(f *excelize.File) error {
	const sheet = "Instructiuni"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	for r, row := range instructions {
		for c, value := range row {
			if err := setCell(f, sheet, c+1, r+1, value); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(sheet, "A", "C", 40)
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

func columnName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}
