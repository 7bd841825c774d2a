// Package validate applies per-row and whole-batch consistency rules to a
// mapped roster and decides whether the batch is ready to commit.
package validate

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/habitra/import-server-go/internal/mapping"
	"github.com/habitra/import-server-go/internal/model"
	"github.com/habitra/import-server-go/internal/normalize"
)

// QuotaSumTolerance is the allowed absolute deviation of the ownership-quota
// sum from 100 percent.
const QuotaSumTolerance = 0.1

// UnitLookup resolves which of the given unit identifiers already exist in
// the registry for a tenant.
type UnitLookup interface {
	ExistingUnitNumbers(ctx context.Context, tenantID string, numbers []string) (map[string]bool, error)
}

type Result struct {
	Rows        model.NormalizedRows
	Diagnostics model.Diagnostics
	ValidRows   int
	Ready       bool
}

// row pairs the normalized values with the raw cells they came from, so
// diagnostics can report the user's original input.
type row struct {
	normalized model.NormalizedRow
	raw        mapping.Record
}

// Run validates the full batch. It is pure with respect to its inputs apart
// from the registry lookup, and repeated runs over unchanged inputs produce
// identical output.
func Run(ctx context.Context, tenantID string, headers []string, rawRows [][]string, columnMapping map[string]string, units UnitLookup) (*Result, error) {
	rows := make([]row, 0, len(rawRows))
	for _, rawRow := range rawRows {
		record := mapping.Apply(headers, columnMapping, rawRow)
		normalized := normalizeRecord(record)
		if normalized.UnitNumber == "" {
			// Blank filler row, not an error.
			continue
		}
		rows = append(rows, row{normalized: normalized, raw: record})
	}

	diagnostics := model.Diagnostics{}
	for i, r := range rows {
		diagnostics = append(diagnostics, checkRow(i+1, r)...)
	}

	batch, err := checkBatch(ctx, tenantID, rows, units)
	if err != nil {
		return nil, err
	}
	diagnostics = append(diagnostics, batch...)

	normalized := make(model.NormalizedRows, 0, len(rows))
	for _, r := range rows {
		normalized = append(normalized, r.normalized)
	}

	return &Result{
		Rows:        normalized,
		Diagnostics: diagnostics,
		ValidRows:   len(rows),
		Ready:       !hasErrors(diagnostics),
	}, nil
}

func normalizeRecord(record mapping.Record) model.NormalizedRow {
	out := model.NormalizedRow{
		UnitNumber:      strings.TrimSpace(record[mapping.FieldUnitNumber]),
		UnitType:        strings.TrimSpace(record[mapping.FieldUnitType]),
		Block:           strings.TrimSpace(record[mapping.FieldBlock]),
		CadastralNumber: strings.TrimSpace(record[mapping.FieldCadastralNumber]),
		OwnerName:       strings.TrimSpace(record[mapping.FieldOwnerName]),
		OwnerEmail:      strings.ToLower(strings.TrimSpace(record[mapping.FieldOwnerEmail])),
		OwnerPhone:      strings.TrimSpace(record[mapping.FieldOwnerPhone]),
		ColdMeterSerial: strings.TrimSpace(record[mapping.FieldColdMeterSerial]),
		HotMeterSerial:  strings.TrimSpace(record[mapping.FieldHotMeterSerial]),
	}

	if v, ok := normalize.Integer(record[mapping.FieldFloor]); ok {
		out.Floor = &v
	}
	if v, ok := normalize.Integer(record[mapping.FieldRooms]); ok {
		out.Rooms = &v
	}
	if v, ok := normalize.DecimalOK(record[mapping.FieldArea]); ok {
		out.Area = &v
	}
	if v, ok := normalize.DecimalOK(record[mapping.FieldOwnershipQuota]); ok {
		out.OwnershipQuota = &v
	}
	if v, ok := normalize.DecimalOK(record[mapping.FieldColdMeterReading]); ok {
		out.ColdMeterReading = &v
	}
	if v, ok := normalize.DecimalOK(record[mapping.FieldHotMeterReading]); ok {
		out.HotMeterReading = &v
	}

	// A missing or zero occupant count silently defaults to one.
	out.Occupants = 1
	if v, ok := normalize.Integer(record[mapping.FieldOccupants]); ok && v > 0 {
		out.Occupants = v
	}

	return out
}

func checkRow(rowNumber int, r row) model.Diagnostics {
	var out model.Diagnostics

	// Re-check after trimming: a present-but-all-whitespace identifier
	// still has to be caught even though blank rows were filtered out.
	if r.normalized.UnitNumber == "" {
		out = append(out, model.RowError(rowNumber, string(mapping.FieldUnitNumber),
			"unit identifier is empty", r.raw[mapping.FieldUnitNumber]))
	}

	if raw, present := present(r.raw, mapping.FieldArea); present {
		if r.normalized.Area == nil || *r.normalized.Area <= 0 {
			out = append(out, model.RowError(rowNumber, string(mapping.FieldArea),
				"area must be a number greater than zero", raw))
		}
	}

	if raw, present := present(r.raw, mapping.FieldOwnershipQuota); present {
		if q := r.normalized.OwnershipQuota; q == nil || *q < 0 || *q > 100 {
			out = append(out, model.RowError(rowNumber, string(mapping.FieldOwnershipQuota),
				"ownership quota must be a number between 0 and 100", raw))
		}
	}

	if raw, present := present(r.raw, mapping.FieldOwnerEmail); present && !normalize.ValidEmail(raw) {
		out = append(out, model.RowWarning(rowNumber, string(mapping.FieldOwnerEmail),
			"email address looks invalid", raw))
	}

	if raw, present := present(r.raw, mapping.FieldOwnerPhone); present && !normalize.ValidPhone(raw) {
		out = append(out, model.RowWarning(rowNumber, string(mapping.FieldOwnerPhone),
			"phone number looks invalid", raw))
	}

	return out
}

func checkBatch(ctx context.Context, tenantID string, rows []row, units UnitLookup) (model.Diagnostics, error) {
	var out model.Diagnostics

	if d := checkQuotaSum(rows); d != nil {
		out = append(out, *d)
	}
	out = append(out, checkDuplicates(rows)...)
	out = append(out, checkMultiOwners(rows)...)

	existing, err := checkExistingUnits(ctx, tenantID, rows, units)
	if err != nil {
		return nil, err
	}
	out = append(out, existing...)

	return out, nil
}

func checkQuotaSum(rows []row) *model.Diagnostic {
	sum := 0.0
	for _, r := range rows {
		if r.normalized.OwnershipQuota != nil {
			sum += *r.normalized.OwnershipQuota
		}
	}

	diff := sum - 100
	if sum <= 0 || math.Abs(diff) <= QuotaSumTolerance {
		return nil
	}

	d := model.BatchDiagnostic(model.SeverityWarning, model.DiagQuotaSumMismatch,
		string(mapping.FieldOwnershipQuota),
		fmt.Sprintf("ownership quotas sum to %.2f%% (%+.2f%% from 100%%)", sum, diff))
	return &d
}

func checkDuplicates(rows []row) model.Diagnostics {
	numbers := make([]string, len(rows))
	for i, r := range rows {
		numbers[i] = r.normalized.UnitNumber
	}

	var out model.Diagnostics
	for _, group := range detectDuplicates(numbers) {
		rowNumbers := make([]string, len(group.indices))
		for i, idx := range group.indices {
			rowNumbers[i] = fmt.Sprintf("%d", idx+1)
		}
		out = append(out, model.BatchDiagnostic(model.SeverityError, model.DiagDuplicateUnit,
			string(mapping.FieldUnitNumber),
			fmt.Sprintf("unit %q appears in rows %s", group.value, strings.Join(rowNumbers, ", "))))
	}
	return out
}

type duplicateGroup struct {
	value   string
	indices []int // 0-based
}

// detectDuplicates groups equal values and returns, in first-appearance
// order, every value shared by two or more rows with its 0-based indices.
func detectDuplicates(values []string) []duplicateGroup {
	byValue := make(map[string][]int)
	order := make([]string, 0)
	for i, v := range values {
		if v == "" {
			continue
		}
		if _, seen := byValue[v]; !seen {
			order = append(order, v)
		}
		byValue[v] = append(byValue[v], i)
	}

	var out []duplicateGroup
	for _, v := range order {
		if indices := byValue[v]; len(indices) >= 2 {
			out = append(out, duplicateGroup{value: v, indices: indices})
		}
	}
	return out
}

func checkMultiOwners(rows []row) model.Diagnostics {
	byEmail := make(map[string][]string)
	order := make([]string, 0)
	for _, r := range rows {
		email := r.normalized.OwnerEmail
		if email == "" {
			continue
		}
		if _, seen := byEmail[email]; !seen {
			order = append(order, email)
		}
		byEmail[email] = append(byEmail[email], r.normalized.UnitNumber)
	}

	var out model.Diagnostics
	for _, email := range order {
		units := byEmail[email]
		if len(units) < 2 {
			continue
		}
		out = append(out, model.BatchDiagnostic(model.SeverityWarning, model.DiagMultiOwnerDetected,
			string(mapping.FieldOwnerEmail),
			fmt.Sprintf("%s owns units %s", email, strings.Join(units, ", "))))
	}
	return out
}

func checkExistingUnits(ctx context.Context, tenantID string, rows []row, units UnitLookup) (model.Diagnostics, error) {
	if units == nil || len(rows) == 0 {
		return nil, nil
	}

	numbers := make([]string, 0, len(rows))
	seen := make(map[string]bool)
	for _, r := range rows {
		n := r.normalized.UnitNumber
		if n != "" && !seen[n] {
			seen[n] = true
			numbers = append(numbers, n)
		}
	}

	existing, err := units.ExistingUnitNumbers(ctx, tenantID, numbers)
	if err != nil {
		return nil, err
	}

	var out model.Diagnostics
	for _, n := range numbers {
		if existing[n] {
			out = append(out, model.BatchDiagnostic(model.SeverityWarning, model.DiagExistingUnitConflict,
				string(mapping.FieldUnitNumber),
				fmt.Sprintf("unit %q already exists in the registry and will be skipped on commit", n)))
		}
	}
	return out, nil
}

func present(record mapping.Record, field mapping.Field) (string, bool) {
	raw, ok := record[field]
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return raw, true
}

func hasErrors(diagnostics model.Diagnostics) bool {
	for _, d := range diagnostics {
		if d.Severity == model.SeverityError {
			return true
		}
	}
	return false
}
