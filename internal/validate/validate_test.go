package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitra/import-server-go/internal/model"
)

type stubUnitLookup struct {
	existing map[string]bool
	err      error
	calls    int
}

func (s *stubUnitLookup) ExistingUnitNumbers(ctx context.Context, tenantID string, numbers []string) (map[string]bool, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]bool)
	for _, n := range numbers {
		if s.existing[n] {
			out[n] = true
		}
	}
	return out, nil
}

var (
	testHeaders = []string{"Nr.ap.", "Suprafata", "Cota", "Email"}
	testMapping = map[string]string{
		"Nr.ap.":    "unit_number",
		"Suprafata": "area",
		"Cota":      "ownership_quota",
		"Email":     "owner_email",
	}
)

func run(t *testing.T, rows [][]string, lookup UnitLookup) *Result {
	t.Helper()
	result, err := Run(context.Background(), "tenant-1", testHeaders, rows, testMapping, lookup)
	require.NoError(t, err)
	return result
}

func countBy(diagnostics model.Diagnostics, code model.DiagnosticCode) int {
	n := 0
	for _, d := range diagnostics {
		if d.Code == code {
			n++
		}
	}
	return n
}

func findBy(diagnostics model.Diagnostics, code model.DiagnosticCode) *model.Diagnostic {
	for _, d := range diagnostics {
		if d.Code == code {
			return &d
		}
	}
	return nil
}

func TestRunEndToEnd(t *testing.T) {
	// The three-row scenario: duplicate identifiers, a negative area, a
	// shared owner email and a malformed one.
	rows := [][]string{
		{"1", "50,5", "33.3", "a@x.com"},
		{"1", "60", "33.3", "a@x.com"},
		{"3", "-5", "33.4", "bad-email"},
	}

	result := run(t, rows, &stubUnitLookup{})

	assert.Equal(t, 3, result.ValidRows)
	assert.False(t, result.Ready, "blocking errors must keep the batch unready")

	area := findBy(result.Diagnostics, model.DiagRowError)
	require.NotNil(t, area)
	assert.Equal(t, 3, area.RowNumber)
	assert.Equal(t, "area", area.Field)
	assert.Equal(t, "-5", area.RawValue)

	dup := findBy(result.Diagnostics, model.DiagDuplicateUnit)
	require.NotNil(t, dup)
	assert.Equal(t, model.SeverityError, dup.Severity)
	assert.Equal(t, model.ScopeBatch, dup.Scope)
	assert.Contains(t, dup.Message, `unit "1"`)
	assert.Contains(t, dup.Message, "rows 1, 2")

	owner := findBy(result.Diagnostics, model.DiagMultiOwnerDetected)
	require.NotNil(t, owner)
	assert.Equal(t, model.SeverityWarning, owner.Severity)
	assert.Contains(t, owner.Message, "a@x.com")

	email := findBy(result.Diagnostics, model.DiagRowWarning)
	require.NotNil(t, email)
	assert.Equal(t, 3, email.RowNumber)
	assert.Equal(t, "bad-email", email.RawValue)

	// 33.3+33.3+33.4 sums to 100 exactly; no quota warning.
	assert.Zero(t, countBy(result.Diagnostics, model.DiagQuotaSumMismatch))

	// Normalization: comma decimal parsed, occupants defaulted.
	require.NotNil(t, result.Rows[0].Area)
	assert.Equal(t, 50.5, *result.Rows[0].Area)
	assert.Equal(t, 1, result.Rows[0].Occupants)
}

func TestRunIsIdempotent(t *testing.T) {
	rows := [][]string{
		{"1", "50,5", "40", "a@x.com"},
		{"1", "60", "40", "a@x.com"},
		{"3", "-5", "33.4", "bad-email"},
	}
	lookup := &stubUnitLookup{existing: map[string]bool{"3": true}}

	first := run(t, rows, lookup)
	second := run(t, rows, lookup)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestQuotaSum(t *testing.T) {
	t.Run("within tolerance is silent", func(t *testing.T) {
		result := run(t, [][]string{
			{"1", "50", "33.3", ""},
			{"2", "50", "33.35", ""},
			{"3", "50", "33.3", ""},
		}, nil)
		assert.Zero(t, countBy(result.Diagnostics, model.DiagQuotaSumMismatch))
	})

	t.Run("reports the signed difference", func(t *testing.T) {
		result := run(t, [][]string{
			{"1", "50", "60", ""},
			{"2", "50", "40.5", ""},
		}, nil)

		d := findBy(result.Diagnostics, model.DiagQuotaSumMismatch)
		require.NotNil(t, d)
		assert.Equal(t, model.SeverityWarning, d.Severity)
		assert.Contains(t, d.Message, "100.50%")
		assert.Contains(t, d.Message, "+0.50%")
	})

	t.Run("zero sum never warns", func(t *testing.T) {
		result := run(t, [][]string{
			{"1", "50", "", ""},
			{"2", "50", "", ""},
		}, nil)
		assert.Zero(t, countBy(result.Diagnostics, model.DiagQuotaSumMismatch))
	})
}

func TestDetectDuplicates(t *testing.T) {
	t.Run("groups 0-based indices per value", func(t *testing.T) {
		values := []string{"7", "12", "8", "9", "5", "12", "6", "4", "12"}
		groups := detectDuplicates(values)

		require.Len(t, groups, 1)
		assert.Equal(t, "12", groups[0].value)
		assert.Equal(t, []int{1, 5, 8}, groups[0].indices)
	})

	t.Run("surfaces 1-based row numbers", func(t *testing.T) {
		rows := make([][]string, 0, 9)
		for i, unit := range []string{"7", "12", "8", "9", "5", "12", "6", "4", "12"} {
			rows = append(rows, []string{unit, fmt.Sprintf("%d", 40+i), "", ""})
		}

		result := run(t, rows, nil)
		d := findBy(result.Diagnostics, model.DiagDuplicateUnit)
		require.NotNil(t, d)
		assert.Contains(t, d.Message, "rows 2, 6, 9")
	})

	t.Run("whitespace-padded identifiers collide after trim", func(t *testing.T) {
		result := run(t, [][]string{
			{" 1", "50", "", ""},
			{"1 ", "50", "", ""},
		}, nil)
		assert.Equal(t, 1, countBy(result.Diagnostics, model.DiagDuplicateUnit))
	})
}

func TestRowChecks(t *testing.T) {
	t.Run("blank unit numbers are dropped, not flagged", func(t *testing.T) {
		result := run(t, [][]string{
			{"1", "50", "", ""},
			{"", "60", "", ""},
			{"   ", "70", "", ""},
			{"2", "80", "", ""},
		}, nil)

		assert.Equal(t, 2, result.ValidRows)
		assert.Len(t, result.Rows, 2)
		assert.Zero(t, countBy(result.Diagnostics, model.DiagRowError))
		assert.True(t, result.Ready)
	})

	t.Run("quota outside range blocks", func(t *testing.T) {
		result := run(t, [][]string{{"1", "50", "101", ""}}, nil)

		d := findBy(result.Diagnostics, model.DiagRowError)
		require.NotNil(t, d)
		assert.Equal(t, "ownership_quota", d.Field)
		assert.Equal(t, "101", d.RawValue)
		assert.False(t, result.Ready)
	})

	t.Run("unparseable area reports the raw value", func(t *testing.T) {
		result := run(t, [][]string{{"1", "abc", "50", ""}}, nil)

		d := findBy(result.Diagnostics, model.DiagRowError)
		require.NotNil(t, d)
		assert.Equal(t, "abc", d.RawValue)
	})

	t.Run("missing optional fields raise nothing", func(t *testing.T) {
		result := run(t, [][]string{{"1", "", "", ""}}, nil)
		assert.Empty(t, result.Diagnostics)
		assert.True(t, result.Ready)
	})
}

func TestExistingUnits(t *testing.T) {
	t.Run("collisions are non-blocking warnings", func(t *testing.T) {
		lookup := &stubUnitLookup{existing: map[string]bool{"2": true}}
		result := run(t, [][]string{
			{"1", "50", "50", ""},
			{"2", "50", "50", ""},
		}, lookup)

		d := findBy(result.Diagnostics, model.DiagExistingUnitConflict)
		require.NotNil(t, d)
		assert.Equal(t, model.SeverityWarning, d.Severity)
		assert.Contains(t, d.Message, `unit "2"`)
		assert.True(t, result.Ready)
	})

	t.Run("lookup failures abort the run", func(t *testing.T) {
		lookup := &stubUnitLookup{err: errors.New("registry down")}
		_, err := Run(context.Background(), "tenant-1", testHeaders,
			[][]string{{"1", "50", "50", ""}}, testMapping, lookup)
		assert.Error(t, err)
	})
}

func TestNormalizeRecord(t *testing.T) {
	headers := []string{"Nr.ap.", "Email", "Persoane", "Etaj"}
	columnMapping := map[string]string{
		"Nr.ap.":   "unit_number",
		"Email":    "owner_email",
		"Persoane": "occupants",
		"Etaj":     "floor",
	}

	result, err := Run(context.Background(), "tenant-1", headers, [][]string{
		{" 12 ", " Ana@Example.COM ", "0", "3"},
	}, columnMapping, nil)
	require.NoError(t, err)

	row := result.Rows[0]
	assert.Equal(t, "12", row.UnitNumber)
	assert.Equal(t, "ana@example.com", row.OwnerEmail)
	assert.Equal(t, 1, row.Occupants, "zero occupants normalizes to one")
	require.NotNil(t, row.Floor)
	assert.Equal(t, 3, *row.Floor)
}
