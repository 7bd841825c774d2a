package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB column wrappers. Postgres stores the variable-shape parts of an
// import session (raw matrix, mapping, normalized rows, diagnostics) as
// jsonb; these types implement driver.Valuer and sql.Scanner so sqlx can
// read and write them directly.

type RawRows [][]string

type StringList []string

type SheetCatalog []SheetInfo

type ColumnMapping map[string]string

type NormalizedRows []NormalizedRow

type Diagnostics []Diagnostic

func (r RawRows) Value() (driver.Value, error)        { return jsonbValue(r) }
func (r *RawRows) Scan(src any) error                 { return jsonbScan(src, r) }
func (l StringList) Value() (driver.Value, error)     { return jsonbValue(l) }
func (l *StringList) Scan(src any) error              { return jsonbScan(src, l) }
func (s SheetCatalog) Value() (driver.Value, error)   { return jsonbValue(s) }
func (s *SheetCatalog) Scan(src any) error            { return jsonbScan(src, s) }
func (m ColumnMapping) Value() (driver.Value, error)  { return jsonbValue(m) }
func (m *ColumnMapping) Scan(src any) error           { return jsonbScan(src, m) }
func (n NormalizedRows) Value() (driver.Value, error) { return jsonbValue(n) }
func (n *NormalizedRows) Scan(src any) error          { return jsonbScan(src, n) }
func (d Diagnostics) Value() (driver.Value, error)    { return jsonbValue(d) }
func (d *Diagnostics) Scan(src any) error             { return jsonbScan(src, d) }

func jsonbValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func jsonbScan(src any, dst any) error {
	if src == nil {
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, dst)
	case string:
		return json.Unmarshal([]byte(data), dst)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
