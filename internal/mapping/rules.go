package mapping

import (
	"regexp"
	"strings"
)

// Rule links a set of case-insensitive header synonyms to a canonical field.
// Rules are evaluated in order; the first match wins, and a field already
// claimed by an earlier header is never reassigned, so suggestions are
// deterministic even when several headers could match the same field.
type Rule struct {
	Field    Field
	patterns []*regexp.Regexp
}

func newRule(field Field, patterns ...string) Rule {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}
	return Rule{Field: field, patterns: compiled}
}

func (r Rule) Matches(header string) bool {
	for _, p := range r.patterns {
		if p.MatchString(header) {
			return true
		}
	}
	return false
}

// Rules is the ordered auto-detection table. More specific rules come first:
// meter serials before meter readings, hot before cold falls out of the
// pattern text itself.
var Rules = []Rule{
	newRule(FieldColdMeterSerial, `serie.*(rece|apa rece)`, `contor.*rece.*serie`),
	newRule(FieldHotMeterSerial, `serie.*(calda|apa calda)`, `contor.*cald.*serie`),
	newRule(FieldColdMeterReading, `index.*rece`, `apa rece`, `citire.*rece`),
	newRule(FieldHotMeterReading, `index.*cald`, `apa calda`, `citire.*cald`),
	newRule(FieldUnitNumber, `nr\.?\s*ap`, `apartament`, `numar\s*ap`, `\bunitate\b`, `\bunit\b`),
	newRule(FieldOwnershipQuota, `cota`, `quota`, `procent`, `%`),
	newRule(FieldArea, `suprafa[tț]a`, `\bmp\b`, `s\.?\s*utila`, `\barea\b`),
	newRule(FieldFloor, `etaj`, `\bfloor\b`, `nivel`),
	newRule(FieldRooms, `camere`, `\brooms?\b`),
	newRule(FieldOccupants, `persoane`, `locatari`, `occupants?`, `nr\.?\s*pers`),
	newRule(FieldBlock, `scara`, `tronson`, `\bbloc\b`, `section`),
	newRule(FieldCadastralNumber, `cadastr`, `carte funciara`, `\bcf\b`),
	newRule(FieldOwnerEmail, `e-?mail`),
	newRule(FieldOwnerPhone, `telefon`, `\bphone\b`, `\btel\b`, `mobil`),
	newRule(FieldOwnerName, `proprietar`, `\bnume\b`, `owner`, `\bname\b`),
	newRule(FieldUnitType, `tip`, `\btype\b`, `destinatie`),
}

// Suggest proposes a one-to-one mapping from source headers to canonical
// fields. Headers are considered in order; a field claimed by an earlier
// header is skipped for later ones.
func Suggest(headers []string) map[string]Field {
	suggested := make(map[string]Field)
	claimed := make(map[Field]bool)

	for _, header := range headers {
		h := strings.TrimSpace(header)
		if h == "" {
			continue
		}
		for _, rule := range Rules {
			if claimed[rule.Field] || !rule.Matches(h) {
				continue
			}
			suggested[header] = rule.Field
			claimed[rule.Field] = true
			break
		}
	}

	return suggested
}

// Record is one raw row keyed by canonical field. Values are untrimmed
// source cell text; unmapped fields are absent.
type Record map[Field]string

// Apply transforms a raw row into a Record using the confirmed mapping.
// It never fails: unknown headers and out-of-range columns are ignored,
// and a partial mapping simply yields a sparse record.
func Apply(headers []string, columnMapping map[string]string, row []string) Record {
	record := make(Record)
	for header, fieldKey := range columnMapping {
		if !IsKnown(fieldKey) {
			continue
		}
		idx := headerIndex(headers, header)
		if idx < 0 || idx >= len(row) {
			continue
		}
		record[Field(fieldKey)] = row[idx]
	}
	return record
}

func headerIndex(headers []string, header string) int {
	for i, h := range headers {
		if h == header {
			return i
		}
	}
	return -1
}
