package syncapp

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldType declares how a raw attribute value is normalized
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeInteger FieldType = "integer"
	FieldTypeDecimal FieldType = "decimal"
	FieldTypeDate    FieldType = "date"
	FieldTypeJSON    FieldType = "json"
)

// sentinel strings normalize to null before any type-specific parsing
var nullSentinels = map[string]struct{}{
	"":     {},
	"NULL": {},
	"None": {},
	"null": {},
}

var truthyStrings = map[string]struct{}{
	"true": {}, "1": {}, "yes": {}, "t": {},
}

// dateFormats are tried in order until one parses
var dateFormats = []string{
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"02-01-2006",
}

// Normalize converts a raw wire value into a typed value per the declared
// field type. It returns nil for unparsable values and never fails: the
// mapper drops nil results so one bad attribute cannot poison a record.
//
// Typed results are string, bool, int64, decimal.Decimal, time.Time, or a
// validated JSON string.
func Normalize(raw string, fieldType FieldType) any {
	if _, isNull := nullSentinels[raw]; isNull {
		return nil
	}

	switch fieldType {
	case FieldTypeBoolean:
		return normalizeBoolean(raw)
	case FieldTypeInteger:
		return normalizeInteger(raw)
	case FieldTypeDecimal:
		return normalizeDecimal(raw)
	case FieldTypeDate:
		return normalizeDate(raw)
	case FieldTypeJSON:
		return normalizeJSON(raw)
	default:
		return raw
	}
}

// normalizeBoolean maps recognized spellings to their boolean value and
// every unrecognized string to false. The upstream system historically
// treated unknown markers as "unset" rather than rejecting them, so false
// is the preserved default here, not nil.
func normalizeBoolean(raw string) bool {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	_, ok := truthyStrings[lowered]
	return ok
}

// normalizeInteger parses via float first so values like "1.0" survive
func normalizeInteger(raw string) any {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	return int64(f)
}

func normalizeDecimal(raw string) any {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return d
}

// normalizeDate returns the date component only, in UTC
func normalizeDate(raw string) any {
	trimmed := strings.TrimSpace(raw)
	for _, format := range dateFormats {
		if t, err := time.Parse(format, trimmed); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	return nil
}

// normalizeJSON validates the payload and returns it as a JSON string
func normalizeJSON(raw string) any {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}
	return raw
}
