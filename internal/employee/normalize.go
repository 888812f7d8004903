package employee

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/empdex/empdex/internal/errors"
)

// punctRe matches everything that is not a word character or whitespace.
// Letters and digits are matched across all scripts, not just ASCII.
var punctRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// dateLayouts are tried in order when parsing date cells. Source files in
// the wild carry both slash dates without zero padding and ISO dates.
var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"2006/01/02",
	"1/2/06",
}

// CleanBatch converts raw rows into typed records, applying the cleaning
// rules for each field kind. A non-empty cell that cannot be converted to
// its field's type fails the whole batch.
func CleanBatch(batch *RawBatch) ([]*Record, error) {
	records := make([]*Record, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		rec, err := cleanRow(batch.Schema, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func cleanRow(schema *Schema, row RawRow) (*Record, error) {
	rec := NewRecord(schema)
	rec.Line = row.Line
	for _, f := range schema.Fields() {
		raw, ok := row.Cells[f.Name]
		if !ok {
			continue
		}
		v, err := cleanValue(f, raw, row.Line)
		if err != nil {
			return nil, err
		}
		rec.Set(f.Name, v)
	}
	return rec, nil
}

// cleanValue applies the per-field cleaning rule. Empty cells become
// unset for every kind. Dates that do not parse also become unset, so a
// missing exit date never fails a batch. Numbers that do not parse do.
func cleanValue(f Field, raw string, line int) (Value, error) {
	if raw == "" {
		return Unset(f.Kind), nil
	}

	switch f.Kind {
	case KindInteger:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, malformed(f.Name, raw, line, err)
		}
		return IntValue(n), nil

	case KindFloat:
		s := raw
		if f.Name == FieldAnnualSalary {
			s = stripCurrency(s)
		}
		if f.Name == FieldBonusPct {
			s = stripPercent(s)
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Value{}, malformed(f.Name, raw, line, err)
		}
		return FloatValue(val), nil

	case KindDate:
		t, ok := parseDate(raw)
		if !ok {
			return Unset(f.Kind), nil
		}
		return DateValue(t), nil

	case KindText:
		if f.Name == FieldFullName || f.Name == FieldJobTitle {
			return StringValue(f.Kind, stripPunct(raw)), nil
		}
		return StringValue(f.Kind, raw), nil

	default:
		return StringValue(f.Kind, raw), nil
	}
}

// stripCurrency removes every dollar sign and thousands separator.
func stripCurrency(s string) string {
	s = strings.ReplaceAll(s, "$", "")
	return strings.ReplaceAll(s, ",", "")
}

// stripPercent removes every percent sign.
func stripPercent(s string) string {
	return strings.ReplaceAll(s, "%", "")
}

// stripPunct removes punctuation, keeping word characters and whitespace.
func stripPunct(s string) string {
	return punctRe.ReplaceAllString(s, "")
}

// parseDate tries the accepted layouts in order.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func malformed(field, raw string, line int, cause error) error {
	return errors.New(errors.ErrCodeMalformedValue,
		fmt.Sprintf("row %d: %s value %q is not numeric", line, field, raw),
		cause).WithDetail("column", field)
}
