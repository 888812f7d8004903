package employee

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/empdex/empdex/internal/errors"
)

// Loader reads an employee CSV file and produces typed, validated
// records ready for indexing.
type Loader struct {
	path     string
	encoding string
}

// NewLoader creates a loader for the given file. Encoding is the source
// character set, "iso-8859-1" or "utf-8". An empty encoding means UTF-8.
func NewLoader(path, encoding string) *Loader {
	return &Loader{path: path, encoding: encoding}
}

// Path returns the CSV file path the loader reads.
func (l *Loader) Path() string {
	return l.path
}

// RawRow is one parsed CSV row before cleaning. Cells are keyed by
// canonical column name and hold the raw cell text.
type RawRow struct {
	// Line is the 1-based file position counting the header line.
	Line  int
	Cells map[string]string
}

// RawBatch is a parsed file after column exclusion and deduplication.
type RawBatch struct {
	Schema   *Schema
	Rows     []RawRow
	Deduped  int
	Warnings []string
}

// LoadResult carries the typed records of a successful load.
type LoadResult struct {
	Records  []*Record
	Schema   *Schema
	Deduped  int
	Warnings []string
}

// Load runs the full pipeline: read and decode the file, drop the
// excluded column, deduplicate by identifier, clean values, and reject
// batches containing nulls. An empty exclude keeps the full schema.
func (l *Loader) Load(exclude string) (*LoadResult, error) {
	batch, err := l.Read(exclude)
	if err != nil {
		return nil, err
	}
	records, err := CleanBatch(batch)
	if err != nil {
		return nil, err
	}
	if err := ValidateBatch(records); err != nil {
		return nil, err
	}
	return &LoadResult{
		Records:  records,
		Schema:   batch.Schema,
		Deduped:  batch.Deduped,
		Warnings: batch.Warnings,
	}, nil
}

// Read parses the file into raw rows. Deduplication keys on the raw
// identifier cell and keeps the first occurrence. Blank identifiers
// compare equal to each other, so duplicate blanks also collapse.
func (l *Loader) Read(exclude string) (*RawBatch, error) {
	schema := Default()
	if exclude != "" {
		derived, err := schema.Without(exclude)
		if err != nil {
			return nil, err
		}
		schema = derived
	}

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeCSVNotFound,
				fmt.Sprintf("csv file not found: %s", l.path), err)
		}
		return nil, errors.New(errors.ErrCodeFilePermission,
			fmt.Sprintf("cannot open csv file: %s", l.path), err)
	}
	defer f.Close()

	decoded, err := decodeReader(f, l.encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeCSVMalformed,
			fmt.Sprintf("csv file is empty: %s", l.path), nil)
	}
	if err != nil {
		return nil, errors.New(errors.ErrCodeCSVMalformed,
			fmt.Sprintf("cannot parse csv header: %v", err), err)
	}

	var warnings []string

	// colField maps header position to schema field name, "" for
	// columns that are dropped.
	colField := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		if !schema.Has(name) {
			if name != exclude {
				warnings = append(warnings, fmt.Sprintf("dropping unknown column %q", name))
			}
			continue
		}
		if seen[name] {
			warnings = append(warnings, fmt.Sprintf("duplicate column %q ignored", name))
			continue
		}
		seen[name] = true
		colField[i] = name
	}
	if !seen[FieldEmployeeID] {
		return nil, errors.New(errors.ErrCodeCSVMalformed,
			fmt.Sprintf("csv header is missing the %q column", FieldEmployeeID), nil)
	}
	for _, name := range schema.Names() {
		if !seen[name] {
			warnings = append(warnings, fmt.Sprintf("csv header is missing column %q", name))
		}
	}

	var rows []RawRow
	seenIDs := make(map[string]bool)
	deduped := 0
	line := 1
	for {
		cells, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(errors.ErrCodeCSVMalformed,
				fmt.Sprintf("cannot parse csv row: %v", err), err)
		}
		line++

		if len(cells) != len(header) {
			warnings = append(warnings, fmt.Sprintf(
				"row %d has %d cells, expected %d", line, len(cells), len(header)))
			if len(cells) > len(header) {
				cells = cells[:len(header)]
			}
		}

		row := RawRow{Line: line, Cells: make(map[string]string, schema.Len())}
		for i, cell := range cells {
			if name := colField[i]; name != "" {
				row.Cells[name] = cell
			}
		}

		id := row.Cells[FieldEmployeeID]
		if seenIDs[id] {
			deduped++
			continue
		}
		seenIDs[id] = true
		rows = append(rows, row)
	}

	return &RawBatch{
		Schema:   schema,
		Rows:     rows,
		Deduped:  deduped,
		Warnings: warnings,
	}, nil
}

// ValidateBatch rejects a batch containing any unset cell. The error
// names the first offending row and column in file order.
func ValidateBatch(records []*Record) error {
	total := 0
	firstLine := 0
	firstField := ""
	for _, rec := range records {
		if n := rec.UnsetCount(); n > 0 {
			if firstField == "" {
				firstLine = rec.Line
				firstField, _ = rec.FirstUnset()
			}
			total += n
		}
	}
	if total == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeNullField,
		fmt.Sprintf("batch contains %d null value(s), first at row %d column %q; aborting",
			total, firstLine, firstField), nil).
		WithSuggestion("fill the missing values or exclude the column before ingesting")
}

// decodeReader wraps r with a character set decoder when needed.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "iso-8859-1", "iso8859-1", "latin-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unsupported csv encoding %q", encoding), nil)
	}
}
