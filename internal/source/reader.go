package source

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/vvka-141/pgbulk/pkg/pgbulk"
)

// Reader streams rows from one delimited source file.
//
// Rows whose field count does not match the column list, and rows the CSV
// parser cannot decode, are rejected: written to the reject file (when one is
// configured) and counted against the spec's MaxErrors tolerance. Exceeding
// the tolerance fails the read with pgbulk.ErrToleranceExceeded.
type Reader struct {
	spec    pgbulk.TableSpec
	file    *os.File
	csv     *csv.Reader
	hasher  hash.Hash
	columns []string
	rejects *RejectWriter

	rowsRead int64
	rejected int64
	line     int // 1-based line of the most recent record
}

// Open opens the spec's source file, resolving a relative path against
// baseDir, skips the configured header rows and resolves the column list.
// The caller must Close the reader.
func Open(spec pgbulk.TableSpec, baseDir string) (*Reader, error) {
	path := spec.Source
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source file %s: %w", path, pgbulk.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("failed to open source file %s: %w", path, err)
	}

	hasher := sha256.New()
	delim, _ := utf8.DecodeRuneInString(spec.Delimiter)

	cr := csv.NewReader(io.TeeReader(file, hasher))
	cr.Comma = delim
	// Field counts are validated against the column list, not the first row,
	// so short and long rows surface as rejects instead of hard errors.
	cr.FieldsPerRecord = -1

	r := &Reader{
		spec:   spec,
		file:   file,
		csv:    cr,
		hasher: hasher,
	}

	if spec.RejectFile != "" {
		rejectPath := spec.RejectFile
		if !filepath.IsAbs(rejectPath) {
			rejectPath = filepath.Join(baseDir, rejectPath)
		}
		r.rejects = NewRejectWriter(rejectPath)
	}

	if err := r.readHeader(); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// readHeader consumes SkipRows leading rows. The first skipped row supplies
// the column list unless the spec overrides it.
func (r *Reader) readHeader() error {
	skip := 0
	if r.spec.SkipRows != nil {
		skip = *r.spec.SkipRows
	}

	for i := 0; i < skip; i++ {
		record, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: failed to read header row %d: %w", r.spec.Source, i+1, err)
		}
		if i == 0 && len(r.spec.Columns) == 0 {
			r.columns = normalizeHeader(record)
		}
	}

	if len(r.spec.Columns) > 0 {
		r.columns = r.spec.Columns
	}
	if len(r.columns) == 0 {
		return fmt.Errorf("%s: no columns: file is empty and no column override configured: %w",
			r.spec.Source, pgbulk.ErrInvalidConfig)
	}

	for _, col := range r.columns {
		if col == "" {
			return fmt.Errorf("%s: header contains an empty column name: %w",
				r.spec.Source, pgbulk.ErrInvalidConfig)
		}
	}

	return nil
}

// normalizeHeader trims whitespace and a UTF-8 BOM from header fields and
// lowercases them to match unquoted PostgreSQL identifiers.
func normalizeHeader(record []string) []string {
	columns := make([]string, len(record))
	for i, field := range record {
		field = strings.TrimPrefix(field, "\ufeff")
		columns[i] = strings.ToLower(strings.TrimSpace(field))
	}
	return columns
}

// Columns returns the resolved column list.
func (r *Reader) Columns() []string {
	return r.columns
}

// ReadBatch returns up to n rows ready for CopyFromRows. It returns io.EOF
// with an empty batch when the file is exhausted. Rejected rows never appear
// in the batch; they are diverted and counted instead.
func (r *Reader) ReadBatch(n int) ([][]any, error) {
	batch := make([][]any, 0, n)

	for len(batch) < n {
		record, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			if len(batch) == 0 {
				return nil, io.EOF
			}
			return batch, nil
		}

		if len(record) > 0 {
			line, _ := r.csv.FieldPos(0)
			r.line = line
		} else {
			r.line++
		}

		if err != nil {
			// The parser returns the partial record alongside the error and
			// can resume with the next record.
			if rejErr := r.reject(record, err); rejErr != nil {
				return nil, rejErr
			}
			continue
		}

		if len(record) != len(r.columns) {
			mismatch := fmt.Errorf("expected %d fields, got %d", len(r.columns), len(record))
			if rejErr := r.reject(record, mismatch); rejErr != nil {
				return nil, rejErr
			}
			continue
		}

		r.rowsRead++
		batch = append(batch, r.toValues(record))
	}

	return batch, nil
}

// toValues converts a record to COPY values, coercing empty fields to NULL
// when the spec keeps nulls.
func (r *Reader) toValues(record []string) []any {
	values := make([]any, len(record))
	for i, field := range record {
		if r.spec.KeepNulls && field == "" {
			values[i] = nil
		} else {
			values[i] = field
		}
	}
	return values
}

// reject records one malformed row. It fails once the tolerance is exhausted.
func (r *Reader) reject(record []string, cause error) error {
	r.rejected++

	if r.rejects != nil {
		line := strings.Join(record, r.spec.Delimiter)
		if err := r.rejects.Write(line); err != nil {
			return err
		}
	}

	if r.rejected > int64(r.spec.MaxErrors) {
		return fmt.Errorf("%s line %d: %v (%d rejected, tolerance %d): %w",
			r.spec.Source, r.line, cause, r.rejected, r.spec.MaxErrors, pgbulk.ErrToleranceExceeded)
	}
	return nil
}

// RowsRead returns the number of accepted data rows so far.
func (r *Reader) RowsRead() int64 {
	return r.rowsRead
}

// Rejected returns the number of rejected rows so far.
func (r *Reader) Rejected() int64 {
	return r.rejected
}

// Checksum returns the hex SHA-256 of all bytes consumed so far. After the
// reader hits EOF this covers the entire file.
func (r *Reader) Checksum() string {
	return hex.EncodeToString(r.hasher.Sum(nil))
}

// Close closes the source file and flushes the reject file if one was written.
func (r *Reader) Close() error {
	var errs []error
	if r.rejects != nil {
		if err := r.rejects.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
