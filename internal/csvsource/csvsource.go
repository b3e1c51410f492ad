// Package csvsource reads transaction rows from a delimited input table.
// Rows are yielded lazily in file order; the reader is not restartable.
package csvsource

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Required header columns of the input table.
var requiredColumns = []string{
	"account_id",
	"transaction_id",
	"account_type",
	"bank_id",
	"standard",
	"sameday",
	"month",
}

// TransactionRow is one record read from the input table. Values are the
// raw strings as read; Standard and Sameday stay unparsed until the event
// payload is built.
type TransactionRow struct {
	AccountID     string
	TransactionID string
	AccountType   string
	BankID        string
	Standard      string
	Sameday       string
	Month         string
}

// Reader yields TransactionRows from a CSV stream with a header row.
type Reader struct {
	csv       *csv.Reader
	headerMap map[string]int
	line      int
}

// NewReader wraps r, consumes the header row and validates that every
// required column is present. A UTF-8 BOM at the start of the stream is
// stripped.
func NewReader(r io.Reader) (*Reader, error) {
	buf := bufio.NewReader(r)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("csvsource: read input: %w", err)
	}
	if len(head) == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	cr := csv.NewReader(buf)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csvsource: read header: %w", err)
	}

	headerMap := make(map[string]int, len(header))
	for i, name := range header {
		headerMap[strings.TrimSpace(name)] = i
	}

	for _, col := range requiredColumns {
		if _, ok := headerMap[col]; !ok {
			return nil, fmt.Errorf("csvsource: missing required column %q", col)
		}
	}

	return &Reader{csv: cr, headerMap: headerMap, line: 1}, nil
}

// Next returns the next row, or io.EOF when the table is exhausted.
// Malformed records propagate as errors.
func (r *Reader) Next() (*TransactionRow, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("csvsource: read record: %w", err)
	}
	r.line++

	row := &TransactionRow{
		AccountID:     r.field(record, "account_id"),
		TransactionID: r.field(record, "transaction_id"),
		AccountType:   r.field(record, "account_type"),
		BankID:        r.field(record, "bank_id"),
		Standard:      r.field(record, "standard"),
		Sameday:       r.field(record, "sameday"),
		Month:         r.field(record, "month"),
	}

	return row, nil
}

// Line returns the 1-based line number of the most recently read row,
// counting the header.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) field(record []string, name string) string {
	idx := r.headerMap[name]
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}

// ParseAmount converts a comma-grouped numeric string to an integer.
// The empty string parses to 0.
func ParseAmount(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(value, ",", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("csvsource: parse amount %q: %w", value, err)
	}
	return n, nil
}
