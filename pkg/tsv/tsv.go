// Package tsv reads and writes tab separated files in "non-numeric" quoting
// style: strings are wrapped in double quotes (with embedded quotes
// doubled) and numbers are written bare.
package tsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// NewReader returns a csv.Reader configured for tab separated rows of
// varying width. Lines starting with '#' are comments.
func NewReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// Quote wraps s in double quotes, doubling any quotes inside
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FormatNumber writes an integer field
func FormatNumber(n int) string {
	return strconv.Itoa(n)
}

// ParseNumber reads an integer field. Files written by float-minded tools
// carry values like "12.0", which are accepted when integral.
func ParseNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("number %q is not an integer", s)
	}
	return int(f), nil
}

// WriteRow writes fields joined by tabs and terminated by a newline.
// Fields must already be quoted or formatted.
func WriteRow(w io.Writer, fields ...string) error {
	_, err := io.WriteString(w, strings.Join(fields, "\t")+"\n")
	return err
}

// EscapeNewlines replaces line breaks with a literal backslash-n so a
// multi-line text fits in one row
func EscapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}

// UnescapeNewlines reverses EscapeNewlines
func UnescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
