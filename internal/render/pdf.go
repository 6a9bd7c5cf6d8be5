package render

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ErrEmptyDocument is returned for an empty payload.
var ErrEmptyDocument = errors.New("empty document")

// PageCount returns the number of pages of a PDF payload.
func PageCount(data []byte) (n int, err error) {
	if len(data) == 0 {
		return 0, ErrEmptyDocument
	}

	// the reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("reading pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("reading pdf: %w", err)
	}
	return reader.NumPage(), nil
}
