// Package pdfinfo reads lightweight facts from a local PDF before upload.
package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"

	"ragdash/internal/domain"
)

// PageCount returns the number of pages in a PDF held in memory.
func PageCount(data []byte) (n int, err error) {
	if len(data) == 0 {
		return 0, errors.New("pdf: empty input")
	}
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("pdf parse failed: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("pdf parse failed: %w", err)
	}
	return r.NumPage(), nil
}

// Info is a file read from disk plus its page count when it could be parsed.
type Info struct {
	File  domain.File
	Pages int
}

// Load reads path into a domain.File named after its base name. The page
// count is best effort: Pages is zero when the file is not a readable PDF.
func Load(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, err
	}
	info := Info{File: domain.File{Name: filepath.Base(path), Data: data}}
	if n, err := PageCount(data); err == nil {
		info.Pages = n
	}
	return info, nil
}
