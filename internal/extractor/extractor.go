// Package extractor turns source documents (scanned images, PDFs) into raw
// text. Engines shell out to the standard extraction binaries; the interface
// split keeps the pipeline testable without them installed.
package extractor

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"mlaurent/scanledger/internal/parsererror"
)

// TextExtractor extracts raw text from a document on disk.
type TextExtractor interface {
	// Extract returns the text content of the file at path. Implementations
	// must honor ctx cancellation and return NotFoundError, DecodeError or
	// ExtractionError as appropriate.
	Extract(ctx context.Context, path string) (string, error)
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tiff": true,
	".tif":  true,
	".bmp":  true,
}

// IsImage reports whether the path has a supported raster image extension.
func IsImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsPDF reports whether the path has a .pdf extension.
func IsPDF(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

// checkExists maps a missing source file to the error the pipeline expects.
func checkExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &parsererror.NotFoundError{Path: path}
		}
		return err
	}
	return nil
}

// Router dispatches to the engine matching the file type.
type Router struct {
	OCR TextExtractor
	PDF TextExtractor
}

// Extract picks the engine from the file extension. Unknown extensions are
// a decode error up front; running the wrong engine would only produce a
// worse message later.
func (r *Router) Extract(ctx context.Context, path string) (string, error) {
	if err := checkExists(path); err != nil {
		return "", err
	}
	switch {
	case IsPDF(path):
		return r.PDF.Extract(ctx, path)
	case IsImage(path):
		return r.OCR.Extract(ctx, path)
	}
	return "", &parsererror.DecodeError{
		Path: path,
		Kind: "supported document",
		Err:  errUnsupportedExtension,
	}
}

var errUnsupportedExtension = errorString("unsupported file extension")

type errorString string

func (e errorString) Error() string { return string(e) }
