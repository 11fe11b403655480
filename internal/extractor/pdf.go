package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sync"

	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/parsererror"
)

// PDFExtractor extracts text from PDFs by shelling out to pdftotext.
type PDFExtractor struct {
	Binary string
	Layout bool
	Logger logging.Logger

	checkOnce sync.Once
	checkErr  error
}

// NewPDFExtractor creates an extractor using the given pdftotext binary.
// An empty binary name defaults to "pdftotext" on PATH.
func NewPDFExtractor(binary string, layout bool, log logging.Logger) *PDFExtractor {
	if binary == "" {
		binary = "pdftotext"
	}
	if log == nil {
		log = logging.GetLogger()
	}
	return &PDFExtractor{Binary: binary, Layout: layout, Logger: log}
}

// available verifies once per process that the binary can be found.
func (e *PDFExtractor) available() error {
	e.checkOnce.Do(func() {
		if _, err := exec.LookPath(e.Binary); err != nil {
			e.checkErr = fmt.Errorf("%s not found on PATH: %w", e.Binary, err)
		}
	})
	return e.checkErr
}

// Extract runs pdftotext and returns its stdout. The -layout flag preserves
// column alignment, which the payslip patterns rely on.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := checkExists(path); err != nil {
		return "", err
	}
	if err := e.available(); err != nil {
		return "", &parsererror.ExtractionError{Path: path, Engine: "pdftotext", Err: err}
	}

	args := []string{}
	if e.Layout {
		args = append(args, "-layout")
	}
	args = append(args, path, "-")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.Logger.Debug("extracting text from PDF",
		logging.Field{Key: logging.FieldFile, Value: path})

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// pdftotext exits nonzero on malformed PDF content.
		return "", &parsererror.DecodeError{
			Path: path,
			Kind: "pdf",
			Err:  fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes())),
		}
	}

	return stdout.String(), nil
}
