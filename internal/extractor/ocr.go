package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	_ "image/jpeg" // register decoders for scanned receipt formats

	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/parsererror"
)

// OCRExtractor extracts text from scanned images by shelling out to
// tesseract, optionally preprocessing the image first to improve accuracy
// on phone photos of receipts.
type OCRExtractor struct {
	Binary     string
	Languages  []string
	Preprocess bool
	Logger     logging.Logger

	checkOnce sync.Once
	checkErr  error
}

// NewOCRExtractor creates an extractor using the given tesseract binary.
// Empty defaults: "tesseract" on PATH, French plus English language packs.
func NewOCRExtractor(binary string, languages []string, preprocess bool, log logging.Logger) *OCRExtractor {
	if binary == "" {
		binary = "tesseract"
	}
	if len(languages) == 0 {
		languages = []string{"fra", "eng"}
	}
	if log == nil {
		log = logging.GetLogger()
	}
	return &OCRExtractor{Binary: binary, Languages: languages, Preprocess: preprocess, Logger: log}
}

func (e *OCRExtractor) available() error {
	e.checkOnce.Do(func() {
		if _, err := exec.LookPath(e.Binary); err != nil {
			e.checkErr = fmt.Errorf("%s not found on PATH: %w", e.Binary, err)
		}
	})
	return e.checkErr
}

// Extract runs OCR on the image at path and returns the recognized text.
func (e *OCRExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := checkExists(path); err != nil {
		return "", err
	}
	if err := e.available(); err != nil {
		return "", &parsererror.ExtractionError{Path: path, Engine: "tesseract", Err: err}
	}

	input := path
	if e.Preprocess {
		cleaned, err := e.preprocessToTemp(path)
		if err != nil {
			return "", err
		}
		defer os.Remove(cleaned)
		input = cleaned
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Binary, input, "stdout", "-l", strings.Join(e.Languages, "+"))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.Logger.Debug("running OCR",
		logging.Field{Key: logging.FieldFile, Value: path})

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &parsererror.ExtractionError{
			Path:   path,
			Engine: "tesseract",
			Err:    fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes())),
		}
	}

	return stdout.String(), nil
}

// preprocessToTemp decodes, cleans and rewrites the image as a temporary
// PNG. The caller removes the file.
func (e *OCRExtractor) preprocessToTemp(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", &parsererror.DecodeError{Path: path, Kind: "image", Err: err}
	}

	cleaned := PreprocessImage(img)

	tmp, err := os.CreateTemp("", "scanledger-ocr-*.png")
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if err := png.Encode(tmp, cleaned); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("encoding preprocessed image for %s: %w", filepath.Base(path), err)
	}
	return tmp.Name(), nil
}
