package scanning

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the Scanner interface using a local Tesseract
// install via gosseract. This is the default backend: card names are
// clean printed text, which classic OCR handles without a vision model.
type Tesseract struct {
	language string
}

// NewTesseract creates a new Tesseract Scanner instance
func NewTesseract(language string) (*Tesseract, error) {
	if language == "" {
		language = "eng"
	}

	return &Tesseract{
		language: language,
	}, nil
}

// ScanImage runs Tesseract over the card photo and returns the raw text
func (t *Tesseract) ScanImage(imageData []byte, contentType string) (string, error) {
	// Prepare image data (convert to PNG if needed)
	finalImageData, _, _, err := prepareImageData(imageData, contentType)
	if err != nil {
		return "", err
	}

	// A fresh client per scan keeps Tesseract's internal state out of the
	// picture; setup cost is negligible next to recognition time
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("setting language: %w", err)
	}
	if err := client.SetImageFromBytes(finalImageData); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// Close closes the Tesseract scanner (clients are per-scan, so no-op)
func (t *Tesseract) Close() error {
	return nil
}
