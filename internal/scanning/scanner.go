package scanning

// Scanner defines the interface for reading text off a card photo
type Scanner interface {
	// ScanImage runs text recognition on a card photo and returns the
	// raw multi-line text found in the image
	ScanImage(imageData []byte, contentType string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}
