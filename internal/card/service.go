package card

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/reisematson2/rules-lawyer/internal/scanning"
)

// ErrScanInFlight is returned when a scan is triggered while another scan
// is still being processed. One pipeline runs at a time so a second photo
// cannot clobber the result of the first mid-flight.
var ErrScanInFlight = errors.New("a scan is already in progress")

// scanErrorComment is shown in place of rulings when the photo could not
// be read at all
const scanErrorComment = "Could not read the card. Try again with the card name filling the frame."

// defaultCacheTTL bounds how long a cached lookup is served before the
// provider is asked again. Rulings change rarely; a day is plenty fresh.
const defaultCacheTTL = 24 * time.Hour

// IDGenerator generates unique IDs for scans
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service runs the capture -> recognize -> extract -> lookup pipeline
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	source      RulingSource
	idGenerator IDGenerator
	timeSource  TimeSource
	cacheTTL    time.Duration
	inFlight    atomic.Bool
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage, source RulingSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		source:      source,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
		cacheTTL:    defaultCacheTTL,
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, source RulingSource, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		source:      source,
		idGenerator: idGen,
		timeSource:  timeSrc,
		cacheTTL:    defaultCacheTTL,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	// Get the extension
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Remove special characters, keep only alphanumeric, spaces, hyphens, and underscores
	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	// Replace multiple spaces with single space
	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	// Trim spaces
	base = strings.TrimSpace(base)

	// Truncate to reasonable length (50 chars for base, plus extension)
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	// If base is empty after sanitization, use a default
	if base == "" {
		base = "card"
	}

	return base + ext
}

// ProcessScan stores a card photo, reads its text, extracts the most
// likely card name, and resolves rulings for it. When text recognition
// fails the scan is still recorded, with a single synthetic ruling
// telling the user what happened. Only one scan runs at a time; a
// concurrent trigger gets ErrScanInFlight.
func (s *Service) ProcessScan(ctx context.Context, filename string, data []byte, contentType string) (*Scan, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrScanInFlight
	}
	defer s.inFlight.Store(false)

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	// Sanitize filename to clean up phone-generated long filenames
	cleanFilename := sanitizeFilename(filename)

	// Save photo to storage
	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving photo: %w", err)
	}

	scan := &Scan{
		ID:          id,
		Filename:    savedPath,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Read the text off the photo
	rawText, err := s.scanner.ScanImage(data, contentType)
	if err != nil {
		slog.Error("Failed to scan card photo",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// The photo stays on disk for review. The failure surfaces as a
		// single readable ruling rather than a structured error.
		scan.Rulings = []Ruling{{
			PublishedAt: now.Format("2006-01-02"),
			Comment:     scanErrorComment,
		}}
	} else {
		scan.RawText = rawText
		name := scanning.ExtractCardName(rawText)
		if name == "" {
			slog.Warn("No card name found in scanned text", "raw_length", len(rawText))
		} else {
			result := s.resolveLookup(ctx, name)
			scan.CardName = result.CardName
			scan.Rulings = result.Rulings
			scan.Suggestions = result.Suggestions
		}
	}

	// Save to database
	if err := s.db.SaveScan(scan); err != nil {
		// Clean up file if database save fails
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving scan to database: %w", err)
	}

	return scan, nil
}

// LookupCard resolves rulings for a name the user typed or picked from
// the suggestion list, bypassing the camera path
func (s *Service) LookupCard(ctx context.Context, name string) (*LookupResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("card name is required")
	}
	return s.resolveLookup(ctx, name), nil
}

// resolveLookup consults the rulings cache before going to the provider.
// A lookup failure degrades to an empty "nothing found" result; the
// binary rulings-or-suggestions outcome is all the caller renders.
func (s *Service) resolveLookup(ctx context.Context, name string) *LookupResult {
	now := s.timeSource.Now()

	cached, err := s.db.GetCachedLookup(name)
	if err != nil {
		slog.Warn("Failed to read rulings cache", "name", name, "error", err)
	} else if cached != nil && now.Sub(cached.FetchedAt) < s.cacheTTL {
		result := cached.Result
		return &result
	}

	result, err := s.source.Lookup(ctx, name)
	if err != nil {
		slog.Error("Card lookup failed", "name", name, "error", err)
		return &LookupResult{CardName: name}
	}

	if err := s.db.SaveCachedLookup(name, result, now); err != nil {
		slog.Warn("Failed to cache lookup result", "name", name, "error", err)
	}
	return result
}

// GetScan retrieves a scan by ID
func (s *Service) GetScan(id string) (*Scan, error) {
	scan, err := s.db.GetScan(id)
	if err != nil {
		return nil, fmt.Errorf("getting scan: %w", err)
	}
	return scan, nil
}

// ListScans returns all scans
func (s *Service) ListScans() ([]*Scan, error) {
	scans, err := s.db.ListScans()
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	return scans, nil
}

// DeleteScan removes a scan and its photo
func (s *Service) DeleteScan(id string) error {
	scan, err := s.db.GetScan(id)
	if err != nil {
		return fmt.Errorf("getting scan for deletion: %w", err)
	}

	// Delete file
	if err := s.storage.Delete(scan.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete photo", "filename", scan.Filename, "error", err)
	}

	// Delete from database
	if err := s.db.DeleteScan(id); err != nil {
		return fmt.Errorf("deleting scan from database: %w", err)
	}
	return nil
}

// GetScanFile retrieves the photo data for a scan
func (s *Service) GetScanFile(id string) ([]byte, string, error) {
	scan, err := s.db.GetScan(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting scan: %w", err)
	}

	data, err := s.storage.Get(scan.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting scan photo: %w", err)
	}

	return data, scan.ContentType, nil
}
