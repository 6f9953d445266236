package card

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const (
	scanBucketName  = "scans"
	cacheBucketName = "rulings_cache"
)

// CachedLookup is a lookup result stored with the time it was fetched,
// so callers can decide whether it is still fresh
type CachedLookup struct {
	Result    LookupResult `json:"result"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// DB defines the interface for database operations
type DB interface {
	// SaveScan saves a scan to the database
	SaveScan(scan *Scan) error

	// GetScan retrieves a scan by ID
	GetScan(id string) (*Scan, error)

	// ListScans returns all scans
	ListScans() ([]*Scan, error)

	// DeleteScan removes a scan from the database
	DeleteScan(id string) error

	// SaveCachedLookup stores a lookup result under the card name
	SaveCachedLookup(name string, result *LookupResult, fetchedAt time.Time) error

	// GetCachedLookup retrieves a cached lookup result by card name.
	// Returns (nil, nil) on a cache miss.
	GetCachedLookup(name string) (*CachedLookup, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	// Create buckets if they don't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(scanBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(cacheBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveScan saves a scan to the database
func (b *BoltDB) SaveScan(scan *Scan) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		data, err := json.Marshal(scan)
		if err != nil {
			return fmt.Errorf("marshaling scan: %w", err)
		}
		return bucket.Put([]byte(scan.ID), data)
	})
}

// GetScan retrieves a scan by ID
func (b *BoltDB) GetScan(id string) (*Scan, error) {
	var scan *Scan
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("scan not found: %s", id)
		}
		return json.Unmarshal(data, &scan)
	})
	if err != nil {
		return nil, err
	}
	return scan, nil
}

// ListScans returns all scans
func (b *BoltDB) ListScans() ([]*Scan, error) {
	scans := make([]*Scan, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var scan Scan
			if err := json.Unmarshal(v, &scan); err != nil {
				return fmt.Errorf("unmarshaling scan: %w", err)
			}
			scans = append(scans, &scan)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return scans, nil
}

// DeleteScan removes a scan from the database
func (b *BoltDB) DeleteScan(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		return bucket.Delete([]byte(id))
	})
}

// cacheKey normalizes a card name for use as a cache key
func cacheKey(name string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(name)))
}

// SaveCachedLookup stores a lookup result under the card name
func (b *BoltDB) SaveCachedLookup(name string, result *LookupResult, fetchedAt time.Time) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(cacheBucketName))
		data, err := json.Marshal(&CachedLookup{Result: *result, FetchedAt: fetchedAt})
		if err != nil {
			return fmt.Errorf("marshaling cached lookup: %w", err)
		}
		return bucket.Put(cacheKey(name), data)
	})
}

// GetCachedLookup retrieves a cached lookup result by card name
func (b *BoltDB) GetCachedLookup(name string) (*CachedLookup, error) {
	var cached *CachedLookup
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(cacheBucketName))
		data := bucket.Get(cacheKey(name))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &cached)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshaling cached lookup: %w", err)
	}
	return cached, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
