package newsfeed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Store holds scraped records partitioned by publication date and persists
// them as a single JSON document of the form {"YYYY-MM-DD": [record, ...]}.
type Store struct {
	path       string
	partitions map[string][]Record
	// index maps a record key to the partition it lives in
	index map[string]string
	// backup is set when loading dropped data; the file on disk is moved
	// aside before it is first overwritten
	backup bool
	logger *slog.Logger
}

// CorruptSuffix is appended to a store file that could not be fully read
// before a save replaces it.
const CorruptSuffix = ".corrupt"

// Open loads the store at path. A missing or empty file yields an empty
// store, as does a file that is not valid JSON. A record that cannot be read
// is skipped and the rest are kept. Only failures to read an existing file
// are returned.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		path:       path,
		partitions: make(map[string][]Record),
		index:      make(map[string]string),
		logger:     logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read store: %w", err)
	}

	raws, err := splitRecords(data)
	if err != nil {
		logger.Warn("ignoring malformed store", slog.String("path", path), slog.Any("error", err))
		s.backup = true
		return s, nil
	}

	for i, raw := range raws {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Warn("skipping unreadable record",
				slog.String("path", path),
				slog.Int("index", i),
				slog.Any("error", err))
			s.backup = true
			continue
		}
		s.Add(rec)
	}
	return s, nil
}

// splitRecords returns the raw records of either the date-keyed form or a
// flat array of records, which is what older open-data runs wrote.
func splitRecords(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var flat []json.RawMessage
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, err
		}
		return flat, nil
	}

	var partitioned map[string][]json.RawMessage
	if err := json.Unmarshal(data, &partitioned); err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	for _, date := range sortedKeys(partitioned) {
		raws = append(raws, partitioned[date]...)
	}
	return raws, nil
}

// Path returns the file the store is persisted to.
func (s *Store) Path() string {
	return s.path
}

// Has reports whether a record with the given key is already stored.
func (s *Store) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Add appends rec to its date partition unless a record with the same key
// is already stored. Existing records are never overwritten.
func (s *Store) Add(rec Record) bool {
	key := rec.Key()
	if s.Has(key) {
		return false
	}

	date := rec.Date()
	s.partitions[date] = append(s.partitions[date], rec)
	s.index[key] = date
	return true
}

// Merge adds every record and returns how many were new.
func (s *Store) Merge(records []Record) int {
	added := 0
	for _, rec := range records {
		if s.Add(rec) {
			added++
		}
	}
	return added
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.index)
}

// Dates returns the stored partitions in ascending order.
func (s *Store) Dates() []string {
	return sortedKeys(s.partitions)
}

// Records returns the records of one partition in insertion order.
func (s *Store) Records(date string) []Record {
	return s.partitions[date]
}

// Latest returns the newest timestamp among records that came from the
// open-data API, or the zero time when there are none.
func (s *Store) Latest() time.Time {
	var latest time.Time
	for _, records := range s.partitions {
		for _, rec := range records {
			if rec.ID != "" && rec.PublishedAt.After(latest) {
				latest = rec.PublishedAt
			}
		}
	}
	return latest
}

// Save writes the whole store, replacing the previous file.
func (s *Store) Save() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.partitions); err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	if s.backup {
		if err := os.Rename(s.path, s.path+CorruptSuffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to back up store: %w", err)
		}
		s.logger.Warn("previous store moved aside", slog.String("path", s.path+CorruptSuffix))
		s.backup = false
	}

	tmp, err := os.CreateTemp(dir, ".rijksnieuws-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}

	s.logger.Debug("store saved", slog.String("path", s.path), slog.Int("records", s.Len()))
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
