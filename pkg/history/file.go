package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
)

// document is the on-disk shape: {"history": {day: snapshot}, "ignored": [...]}.
type document struct {
	History map[string]Snapshot `json:"history"`
	Ignored []string            `json:"ignored"`
}

// FileStore keeps everything in a single JSON document.
type FileStore struct {
	Path string

	mu sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) read() (document, error) {
	doc := document{History: map[string]Snapshot{}}
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode %s: %w", s.Path, err)
	}
	if doc.History == nil {
		doc.History = map[string]Snapshot{}
	}
	return doc, nil
}

// write replaces the document through a rename so a crash never leaves a
// truncated file behind.
func (s *FileStore) write(doc document) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".lcwdata-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}

func (s *FileStore) SaveDay(day string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.History[day]; ok {
		return fmt.Errorf("%w: %s", ErrDayExists, day)
	}
	doc.History[day] = snap
	return s.write(doc)
}

func (s *FileStore) LoadDay(day string) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, false, err
	}
	snap, ok := doc.History[day]
	return snap, ok, nil
}

func (s *FileStore) Days() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	days := make([]string, 0, len(doc.History))
	for d := range doc.History {
		days = append(days, d)
	}
	sort.Strings(days)
	return days, nil
}

func (s *FileStore) Ignored() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Ignored, nil
}

func (s *FileStore) Ignore(shortChannelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if slices.Contains(doc.Ignored, shortChannelID) {
		return nil
	}
	doc.Ignored = append(doc.Ignored, shortChannelID)
	return s.write(doc)
}

func (s *FileStore) Close() error { return nil }
