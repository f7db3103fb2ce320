package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const (
	dayPrefix  = "history/"
	ignoredKey = "ignored"
)

// BadgerStore keeps one key per day plus one for the ignored list.
type BadgerStore struct {
	db *badger.DB
}

// badgerLogger routes badger's internal messages to slog at debug level,
// except errors.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// OpenBadgerStore opens (or creates) a database directory at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, fmt.Errorf("create history directory %s: %w", path, err)
	}
	return openBadger(badger.DefaultOptions(path).WithSyncWrites(true))
}

// NewMemoryBadgerStore keeps everything in memory. Used by tests.
func NewMemoryBadgerStore() (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true))
}

func openBadger(opts badger.Options) (*BadgerStore, error) {
	opts = opts.
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{logger: slog.Default().With("component", "badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) SaveDay(day string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	key := []byte(dayPrefix + day)
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrDayExists, day)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
}

func (s *BadgerStore) LoadDay(day string) (Snapshot, bool, error) {
	var snap Snapshot
	found, err := s.get([]byte(dayPrefix+day), &snap)
	return snap, found, err
}

func (s *BadgerStore) Days() ([]string, error) {
	var days []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(dayPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			days = append(days, strings.TrimPrefix(string(it.Item().Key()), dayPrefix))
		}
		return nil
	})
	return days, err
}

func (s *BadgerStore) Ignored() ([]string, error) {
	var ignored []string
	_, err := s.get([]byte(ignoredKey), &ignored)
	return ignored, err
}

func (s *BadgerStore) Ignore(shortChannelID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var ignored []string
		item, err := txn.Get([]byte(ignoredKey))
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &ignored)
			}); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if slices.Contains(ignored, shortChannelID) {
			return nil
		}
		data, err := json.Marshal(append(ignored, shortChannelID))
		if err != nil {
			return err
		}
		return txn.Set([]byte(ignoredKey), data)
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) get(key []byte, out any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	return found, err
}
