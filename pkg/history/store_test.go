package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lcwatch/lcw/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offered(v int64) *int64 { return &v }

func sampleSnapshot() Snapshot {
	return Snapshot{
		"600000x1x0": {
			PeerID:           "028ed3f6",
			ShortID:          "600000x1x0",
			InPayments:       4,
			OutPayments:      1,
			InMsatFulfilled:  50_000_000,
			OutMsatFulfilled: 50_000_000,
			InMsatOffered:    offered(60_000_000),
			OutMsatOffered:   70_000_000,
		},
	}
}

// stores runs every test against both backends.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	mem, err := NewMemoryBadgerStore()
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })

	return map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), ".lcwdata.json")),
		"badger": mem,
	}
}

func TestSaveAndLoadDay(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.LoadDay("20240101")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.SaveDay("20240101", sampleSnapshot()))
			require.NoError(t, s.SaveDay("20231231", Snapshot{}))

			got, ok, err := s.LoadDay("20240101")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, sampleSnapshot(), got)
			assert.True(t, got["600000x1x0"].HasOffered())

			err = s.SaveDay("20240101", Snapshot{})
			assert.ErrorIs(t, err, ErrDayExists)

			days, err := s.Days()
			require.NoError(t, err)
			assert.Equal(t, []string{"20231231", "20240101"}, days)
		})
	}
}

func TestIgnore(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ignored, err := s.Ignored()
			require.NoError(t, err)
			assert.Empty(t, ignored)

			require.NoError(t, s.Ignore("600000x1x0"))
			require.NoError(t, s.Ignore("650000x2x1"))
			require.NoError(t, s.Ignore("600000x1x0"))

			ignored, err = s.Ignored()
			require.NoError(t, err)
			assert.Equal(t, []string{"600000x1x0", "650000x2x1"}, ignored)
		})
	}
}

func TestFileStoreReadsLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lcwdata.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"history": {"20210305": {"600000x1x0": {"in_payments": 3, "out_payments": 2,
			"in_msatoshi_fulfilled": 1000, "out_msatoshi_fulfilled": 2000, "alias": "alpha"}}},
		"ignored": ["1x1x1"]
	}`), 0600))

	s := NewFileStore(path)
	snap, ok, err := s.LoadDay("20210305")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), snap["600000x1x0"].InPayments)
	assert.False(t, snap["600000x1x0"].HasOffered())

	ignored, err := s.Ignored()
	require.NoError(t, err)
	assert.Equal(t, []string{"1x1x1"}, ignored)
}

func TestBadgerStorePersists(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveDay("20240101", sampleSnapshot()))
	require.NoError(t, s.Close())

	s, err = OpenBadgerStore(dir)
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.LoadDay("20240101")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDay(t *testing.T) {
	now := time.Date(2024, 3, 2, 15, 4, 5, 0, time.Local)
	assert.Equal(t, "20240302", Day(now, 0))
	assert.Equal(t, "20240229", Day(now, 2))

	start, err := DayStart("20240229")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.Local), start)

	_, err = DayStart("yesterday")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(config.HistoryConfig{Backend: "file", Path: filepath.Join(dir, "data.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(config.HistoryConfig{Backend: "badger", Path: filepath.Join(dir, "db")})
	require.NoError(t, err)
	assert.IsType(t, &BadgerStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(config.HistoryConfig{Backend: "s3"})
	assert.Error(t, err)
}
