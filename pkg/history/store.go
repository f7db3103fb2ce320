// Package history persists daily channel snapshots and the ignored-channel
// list between runs.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lcwatch/lcw/pkg/config"
)

// ErrDayExists is returned when a snapshot for the day is already stored.
var ErrDayExists = errors.New("day already stored")

// DayLayout is the key format of a stored day.
const DayLayout = "20060102"

// ChannelSnapshot holds the forwarding counters of one channel at the time of
// the snapshot. Field names follow the listpeers counters.
type ChannelSnapshot struct {
	PeerID             string `json:"peer_id"`
	ShortID            string `json:"short_id"`
	Alias              string `json:"alias,omitempty"`
	InputCapacity      int64  `json:"input_capacity"`
	OutputCapacity     int64  `json:"output_capacity"`
	State              string `json:"state"`
	InPayments         int64  `json:"in_payments"`
	OutPayments        int64  `json:"out_payments"`
	InMsatFulfilled    int64  `json:"in_msatoshi_fulfilled"`
	OutMsatFulfilled   int64  `json:"out_msatoshi_fulfilled"`
	InPaymentsOffered  int64  `json:"in_payments_offered"`
	OutPaymentsOffered int64  `json:"out_payments_offered"`
	// Snapshots written before offered amounts were tracked lack these; a nil
	// InMsatOffered marks every offered counter as absent.
	InMsatOffered  *int64 `json:"in_msatoshi_offered,omitempty"`
	OutMsatOffered int64  `json:"out_msatoshi_offered"`
}

// HasOffered reports whether the offered counters were recorded.
func (s ChannelSnapshot) HasOffered() bool {
	return s.InMsatOffered != nil
}

// Snapshot maps short channel ids to their counters.
type Snapshot map[string]ChannelSnapshot

// Store persists snapshots keyed by day and the ignored-channel list.
type Store interface {
	// SaveDay stores the snapshot once; a second save of the same day
	// returns ErrDayExists.
	SaveDay(day string, snap Snapshot) error
	// LoadDay returns false when nothing was stored for day.
	LoadDay(day string) (Snapshot, bool, error)
	// Days lists stored days in ascending order.
	Days() ([]string, error)
	Ignored() ([]string, error)
	// Ignore adds a channel to the ignored list. Ignoring twice is a no-op.
	Ignore(shortChannelID string) error
	Close() error
}

// Day formats the calendar day daysAgo days before now.
func Day(now time.Time, daysAgo int) string {
	return now.Add(-time.Duration(daysAgo) * 24 * time.Hour).Format(DayLayout)
}

// DayStart returns local midnight of a stored day.
func DayStart(day string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, day, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", day, err)
	}
	return t, nil
}

// Open selects the backend named in cfg.
func Open(cfg config.HistoryConfig) (Store, error) {
	path := cfg.Path
	switch cfg.Backend {
	case "", "file":
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(home, ".lcwdata.json")
		}
		return NewFileStore(path), nil
	case "badger":
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(home, ".lcw", "history")
		}
		return OpenBadgerStore(path)
	}
	return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
}
