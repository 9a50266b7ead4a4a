package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/tttplay/internal/nn"
)

// Storage keys
const (
	keyPreferences    = "preferences"
	keyStats          = "stats"
	prefixSnapshot    = "snapshot/"
	prefixHistory     = "history/"
	historySeqPattern = "%s%s/%08d"
)

// ErrNotFound is returned when a named snapshot does not exist.
var ErrNotFound = errors.New("storage: not found")

// Preferences stores the settings of the last training run.
type Preferences struct {
	LastRun  string    `json:"last_run"`
	Network  nn.Config `json:"network"`
	Epochs   int       `json:"epochs"`
	Augment  bool      `json:"augment"`
	LastUsed time.Time `json:"last_used"`
}

// DefaultPreferences returns default preferences
func DefaultPreferences() *Preferences {
	return &Preferences{
		LastRun:  "default",
		Network:  nn.DefaultConfig(),
		Epochs:   200,
		Augment:  true,
		LastUsed: time.Now(),
	}
}

// HistoryEntry is one epoch of a training run.
type HistoryEntry struct {
	Epoch        int       `json:"epoch"`
	Loss         float64   `json:"loss"`
	LearningRate float64   `json:"learning_rate"`
	Examples     int       `json:"examples"`
	Rollouts     int       `json:"rollouts"`
	Time         time.Time `json:"time"`
}

// GameStats stores results of games played against the network from the console
type GameStats struct {
	GamesPlayed    int           `json:"games_played"`
	Wins           int           `json:"wins"`
	Losses         int           `json:"losses"`
	Draws          int           `json:"draws"`
	TotalPlayTime  time.Duration `json:"total_play_time"`
	LongestWinStrk int           `json:"longest_win_streak"`
	CurrentStreak  int           `json:"current_streak"`
}

// GameResult is the outcome of one console game, from the human's side.
type GameResult struct {
	Won      bool
	Draw     bool
	Duration time.Duration
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the database in the default data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens (or creates) a database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return open(opts)
}

// OpenInMemory opens a database that lives only as long as the Storage.
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) put(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get decodes the value at key into v. It returns badger.ErrKeyNotFound
// unchanged so callers can pick their own default.
func (s *Storage) get(key string, v interface{}) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

// SaveSnapshot stores snap under name, replacing any previous one.
func (s *Storage) SaveSnapshot(name string, snap *nn.Snapshot) error {
	if name == "" {
		return errors.New("storage: empty snapshot name")
	}
	if err := s.put(prefixSnapshot+name, snap); err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	return nil
}

// LoadSnapshot returns the snapshot stored under name, or ErrNotFound.
func (s *Storage) LoadSnapshot(name string) (*nn.Snapshot, error) {
	var snap nn.Snapshot
	err := s.get(prefixSnapshot+name, &snap)
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("snapshot %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", name, err)
	}
	return &snap, nil
}

// ListSnapshots returns the names of all stored snapshots in key order.
func (s *Storage) ListSnapshots() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixSnapshot)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			names = append(names, strings.TrimPrefix(key, prefixSnapshot))
		}
		return nil
	})
	return names, err
}

// DeleteSnapshot removes the named snapshot. Deleting a missing name is not an error.
func (s *Storage) DeleteSnapshot(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(prefixSnapshot + name))
	})
}

func historyPrefix(run string) string {
	return prefixHistory + run + "/"
}

// AppendHistory adds e as the next entry of run.
func (s *Storage) AppendHistory(run string, e HistoryEntry) error {
	if run == "" || strings.Contains(run, "/") {
		return fmt.Errorf("storage: invalid run name %q", run)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(historyPrefix(run))

		seq := 0
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			seq++
		}
		it.Close()

		key := fmt.Sprintf(historySeqPattern, prefixHistory, run, seq)
		return txn.Set([]byte(key), data)
	})
}

// LoadHistory returns every entry of run in the order they were appended.
func (s *Storage) LoadHistory(run string) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(historyPrefix(run))

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var e HistoryEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// SavePreferences saves preferences
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastUsed = time.Now()
	return s.put(keyPreferences, prefs)
}

// LoadPreferences loads preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	err := s.get(keyPreferences, prefs)
	if err == badger.ErrKeyNotFound {
		return prefs, nil // Use defaults
	}
	return prefs, err
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := &GameStats{}
	err := s.get(keyStats, stats)
	if err == badger.ErrKeyNotFound {
		return stats, nil // Use empty stats
	}
	return stats, err
}

// RecordGame records a completed game and updates statistics
func (s *Storage) RecordGame(result GameResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.TotalPlayTime += result.Duration

	switch {
	case result.Draw:
		stats.Draws++
		stats.CurrentStreak = 0
	case result.Won:
		stats.Wins++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.LongestWinStrk {
			stats.LongestWinStrk = stats.CurrentStreak
		}
	default:
		stats.Losses++
		stats.CurrentStreak = 0
	}

	return s.put(keyStats, stats)
}

// GetWinRate returns the win rate as a percentage (0-100)
func (s *GameStats) GetWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}
