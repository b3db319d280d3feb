package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/smokyabdulrahman/prayer-widget/internal/geo"
	"github.com/smokyabdulrahman/prayer-widget/internal/prayer"
)

const (
	dataFileName = "data.json"
	geoCacheFile = "geolocation.json"
	geoTTL       = 24 * time.Hour

	// DateLayout is the key format of the prayer_times section.
	DateLayout = "2006-01-02"
)

// Store is the file-backed cache of today's prayer times and the last known
// temperature. Every write replaces the whole file via a temp file and rename.
type Store struct {
	path string
	mu   sync.Mutex
}

// Entry mirrors the on-disk layout:
//
//	{"prayer_times": {"2026-02-28": {"Fajr": {"12h": "5:00 AM", "24h": "05:00"}, ...}},
//	 "temperature": {"last_updated": "...", "value": 21.4}}
type Entry struct {
	PrayerTimes map[string]prayer.Schedule `json:"prayer_times"`
	Temperature Temperature                `json:"temperature"`
}

// Temperature is the cached weather reading in Celsius.
// It has no expiry: once Value is set it stays current until overwritten.
type Temperature struct {
	LastUpdated string   `json:"last_updated,omitempty"` // ISO8601
	Value       *float64 `json:"value,omitempty"`
}

// Celsius returns the cached value and whether one is present.
func (t Temperature) Celsius() (float64, bool) {
	if t.Value == nil {
		return 0, false
	}
	return *t.Value, true
}

// GeoCacheEntry stores a cached geolocation result with a timestamp.
type GeoCacheEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

// DefaultDir returns ~/.cache/prayer-widget.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "prayer-widget"), nil
}

// New creates a Store for the given data file path.
// If path is empty, it defaults to ~/.cache/prayer-widget/data.json.
func New(path string) (*Store, error) {
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, dataFileName)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Store{path: path}, nil
}

// Path returns the data file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the whole cache file.
// Returns nil if the file is missing or corrupt.
func (s *Store) Load() *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() *Entry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	return &entry
}

// Today returns the cached schedule for date, if any.
func (s *Store) Today(date time.Time) (prayer.Schedule, bool) {
	entry := s.Load()
	if entry == nil {
		return nil, false
	}

	sched, ok := entry.PrayerTimes[date.Format(DateLayout)]
	if !ok || len(sched) == 0 {
		return nil, false
	}
	return sched, true
}

// Latest returns the most recent cached schedule regardless of its date.
func (s *Store) Latest() (string, prayer.Schedule, bool) {
	entry := s.Load()
	if entry == nil || len(entry.PrayerTimes) == 0 {
		return "", nil, false
	}

	dates := make([]string, 0, len(entry.PrayerTimes))
	for d := range entry.PrayerTimes {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for i := len(dates) - 1; i >= 0; i-- {
		if sched := entry.PrayerTimes[dates[i]]; len(sched) > 0 {
			return dates[i], sched, true
		}
	}
	return "", nil, false
}

// SaveSchedule replaces the prayer_times section with date's schedule.
// The temperature section is kept as is.
func (s *Store) SaveSchedule(date time.Time, sched prayer.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.load()
	if entry == nil {
		entry = &Entry{}
	}
	entry.PrayerTimes = map[string]prayer.Schedule{date.Format(DateLayout): sched}

	return s.write(entry)
}

// Temperature returns the cached temperature, if one was ever stored.
func (s *Store) Temperature() (Temperature, bool) {
	entry := s.Load()
	if entry == nil || entry.Temperature.Value == nil {
		return Temperature{}, false
	}
	return entry.Temperature, true
}

// SaveTemperature overwrites the temperature section and keeps prayer_times.
func (s *Store) SaveTemperature(celsius float64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.load()
	if entry == nil {
		entry = &Entry{}
	}
	if entry.PrayerTimes == nil {
		entry.PrayerTimes = map[string]prayer.Schedule{}
	}
	entry.Temperature = Temperature{
		LastUpdated: at.Format(time.RFC3339),
		Value:       &celsius,
	}

	return s.write(entry)
}

// write stores entry in a temp file next to the data file and renames it into
// place, so readers never observe a half-written cache.
func (s *Store) write(entry *Entry) error {
	if entry.PrayerTimes == nil {
		entry.PrayerTimes = map[string]prayer.Schedule{}
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".data-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	return nil
}

// LoadGeo attempts to read a cached geolocation result.
// Returns nil if the cache is missing or older than the TTL (24 hours).
func (s *Store) LoadGeo() *geo.Location {
	path := filepath.Join(filepath.Dir(s.path), geoCacheFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entry GeoCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	if time.Since(entry.CachedAt) > geoTTL {
		return nil
	}

	return &entry.Location
}

// SaveGeo writes a geolocation result to the cache.
func (s *Store) SaveGeo(loc *geo.Location) error {
	path := filepath.Join(filepath.Dir(s.path), geoCacheFile)

	entry := GeoCacheEntry{
		Location: *loc,
		CachedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}

	return nil
}
