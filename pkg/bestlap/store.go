package bestlap

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/text/cases"
)

type Entry struct {
	Name      string    `json:"name"`
	LapTimeMs uint32    `json:"lap_time_ms"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store holds the all-time and session best lap tables. Every read and write of either
// table happens under a single mutex, which is never held across network I/O.
type Store struct {
	mutex sync.Mutex

	allTime map[string]Entry
	session map[string]Entry

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		allTime: make(map[string]Entry),
		session: make(map[string]Entry),
		now:     time.Now,
	}
}

// driverKey folds the case of a driver name. A Caser is not safe for concurrent use,
// so one is created per call.
func driverKey(name string) string {
	return cases.Fold().String(name)
}

// TryUpdateAllTime stores lapTimeMs as the all-time best for name if there is no entry
// yet or the existing one is strictly slower.
func (s *Store) TryUpdateAllTime(name string, lapTimeMs uint32) bool {
	_, improved := s.UpdateAllTime(name, lapTimeMs)

	return improved
}

// UpdateAllTime is TryUpdateAllTime, also returning the entry that was replaced (the zero
// Entry if there was none).
func (s *Store) UpdateAllTime(name string, lapTimeMs uint32) (previous Entry, improved bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return tryUpdate(s.allTime, name, lapTimeMs, s.now())
}

func (s *Store) TryUpdateSession(name string, lapTimeMs uint32) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, improved := tryUpdate(s.session, name, lapTimeMs, s.now())

	return improved
}

func tryUpdate(table map[string]Entry, name string, lapTimeMs uint32, now time.Time) (Entry, bool) {
	key := driverKey(name)
	existing, ok := table[key]

	if ok && existing.LapTimeMs <= lapTimeMs {
		return existing, false
	}

	// the first casing seen for a driver is the one that is kept
	displayName := name

	if ok {
		displayName = existing.Name
	}

	table[key] = Entry{
		Name:      displayName,
		LapTimeMs: lapTimeMs,
		UpdatedAt: now,
	}

	return existing, true
}

func (s *Store) AllTime(name string) (Entry, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.allTime[driverKey(name)]

	return entry, ok
}

func (s *Store) SessionBest(name string) (Entry, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.session[driverKey(name)]

	return entry, ok
}

func (s *Store) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return len(s.allTime)
}

// Snapshot returns a copy of the all-time table, fastest first.
func (s *Store) Snapshot() []Entry {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.snapshotLocked()
}

// WithSnapshot calls fn with the sorted all-time table while the store is still locked,
// so no update can happen between reading the table and whatever fn does with it.
// fn must not call back into the Store.
func (s *Store) WithSnapshot(fn func(entries []Entry) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return fn(s.snapshotLocked())
}

func (s *Store) snapshotLocked() []Entry {
	entries := make([]Entry, 0, len(s.allTime))

	for _, entry := range s.allTime {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LapTimeMs == entries[j].LapTimeMs {
			return entries[i].Name < entries[j].Name
		}

		return entries[i].LapTimeMs < entries[j].LapTimeMs
	})

	return entries
}

// LoadAllTime replaces the all-time table. If a name appears more than once the last
// entry for it wins.
func (s *Store) LoadAllTime(entries []Entry) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.allTime = make(map[string]Entry, len(entries))

	for _, entry := range entries {
		s.allTime[driverKey(entry.Name)] = entry
	}
}
