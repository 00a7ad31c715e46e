// Package timeline persists a parsed transcript and the playback cursor
// through a kv.Store, one key per entry.
package timeline

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mgpai22/suboverlay/internal/kv"
	"github.com/mgpai22/suboverlay/internal/subtitle"
)

const (
	EntryKeyPrefix = "so_sub_"
	FilenameKey    = "so_subtitles"
	ElapsedKey     = "so_time"
	IndexKey       = "so_at"
)

var entryKeyPattern = regexp.MustCompile(`^` + EntryKeyPrefix + `\d+$`)

// persisted resume point
type Cursor struct {
	ElapsedMs int64
	Index     int
}

type Store struct {
	kv kv.Store

	// serialises Replace so a clear can never interleave with another load's appends
	loadMu sync.Mutex
}

func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

func EntryKey(sequence int) string {
	return EntryKeyPrefix + strconv.Itoa(sequence)
}

// Clear removes every stored entry. Cursor and filename are untouched.
func (s *Store) Clear() error {
	keys, err := s.kv.KeysMatching(entryKeyPattern)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	for _, k := range keys {
		if err := s.kv.Remove(k); err != nil {
			return fmt.Errorf("failed to remove %s: %w", k, err)
		}
	}
	return nil
}

// Append stores one entry under its own key. Order is restored by LoadAll.
func (s *Store) Append(e subtitle.Entry) error {
	if err := s.kv.Set(EntryKey(e.Sequence), e.Encode()); err != nil {
		return fmt.Errorf("failed to store entry %d: %w", e.Sequence, err)
	}
	return nil
}

// LoadAll returns every stored entry sorted by sequence. A value that fails
// to decode aborts the load; dropping it would shift every later entry.
func (s *Store) LoadAll() ([]subtitle.Entry, error) {
	values, err := s.kv.ValuesMatching(entryKeyPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}

	entries := make([]subtitle.Entry, 0, len(values))
	for _, v := range values {
		e, err := subtitle.DecodeEntry(v)
		if err != nil {
			return nil, fmt.Errorf("failed to load timeline: %w", err)
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Sequence < entries[j].Sequence
	})
	return entries, nil
}

// Replace swaps the stored timeline for entries and records filename.
func (s *Store) Replace(entries []subtitle.Entry, filename string) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if err := s.Clear(); err != nil {
		return err
	}
	for _, e := range entries {
		if err := s.Append(e); err != nil {
			return err
		}
	}
	return s.SetFilename(filename)
}

// Runtime is the end time of the last stored entry.
func (s *Store) Runtime() (time.Duration, error) {
	entries, err := s.LoadAll()
	if err != nil {
		return 0, err
	}
	return subtitle.Runtime(entries), nil
}

func (s *Store) SetCursor(elapsedMs int64, index int) error {
	if err := s.kv.Set(ElapsedKey, strconv.FormatInt(elapsedMs, 10)); err != nil {
		return fmt.Errorf("failed to store resume offset: %w", err)
	}
	if err := s.kv.Set(IndexKey, strconv.Itoa(index)); err != nil {
		return fmt.Errorf("failed to store resume index: %w", err)
	}
	return nil
}

// Cursor returns the persisted resume point. Absent or unparsable values
// read as zero; ok reports whether any cursor value was stored.
func (s *Store) Cursor() (Cursor, bool, error) {
	var c Cursor

	elapsed, hasElapsed, err := s.kv.Get(ElapsedKey)
	if err != nil {
		return c, false, fmt.Errorf("failed to read resume offset: %w", err)
	}
	index, hasIndex, err := s.kv.Get(IndexKey)
	if err != nil {
		return c, false, fmt.Errorf("failed to read resume index: %w", err)
	}

	if v, err := strconv.ParseInt(elapsed, 10, 64); err == nil && v > 0 {
		c.ElapsedMs = v
	}
	if v, err := strconv.Atoi(index); err == nil && v > 0 {
		c.Index = v
	}
	return c, hasElapsed || hasIndex, nil
}

func (s *Store) ClearCursor() error {
	if err := s.kv.Remove(ElapsedKey); err != nil {
		return fmt.Errorf("failed to clear resume offset: %w", err)
	}
	if err := s.kv.Remove(IndexKey); err != nil {
		return fmt.Errorf("failed to clear resume index: %w", err)
	}
	return nil
}

func (s *Store) SetFilename(name string) error {
	if err := s.kv.Set(FilenameKey, name); err != nil {
		return fmt.Errorf("failed to store filename: %w", err)
	}
	return nil
}

// Filename returns "" when nothing was loaded.
func (s *Store) Filename() (string, error) {
	name, _, err := s.kv.Get(FilenameKey)
	if err != nil {
		return "", fmt.Errorf("failed to read filename: %w", err)
	}
	return name, nil
}
