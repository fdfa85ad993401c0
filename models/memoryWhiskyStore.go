package models

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryWhiskyStore is the in-process substitute used while the database is unreachable.
// It keeps its own id sequence and enforces no (url, source) uniqueness.
type MemoryWhiskyStore struct {
	mu      sync.RWMutex
	seed    []*Whisky
	records []*Whisky
	nextId  int
}

func NewMemoryWhiskyStore(seed ...*Whisky) *MemoryWhiskyStore {
	s := &MemoryWhiskyStore{seed: make([]*Whisky, 0, len(seed))}
	for _, w := range seed {
		s.seed = append(s.seed, w.clone(true))
	}
	s.Reset()
	return s
}

// Reset restores the seed records and the id sequence.
func (s *MemoryWhiskyStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make([]*Whisky, 0, len(s.seed))
	s.nextId = 1
	for _, w := range s.seed {
		s.records = append(s.records, w.clone(true))
		if w.ID >= s.nextId {
			s.nextId = w.ID + 1
		}
	}
}

func (s *MemoryWhiskyStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryWhiskyStore) List(ctx context.Context, q ListQuery) ([]*Whisky, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filter := strings.ToLower(q.Filter)
	matched := make([]*Whisky, 0, len(s.records))
	for _, w := range s.records {
		if w.matches(filter) {
			matched = append(matched, w)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].ScrapedAt.Equal(matched[j].ScrapedAt) {
			return matched[i].ScrapedAt.After(matched[j].ScrapedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	results := make([]*Whisky, 0, min(q.PageSize, len(matched)))
	start := q.Offset()
	if start < 0 || start >= len(matched) {
		return results, total, nil
	}
	end := start + q.PageSize
	if end > len(matched) || end < start {
		end = len(matched)
	}
	for _, w := range matched[start:end] {
		results = append(results, w.clone(false))
	}
	return results, total, nil
}

func (s *MemoryWhiskyStore) Get(ctx context.Context, id int) (*Whisky, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrWhiskyNotFound
	}
	return s.records[idx].clone(true), nil
}

func (s *MemoryWhiskyStore) Insert(ctx context.Context, fields WhiskyFields) (*Whisky, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	whisky := &Whisky{ID: s.nextId}
	fields.applyTo(whisky)
	whisky.ScrapedAt = nowFunc()
	s.nextId++
	s.records = append(s.records, whisky)
	return whisky.clone(true), nil
}

func (s *MemoryWhiskyStore) Update(ctx context.Context, id int, fields WhiskyFields) (*Whisky, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrWhiskyNotFound
	}
	whisky := s.records[idx]
	fields.applyTo(whisky)
	whisky.ID = id
	whisky.ScrapedAt = nowFunc()
	return whisky.clone(false), nil
}

func (s *MemoryWhiskyStore) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	return true, nil
}

func (s *MemoryWhiskyStore) indexOf(id int) int {
	for i, w := range s.records {
		if w.ID == id {
			return i
		}
	}
	return -1
}
