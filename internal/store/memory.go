package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// Memory is a Store kept in process maps. It is used by tests and by
// development runs without a database.
type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	packs   map[int64]Pack
	names   map[string]int64
	current map[int64]int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		packs:   make(map[int64]Pack),
		names:   make(map[string]int64),
		current: make(map[int64]int64),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) ListPacks(_ context.Context, userID int64) ([]Pack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Pack, 0)
	for _, p := range m.packs {
		if p.OwnerID == userID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Pack) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *Memory) CurrentPackID(_ context.Context, userID int64) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.current[userID]
	return id, ok, nil
}

func (m *Memory) SetCurrentPackID(_ context.Context, userID, packID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.packs[packID]
	if !ok {
		return ErrPackNotFound
	}
	if p.OwnerID != userID {
		return ErrNotOwner
	}
	m.current[userID] = packID
	return nil
}

func (m *Memory) CreatePack(_ context.Context, userID int64, name, title string, typ PackType) (int64, error) {
	if !typ.Valid() || name == "" {
		return 0, ErrInvalidPackRef
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.names[name]; taken {
		return 0, ErrDuplicateName
	}
	m.nextID++
	id := m.nextID
	m.packs[id] = Pack{ID: id, OwnerID: userID, Name: name, Title: title, Type: typ}
	m.names[name] = id
	return id, nil
}

func (m *Memory) GetPack(_ context.Context, packID int64) (Pack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.packs[packID]
	if !ok {
		return Pack{}, ErrPackNotFound
	}
	return p, nil
}

func (m *Memory) DeletePack(_ context.Context, packID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.packs[packID]
	if !ok || p.OwnerID != userID {
		return ErrPackNotFound
	}
	delete(m.packs, packID)
	delete(m.names, p.Name)
	if cur, ok := m.current[userID]; ok && cur == packID {
		delete(m.current, userID)
	}
	return nil
}

func (m *Memory) CountPacks(_ context.Context, userID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.packs {
		if p.OwnerID == userID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}
