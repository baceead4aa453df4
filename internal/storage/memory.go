package storage

import (
	"maps"
	"slices"
)

// Memory is an in-process key-value store.
type Memory struct {
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.data[key] = value
	return nil
}

func (m *Memory) SetAll(entries map[string]string) error {
	maps.Copy(m.data, entries)
	return nil
}

func (m *Memory) Clear() error {
	clear(m.data)
	return nil
}

func (m *Memory) Keys() ([]string, error) {
	return slices.Sorted(maps.Keys(m.data)), nil
}
