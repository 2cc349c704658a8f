package storage

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a testing helper that keeps uploaded objects in process memory.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{objects: make(map[string][]byte), baseURL: baseURL}
}

func (m *Memory) Upload(ctx context.Context, bucket, path string, data []byte, contentType string, upsert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := bucket + "/" + path
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok && !upsert {
		return ErrExists
	}
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/%s/%s", m.baseURL, bucket, path)
}

// Bytes returns the stored payload for assertions.
func (m *Memory) Bytes(bucket, path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucket+"/"+path]
	return append([]byte(nil), data...), ok
}

// Len reports how many objects are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
