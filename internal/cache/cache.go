package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Store es el contrato común de las cachés (memoria o Redis).
// Los valores se guardan serializados en JSON.
type Store interface {
	Get(ctx context.Context, key string, target any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

type cacheItem struct {
	value      []byte
	expiration int64
}

// Memory es una caché en memoria con expiración por clave
type Memory struct {
	items map[string]cacheItem
	mu    sync.RWMutex
	ttl   time.Duration
	stop  chan struct{}
	once  sync.Once
	now   func() time.Time
}

// NewMemory crea la caché y arranca la limpieza periódica de expirados
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	m := &Memory{
		items: make(map[string]cacheItem),
		ttl:   defaultTTL,
		stop:  make(chan struct{}),
		now:   time.Now,
	}
	if cleanupInterval > 0 {
		go m.cleanupExpired(cleanupInterval)
	}
	return m
}

// Get obtiene y deserializa un valor
func (m *Memory) Get(_ context.Context, key string, target any) (bool, error) {
	m.mu.RLock()
	item, found := m.items[key]
	m.mu.RUnlock()

	if !found || m.now().UnixNano() > item.expiration {
		return false, nil
	}
	if err := json.Unmarshal(item.value, target); err != nil {
		return false, err
	}
	return true, nil
}

// Set serializa y guarda un valor; ttl <= 0 usa el TTL por defecto
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = cacheItem{value: data, expiration: m.now().Add(ttl).UnixNano()}
	return nil
}

// DeleteByPrefix elimina todas las claves que empiecen con un prefijo
func (m *Memory) DeleteByPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

// Size retorna el número de items en caché
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close detiene la limpieza periódica
func (m *Memory) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Memory) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.purge()
		}
	}
}

func (m *Memory) purge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UnixNano()
	for key, item := range m.items {
		if now > item.expiration {
			delete(m.items, key)
		}
	}
}

// Noop no guarda nada; útil cuando la caché está deshabilitada
type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Noop) DeleteByPrefix(context.Context, string) error { return nil }
