// Package session хранилище состояния операторских сессий с TTL.
// Раньше такое состояние жило в глобальных map по чатам и терялось
// непредсказуемо при рестарте. Здесь оно за интерфейсом: процессное
// хранилище можно заменить на долговременное, а жизненный цикл явный —
// запись создается при первом обращении, продлевается при каждом касании
// и удаляется чисткой по дедлайну. Рестарт процесса сессии не переживают.
package session

import (
	"context"
	"sync"
	"time"
)

// Session состояние одной операторской сессии
type Session struct {
	// OrderOffset курсор постраничного списка заказов
	OrderOffset int
	Deadline    time.Time
}

type Store interface {
	Get(key string) (Session, bool)
	Put(key string, s Session)
	Delete(key string)
	Cleanup(ctx context.Context) error
}

type memStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]Session
}

func NewMemStore(ttl time.Duration) Store {
	return &memStore{
		ttl:      ttl,
		sessions: make(map[string]Session),
	}
}

// Get протухшая запись считается отсутствующей
func (m *memStore) Get(key string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok || time.Now().After(s.Deadline) {
		return Session{}, false
	}
	return s, true
}

// Put каждое касание продлевает дедлайн на ttl
func (m *memStore) Put(key string, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Deadline = time.Now().Add(m.ttl)
	m.sessions[key] = s
}

func (m *memStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

// Cleanup удаляет просроченные сессии, зовется фоновым тикером из main
func (m *memStore) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for key, s := range m.sessions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if now.After(s.Deadline) {
			delete(m.sessions, key)
		}
	}
	return nil
}
