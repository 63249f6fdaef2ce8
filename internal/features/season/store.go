// Package season — store.go хранит сессии пользователей в памяти.
// Перезапуск процесса теряет все сессии.
package season

import (
	"sync"
	"time"
)

// Store — потокобезопасное хранилище сессий по user ID.
type Store struct {
	mu         sync.RWMutex
	sessions   map[int64]*Session
	publishing map[int64]bool
}

// StoreStats — сводка для периодического лога.
type StoreStats struct {
	Sessions   int
	Assets     int
	Publishing int
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		sessions:   make(map[int64]*Session),
		publishing: make(map[int64]bool),
	}
}

// getOrCreate вызывается под s.mu.Lock.
func (s *Store) getOrCreate(userID int64) *Session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = NewSession(KindEpisodeFirst, ModeSequentialMarker)
		s.sessions[userID] = sess
	}
	return sess
}

// Get возвращает снимок сессии (создаёт её при первом обращении).
func (s *Store) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(userID).Clone()
}

// Update применяет fn к сессии под блокировкой.
func (s *Store) Update(userID int64, fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreate(userID)
	fn(sess)
	sess.UpdatedAt = time.Now()
}

// Reset начинает новую сессию заданного вида. Режим распознавания сохраняется.
func (s *Store) Reset(userID int64, kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mode := ModeSequentialMarker
	if old, ok := s.sessions[userID]; ok {
		mode = old.Mode
	}
	s.sessions[userID] = NewSession(kind, mode)
}

// BeginPublish помечает, что у пользователя идёт публикация.
// Возвращает false, если публикация уже идёт.
func (s *Store) BeginPublish(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.publishing[userID] {
		return false
	}
	s.publishing[userID] = true
	return true
}

// EndPublish снимает отметку публикации.
func (s *Store) EndPublish(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.publishing, userID)
}

// Stats считает сессии и видео.
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := StoreStats{Sessions: len(s.sessions), Publishing: len(s.publishing)}
	for _, sess := range s.sessions {
		st.Assets += sess.AssetCount()
	}
	return st
}
