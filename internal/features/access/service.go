// Package access — service.go: проверка пароля Argon2id, выдача допуска
// и защита от перебора (N неудачных попыток в час = блокировка).
package access

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/season-bot/internal/common"
	"serotonyl.ru/season-bot/internal/config"
)

// Service хранит допуски в памяти процесса.
type Service struct {
	owners       map[int64]bool
	passwordHash string
	grantTTL     time.Duration
	maxAttempts  int

	mu       sync.Mutex
	grants   map[int64]Grant
	attempts map[int64][]attempt
	// pending — проверки пароля, идущие прямо сейчас; считаются неудачными до результата
	pending map[int64]int

	now    func() time.Time
	verify func(password, encodedHash string) bool
}

// NewService создаёт сервис доступа по конфигу.
func NewService(cfg *config.Config) *Service {
	owners := make(map[int64]bool, len(cfg.OwnerIDs))
	for _, id := range cfg.OwnerIDs {
		owners[id] = true
	}
	return &Service{
		owners:       owners,
		passwordHash: cfg.AccessPasswordHash,
		grantTTL:     cfg.AccessGrantTTL,
		maxAttempts:  cfg.AccessMaxAttempts,
		grants:       make(map[int64]Grant),
		attempts:     make(map[int64][]attempt),
		pending:      make(map[int64]int),
		now:          time.Now,
		verify:       VerifyArgon2id,
	}
}

// Restricted — включён ли контроль доступа вообще.
func (s *Service) Restricted() bool {
	return len(s.owners) > 0 || s.passwordHash != ""
}

// IsOwner — пользователь из OWNER_IDS.
func (s *Service) IsOwner(userID int64) bool {
	return s.owners[userID]
}

// Allowed — может ли пользователь работать с ботом.
func (s *Service) Allowed(userID int64) bool {
	if !s.Restricted() || s.IsOwner(userID) {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[userID]
	if !ok {
		return false
	}
	if !g.Active(s.now()) {
		delete(s.grants, userID)
		return false
	}
	return true
}

// Login проверяет пароль и выдаёт допуск на grantTTL.
// Argon2id считается без блокировки s.mu: Allowed других пользователей не ждёт хеширования.
func (s *Service) Login(userID int64, password string) (Grant, error) {
	if s.passwordHash == "" {
		return Grant{}, common.ErrLoginDisabled
	}

	s.mu.Lock()
	if s.failedSince(userID, s.now().Add(-attemptWindow))+s.pending[userID] >= s.maxAttempts {
		s.mu.Unlock()
		return Grant{}, common.ErrTooManyAttempts
	}
	s.pending[userID]++
	s.mu.Unlock()

	match := s.verify(password, s.passwordHash)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[userID]--; s.pending[userID] <= 0 {
		delete(s.pending, userID)
	}
	now := s.now()
	s.attempts[userID] = append(s.attempts[userID], attempt{at: now, success: match})

	logger := log.WithFields(log.Fields{"component": "access", "user_id": userID})
	if !match {
		logger.Warn("неверный пароль")
		return Grant{}, common.ErrWrongPassword
	}

	g := Grant{UserID: userID, GrantedAt: now, ExpiresAt: now.Add(s.grantTTL)}
	s.grants[userID] = g
	delete(s.attempts, userID)
	logger.WithField("expires_at", g.ExpiresAt.Format(time.RFC3339)).Info("доступ выдан")
	return g, nil
}

// Logout отзывает допуск.
func (s *Service) Logout(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, userID)
}

// Cleanup удаляет истёкшие допуски и старые попытки. Возвращает число удалённых допусков.
func (s *Service) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, g := range s.grants {
		if !g.Active(now) {
			delete(s.grants, id)
			removed++
		}
	}
	cutoff := now.Add(-attemptWindow)
	for id := range s.attempts {
		if s.failedSince(id, cutoff) == 0 {
			delete(s.attempts, id)
		}
	}
	return removed
}

// failedSince считает неудачные попытки после cutoff. Вызывается под s.mu.
func (s *Service) failedSince(userID int64, cutoff time.Time) int {
	n := 0
	for _, a := range s.attempts[userID] {
		if !a.success && a.at.After(cutoff) {
			n++
		}
	}
	return n
}

// --- Криптографические утилиты ---

// Параметры Argon2id для новых хешей.
const (
	argonMemory      uint32 = 64 * 1024 // 64 MB
	argonIterations  uint32 = 3
	argonParallelism uint8  = 2
	argonKeyLength   uint32 = 32
	argonSaltLength         = 16
)

// HashPassword возвращает хеш в формате
// $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonIterations, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyArgon2id проверяет пароль по хешу Argon2id.
func VerifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))
	// сравнение в постоянном времени
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}
