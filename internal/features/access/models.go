// Package access решает, кто может пользоваться ботом: владельцы из конфига
// и пользователи, вошедшие по паролю (/login).
// models.go описывает допуск и попытку входа.
package access

import "time"

// Grant — выданный по паролю допуск.
type Grant struct {
	UserID    int64
	GrantedAt time.Time
	ExpiresAt time.Time
}

// Active — не истёк ли допуск к моменту now.
func (g Grant) Active(now time.Time) bool {
	return now.Before(g.ExpiresAt)
}

// attempt — попытка входа (для защиты от перебора).
type attempt struct {
	at      time.Time
	success bool
}

// attemptWindow — окно, в котором считаются неудачные попытки.
const attemptWindow = time.Hour
