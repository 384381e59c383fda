package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RolePicket Role = "picket"
)

// Label: только подпись в интерфейсе, на права не влияет.
func (r Role) Label() string {
	if r == RolePicket {
		return "Petugas Piket"
	}
	return "Administrator"
}

type Staff struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// EffectiveRole: роль из записи, иначе угадываем по email (как было в старой версии).
func (s Staff) EffectiveRole() Role {
	switch s.Role {
	case RoleAdmin, RolePicket:
		return s.Role
	}
	if strings.Contains(strings.ToLower(s.Email), "piket") {
		return RolePicket
	}
	return RoleAdmin
}

// Session: проверенная сессия сотрудника, прокидывается явно через context.
type Session struct {
	StaffID string
	Email   string
	Role    Role
	Expires time.Time
}
