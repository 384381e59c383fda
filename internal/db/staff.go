package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

var ErrEmailTaken = errors.New("staff email already registered")

func CreateStaff(ctx context.Context, database *sql.DB, email, passwordHash string, role models.Role) (models.Staff, error) {
	var s models.Staff
	var roleStr string
	err := database.QueryRowContext(ctx, `
		INSERT INTO staff (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, role, created_at`,
		strings.TrimSpace(email), passwordHash, string(role),
	).Scan(&s.ID, &s.Email, &s.PasswordHash, &roleStr, &s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Staff{}, ErrEmailTaken
		}
		return models.Staff{}, err
	}
	s.Role = models.Role(roleStr)
	return s, nil
}

// GetStaffByEmail: без учёта регистра; nil, nil если нет такого сотрудника.
func GetStaffByEmail(ctx context.Context, database *sql.DB, email string) (*models.Staff, error) {
	var s models.Staff
	var roleStr string
	err := database.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, created_at
		FROM staff WHERE lower(email) = lower($1)`, strings.TrimSpace(email),
	).Scan(&s.ID, &s.Email, &s.PasswordHash, &roleStr, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Role = models.Role(roleStr)
	return &s, nil
}
