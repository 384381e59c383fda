package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

// ErrTokenTaken: токен уже выдан или был выдан удалённому классу.
var ErrTokenTaken = errors.New("classroom token already used")

const classColumns = `id, name, token, created_at`

func scanClass(row interface{ Scan(...any) error }) (models.Classroom, error) {
	var c models.Classroom
	err := row.Scan(&c.ID, &c.Name, &c.Token, &c.CreatedAt)
	return c, err
}

// CreateClass вставляет класс с заранее сгенерированным токеном.
// Токен из retired_tokens не принимается.
func CreateClass(ctx context.Context, database *sql.DB, name, token string) (models.Classroom, error) {
	row := database.QueryRowContext(ctx, `
		INSERT INTO classes (name, token)
		SELECT $1, $2
		WHERE NOT EXISTS (SELECT 1 FROM retired_tokens WHERE token = $2)
		RETURNING `+classColumns, name, token)
	c, err := scanClass(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return models.Classroom{}, ErrTokenTaken
		}
		return models.Classroom{}, err
	}
	return c, nil
}

func ListClasses(ctx context.Context, database *sql.DB) ([]models.Classroom, error) {
	rows, err := database.QueryContext(ctx, `SELECT `+classColumns+` FROM classes ORDER BY name, created_at`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []models.Classroom{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func GetClassByID(ctx context.Context, database *sql.DB, id string) (*models.Classroom, error) {
	c, err := scanClass(database.QueryRowContext(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isBadUUID(err) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetClassByToken: точное совпадение токена; nil, nil если такого нет.
func GetClassByToken(ctx context.Context, database *sql.DB, token string) (*models.Classroom, error) {
	c, err := scanClass(database.QueryRowContext(ctx, `SELECT `+classColumns+` FROM classes WHERE token = $1`, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func RenameClass(ctx context.Context, database *sql.DB, id, name string) (models.Classroom, error) {
	c, err := scanClass(database.QueryRowContext(ctx,
		`UPDATE classes SET name = $2 WHERE id = $1 RETURNING `+classColumns, id, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isBadUUID(err) {
			return models.Classroom{}, models.ErrNotFound
		}
		return models.Classroom{}, err
	}
	return c, nil
}

// DeleteClass удаляет класс и выводит его токен из оборота.
// Заявки остаются: class_id обнуляется, имя хранится в снимке class_name.
func DeleteClass(ctx context.Context, database *sql.DB, id string) error {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var token string
	err = tx.QueryRowContext(ctx, `DELETE FROM classes WHERE id = $1 RETURNING token`, id).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isBadUUID(err) {
			return models.ErrNotFound
		}
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO retired_tokens (token) VALUES ($1) ON CONFLICT (token) DO NOTHING`, token); err != nil {
		return fmt.Errorf("retire token: %w", err)
	}
	return tx.Commit()
}

func CountClasses(ctx context.Context, database *sql.DB) (int, error) {
	var n int
	err := database.QueryRowContext(ctx, `SELECT count(*) FROM classes`).Scan(&n)
	return n, err
}
