package db

import (
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/Spok95/lapor-jamkos/internal/db/migrations"
)

// Migrate применяет встроенные миграции goose.
func Migrate(database *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(database, ".")
}
