package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/lapor-jamkos/internal/ctxutil"
	"github.com/Spok95/lapor-jamkos/internal/models"
)

// Store связывает функции пакета с интерфейсами сервисов; каждый вызов под WithDBTimeout.
type Store struct {
	DB *sql.DB
}

func NewStore(database *sql.DB) *Store { return &Store{DB: database} }

func (s *Store) CreateClass(ctx context.Context, name, token string) (models.Classroom, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return CreateClass(ctx, s.DB, name, token)
}

func (s *Store) RenameClass(ctx context.Context, id, name string) (models.Classroom, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return RenameClass(ctx, s.DB, id, name)
}

func (s *Store) DeleteClass(ctx context.Context, id string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return DeleteClass(ctx, s.DB, id)
}

func (s *Store) GetClassByID(ctx context.Context, id string) (*models.Classroom, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return GetClassByID(ctx, s.DB, id)
}

func (s *Store) GetClassByToken(ctx context.Context, token string) (*models.Classroom, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return GetClassByToken(ctx, s.DB, token)
}

func (s *Store) ListClasses(ctx context.Context) ([]models.Classroom, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return ListClasses(ctx, s.DB)
}

func (s *Store) CountClasses(ctx context.Context) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return CountClasses(ctx, s.DB)
}

func (s *Store) InsertReport(ctx context.Context, classID string) (models.Report, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return InsertReport(ctx, s.DB, classID)
}

func (s *Store) GetReport(ctx context.Context, id string) (*models.Report, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return GetReport(ctx, s.DB, id)
}

func (s *Store) UpdateTriage(ctx context.Context, id string, t models.Triage) (models.Report, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return UpdateTriage(ctx, s.DB, id, t)
}

// AllReports: полный снимок коллекции для пересчёта агрегатов.
func (s *Store) AllReports(ctx context.Context) ([]models.Report, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return ListReports(ctx, s.DB, ReportQuery{})
}

func (s *Store) ReportsByStatus(ctx context.Context, limit int, statuses ...models.Status) ([]models.Report, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return ListReports(ctx, s.DB, ReportQuery{Statuses: statuses, Limit: limit})
}

func (s *Store) CreateStaff(ctx context.Context, email, passwordHash string, role models.Role) (models.Staff, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return CreateStaff(ctx, s.DB, email, passwordHash, role)
}

func (s *Store) GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return GetStaffByEmail(ctx, s.DB, email)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
