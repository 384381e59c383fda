// Package registry — реестр классов и проверка QR-токенов.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/db"
	"github.com/Spok95/lapor-jamkos/internal/logging"
	"github.com/Spok95/lapor-jamkos/internal/models"
)

type ClassStore interface {
	CreateClass(ctx context.Context, name, token string) (models.Classroom, error)
	RenameClass(ctx context.Context, id, name string) (models.Classroom, error)
	DeleteClass(ctx context.Context, id string) error
	GetClassByID(ctx context.Context, id string) (*models.Classroom, error)
	GetClassByToken(ctx context.Context, token string) (*models.Classroom, error)
	ListClasses(ctx context.Context) ([]models.Classroom, error)
}

// сколько раз пробуем новый токен при коллизии
const tokenAttempts = 3

type Registry struct {
	store    ClassStore
	log      *zap.Logger
	NewToken func() string
}

func New(store ClassStore, log *zap.Logger) *Registry {
	return &Registry{store: store, log: log, NewToken: NewToken}
}

// NewToken — 128 бит случайности из uuid v4 без дефисов.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Create: имя обязательно, дубликаты имён допустимы; уникален только токен.
func (r *Registry) Create(ctx context.Context, name string) (models.Classroom, error) {
	name, err := models.RequireText("name", name, "Nama kelas wajib diisi")
	if err != nil {
		return models.Classroom{}, err
	}
	for i := 0; i < tokenAttempts; i++ {
		c, err := r.store.CreateClass(ctx, name, r.NewToken())
		if errors.Is(err, db.ErrTokenTaken) {
			logging.FromContext(ctx, r.log).Warn("classroom token collision, regenerating")
			continue
		}
		if err != nil {
			return models.Classroom{}, fmt.Errorf("create class: %w", err)
		}
		return c, nil
	}
	return models.Classroom{}, fmt.Errorf("create class: %w after %d attempts", db.ErrTokenTaken, tokenAttempts)
}

func (r *Registry) Rename(ctx context.Context, id, name string) (models.Classroom, error) {
	name, err := models.RequireText("name", name, "Nama kelas wajib diisi")
	if err != nil {
		return models.Classroom{}, err
	}
	if !validID(id) {
		return models.Classroom{}, models.ErrNotFound
	}
	return r.store.RenameClass(ctx, id, name)
}

// Delete необратим; подтверждение — забота вызывающего. Повторный вызов даёт ErrNotFound.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return models.ErrNotFound
	}
	return r.store.DeleteClass(ctx, id)
}

func (r *Registry) Get(ctx context.Context, id string) (models.Classroom, error) {
	if !validID(id) {
		return models.Classroom{}, models.ErrNotFound
	}
	c, err := r.store.GetClassByID(ctx, id)
	if err != nil {
		return models.Classroom{}, err
	}
	if c == nil {
		return models.Classroom{}, models.ErrNotFound
	}
	return *c, nil
}

// List с необязательным поиском по подстроке имени без учёта регистра.
func (r *Registry) List(ctx context.Context, query string) ([]models.Classroom, error) {
	all, err := r.store.ListClasses(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all, nil
	}
	out := make([]models.Classroom, 0, len(all))
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ValidateToken — точное совпадение; без лимитов, один токен годится для многих заявок.
func (r *Registry) ValidateToken(ctx context.Context, token string) (models.Classroom, error) {
	if token == "" {
		return models.Classroom{}, models.ErrInvalidToken
	}
	c, err := r.store.GetClassByToken(ctx, token)
	if err != nil {
		return models.Classroom{}, fmt.Errorf("validate token: %w", err)
	}
	if c == nil {
		return models.Classroom{}, models.ErrInvalidToken
	}
	return *c, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
