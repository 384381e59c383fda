// Package memstore — хранилище в памяти с той же семантикой, что и internal/db.
// Используется в unit-тестах сервисов и HTTP-слоя.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/lapor-jamkos/internal/db"
	"github.com/Spok95/lapor-jamkos/internal/models"
)

type Store struct {
	mu      sync.Mutex
	classes map[string]models.Classroom
	retired map[string]bool
	reports []models.Report
	staff   map[string]models.Staff

	// Now задаёт created_at; по умолчанию time.Now.
	Now func() time.Time
	// Fail, если задан, возвращается из каждого вызова.
	Fail error
	// Changes, если задан, получает уведомления как из LISTEN/NOTIFY.
	Changes chan models.ReportChange
}

func New() *Store {
	return &Store{
		classes: map[string]models.Classroom{},
		retired: map[string]bool{},
		staff:   map[string]models.Staff{},
		Now:     time.Now,
	}
}

func (s *Store) CreateClass(_ context.Context, name, token string) (models.Classroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return models.Classroom{}, s.Fail
	}
	if s.retired[token] {
		return models.Classroom{}, db.ErrTokenTaken
	}
	for _, c := range s.classes {
		if c.Token == token {
			return models.Classroom{}, db.ErrTokenTaken
		}
	}
	c := models.Classroom{ID: uuid.NewString(), Name: name, Token: token, CreatedAt: s.Now()}
	s.classes[c.ID] = c
	return c, nil
}

func (s *Store) RenameClass(_ context.Context, id, name string) (models.Classroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return models.Classroom{}, s.Fail
	}
	c, ok := s.classes[id]
	if !ok {
		return models.Classroom{}, models.ErrNotFound
	}
	c.Name = name
	s.classes[id] = c
	return c, nil
}

func (s *Store) DeleteClass(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	c, ok := s.classes[id]
	if !ok {
		return models.ErrNotFound
	}
	delete(s.classes, id)
	s.retired[c.Token] = true
	for i := range s.reports {
		if s.reports[i].ClassID != nil && *s.reports[i].ClassID == id {
			s.reports[i].ClassID = nil
		}
	}
	return nil
}

func (s *Store) GetClassByID(_ context.Context, id string) (*models.Classroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	c, ok := s.classes[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) GetClassByToken(_ context.Context, token string) (*models.Classroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	for _, c := range s.classes {
		if c.Token == token {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) ListClasses(_ context.Context) ([]models.Classroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := make([]models.Classroom, 0, len(s.classes))
	for _, c := range s.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CountClasses(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return 0, s.Fail
	}
	return len(s.classes), nil
}

func (s *Store) InsertReport(_ context.Context, classID string) (models.Report, error) {
	s.mu.Lock()
	c, ok := s.classes[classID]
	if s.Fail != nil {
		s.mu.Unlock()
		return models.Report{}, s.Fail
	}
	if !ok {
		s.mu.Unlock()
		return models.Report{}, models.ErrNotFound
	}
	id := c.ID
	r := models.Report{
		ID:        uuid.NewString(),
		CreatedAt: s.Now(),
		ClassID:   &id,
		ClassName: c.Name,
		Status:    models.StatusPending,
	}
	s.reports = append(s.reports, r)
	s.mu.Unlock()

	s.emit(models.ReportChange{Op: models.ChangeInsert, ReportID: r.ID})
	return r, nil
}

// AddReport кладёт готовую заявку как есть (для подготовки данных в тестах).
func (s *Store) AddReport(r models.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
}

func (s *Store) GetReport(_ context.Context, id string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	for _, r := range s.reports {
		if r.ID == id {
			r = s.view(r)
			return &r, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateTriage(_ context.Context, id string, t models.Triage) (models.Report, error) {
	s.mu.Lock()
	if s.Fail != nil {
		s.mu.Unlock()
		return models.Report{}, s.Fail
	}
	for i := range s.reports {
		if s.reports[i].ID != id {
			continue
		}
		if t.Status == models.StatusPending {
			s.mu.Unlock()
			panic("memstore: report moved back to pending")
		}
		picket, teacher := t.PicketName, t.MissingTeacherName
		s.reports[i].Status = t.Status
		s.reports[i].PicketName = &picket
		s.reports[i].MissingTeacherName = &teacher
		r := s.view(s.reports[i])
		s.mu.Unlock()
		s.emit(models.ReportChange{Op: models.ChangeUpdate, ReportID: id})
		return r, nil
	}
	s.mu.Unlock()
	return models.Report{}, models.ErrNotFound
}

func (s *Store) AllReports(_ context.Context) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := make([]models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, s.view(r))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ReportsByStatus(ctx context.Context, limit int, statuses ...models.Status) ([]models.Report, error) {
	all, err := s.AllReports(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Report{}
	for _, r := range all {
		for _, st := range statuses {
			if r.Status == st {
				out = append(out, r)
				break
			}
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) CreateStaff(_ context.Context, email, passwordHash string, role models.Role) (models.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(email))
	if _, ok := s.staff[key]; ok {
		return models.Staff{}, db.ErrEmailTaken
	}
	st := models.Staff{ID: uuid.NewString(), Email: strings.TrimSpace(email), PasswordHash: passwordHash, Role: role, CreatedAt: s.Now()}
	s.staff[key] = st
	return st, nil
}

func (s *Store) GetStaffByEmail(_ context.Context, email string) (*models.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	st, ok := s.staff[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Fail
}

// SetFail безопасно меняет Fail во время работы фоновых горутин.
func (s *Store) SetFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fail = err
}

// view подставляет живое имя класса, как это делает LEFT JOIN в SQL.
func (s *Store) view(r models.Report) models.Report {
	if r.ClassID != nil {
		if c, ok := s.classes[*r.ClassID]; ok {
			r.ClassName = c.Name
		}
	}
	return r
}

func (s *Store) emit(ch models.ReportChange) {
	if s.Changes != nil {
		s.Changes <- ch
	}
}
