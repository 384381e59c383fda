// Package auth — вход сотрудников: bcrypt-пароли и сессии в виде JWT.
// Роль влияет только на подпись в интерфейсе.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

type StaffStore interface {
	GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error)
	CreateStaff(ctx context.Context, email, passwordHash string, role models.Role) (models.Staff, error)
}

type Service struct {
	store  StaffStore
	key    string
	issuer string
	ttl    time.Duration
	log    *zap.Logger
	Now    func() time.Time

	// отозванные при выходе jti до истечения срока токена; живут в памяти процесса
	mu      sync.Mutex
	revoked map[string]time.Time
}

// ErrRevoked — токен отозван выходом из сессии.
var ErrRevoked = errors.New("session revoked")

func NewService(store StaffStore, key, issuer string, ttl time.Duration, log *zap.Logger) *Service {
	return &Service{
		store:   store,
		key:     key,
		issuer:  issuer,
		ttl:     ttl,
		log:     log,
		Now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// SignIn возвращает подписанный токен и сессию либо ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", models.Session{}, &models.ValidationError{Field: "email", Msg: "Email dan password wajib diisi"}
	}
	st, err := s.store.GetStaffByEmail(ctx, email)
	if err != nil {
		return "", models.Session{}, fmt.Errorf("sign in: %w", err)
	}
	if st == nil || !CheckPassword(st.PasswordHash, password) {
		s.log.Info("sign in rejected", zap.String("email", email))
		return "", models.Session{}, models.ErrInvalidCredentials
	}
	now := s.Now()
	sess := models.Session{
		StaffID: st.ID,
		Email:   st.Email,
		Role:    st.EffectiveRole(),
		Expires: now.Add(s.ttl),
	}
	tok, err := Issue(sess, s.issuer, s.key, now)
	if err != nil {
		return "", models.Session{}, fmt.Errorf("sign in: %w", err)
	}
	return tok, sess, nil
}

// Verify — проверка сессии по токену.
func (s *Service) Verify(token string) (models.Session, error) {
	claims, err := parseClaims(token, s.key, s.issuer)
	if err != nil {
		return models.Session{}, err
	}
	if s.isRevoked(claims.ID) {
		return models.Session{}, ErrRevoked
	}
	return claims.session(), nil
}

// Revoke гасит токен до конца его срока: и cookie, и Bearer.
func (s *Service) Revoke(token string) error {
	claims, err := parseClaims(token, s.key, s.issuer)
	if err != nil {
		return err
	}
	if claims.ID == "" {
		return errors.New("token has no id")
	}
	now := s.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	return nil
}

func (s *Service) isRevoked(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[id]
	return ok
}

// Register создаёт сотрудника (для cmd/adduser).
func (s *Service) Register(ctx context.Context, email, password string, role models.Role) (models.Staff, error) {
	email, err := models.RequireText("email", email, "Email wajib diisi")
	if err != nil {
		return models.Staff{}, err
	}
	if len(password) < 8 {
		return models.Staff{}, &models.ValidationError{Field: "password", Msg: "Password minimal 8 karakter"}
	}
	switch role {
	case "", models.RoleAdmin, models.RolePicket:
	default:
		return models.Staff{}, &models.ValidationError{Field: "role", Msg: "Peran harus admin atau picket"}
	}
	hash, err := HashPassword(password)
	if err != nil {
		return models.Staff{}, err
	}
	return s.store.CreateStaff(ctx, email, hash, role)
}
