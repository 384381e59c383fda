package bot

import (
	"sync"

	"github.com/Spok95/lapor-jamkos/internal/models"
)

type step int

const (
	stepTeacher step = iota + 1
	stepPicket
)

// triageState: шаги ввода одной обработки в чате.
type triageState struct {
	Step     step
	ReportID string
	Class    string
	Status   models.Status
	Teacher  string
}

// chatSession: состояние чата; апдейты одного чата обрабатываются по очереди.
type chatSession struct {
	mu     sync.Mutex
	triage *triageState
}

type sessions struct {
	mu   sync.Mutex
	byID map[int64]*chatSession
}

func newSessions() *sessions {
	return &sessions{byID: make(map[int64]*chatSession)}
}

// acquire блокирует чат до вызова release.
func (s *sessions) acquire(chatID int64) (*chatSession, func()) {
	s.mu.Lock()
	cs, ok := s.byID[chatID]
	if !ok {
		cs = &chatSession{}
		s.byID[chatID] = cs
	}
	s.mu.Unlock()

	cs.mu.Lock()
	return cs, cs.mu.Unlock
}
