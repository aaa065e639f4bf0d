package selection

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/bigredeye/schoolbook/internal/models"
)

// ErrNoSelection means the card was opened before a student was picked.
var ErrNoSelection = errors.New("no student selected")

// Holder keeps the student picked in the grid until the card is left.
type Holder interface {
	Get() (*models.Student, bool)
	Set(student models.Student) error
	Clear() error
}

func Require(h Holder) (*models.Student, error) {
	student, ok := h.Get()
	if !ok {
		return nil, ErrNoSelection
	}
	return student, nil
}

// Slot is an in-memory Holder.
type Slot struct {
	mu      sync.Mutex
	student *models.Student
}

func (s *Slot) Get() (*models.Student, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.student == nil {
		return nil, false
	}
	student := *s.student
	return &student, true
}

func (s *Slot) Set(student models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.student = &student
	return nil
}

func (s *Slot) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.student = nil
	return nil
}
