package model

import (
	"time"

	"github.com/google/uuid"

	"course-purchase-platform/internal/domain"
)

// Student is the authenticated principal of every purchase and access check.
type Student struct {
	ID           string
	Email        string
	FullName     string
	RegisteredAt time.Time
	LastActiveAt time.Time
}

func NewStudent(id, email, fullName string) (*Student, error) {
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Student{
		ID:           id,
		Email:        email,
		FullName:     fullName,
		RegisteredAt: time.Now(),
	}, nil
}
