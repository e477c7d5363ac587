package access

import (
	"context"
	"fmt"
	"time"

	"github.com/M051719/npivault/ccc/logging"
)

type SubjectService interface {
	// RegisterSubject binds an externally asserted identity to a role
	RegisterSubject(ctx context.Context, id, name string, role Role) (*Subject, error)
	// GetSubject retrieves a registered subject
	GetSubject(ctx context.Context, id string) (*Subject, error)
}

type subjectService struct {
	logger logging.Logger
	repo   SubjectRepository
}

func NewSubjectService(logger logging.Logger, repo SubjectRepository) *subjectService {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &subjectService{
		logger: logger,
		repo:   repo,
	}
}

func (s *subjectService) RegisterSubject(ctx context.Context, id, name string, role Role) (*Subject, error) {
	if id == "" {
		return nil, fmt.Errorf("subject ID is required")
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role: %q", role)
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to check for existing subject", "error", err, "subject_id", id)
		return nil, fmt.Errorf("failed to register subject: %w", err)
	}
	if existing != nil {
		return nil, NewSubjectAlreadyExistsError(id)
	}

	subject := &Subject{
		ID:        id,
		Name:      name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Add(ctx, subject); err != nil {
		s.logger.Error("Failed to add subject", "error", err, "subject_id", id)
		return nil, fmt.Errorf("failed to register subject: %w", err)
	}

	s.logger.Info("Registered subject", "subject_id", id, "role", role)
	return subject, nil
}

func (s *subjectService) GetSubject(ctx context.Context, id string) (*Subject, error) {
	subject, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get subject", "error", err, "subject_id", id)
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	if subject == nil {
		return nil, NewSubjectNotFoundError(id)
	}

	return subject, nil
}
