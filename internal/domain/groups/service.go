package groups

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("group not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Create crea el grupo y agrega al creador como admin.
func (s *Service) Create(ctx context.Context, name, createdBy string) (Group, error) {
	name = strings.TrimSpace(name)
	createdBy = strings.TrimSpace(createdBy)
	if name == "" || createdBy == "" {
		return Group{}, ErrInvalidInput
	}

	now := s.now()
	g := Group{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return Group{}, err
	}

	if err := s.repo.AddMember(ctx, Member{
		GroupID:  g.ID,
		UserID:   createdBy,
		Role:     RoleAdmin,
		JoinedAt: now,
	}); err != nil {
		return Group{}, err
	}
	return g, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Group, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Group{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Group, error) {
	return s.repo.List(ctx)
}

func (s *Service) AddMember(ctx context.Context, groupID, userID string, role Role) (Member, error) {
	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)
	if groupID == "" || userID == "" {
		return Member{}, ErrInvalidInput
	}
	if role == "" {
		role = RoleMember
	}
	if role != RoleAdmin && role != RoleMember {
		return Member{}, ErrInvalidInput
	}

	if _, err := s.repo.GetByID(ctx, groupID); err != nil {
		return Member{}, err
	}

	m := Member{
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		JoinedAt: s.now(),
	}
	if err := s.repo.AddMember(ctx, m); err != nil {
		return Member{}, err
	}
	return m, nil
}

func (s *Service) RemoveMember(ctx context.Context, groupID, userID string) error {
	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)
	if groupID == "" || userID == "" {
		return ErrInvalidInput
	}
	return s.repo.RemoveMember(ctx, groupID, userID)
}

func (s *Service) ListMembers(ctx context.Context, groupID string) ([]Member, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.repo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, groupID)
}
