package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"group-calendar/internal/domain/events"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("user not found")
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

type CreateInput struct {
	DisplayName    string
	Timezone       string
	DNDWindowStart string
	DNDWindowEnd   string
	Aliases        []string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	if strings.TrimSpace(in.DisplayName) == "" {
		return User{}, ErrInvalidInput
	}

	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	if err := validateTimezone(tz); err != nil {
		return User{}, ErrInvalidInput
	}
	if err := validateDNDWindow(in.DNDWindowStart, in.DNDWindowEnd); err != nil {
		return User{}, ErrInvalidInput
	}

	now := s.now()
	u := User{
		ID:             uuid.NewString(),
		DisplayName:    strings.TrimSpace(in.DisplayName),
		Timezone:       tz,
		DNDWindowStart: strings.TrimSpace(in.DNDWindowStart),
		DNDWindowEnd:   strings.TrimSpace(in.DNDWindowEnd),
		Aliases:        in.Aliases,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// UpdateInput es patch parcial: nil = no tocar ese campo.
type UpdateInput struct {
	DisplayName    *string
	Timezone       *string
	DNDWindowStart *string
	DNDWindowEnd   *string
	Aliases        []string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if in.DisplayName != nil {
		if strings.TrimSpace(*in.DisplayName) == "" {
			return User{}, ErrInvalidInput
		}
		u.DisplayName = strings.TrimSpace(*in.DisplayName)
	}
	if in.Timezone != nil {
		tz := strings.TrimSpace(*in.Timezone)
		if err := validateTimezone(tz); err != nil {
			return User{}, ErrInvalidInput
		}
		u.Timezone = tz
	}
	if in.DNDWindowStart != nil {
		u.DNDWindowStart = strings.TrimSpace(*in.DNDWindowStart)
	}
	if in.DNDWindowEnd != nil {
		u.DNDWindowEnd = strings.TrimSpace(*in.DNDWindowEnd)
	}
	if err := validateDNDWindow(u.DNDWindowStart, u.DNDWindowEnd); err != nil {
		return User{}, ErrInvalidInput
	}
	if in.Aliases != nil {
		u.Aliases = in.Aliases
	}

	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Participant implementa events.ParticipantDirectory: expone lo mínimo
// que el módulo de eventos necesita para evaluar constraints.
func (s *Service) Participant(ctx context.Context, userID string) (events.Participant, bool, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return events.Participant{}, false, nil
		}
		return events.Participant{}, false, err
	}
	return events.Participant{
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		Timezone:    u.Timezone,
		DNDStart:    u.DNDWindowStart,
		DNDEnd:      u.DNDWindowEnd,
	}, true, nil
}

func validateTimezone(tz string) error {
	if tz == "" {
		return fmt.Errorf("empty timezone")
	}
	_, err := time.LoadLocation(tz)
	return err
}

// validateDNDWindow: o las dos vacías, o las dos "HH:MM" válidas.
func validateDNDWindow(start, end string) error {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if start == "" && end == "" {
		return nil
	}
	if start == "" || end == "" {
		return fmt.Errorf("dnd window requires both start and end")
	}
	for _, v := range []string{start, end} {
		var h, m int
		if _, err := fmt.Sscanf(v, "%d:%d", &h, &m); err != nil {
			return fmt.Errorf("invalid clock %q", v)
		}
		if h < 0 || h > 23 || m < 0 || m > 59 {
			return fmt.Errorf("invalid clock %q", v)
		}
	}
	return nil
}
