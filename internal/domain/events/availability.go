package events

import (
	"context"
	"time"
)

// BusyBlock es un evento existente (no cancelado) de un usuario dentro
// del rango consultado, con su constraint level anotado.
type BusyBlock struct {
	UserID          string          `json:"user_id"`
	DisplayName     string          `json:"display_name"`
	EventID         string          `json:"event_id"`
	Title           string          `json:"title"`
	Start           time.Time       `json:"start"`
	End             time.Time       `json:"end"`
	ConstraintLevel ConstraintLevel `json:"constraint_level"`
}

// DNDConflict es informativo: el rango consultado pisa la ventana DND
// del usuario. Nunca bloquea nada (es el gemelo read-only del check de
// constraints).
type DNDConflict struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Window      string `json:"dnd_window"`
	Timezone    string `json:"timezone"`
}

type Availability struct {
	BusyBlocks   []BusyBlock   `json:"busy_blocks"`
	DNDConflicts []DNDConflict `json:"dnd_conflicts"`
	UsersChecked []string      `json:"users_checked"`
}

// CheckAvailability compone eventos existentes + ventanas DND para un
// set de usuarios en un rango. Solo lectura, no escribe nada.
// Usuarios desconocidos se saltan.
func (s *Service) CheckAvailability(ctx context.Context, userIDs []string, startUTC, endUTC time.Time) (Availability, error) {
	if len(userIDs) == 0 || startUTC.IsZero() || endUTC.IsZero() || !endUTC.After(startUTC) {
		return Availability{}, ErrInvalidInput
	}

	out := Availability{
		BusyBlocks:   make([]BusyBlock, 0),
		DNDConflicts: make([]DNDConflict, 0),
		UsersChecked: append([]string(nil), userIDs...),
	}

	for _, uid := range userIDs {
		p, ok, err := s.directory.Participant(ctx, uid)
		if err != nil {
			return Availability{}, err
		}
		if !ok {
			continue
		}

		evs, err := s.repo.ListForUserInRange(ctx, uid, startUTC, endUTC)
		if err != nil {
			return Availability{}, err
		}
		for _, ev := range evs {
			out.BusyBlocks = append(out.BusyBlocks, BusyBlock{
				UserID:          uid,
				DisplayName:     p.DisplayName,
				EventID:         ev.ID,
				Title:           ev.Title,
				Start:           ev.StartUTC,
				End:             ev.EndUTC,
				ConstraintLevel: ev.ConstraintLevel,
			})
		}

		if p.DNDStart != "" && p.DNDEnd != "" {
			hit, err := restWindowHit(startUTC, endUTC, p)
			if err != nil {
				return Availability{}, err
			}
			if hit {
				out.DNDConflicts = append(out.DNDConflicts, DNDConflict{
					UserID:      uid,
					DisplayName: p.DisplayName,
					Window:      p.DNDStart + "-" + p.DNDEnd,
					Timezone:    p.Timezone,
				})
			}
		}
	}

	return out, nil
}
