package events

import (
	"context"
	"fmt"
	"time"
)

// resolveConstraints evalúa el intervalo candidato contra las reglas de
// scheduling y devuelve la lista de conflictos. Lista vacía = admisible.
//
// Política:
//   - Soft nunca genera ni recibe conflictos.
//   - Hard choca con (a) la ventana DND de cualquier participante y
//     (b) cualquier evento Hard no cancelado que se solape.
//
// La conversión UTC -> hora local del participante es responsabilidad
// del backend; los callers nunca hacen matemática de timezones.
func (s *Service) resolveConstraints(
	ctx context.Context,
	startUTC, endUTC time.Time,
	level ConstraintLevel,
	participantIDs []string,
	excludeEventID string,
) ([]Conflict, error) {
	if level != ConstraintHard {
		return nil, nil
	}

	conflicts := make([]Conflict, 0)

	for _, uid := range participantIDs {
		p, ok, err := s.directory.Participant(ctx, uid)
		if err != nil {
			return nil, err
		}
		if ok && p.DNDStart != "" && p.DNDEnd != "" {
			hit, err := restWindowHit(startUTC, endUTC, p)
			if err != nil {
				return nil, err
			}
			if hit {
				conflicts = append(conflicts, Conflict{
					UserID:   uid,
					Kind:     ConflictDNDWindow,
					Window:   p.DNDStart + "-" + p.DNDEnd,
					Timezone: p.Timezone,
				})
			}
		}

		overlapping, err := s.repo.ListOverlappingHard(ctx, uid, startUTC, endUTC, excludeEventID)
		if err != nil {
			return nil, err
		}
		for _, ev := range overlapping {
			conflicts = append(conflicts, Conflict{
				UserID:             uid,
				Kind:               ConflictHardOverlap,
				ConflictingEventID: ev.ID,
				ConflictingTitle:   ev.Title,
				Start:              ev.StartUTC,
				End:                ev.EndUTC,
			})
		}
	}

	if len(conflicts) == 0 {
		return nil, nil
	}
	return conflicts, nil
}

// restWindowHit convierte el intervalo UTC a la hora local del
// participante y lo compara contra su ventana DND recurrente.
func restWindowHit(startUTC, endUTC time.Time, p Participant) (bool, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return false, fmt.Errorf("participant %s: %w", p.UserID, err)
	}

	winStart, err := parseClock(p.DNDStart)
	if err != nil {
		return false, fmt.Errorf("participant %s: %w", p.UserID, err)
	}
	winEnd, err := parseClock(p.DNDEnd)
	if err != nil {
		return false, fmt.Errorf("participant %s: %w", p.UserID, err)
	}

	localStart := minutesOfDay(startUTC.In(loc))
	localEnd := minutesOfDay(endUTC.In(loc))

	return localWindowOverlap(localStart, localEnd, winStart, winEnd), nil
}
