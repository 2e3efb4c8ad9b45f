package events

import (
	"context"
	"strings"

	ics "github.com/arran4/golang-ical"
)

// GroupCalendar serializa los eventos no cancelados de un grupo como
// iCalendar (un VEVENT por evento). Export one-way; no hay sync.
func (s *Service) GroupCalendar(ctx context.Context, groupID string) (string, error) {
	if strings.TrimSpace(groupID) == "" {
		return "", ErrInvalidInput
	}

	evs, err := s.repo.ListEvents(ctx, ListFilter{GroupID: groupID})
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//group-calendar//api//EN")

	for _, e := range evs {
		ve := cal.AddEvent(e.ID)
		ve.SetSummary(e.Title)
		ve.SetStartAt(e.StartUTC)
		ve.SetEndAt(e.EndUTC)
		ve.SetDtStampTime(e.UpdatedAt)
		if e.LocationText != "" {
			ve.SetLocation(e.LocationText)
		}
		if e.Status == StatusConfirmed {
			ve.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			ve.SetStatus(ics.ObjectStatusTentative)
		}
	}

	return cal.Serialize(), nil
}
