package agent

import (
	"context"
	"fmt"
	"time"

	"group-calendar/internal/domain/events"
)

// tool empaqueta schema + ejecución. Todas las mutaciones pasan por el
// service de eventos, nunca directo al storage, así el agente queda
// sujeto a los mismos invariantes que la API.
type tool struct {
	schema ToolSchema
	run    func(ctx context.Context, args map[string]any) (any, error)
}

func (a *Agent) buildTools() map[string]tool {
	return map[string]tool{
		"CheckAvailability":  a.checkAvailabilityTool(),
		"CreateEvent":        a.createEventTool(),
		"UpdateEvent":        a.updateEventTool(),
		"CancelEvent":        a.cancelEventTool(),
		"SummarizeSchedule":  a.summarizeScheduleTool(),
		"ClarifyWithUser":    a.clarifyTool(),
	}
}

func (a *Agent) checkAvailabilityTool() tool {
	return tool{
		schema: ToolSchema{
			Name: "CheckAvailability",
			Description: "Check the availability of one or more users in a time range. " +
				"Returns busy blocks (existing events) and DND window conflicts. " +
				"Call this BEFORE creating or updating events when needed.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user_ids": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "List of user IDs to check.",
					},
					"range_start_utc": map[string]any{
						"type":        "string",
						"description": "ISO-8601 UTC start of the window, e.g. 2026-03-01T09:00:00Z",
					},
					"range_end_utc": map[string]any{
						"type":        "string",
						"description": "ISO-8601 UTC end of the window, e.g. 2026-03-01T17:00:00Z",
					},
				},
				"required": []string{"user_ids", "range_start_utc", "range_end_utc"},
			},
		},
		run: func(ctx context.Context, args map[string]any) (any, error) {
			start, err := argTime(args, "range_start_utc")
			if err != nil {
				return nil, err
			}
			end, err := argTime(args, "range_end_utc")
			if err != nil {
				return nil, err
			}
			return a.events.CheckAvailability(ctx, argStrings(args, "user_ids"), start, end)
		},
	}
}

func (a *Agent) createEventTool() tool {
	return tool{
		schema: ToolSchema{
			Name: "CreateEvent",
			Description: "Create a new calendar event. Constraint resolution, DND checks " +
				"and the mutation ledger are applied automatically. Returns the created event.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"group_id":       map[string]any{"type": "string", "description": "Group the event belongs to."},
					"title":          map[string]any{"type": "string", "description": "Event title."},
					"start_time_utc": map[string]any{"type": "string", "description": "ISO-8601 UTC start time."},
					"end_time_utc":   map[string]any{"type": "string", "description": "ISO-8601 UTC end time."},
					"organizer_id":   map[string]any{"type": "string", "description": "ID of the organizing user."},
					"attendee_ids": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Attendee user IDs (defaults to just the organizer).",
					},
					"constraint_level": map[string]any{
						"type":        "string",
						"enum":        []string{"Hard", "Soft"},
						"description": "Hard = cannot overlap other Hard or DND. Soft = may overlap. Default: Soft.",
					},
					"event_type": map[string]any{
						"type": "string",
						"enum": []string{"default", "outOfOffice", "focusTime"},
					},
				},
				"required": []string{"group_id", "title", "start_time_utc", "end_time_utc", "organizer_id"},
			},
		},
		run: func(ctx context.Context, args map[string]any) (any, error) {
			start, err := argTime(args, "start_time_utc")
			if err != nil {
				return nil, err
			}
			end, err := argTime(args, "end_time_utc")
			if err != nil {
				return nil, err
			}
			ev, err := a.events.Create(ctx, events.CreateInput{
				GroupID:         argString(args, "group_id"),
				Title:           argString(args, "title"),
				StartUTC:        start,
				EndUTC:          end,
				OrganizerID:     argString(args, "organizer_id"),
				AttendeeIDs:     argStrings(args, "attendee_ids"),
				ConstraintLevel: events.ConstraintLevel(argString(args, "constraint_level")),
				Type:            events.EventType(argString(args, "event_type")),
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"event_id": ev.ID,
				"title":    ev.Title,
				"status":   string(ev.Status),
				"version":  ev.Version,
			}, nil
		},
	}
}

func (a *Agent) updateEventTool() tool {
	return tool{
		schema: ToolSchema{
			Name: "UpdateEvent",
			Description: "Update fields on an existing event. Requires the current version " +
				"number (optimistic locking). Only the organizer may update the event.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"event_id":      map[string]any{"type": "string"},
					"actor_user_id": map[string]any{"type": "string", "description": "User performing the update (must be organizer)."},
					"version":       map[string]any{"type": "integer", "description": "Current version for optimistic locking."},
					"updates":       map[string]any{"type": "object", "description": "Fields to update (title, start_time_utc, end_time_utc, etc)."},
				},
				"required": []string{"event_id", "actor_user_id", "version", "updates"},
			},
		},
		run: func(ctx context.Context, args map[string]any) (any, error) {
			updates, _ := args["updates"].(map[string]any)
			ev, err := a.events.Update(ctx,
				argString(args, "event_id"),
				argString(args, "actor_user_id"),
				argInt(args, "version"),
				updates,
			)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"event_id": ev.ID,
				"title":    ev.Title,
				"status":   string(ev.Status),
				"version":  ev.Version,
			}, nil
		},
	}
}

func (a *Agent) cancelEventTool() tool {
	return tool{
		schema: ToolSchema{
			Name: "CancelEvent",
			Description: "Cancel (soft-delete) an existing event. Requires organizer " +
				"authorization and the current version for optimistic locking.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"event_id":      map[string]any{"type": "string"},
					"actor_user_id": map[string]any{"type": "string"},
					"version":       map[string]any{"type": "integer"},
					"cancel_reason": map[string]any{"type": "string"},
				},
				"required": []string{"event_id", "actor_user_id", "version"},
			},
		},
		run: func(ctx context.Context, args map[string]any) (any, error) {
			ev, err := a.events.Cancel(ctx,
				argString(args, "event_id"),
				argString(args, "actor_user_id"),
				argInt(args, "version"),
				argString(args, "cancel_reason"),
			)
			if err != nil {
				return nil, err
			}
			out := map[string]any{
				"event_id": ev.ID,
				"title":    ev.Title,
				"status":   string(ev.Status),
			}
			if ev.CancelledAt != nil {
				out["cancelled_at"] = ev.CancelledAt.Format(time.RFC3339)
			}
			return out, nil
		},
	}
}

func (a *Agent) summarizeScheduleTool() tool {
	return tool{
		schema: ToolSchema{
			Name: "SummarizeSchedule",
			Description: "Get a read-only summary of upcoming events for a user or group. " +
				"Useful for answering questions like 'What's on my schedule this week?'",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user_id":         map[string]any{"type": "string", "description": "User whose schedule to summarize (optional if group_id given)."},
					"group_id":        map[string]any{"type": "string", "description": "Group whose schedule to summarize (optional if user_id given)."},
					"range_start_utc": map[string]any{"type": "string", "description": "ISO-8601 UTC start, defaults to now."},
					"range_end_utc":   map[string]any{"type": "string", "description": "ISO-8601 UTC end, defaults to 7 days from now."},
				},
			},
		},
		run: func(ctx context.Context, args map[string]any) (any, error) {
			now := a.now()
			start := now
			end := now.Add(7 * 24 * time.Hour)
			if argString(args, "range_start_utc") != "" {
				var err error
				if start, err = argTime(args, "range_start_utc"); err != nil {
					return nil, err
				}
			}
			if argString(args, "range_end_utc") != "" {
				var err error
				if end, err = argTime(args, "range_end_utc"); err != nil {
					return nil, err
				}
			}

			var evs []events.Event
			var err error
			if uid := argString(args, "user_id"); uid != "" {
				evs, err = a.events.ListForUser(ctx, uid, start, end)
			} else {
				evs, err = a.events.List(ctx, events.ListFilter{
					GroupID:     argString(args, "group_id"),
					StartAfter:  &start,
					StartBefore: &end,
				})
			}
			if err != nil {
				return nil, err
			}

			summary := make([]map[string]any, 0, len(evs))
			for _, ev := range evs {
				summary = append(summary, map[string]any{
					"event_id":         ev.ID,
					"title":            ev.Title,
					"start_time_utc":   ev.StartUTC.Format(time.RFC3339),
					"end_time_utc":     ev.EndUTC.Format(time.RFC3339),
					"status":           string(ev.Status),
					"constraint_level": string(ev.ConstraintLevel),
				})
			}
			return map[string]any{"count": len(summary), "events": summary}, nil
		},
	}
}

func (a *Agent) clarifyTool() tool {
	return tool{
		schema: ToolSchema{
			Name: "ClarifyWithUser",
			Description: "Ask the user a clarifying question before proceeding. Use this " +
				"when you need more information, such as the exact time, date, attendees " +
				"or constraint preferences.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question": map[string]any{"type": "string", "description": "The question to ask the user."},
				},
				"required": []string{"question"},
			},
		},
		// El loop intercepta este tool y suspende la iteración; run solo
		// devuelve el payload.
		run: func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{
				"requires_clarification": true,
				"question":               argString(args, "question"),
			}, nil
		},
	}
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argStrings(args map[string]any, key string) []string {
	raw, _ := args[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func argInt(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func argTime(args map[string]any, key string) (time.Time, error) {
	s := argString(args, key)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t.UTC(), nil
}
