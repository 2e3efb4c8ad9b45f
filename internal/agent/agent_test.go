package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mem "group-calendar/internal/adapters/storage/memory"
	"group-calendar/internal/domain/events"
	"group-calendar/internal/platform/logger"
)

// scriptedCompleter devuelve respuestas pre-armadas en orden.
type scriptedCompleter struct {
	replies []Completion
	err     error
	calls   int
}

func (c *scriptedCompleter) Complete(ctx context.Context, messages []Message, tools []ToolSchema) (Completion, error) {
	c.calls++
	if c.err != nil {
		return Completion{}, c.err
	}
	if len(c.replies) == 0 {
		return Completion{Message: Message{Role: "assistant", Content: "Done!"}}, nil
	}
	next := c.replies[0]
	c.replies = c.replies[1:]
	return next, nil
}

type staticDirectory struct{}

func (staticDirectory) Participant(ctx context.Context, userID string) (events.Participant, bool, error) {
	return events.Participant{UserID: userID, Timezone: "UTC"}, true, nil
}

func newTestAgent(t *testing.T, completer ChatCompleter) (*Agent, *events.Service) {
	t.Helper()
	eventsSvc := events.NewService(mem.NewEventsRepo(), staticDirectory{})
	a := New(completer, eventsSvc, logger.New(logger.Options{Level: logger.Error}))
	a.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return a, eventsSvc
}

func toolReply(id, name string, args map[string]any) Completion {
	b, _ := json.Marshal(args)
	return Completion{
		Message: Message{
			Role: "assistant",
			ToolCalls: []ToolCall{
				{ID: id, Name: name, Arguments: string(b)},
			},
		},
		TotalTokens: 10,
	}
}

func finalReply(text string) Completion {
	return Completion{
		Message:     Message{Role: "assistant", Content: text},
		TotalTokens: 5,
	}
}

func TestRun_ToolCallThenFinalResponse(t *testing.T) {
	completer := &scriptedCompleter{replies: []Completion{
		toolReply("call-1", "CreateEvent", map[string]any{
			"group_id":       "g1",
			"title":          "Standup",
			"start_time_utc": "2026-03-02T10:00:00Z",
			"end_time_utc":   "2026-03-02T10:15:00Z",
			"organizer_id":   "alice",
		}),
		finalReply("Created your standup for tomorrow at 10:00 UTC."),
	}}
	a, eventsSvc := newTestAgent(t, completer)

	res, err := a.Run(context.Background(), RunInput{
		UserID:  "alice",
		GroupID: "g1",
		Message: "schedule a standup tomorrow at 10",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.RequiresClarification {
		t.Errorf("unexpected clarification")
	}
	if res.Response != "Created your standup for tomorrow at 10:00 UTC." {
		t.Errorf("response: %q", res.Response)
	}
	if len(res.ToolCalls) != 1 || res.ToolCalls[0].Tool != "CreateEvent" || res.ToolCalls[0].Error != "" {
		t.Fatalf("tool calls: %+v", res.ToolCalls)
	}
	if res.SessionLog.Iterations != 2 || res.SessionLog.TotalTokens != 15 {
		t.Errorf("session log: %+v", res.SessionLog)
	}

	// El tool ejecutó una mutación real por el service de eventos.
	evs, _ := eventsSvc.List(context.Background(), events.ListFilter{GroupID: "g1"})
	if len(evs) != 1 || evs[0].Title != "Standup" {
		t.Errorf("persisted events: %+v", evs)
	}
}

func TestRun_ClarificationSuspendsLoop(t *testing.T) {
	completer := &scriptedCompleter{replies: []Completion{
		toolReply("call-1", "ClarifyWithUser", map[string]any{
			"question": "What day should the meeting be?",
		}),
		finalReply("should never reach here"),
	}}
	a, _ := newTestAgent(t, completer)

	res, err := a.Run(context.Background(), RunInput{UserID: "alice", Message: "schedule a meeting"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !res.RequiresClarification {
		t.Fatalf("expected clarification")
	}
	if res.Response != "What day should the meeting be?" {
		t.Errorf("response: %q", res.Response)
	}
	if completer.calls != 1 {
		t.Errorf("loop did not suspend: %d llm calls", completer.calls)
	}
}

func TestRun_ToolErrorIsObservedNotFatal(t *testing.T) {
	completer := &scriptedCompleter{replies: []Completion{
		toolReply("call-1", "CancelEvent", map[string]any{
			"event_id":      "nope",
			"actor_user_id": "alice",
			"version":       1,
		}),
		finalReply("That event doesn't exist."),
	}}
	a, _ := newTestAgent(t, completer)

	res, err := a.Run(context.Background(), RunInput{UserID: "alice", Message: "cancel the offsite"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.ToolCalls) != 1 || res.ToolCalls[0].Error == "" {
		t.Fatalf("expected observed tool error: %+v", res.ToolCalls)
	}
	if res.Response != "That event doesn't exist." {
		t.Errorf("response: %q", res.Response)
	}
}

func TestRun_UnknownToolReported(t *testing.T) {
	completer := &scriptedCompleter{replies: []Completion{
		toolReply("call-1", "LaunchRocket", map[string]any{}),
		finalReply("ok"),
	}}
	a, _ := newTestAgent(t, completer)

	res, err := a.Run(context.Background(), RunInput{UserID: "alice", Message: "do something"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.ToolCalls) != 1 || res.ToolCalls[0].Error != "unknown tool: LaunchRocket" {
		t.Errorf("tool calls: %+v", res.ToolCalls)
	}
}

func TestRun_IterationCap(t *testing.T) {
	// El modelo pide tools para siempre; el loop corta en maxIterations.
	replies := make([]Completion, 0, maxIterations+2)
	for i := 0; i < maxIterations+2; i++ {
		replies = append(replies, toolReply("call", "SummarizeSchedule", map[string]any{
			"user_id": "alice",
		}))
	}
	completer := &scriptedCompleter{replies: replies}
	a, _ := newTestAgent(t, completer)

	res, err := a.Run(context.Background(), RunInput{UserID: "alice", Message: "loop forever"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if completer.calls != maxIterations {
		t.Errorf("llm calls: got %d want %d", completer.calls, maxIterations)
	}
	if res.SessionLog.Iterations != maxIterations {
		t.Errorf("iterations: %d", res.SessionLog.Iterations)
	}
	if res.Response == "" {
		t.Errorf("expected fallback response")
	}
}

func TestRun_LLMErrorSurfacesInResponse(t *testing.T) {
	completer := &scriptedCompleter{err: errors.New("rate limited")}
	a, _ := newTestAgent(t, completer)

	res, err := a.Run(context.Background(), RunInput{UserID: "alice", Message: "hi"})
	if err != nil {
		t.Fatalf("run should not fail hard: %v", err)
	}
	if res.SessionLog.Error != "rate limited" {
		t.Errorf("session error: %q", res.SessionLog.Error)
	}
}

func TestRun_InvalidInput(t *testing.T) {
	a, _ := newTestAgent(t, &scriptedCompleter{})
	if _, err := a.Run(context.Background(), RunInput{UserID: "", Message: "hi"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing user: got %v", err)
	}
	if _, err := a.Run(context.Background(), RunInput{UserID: "alice", Message: ""}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing message: got %v", err)
	}
}
