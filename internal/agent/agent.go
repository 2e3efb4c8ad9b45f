// Package agent implementa el asistente de agenda: un loop
// Think -> Act -> Observe sobre tool-calling del LLM. El modelo decide
// qué tool invocar; toda mutación real pasa por el service de eventos.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"group-calendar/internal/domain/events"
	"group-calendar/internal/platform/logger"
)

// maxIterations acota el loop para no quedar pegado contra un modelo
// que nunca produce respuesta final.
const maxIterations = 8

const systemPrompt = `You are GC-Agent, an AI scheduling assistant for a shared group calendar.

CAPABILITIES:
- CheckAvailability: see who is free/busy and DND conflicts
- CreateEvent: schedule a new event with attendees
- UpdateEvent: change an existing event (title, time, etc.)
- CancelEvent: soft-cancel an event
- SummarizeSchedule: list upcoming events
- ClarifyWithUser: ask the user a clarifying question

RULES:
1. ALWAYS check availability BEFORE creating or updating events.
2. Never perform timezone math yourself, the backend handles UTC and local conversion.
3. If you lack critical information (date, time, attendees), use ClarifyWithUser.
4. Keep responses concise and friendly.
5. When creating events, default to constraint_level "Soft" unless the user says it's mandatory/required.
6. After creating/updating/cancelling an event, confirm the action to the user.
7. Treat all times as UTC unless the user specifies a timezone.

CONTEXT:
- User ID: %s
- Group ID: %s
- Current UTC time: %s
`

type Agent struct {
	completer ChatCompleter
	events    *events.Service
	log       logger.Logger
	now       func() time.Time

	tools []tool
}

func New(completer ChatCompleter, eventsSvc *events.Service, log logger.Logger) *Agent {
	a := &Agent{
		completer: completer,
		events:    eventsSvc,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
	byName := a.buildTools()
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a.tools = append(a.tools, byName[name])
	}
	return a
}

type RunInput struct {
	UserID  string
	GroupID string
	Message string
	History []Message
}

// ToolCallLog registra una invocación de tool para observabilidad.
type ToolCallLog struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args"`
	Result any            `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// SessionLog resume la sesión completa: cuántas vueltas dio el loop,
// tokens y latencia.
type SessionLog struct {
	SessionID   string    `json:"session_id"`
	StartedAt   time.Time `json:"started_at"`
	UserID      string    `json:"user_id"`
	UserMessage string    `json:"user_message"`
	Iterations  int       `json:"iterations"`
	TotalTokens int       `json:"total_tokens"`
	LatencyMS   int64     `json:"latency_ms"`
	Error       string    `json:"error,omitempty"`
}

type Result struct {
	Response              string        `json:"response"`
	ToolCalls             []ToolCallLog `json:"tool_calls"`
	RequiresClarification bool          `json:"requires_clarification"`
	SessionLog            SessionLog    `json:"session_log"`
}

var ErrInvalidInput = errors.New("invalid input")

// Run ejecuta el loop para un mensaje del usuario. Nunca retorna error
// por fallas del LLM o de tools: esas quedan en Result para que el
// usuario vea qué pasó (el error de retorno es solo input inválido).
func (a *Agent) Run(ctx context.Context, in RunInput) (Result, error) {
	if in.UserID == "" || in.Message == "" {
		return Result{}, ErrInvalidInput
	}

	start := a.now()
	sessionLog := SessionLog{
		SessionID:   uuid.NewString(),
		StartedAt:   start,
		UserID:      in.UserID,
		UserMessage: in.Message,
	}
	log := a.log.With(map[string]any{"session_id": sessionLog.SessionID})

	groupID := in.GroupID
	if groupID == "" {
		groupID = "not specified"
	}

	messages := []Message{{
		Role:    "system",
		Content: fmt.Sprintf(systemPrompt, in.UserID, groupID, start.Format(time.RFC3339)),
	}}
	messages = append(messages, in.History...)
	messages = append(messages, Message{Role: "user", Content: in.Message})

	schemas := make([]ToolSchema, 0, len(a.tools))
	for _, t := range a.tools {
		schemas = append(schemas, t.schema)
	}
	byName := make(map[string]tool, len(a.tools))
	for _, t := range a.tools {
		byName[t.schema.Name] = t
	}

	allCalls := []ToolCallLog{}

	finish := func(response string, clarify bool, errMsg string) Result {
		sessionLog.LatencyMS = a.now().Sub(start).Milliseconds()
		sessionLog.Error = errMsg
		return Result{
			Response:              response,
			ToolCalls:             allCalls,
			RequiresClarification: clarify,
			SessionLog:            sessionLog,
		}
	}

	for iteration := 0; iteration < maxIterations; iteration++ {
		sessionLog.Iterations = iteration + 1

		completion, err := a.completer.Complete(ctx, messages, schemas)
		if err != nil {
			log.Error("llm request failed", map[string]any{"error": err.Error()})
			return finish(
				fmt.Sprintf("I'm having trouble connecting to the AI service: %v", err),
				false,
				err.Error(),
			), nil
		}
		sessionLog.TotalTokens += completion.TotalTokens

		msg := completion.Message
		if len(msg.ToolCalls) == 0 {
			// Sin tool calls: respuesta final.
			log.Info("agent finished", map[string]any{
				"iterations":   iteration + 1,
				"total_tokens": sessionLog.TotalTokens,
			})
			response := msg.Content
			if response == "" {
				response = "Done!"
			}
			return finish(response, false, ""), nil
		}

		messages = append(messages, msg)

		for _, call := range msg.ToolCalls {
			args := map[string]any{}
			if call.Arguments != "" {
				// Argumentos malformados se tratan como vacíos, igual
				// que un humano reintentando con lo que entendió.
				_ = json.Unmarshal([]byte(call.Arguments), &args)
			}

			callLog := ToolCallLog{Tool: call.Name, Args: args}
			log.Info("tool call", map[string]any{"tool": call.Name})

			var resultJSON string
			t, ok := byName[call.Name]
			if !ok {
				callLog.Error = fmt.Sprintf("unknown tool: %s", call.Name)
				resultJSON = fmt.Sprintf(`{"error":%q}`, callLog.Error)
			} else {
				result, err := t.run(ctx, args)
				if err != nil {
					log.Warn("tool failed", map[string]any{"tool": call.Name, "error": err.Error()})
					callLog.Error = err.Error()
					resultJSON = fmt.Sprintf(`{"error":%q}`, err.Error())
				} else {
					callLog.Result = result

					if call.Name == "ClarifyWithUser" {
						allCalls = append(allCalls, callLog)
						question := argString(args, "question")
						return finish(question, true, ""), nil
					}

					b, merr := json.Marshal(result)
					if merr != nil {
						resultJSON = fmt.Sprintf(`{"error":%q}`, merr.Error())
					} else {
						resultJSON = string(b)
					}
				}
			}

			allCalls = append(allCalls, callLog)
			messages = append(messages, Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    resultJSON,
			})
		}
	}

	log.Warn("agent hit iteration cap", map[string]any{"max": maxIterations})
	return finish(
		"I've been working on your request but it's taking longer than expected. Could you try being more specific?",
		false,
		"",
	), nil
}
