package agent

import "context"

// Message es un turno de la conversación con el modelo, en la forma
// chat-completions (role system/user/assistant/tool).
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall es una invocación de tool pedida por el modelo. Arguments
// llega como JSON crudo tal cual lo emitió el modelo.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolSchema es el JSON schema de un tool expuesto al modelo.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Completion es la respuesta de una vuelta del modelo.
type Completion struct {
	Message     Message
	TotalTokens int
}

// ChatCompleter abstrae el proveedor LLM. La implementación real vive
// en adapters/llm; los tests inyectan una versión scriptada.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []Message, tools []ToolSchema) (Completion, error)
}
