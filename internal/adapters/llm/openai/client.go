// Package openai implementa agent.ChatCompleter contra la API
// chat-completions de OpenAI (o cualquier endpoint compatible).
package openai

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"group-calendar/internal/agent"
	"group-calendar/internal/platform/httpclient"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"

	requestTimeout = 60 * time.Second
)

type Client struct {
	http   *httpclient.Client
	apiKey string
	model  string
}

type Options struct {
	APIKey  string
	BaseURL string // opcional; default api.openai.com
	Model   string // opcional; default gpt-4o-mini
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	hc, err := httpclient.NewWithBaseURL(baseURL, requestTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc, apiKey: opts.APIKey, model: model}, nil
}

// NewFromEnv lee OPENAI_API_KEY / OPENAI_BASE_URL / OPENAI_MODEL.
// Retorna (nil, nil) si no hay API key: el caller decide si el agente
// queda deshabilitado.
func NewFromEnv() (*Client, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if strings.TrimSpace(key) == "" {
		return nil, nil
	}
	return New(Options{
		APIKey:  key,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("OPENAI_MODEL"),
	})
}

// Tipos wire de chat-completions. Solo los campos que usamos.

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string         `json:"type"`
	Function wireToolSchema `json:"function"`
}

type wireToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type completionRequest struct {
	Model      string        `json:"model"`
	Messages   []wireMessage `json:"messages"`
	Tools      []wireTool    `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *Client) Complete(ctx context.Context, messages []agent.Message, tools []agent.ToolSchema) (agent.Completion, error) {
	req := completionRequest{
		Model:    c.model,
		Messages: make([]wireMessage, 0, len(messages)),
	}
	for _, m := range messages {
		wm := wireMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: wireFunction{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		req.Messages = append(req.Messages, wm)
	}
	if len(tools) > 0 {
		req.ToolChoice = "auto"
		for _, t := range tools {
			req.Tools = append(req.Tools, wireTool{
				Type: "function",
				Function: wireToolSchema{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
	}

	var resp completionResponse
	err := c.http.DoJSON(ctx, http.MethodPost, "/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.apiKey},
		req, &resp,
	)
	if err != nil {
		return agent.Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return agent.Completion{}, errors.New("openai: empty choices in response")
	}

	wm := resp.Choices[0].Message
	out := agent.Message{
		Role:    wm.Role,
		Content: wm.Content,
	}
	for _, tc := range wm.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, agent.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return agent.Completion{
		Message:     out,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}
