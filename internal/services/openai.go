package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type OpenAIMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type OpenAIClient struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client
}

type chatRequest struct {
	Model      string          `json:"model"`
	Messages   []OpenAIMessage `json:"messages"`
	Tools      []OpenAITool    `json:"tools,omitempty"`
	ToolChoice any             `json:"tool_choice,omitempty"`
}

type OpenAITool struct {
	Type     string             `json:"type"`
	Function OpenAIToolFunction `json:"function"`
}

type OpenAIToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type chatResponse struct {
	Choices []struct {
		Message OpenAIMessage `json:"message"`
	} `json:"choices"`
}

type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

func (c *OpenAIClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *OpenAIClient) endpoint() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return base + "/chat/completions"
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []OpenAIMessage) (string, error) {
	msg, err := c.ChatWithToolsChoice(ctx, messages, nil, nil)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

func (c *OpenAIClient) ChatWithTools(ctx context.Context, messages []OpenAIMessage, tools []OpenAITool) (OpenAIMessage, error) {
	return c.ChatWithToolsChoice(ctx, messages, tools, "auto")
}

func (c *OpenAIClient) ChatWithToolsChoice(ctx context.Context, messages []OpenAIMessage, tools []OpenAITool, toolChoice any) (OpenAIMessage, error) {
	payload := chatRequest{Model: c.Model, Messages: messages, Tools: tools}
	if len(tools) > 0 {
		payload.ToolChoice = toolChoice
	}
	buf, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(buf))
	if err != nil {
		return OpenAIMessage{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return OpenAIMessage{}, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return OpenAIMessage{}, fmt.Errorf("openai request failed: status=%d body=%s", resp.StatusCode, clipString(strings.TrimSpace(string(body)), 500))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return OpenAIMessage{}, fmt.Errorf("openai invalid json: %w", err)
	}
	if len(out.Choices) == 0 {
		return OpenAIMessage{}, errors.New("openai: empty choices")
	}
	return out.Choices[0].Message, nil
}
