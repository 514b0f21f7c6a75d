package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"camper-agent-service/internal/config"
	"camper-agent-service/internal/logger"
	"camper-agent-service/internal/models"
)

const searchPlacesTool = "search_places"

// AgentResult is the agent's answer and whether it consulted the place
// search tool while producing it.
type AgentResult struct {
	Text     string
	UsedTool bool
}

type Agent interface {
	Generate(ctx context.Context, message string, history []models.ChatTurn) (AgentResult, error)
}

type ChatCompleter interface {
	ChatWithToolsChoice(ctx context.Context, messages []OpenAIMessage, tools []OpenAITool, toolChoice any) (OpenAIMessage, error)
}

type Searcher interface {
	Search(ctx context.Context, term string) (SearchResult, error)
}

// ToolAgent runs a chat completion loop with a single place-search tool.
type ToolAgent struct {
	LLM          ChatCompleter
	Search       Searcher
	Profile      config.AgentProfile
	MaxToolCalls int
	HistoryLimit int
	Logger       *zap.Logger
}

type searchPlacesArgs struct {
	Location string `json:"location"`
}

func (a *ToolAgent) tools() []OpenAITool {
	return []OpenAITool{{
		Type: "function",
		Function: OpenAIToolFunction{
			Name:        searchPlacesTool,
			Description: a.Profile.ToolDescription,
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "Town, region or area where the user wants to park or camp",
					},
				},
				"required": []string{"location"},
			},
		},
	}}
}

func (a *ToolAgent) buildMessages(message string, history []models.ChatTurn) []OpenAIMessage {
	limit := positiveOr(a.HistoryLimit, 10)
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	msgs := make([]OpenAIMessage, 0, len(history)+2)
	msgs = append(msgs, OpenAIMessage{Role: "system", Content: a.Profile.Instructions})
	for _, t := range history {
		if t.Role != models.RoleUser && t.Role != models.RoleAssistant {
			continue
		}
		msgs = append(msgs, OpenAIMessage{Role: t.Role, Content: clipString(t.Content, 1000)})
	}
	return append(msgs, OpenAIMessage{Role: models.RoleUser, Content: message})
}

func (a *ToolAgent) Generate(ctx context.Context, message string, history []models.ChatTurn) (AgentResult, error) {
	if a.LLM == nil {
		return AgentResult{}, errors.New("agent has no language model")
	}
	log := logger.OrNop(a.Logger)
	msgs := a.buildMessages(message, history)
	tools := a.tools()
	maxCalls := positiveOr(a.MaxToolCalls, 4)

	usedTool := false
	totalToolCalls := 0
	for step := 0; step <= maxCalls; step++ {
		choice := any("auto")
		if totalToolCalls >= maxCalls {
			choice = "none"
		}
		assistantMsg, err := a.LLM.ChatWithToolsChoice(ctx, msgs, tools, choice)
		if err != nil {
			return AgentResult{}, err
		}
		if len(assistantMsg.ToolCalls) == 0 {
			return AgentResult{Text: strings.TrimSpace(assistantMsg.Content), UsedTool: usedTool}, nil
		}

		msgs = append(msgs, OpenAIMessage{Role: "assistant", Content: assistantMsg.Content, ToolCalls: assistantMsg.ToolCalls})
		for _, call := range assistantMsg.ToolCalls {
			totalToolCalls++
			// Every tool_call_id must be answered, even past the limit.
			if totalToolCalls > maxCalls {
				msgs = append(msgs, OpenAIMessage{Role: "tool", ToolCallID: call.ID, Content: `{"error":"tool_limit_exceeded"}`})
				continue
			}
			if call.Type != "function" || call.Function.Name != searchPlacesTool {
				msgs = append(msgs, OpenAIMessage{Role: "tool", ToolCallID: call.ID, Content: `{"error":"unsupported_tool"}`})
				continue
			}
			var args searchPlacesArgs
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				log.Debug("malformed tool arguments",
					zap.String("tool_call_id", call.ID), zap.String("arguments", clipString(call.Function.Arguments, 200)), zap.Error(err))
			}
			location := strings.TrimSpace(args.Location)
			if location == "" || a.Search == nil {
				msgs = append(msgs, OpenAIMessage{Role: "tool", ToolCallID: call.ID, Content: `{"error":"invalid_args"}`})
				continue
			}

			res, err := a.Search.Search(ctx, location)
			if err != nil {
				log.Warn("tool search failed", zap.String("location", location), zap.Error(err))
				msgs = append(msgs, OpenAIMessage{Role: "tool", ToolCallID: call.ID, Content: `{"error":"search_failed"}`})
				continue
			}
			usedTool = true
			log.Debug("tool search", zap.String("location", location), zap.String("status", string(res.Status)), zap.Int("count", len(res.Places)))
			msgs = append(msgs, OpenAIMessage{Role: "tool", ToolCallID: call.ID, Content: FormatPlaces(res.Places, location)})
		}
	}

	msgs = append(msgs, OpenAIMessage{Role: models.RoleUser, Content: "Please answer using the information gathered so far."})
	final, err := a.LLM.ChatWithToolsChoice(ctx, msgs, nil, nil)
	if err != nil {
		return AgentResult{}, err
	}
	return AgentResult{Text: strings.TrimSpace(final.Content), UsedTool: usedTool}, nil
}
