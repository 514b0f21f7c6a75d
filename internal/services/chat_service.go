package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"camper-agent-service/internal/logger"
	"camper-agent-service/internal/models"
)

const defaultApology = "Sorry, I couldn't reach the assistant right now."

const mockAnswer = "(mock) I am running without a language model."

// ChatService answers a chat message with the agent and, when the agent did
// not search itself and the message asks for a new location, appends a
// search of its own.
type ChatService struct {
	MockMode bool
	Agent    Agent
	Search   Searcher
	Apology  string
	Logger   *zap.Logger

	now func() time.Time
}

func validateRequest(req models.ChatRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("%w: field \"message\" is required and must be a non-empty string", ErrInvalidInput)
	}
	for i, t := range req.History {
		if t.Role != models.RoleUser && t.Role != models.RoleAssistant {
			return fmt.Errorf("%w: history[%d].role must be %q or %q", ErrInvalidInput, i, models.RoleUser, models.RoleAssistant)
		}
	}
	return nil
}

func (c *ChatService) apology() string {
	if s := strings.TrimSpace(c.Apology); s != "" {
		return s
	}
	return defaultApology
}

func (c *ChatService) timestamp() time.Time {
	if c.now != nil {
		return c.now().UTC()
	}
	return time.Now().UTC()
}

func (c *ChatService) generate(ctx context.Context, req models.ChatRequest) AgentResult {
	log := logger.OrNop(c.Logger)
	if c.MockMode || c.Agent == nil {
		agentRequests.WithLabelValues("mock").Inc()
		return AgentResult{Text: mockAnswer}
	}
	res, err := c.Agent.Generate(ctx, req.Message, req.History)
	if err != nil {
		agentRequests.WithLabelValues("error").Inc()
		log.Error("agent failed, using apology", zap.Error(err))
		return AgentResult{Text: c.apology()}
	}
	if res.UsedTool {
		agentRequests.WithLabelValues("tool").Inc()
	} else {
		agentRequests.WithLabelValues("ok").Inc()
	}
	return res
}

func (c *ChatService) Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	if err := validateRequest(req); err != nil {
		return models.ChatResponse{}, err
	}
	log := logger.OrNop(c.Logger)

	res := c.generate(ctx, req)
	answer := res.Text
	if res.UsedTool {
		return models.ChatResponse{Response: answer, Timestamp: c.timestamp()}, nil
	}

	newSearch, err := IsNewSearch(req.Message)
	if err != nil {
		return models.ChatResponse{}, err
	}
	if !newSearch || c.Search == nil {
		log.Debug("no fallback search", zap.Bool("new_search", newSearch))
		return models.ChatResponse{Response: answer, Timestamp: c.timestamp()}, nil
	}

	term := ExtractKeywords(req.Message)
	result, err := c.Search.Search(ctx, term)
	if err != nil {
		return models.ChatResponse{}, err
	}
	log.Info("fallback search",
		zap.String("term", term), zap.String("status", string(result.Status)), zap.Int("count", len(result.Places)))

	block := FormatPlaces(result.Places, term)
	if strings.TrimSpace(answer) != "" {
		answer = strings.TrimSpace(answer) + "\n\n" + block
	} else {
		answer = block
	}
	return models.ChatResponse{Response: answer, Timestamp: c.timestamp()}, nil
}
