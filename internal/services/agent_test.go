package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"camper-agent-service/internal/config"
	"camper-agent-service/internal/models"
)

type scriptedLLM struct {
	replies []OpenAIMessage
	err     error
	seen    [][]OpenAIMessage
	choices []any
}

func (s *scriptedLLM) ChatWithToolsChoice(ctx context.Context, messages []OpenAIMessage, tools []OpenAITool, toolChoice any) (OpenAIMessage, error) {
	s.seen = append(s.seen, append([]OpenAIMessage(nil), messages...))
	s.choices = append(s.choices, toolChoice)
	if s.err != nil {
		return OpenAIMessage{}, s.err
	}
	if len(s.replies) == 0 {
		return OpenAIMessage{Role: "assistant", Content: "done"}, nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func toolCall(id, name, args string) ToolCall {
	var c ToolCall
	c.ID = id
	c.Type = "function"
	c.Function.Name = name
	c.Function.Arguments = args
	return c
}

func TestToolAgent_UsesSearchTool(t *testing.T) {
	llm := &scriptedLLM{replies: []OpenAIMessage{
		{Role: "assistant", ToolCalls: []ToolCall{toolCall("c1", searchPlacesTool, `{"location":"Girona"}`)}},
		{Role: "assistant", Content: "  I found Camp X.  "},
	}}
	search := &fakeSearcher{result: SearchResult{Places: []models.Place{{Name: "Camp X", URL: "http://x"}}, Status: StatusCached}}
	a := &ToolAgent{LLM: llm, Search: search, Profile: config.DefaultAgentProfile()}

	res, err := a.Generate(context.Background(), "Places in Girona", nil)
	require.NoError(t, err)
	assert.True(t, res.UsedTool)
	assert.Equal(t, "I found Camp X.", res.Text)
	assert.Equal(t, []string{"Girona"}, search.terms)

	require.Len(t, llm.seen, 2)
	last := llm.seen[1][len(llm.seen[1])-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "c1", last.ToolCallID)
	assert.Equal(t, FormatPlaces(search.result.Places, "Girona"), last.Content)
}

func TestToolAgent_NoToolCall(t *testing.T) {
	llm := &scriptedLLM{replies: []OpenAIMessage{{Role: "assistant", Content: "The first one."}}}
	search := &fakeSearcher{}
	a := &ToolAgent{LLM: llm, Search: search, Profile: config.DefaultAgentProfile()}

	res, err := a.Generate(context.Background(), "which one?", nil)
	require.NoError(t, err)
	assert.False(t, res.UsedTool)
	assert.Equal(t, "The first one.", res.Text)
	assert.Empty(t, search.terms)
}

func TestToolAgent_RejectsUnknownToolAndBadArgs(t *testing.T) {
	llm := &scriptedLLM{replies: []OpenAIMessage{
		{Role: "assistant", ToolCalls: []ToolCall{
			toolCall("c1", "delete_everything", `{}`),
			toolCall("c2", searchPlacesTool, `{"location":""}`),
		}},
		{Role: "assistant", Content: "Sorry."},
	}}
	search := &fakeSearcher{}
	a := &ToolAgent{LLM: llm, Search: search, Profile: config.DefaultAgentProfile()}

	res, err := a.Generate(context.Background(), "Places in Girona", nil)
	require.NoError(t, err)
	assert.False(t, res.UsedTool)
	assert.Empty(t, search.terms)

	msgs := llm.seen[1]
	assert.Equal(t, `{"error":"unsupported_tool"}`, msgs[len(msgs)-2].Content)
	assert.Equal(t, `{"error":"invalid_args"}`, msgs[len(msgs)-1].Content)
}

func TestToolAgent_ToolLimit(t *testing.T) {
	loop := OpenAIMessage{Role: "assistant", ToolCalls: []ToolCall{toolCall("c", searchPlacesTool, `{"location":"Vic"}`)}}
	llm := &scriptedLLM{replies: []OpenAIMessage{loop, loop, loop, loop, loop}}
	search := &fakeSearcher{result: SearchResult{Places: []models.Place{}, Status: StatusNoMatch}}
	a := &ToolAgent{LLM: llm, Search: search, Profile: config.DefaultAgentProfile(), MaxToolCalls: 2}

	res, err := a.Generate(context.Background(), "Places in Vic", nil)
	require.NoError(t, err)
	assert.True(t, res.UsedTool)
	assert.Len(t, search.terms, 2)
	assert.Equal(t, "none", llm.choices[2])
}

func TestToolAgent_HistoryIsTrimmedAndFiltered(t *testing.T) {
	llm := &scriptedLLM{}
	a := &ToolAgent{LLM: llm, Profile: config.DefaultAgentProfile(), HistoryLimit: 2}
	history := []models.ChatTurn{
		{Role: "user", Content: "old"},
		{Role: "assistant", Content: "older answer"},
		{Role: "user", Content: "Places in Girona"},
		{Role: "assistant", Content: "1. Camp X"},
	}

	_, err := a.Generate(context.Background(), "which one?", history)
	require.NoError(t, err)
	msgs := llm.seen[0]
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "Places in Girona", msgs[1].Content)
	assert.Equal(t, "1. Camp X", msgs[2].Content)
	assert.Equal(t, "which one?", msgs[3].Content)
}

func TestToolAgent_LLMError(t *testing.T) {
	a := &ToolAgent{LLM: &scriptedLLM{err: errors.New("401")}, Profile: config.DefaultAgentProfile()}

	_, err := a.Generate(context.Background(), "Places in Girona", nil)
	assert.Error(t, err)
}

func TestToolAgent_LogsMalformedToolArguments(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	llm := &scriptedLLM{replies: []OpenAIMessage{
		{Role: "assistant", ToolCalls: []ToolCall{toolCall("c9", searchPlacesTool, `{"location": "Gir`)}},
		{Role: "assistant", Content: "Sorry."},
	}}
	search := &fakeSearcher{}
	a := &ToolAgent{LLM: llm, Search: search, Profile: config.DefaultAgentProfile(), Logger: zap.New(core)}

	_, err := a.Generate(context.Background(), "Places in Girona", nil)
	require.NoError(t, err)
	assert.Empty(t, search.terms)

	msgs := llm.seen[1]
	assert.Equal(t, `{"error":"invalid_args"}`, msgs[len(msgs)-1].Content)

	entries := logs.FilterMessage("malformed tool arguments").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "c9", fields["tool_call_id"])
	assert.Equal(t, `{"location": "Gir`, fields["arguments"])
	assert.NotEmpty(t, fields["error"])
}

func TestToolAgent_HistoryClipKeepsRunesWhole(t *testing.T) {
	llm := &scriptedLLM{}
	a := &ToolAgent{LLM: llm, Profile: config.DefaultAgentProfile()}
	long := strings.Repeat("à", 1200)

	_, err := a.Generate(context.Background(), "which one?", []models.ChatTurn{{Role: "assistant", Content: long}})
	require.NoError(t, err)
	clipped := llm.seen[0][1].Content
	assert.True(t, utf8.ValidString(clipped))
	assert.Equal(t, 1000, utf8.RuneCountInString(clipped))
}
