package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AgentProfile holds the language-model side of the assistant.
type AgentProfile struct {
	Name            string `yaml:"name"`
	Instructions    string `yaml:"instructions"`
	ToolDescription string `yaml:"tool_description"`
	Apology         string `yaml:"apology"`
}

func DefaultAgentProfile() AgentProfile {
	return AgentProfile{
		Name: "camperAgent",
		Instructions: `You are a travel assistant for campervan and motorhome owners.
Never invent places. Place data must come only from the search_places tool.
When the user asks for places to park, camp or sleep anywhere, call search_places with the location.
If the tool returns places, show them. If it returns nothing, say so honestly.
For follow-up questions about places already shown, answer from the conversation without calling the tool.`,
		ToolDescription: "Search campsites and overnight parking spots near a free-text location (town, region or area).",
		Apology:         "Sorry, I couldn't reach the assistant right now.",
	}
}

// LoadAgentProfile returns the default profile, overridden by the non-empty
// fields of the YAML file at path. An empty path yields the defaults.
func LoadAgentProfile(path string) (AgentProfile, error) {
	p := DefaultAgentProfile()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return AgentProfile{}, fmt.Errorf("read agent profile: %w", err)
	}
	var f AgentProfile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return AgentProfile{}, fmt.Errorf("parse agent profile %s: %w", path, err)
	}
	if s := strings.TrimSpace(f.Name); s != "" {
		p.Name = s
	}
	if s := strings.TrimSpace(f.Instructions); s != "" {
		p.Instructions = s
	}
	if s := strings.TrimSpace(f.ToolDescription); s != "" {
		p.ToolDescription = s
	}
	if s := strings.TrimSpace(f.Apology); s != "" {
		p.Apology = s
	}
	return p, nil
}
