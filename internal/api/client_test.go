package api

import (
	"encoding/json"
	"testing"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewClient(ClientConfig{})
	if err == nil {
		t.Fatal("Expected error when no API key is configured")
	}
}

func TestNewClient_DefaultModel(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Model() == "" {
		t.Error("Expected a default model to be set")
	}
}

func TestToMessageParams_RolesAndOrder(t *testing.T) {
	messages := []Message{
		UserMessage("first question"),
		{
			Role: RoleAssistant,
			Text: "let me check",
			ToolCalls: []ToolCall{
				{ID: "call-1", Name: "web_search", Input: json.RawMessage(`{"query":"q"}`)},
			},
		},
		{
			Role: RoleUser,
			ToolResults: []ToolResult{
				{ToolCallID: "call-1", Content: "results here"},
			},
		},
	}

	params := toMessageParams(messages)
	if len(params) != 3 {
		t.Fatalf("Expected 3 message params, got %d", len(params))
	}
	if params[0].Role != "user" {
		t.Errorf("Param 0 role = %q, want user", params[0].Role)
	}
	if params[1].Role != "assistant" {
		t.Errorf("Param 1 role = %q, want assistant", params[1].Role)
	}
	if params[2].Role != "user" {
		t.Errorf("Param 2 role = %q, want user", params[2].Role)
	}
}

func TestToMessageParams_SkipsEmptyMessages(t *testing.T) {
	params := toMessageParams([]Message{{Role: RoleUser}})
	if len(params) != 0 {
		t.Errorf("Expected empty message to be dropped, got %d params", len(params))
	}
}

func TestToToolParams(t *testing.T) {
	specs := []ToolSpec{
		{
			Name:        "fetch_page",
			Description: "Fetch a page",
			Properties: map[string]interface{}{
				"url": map[string]interface{}{"type": "string"},
			},
			Required: []string{"url"},
		},
	}

	params := toToolParams(specs)
	if len(params) != 1 {
		t.Fatalf("Expected 1 tool param, got %d", len(params))
	}
	if params[0].OfTool == nil {
		t.Fatal("Expected OfTool to be set")
	}
	if params[0].OfTool.Name != "fetch_page" {
		t.Errorf("Tool name = %q, want fetch_page", params[0].OfTool.Name)
	}
	if len(params[0].OfTool.InputSchema.Required) != 1 {
		t.Errorf("Expected 1 required property, got %d", len(params[0].OfTool.InputSchema.Required))
	}
}

func TestTokenTracker(t *testing.T) {
	tracker := NewTokenTracker()
	tracker.Add(100, 50)
	tracker.Add(200, 75)

	in, out := tracker.Total()
	if in != 300 || out != 125 {
		t.Errorf("Total = (%d, %d), want (300, 125)", in, out)
	}
	if tracker.Calls() != 2 {
		t.Errorf("Calls = %d, want 2", tracker.Calls())
	}
}
