package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	openAIEndpoint = "https://api.openai.com/v1/chat/completions"

	// Bound on reasoning-loop round trips so one query cannot spin forever.
	maxToolIterations = 6
)

const systemPrompt = `You are an intelligent operations manager for a quick commerce company.
Your role is to analyze data, make decisions, and take actions to optimize inventory allocation and operations.

Guidelines:
1. Always analyze data before making decisions
2. Provide specific, actionable recommendations
3. Consider city performance, stock levels, and demand patterns
4. Take autonomous actions when appropriate (allocate inventory, trigger restocks, send alerts)
5. Explain your reasoning clearly`

// llmResponder routes a query through a hosted-model tool loop. The model
// sees tool names, descriptions and parameter schemas; tool outputs are fed
// back until it produces a final answer.
type llmResponder struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	tools    []Tool
	logger   *logrus.Logger
}

func newLLMResponder(apiKey string, model string, tools []Tool, logger *logrus.Logger) *llmResponder {
	return &llmResponder{
		apiKey:   apiKey,
		model:    model,
		endpoint: openAIEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
		tools:    tools,
		logger:   logger,
	}
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
}

type chatTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (r *llmResponder) Answer(ctx context.Context, query string) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: query},
	}

	toolDefs := make([]chatTool, 0, len(r.tools))
	byName := make(map[string]Tool, len(r.tools))
	for _, t := range r.tools {
		var def chatTool
		def.Type = "function"
		def.Function.Name = t.Name
		def.Function.Description = t.Description
		def.Function.Parameters = t.Parameters
		toolDefs = append(toolDefs, def)
		byName[t.Name] = t
	}

	for i := 0; i < maxToolIterations; i++ {
		reply, err := r.call(ctx, chatRequest{
			Model:       r.model,
			Temperature: 0.1,
			Messages:    messages,
			Tools:       toolDefs,
		})
		if err != nil {
			return "", err
		}

		if len(reply.ToolCalls) == 0 {
			return reply.Content, nil
		}

		messages = append(messages, *reply)
		for _, call := range reply.ToolCalls {
			tool, ok := byName[call.Function.Name]
			var output string
			if !ok {
				output = fmt.Sprintf("unknown tool: %s", call.Function.Name)
			} else {
				r.logger.WithFields(logrus.Fields{
					"tool": call.Function.Name,
					"args": call.Function.Arguments,
				}).Info("executing tool call")
				output = tool.Run(ctx, call.Function.Arguments)
			}
			messages = append(messages, chatMessage{
				Role:       "tool",
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("query did not converge after %d tool iterations", maxToolIterations)
}

func (r *llmResponder) call(ctx context.Context, reqBody chatRequest) (*chatMessage, error) {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model API error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("model API read error: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("model API returned unparseable response (status %d)", resp.StatusCode)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("model API error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("model API returned status %d with no choices", resp.StatusCode)
	}

	return &parsed.Choices[0].Message, nil
}
