package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quickops/qcommerce_backend/config"
	"github.com/stretchr/testify/require"
)

// Scripted model endpoint: first turn asks for a tool, second turn answers.
func TestLLMResponder_ExecutesToolCallsThenReturnsAnswer(t *testing.T) {
	turn := 0
	var sawToolResult bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		turn++
		w.Header().Set("Content-Type", "application/json")
		if turn == 1 {
			require.Equal(t, "system", req.Messages[0].Role)
			require.Len(t, req.Tools, 1)
			_, _ = w.Write([]byte(`{
				"choices": [{"message": {"role": "assistant", "content": "",
					"tool_calls": [{"id": "call_1", "type": "function",
						"function": {"name": "get_low_stock_items", "arguments": "{}"}}]},
					"finish_reason": "tool_calls"}]
			}`))
			return
		}

		for _, m := range req.Messages {
			if m.Role == "tool" && m.ToolCallID == "call_1" {
				sawToolResult = true
				require.Contains(t, m.Content, "2 items at or below reorder level")
			}
		}
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant",
				"content": "Two items need restocking; I recommend immediate orders."},
				"finish_reason": "stop"}]
		}`))
	}))
	defer server.Close()

	executed := false
	tools := []Tool{{
		Name:        "get_low_stock_items",
		Description: "Get items that are low on stock and need restocking.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
		Run: func(ctx context.Context, input string) string {
			executed = true
			return "2 items at or below reorder level:\nPune | Charger | stock=4 | reorder_level=25 | supplier=Supplier_3"
		},
	}}

	r := newLLMResponder("test-key", "gpt-3.5-turbo", tools, config.GetLogger())
	r.endpoint = server.URL

	answer, err := r.Answer(context.Background(), "Which items need urgent restocking?")
	require.NoError(t, err)
	require.True(t, executed, "tool should have been executed")
	require.True(t, sawToolResult, "tool output should be fed back to the model")
	require.Equal(t, "Two items need restocking; I recommend immediate orders.", answer)
}

func TestLLMResponder_SurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	r := newLLMResponder("bad-key", "gpt-3.5-turbo", nil, config.GetLogger())
	r.endpoint = server.URL

	_, err := r.Answer(context.Background(), "anything")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Incorrect API key")
}

func TestLLMResponder_BoundsToolIterations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Always demands another tool call; the loop must give up.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "",
				"tool_calls": [{"id": "call_x", "type": "function",
					"function": {"name": "get_low_stock_items", "arguments": "{}"}}]},
				"finish_reason": "tool_calls"}]
		}`))
	}))
	defer server.Close()

	tools := []Tool{{
		Name:       "get_low_stock_items",
		Parameters: json.RawMessage(`{"type":"object","properties":{}}`),
		Run:        func(ctx context.Context, input string) string { return "ok" },
	}}

	r := newLLMResponder("test-key", "gpt-3.5-turbo", tools, config.GetLogger())
	r.endpoint = server.URL

	_, err := r.Answer(context.Background(), "loop forever")
	require.Error(t, err)
	require.Contains(t, err.Error(), "did not converge")
}
