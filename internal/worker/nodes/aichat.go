package nodes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flowcraft-dev/flowcraft/internal/pkg/apperrors"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

const anthropicVersion = "2023-06-01"

// AIChatNode calls a chat-completions provider (spec.md §4.3.4), posting the
// literal `{model, max_tokens, system?, messages}` shape of Anthropic's
// Messages API — grounded on the teacher's
// nodes/integrations/anthropic.go, narrowed to the single
// prompt/systemPrompt input this node's contract allows. The provider
// endpoint/model/api key come from process configuration, not a node
// field, since spec.md scopes credential sourcing to configuration rather
// than a stored Credential for this kind.
type AIChatNode struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func (n *AIChatNode) Type() string { return "ai-chat" }

func (n *AIChatNode) Handle(ctx context.Context, execCtx *core.ExecutionContext) (interface{}, error) {
	data := execCtx.Data
	prompt := core.GetString(data, "prompt", "")
	systemPrompt := core.GetString(data, "systemPrompt", "")
	if prompt == "" && systemPrompt == "" {
		return nil, apperrors.Validation(execCtx.NodeID, "at least one of prompt, systemPrompt is required")
	}

	if n.APIKey == "" {
		return nil, apperrors.Handler(apperrors.CodeConfigMissing, "no ai-chat provider credential configured", nil)
	}

	model := core.GetString(data, "model", n.Model)

	payload := map[string]interface{}{
		"model":      model,
		"max_tokens": 2048,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	if systemPrompt != "" {
		payload["system"] = systemPrompt
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Internal("failed to marshal ai-chat payload", err)
	}

	baseURL := n.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Internal("failed to build ai-chat request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", n.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	client := n.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeUpstreamError, err.Error(), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeUpstreamError, err.Error(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Handler(apperrors.CodeUpstreamError,
			fmt.Sprintf("upstream status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var parsed struct {
		Model   string `json:"model"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Usage interface{} `json:"usage"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, apperrors.Handler(apperrors.CodeUpstreamError, "malformed provider response", err)
	}

	text := ""
	if len(parsed.Content) > 0 {
		text = parsed.Content[0].Text
	}

	return map[string]interface{}{
		"text":  text,
		"model": parsed.Model,
		"usage": parsed.Usage,
	}, nil
}
