package nodes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flowcraft-dev/flowcraft/internal/pkg/apperrors"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/httpclient"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

// httpDoer is satisfied by both *http.Client and *httpclient.PooledClient.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPRequestNode issues an outbound HTTP call (spec.md §4.3.2). A non-2xx
// response is not itself a failure: the node always succeeds if the
// request round-trips, returning `ok` for downstream branching. Defaults to
// the pooled, circuit-breaker-wrapped client so repeated calls to the same
// flaky host don't each pay a fresh TLS handshake only to fail again.
type HTTPRequestNode struct {
	Client httpDoer
}

func (n *HTTPRequestNode) Type() string { return "http-request" }

func (n *HTTPRequestNode) Handle(ctx context.Context, execCtx *core.ExecutionContext) (interface{}, error) {
	data := execCtx.Data

	urlStr := core.GetString(data, "url", "")
	if urlStr == "" {
		return nil, apperrors.Validation(execCtx.NodeID, "missing required field: url")
	}

	method := strings.ToUpper(core.GetString(data, "method", "GET"))
	headers := core.GetMap(data, "headers")
	body := data["body"]
	timeout := core.GetInt(data, "timeout", 60)

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	req, err := buildHTTPRequest(reqCtx, method, urlStr, headers, body)
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeNodeIOError, err.Error(), err)
	}

	client := n.Client
	if client == nil {
		client = httpclient.Default()
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeNodeIOError, fmt.Sprintf("request failed: %v", err), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeNodeIOError, fmt.Sprintf("failed to read response: %v", err), err)
	}

	respHeaders := make(map[string]interface{}, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			respHeaders[k] = v[0]
		}
	}

	var parsedBody interface{} = string(respBody)
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var jsonBody interface{}
		if err := json.Unmarshal(respBody, &jsonBody); err == nil {
			parsedBody = jsonBody
		}
	}

	_ = start
	return map[string]interface{}{
		"statusCode": resp.StatusCode,
		"headers":    respHeaders,
		"body":       parsedBody,
		"ok":         resp.StatusCode >= 200 && resp.StatusCode < 300,
	}, nil
}

func buildHTTPRequest(ctx context.Context, method, urlStr string, headers map[string]interface{}, body interface{}) (*http.Request, error) {
	var reqBody io.Reader
	if body != nil && method != http.MethodGet && method != http.MethodHead {
		if s, ok := body.(string); ok {
			reqBody = strings.NewReader(s)
		} else {
			b, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal body: %w", err)
			}
			reqBody = bytes.NewReader(b)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, fmt.Sprintf("%v", v))
	}

	if _, err := url.Parse(urlStr); err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	return req, nil
}
