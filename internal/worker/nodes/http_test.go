package nodes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

func TestHTTPRequestNode_SuccessReturnsParsedJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := &HTTPRequestNode{Client: server.Client()}
	execCtx := &core.ExecutionContext{
		NodeID: "A",
		Data:   map[string]interface{}{"url": server.URL, "method": "GET"},
	}

	res, err := n.Handle(context.Background(), execCtx)
	require.NoError(t, err)
	out, ok := res.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, http.StatusOK, out["statusCode"])
	body, ok := out["body"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, body["ok"])
}

func TestHTTPRequestNode_NonSuccessStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	n := &HTTPRequestNode{Client: server.Client()}
	execCtx := &core.ExecutionContext{
		NodeID: "A",
		Data:   map[string]interface{}{"url": server.URL, "method": "GET"},
	}

	res, err := n.Handle(context.Background(), execCtx)
	require.NoError(t, err)
	out, ok := res.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, out["ok"])
	assert.Equal(t, http.StatusInternalServerError, out["statusCode"])
}

func TestHTTPRequestNode_MissingURLIsValidationError(t *testing.T) {
	n := &HTTPRequestNode{}
	execCtx := &core.ExecutionContext{NodeID: "A", Data: map[string]interface{}{}}

	_, err := n.Handle(context.Background(), execCtx)
	require.Error(t, err)
}
