package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/pkg/apperrors"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

func TestEmailNode_MissingToIsValidationError(t *testing.T) {
	n := &EmailNode{}
	_, err := n.Handle(context.Background(), &core.ExecutionContext{
		NodeID: "E",
		Data:   map[string]interface{}{"subject": "hi"},
	})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
}

func TestEmailNode_SMTPFallback_MissingConfigIsConfigMissing(t *testing.T) {
	n := &EmailNode{}
	_, err := n.Handle(context.Background(), &core.ExecutionContext{
		NodeID: "E",
		Data:   map[string]interface{}{"to": "a@example.com"},
	})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConfigMissing, appErr.Code)
}

func TestEmailNode_GmailPath_InvalidCredentialID(t *testing.T) {
	n := &EmailNode{}
	_, err := n.Handle(context.Background(), &core.ExecutionContext{
		NodeID: "E",
		Data: map[string]interface{}{
			"to":           "a@example.com",
			"credentialId": "not-a-uuid",
		},
	})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
}

func TestBuildPlainTextEmail(t *testing.T) {
	msg := buildPlainTextEmail("from@x.com", "to@x.com", "", "", "Subject", "body text")
	s := string(msg)
	assert.Contains(t, s, "From: from@x.com")
	assert.Contains(t, s, "Subject: Subject")
	assert.Contains(t, s, "body text")
}

func TestBuildHTMLEmail(t *testing.T) {
	msg := buildHTMLEmail("from@x.com", "to@x.com", "", "", "Subject", "plain", "<b>html</b>")
	s := string(msg)
	assert.Contains(t, s, "multipart/alternative")
	assert.Contains(t, s, "<b>html</b>")
	assert.Contains(t, s, "plain")
}

func TestParseEmails(t *testing.T) {
	got := parseEmails("a@x.com, b@x.com ,, c@x.com")
	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com"}, got)
}
