package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSON is a generic JSONB-backed map, used for opaque per-node configuration
// and layout metadata the engine never interprets structurally.
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan JSON: not a byte slice")
	}
	return json.Unmarshal(bytes, j)
}

// JSONArray is a generic JSONB-backed array column.
type JSONArray []interface{}

func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan JSONArray: not a byte slice")
	}
	return json.Unmarshal(bytes, j)
}

// Execution status constants (spec.md §3).
const (
	ExecutionStatusPending   = "pending"
	ExecutionStatusRunning   = "running"
	ExecutionStatusCompleted = "completed"
	ExecutionStatusFailed    = "failed"
)

// Node progress status constants (spec.md §3).
const (
	NodeStatusPending = "pending"
	NodeStatusRunning = "running"
	NodeStatusSuccess = "success"
	NodeStatusError   = "error"
	NodeStatusSkipped = "skipped"
)

// Node kinds: the closed NodeKind catalog (spec.md §3, §9).
const (
	NodeKindWebhook     = "webhook"
	NodeKindHTTPRequest = "http-request"
	NodeKindCode        = "code"
	NodeKindAIChat      = "ai-chat"
	NodeKindDatabase    = "database"
	NodeKindEmail       = "email"

	// Supplemented kinds (SPEC_FULL additions; still closed at compile time).
	NodeKindCondition = "logic.condition"
	NodeKindSwitch    = "logic.switch"
	NodeKindCrypto    = "logic.crypto"
)

// Credential type constants (spec.md §6.2).
const (
	CredentialTypeOpenAI           = "openai"
	CredentialTypePostgres         = "postgres"
	CredentialTypeGmailOAuth       = "gmail-oauth"
	CredentialTypeGmailOAuthConfig = "gmail-oauth-config"
)
